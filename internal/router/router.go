package router

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/BerylCAtieno/lexdoc-api/internal/auth"
	"github.com/BerylCAtieno/lexdoc-api/internal/handlers"
	"github.com/BerylCAtieno/lexdoc-api/internal/middleware"
	"github.com/BerylCAtieno/lexdoc-api/internal/services"
	"github.com/BerylCAtieno/lexdoc-api/internal/utils"
)

type Options struct {
	CORSOrigin  string
	MaxFileSize int64
	Version     string
}

func NewRouter(svc *services.Services, verifier auth.TokenVerifier, opts Options, logger *utils.Logger) http.Handler {
	r := mux.NewRouter()

	// Middlewares
	chain := []mux.MiddlewareFunc{
		middleware.Recovery(logger),
		middleware.Logger(logger),
		middleware.Metrics(),
		middleware.CORS(opts.CORSOrigin),
	}
	r.Use(chain...)

	// mux skips middleware for requests no route matches. Preflights land
	// here too and are answered by CORS.
	r.NotFoundHandler = wrap(middleware.NotFound(), chain)
	r.MethodNotAllowedHandler = wrap(middleware.MethodNotAllowed(), chain)

	meta := handlers.NewMetaHandler(opts.Version, logger)
	userHandler := handlers.NewUserHandler(svc.Users, logger)
	caseHandler := handlers.NewCaseHandler(svc.Cases, logger)
	docHandler := handlers.NewDocumentHandler(svc.Documents, opts.MaxFileSize, logger)
	purchaseHandler := handlers.NewPurchaseHandler(svc.Purchases, logger)
	filingHandler := handlers.NewFilingHandler(svc.Filings, logger)

	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()

	// Public endpoints
	api.HandleFunc("/health", meta.Health).Methods(http.MethodGet)
	api.HandleFunc("/templates", meta.ListTemplates).Methods(http.MethodGet)
	api.HandleFunc("/webhooks/stripe", purchaseHandler.StripeWebhook).Methods(http.MethodPost)

	// Authenticated endpoints
	authed := api.NewRoute().Subrouter()
	authed.Use(middleware.Auth(verifier, svc.Users, logger))

	authed.HandleFunc("/me", userHandler.GetMe).Methods(http.MethodGet)
	authed.HandleFunc("/me", userHandler.UpdateMe).Methods(http.MethodPatch)

	authed.HandleFunc("/cases", caseHandler.CreateCase).Methods(http.MethodPost)
	authed.HandleFunc("/cases", caseHandler.ListCases).Methods(http.MethodGet)
	authed.HandleFunc("/cases/{id}", caseHandler.GetCase).Methods(http.MethodGet)
	authed.HandleFunc("/cases/{id}", caseHandler.UpdateCase).Methods(http.MethodPatch)
	authed.HandleFunc("/cases/{id}", caseHandler.DeleteCase).Methods(http.MethodDelete)
	authed.HandleFunc("/cases/{id}/analyze", caseHandler.AnalyzeCase).Methods(http.MethodPost)
	authed.HandleFunc("/cases/{id}/claim", caseHandler.GetClaim).Methods(http.MethodGet)
	authed.HandleFunc("/cases/{id}/assessment", caseHandler.AssessTutela).Methods(http.MethodPost)

	authed.HandleFunc("/cases/{id}/documents", docHandler.UploadDocument).Methods(http.MethodPost)
	authed.HandleFunc("/cases/{id}/documents", docHandler.ListDocuments).Methods(http.MethodGet)
	authed.HandleFunc("/documents/{id}", docHandler.GetDocument).Methods(http.MethodGet)
	authed.HandleFunc("/documents/{id}", docHandler.DeleteDocument).Methods(http.MethodDelete)
	authed.HandleFunc("/documents/{id}/analyze", docHandler.AnalyzeDocument).Methods(http.MethodPost)

	authed.HandleFunc("/cases/{id}/checkout", purchaseHandler.Checkout).Methods(http.MethodPost)
	authed.HandleFunc("/purchases", purchaseHandler.ListPurchases).Methods(http.MethodGet)

	authed.HandleFunc("/cases/{id}/filings", filingHandler.GenerateFiling).Methods(http.MethodPost)
	authed.HandleFunc("/cases/{id}/filings", filingHandler.ListFilings).Methods(http.MethodGet)
	authed.HandleFunc("/filings/{id}/download", filingHandler.DownloadFiling).Methods(http.MethodGet)

	return r
}

func wrap(h http.Handler, chain []mux.MiddlewareFunc) http.Handler {
	for i := len(chain) - 1; i >= 0; i-- {
		h = chain[i](h)
	}
	return h
}
