package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BerylCAtieno/lexdoc-api/internal/analyzer"
	"github.com/BerylCAtieno/lexdoc-api/internal/auth"
	"github.com/BerylCAtieno/lexdoc-api/internal/db"
	"github.com/BerylCAtieno/lexdoc-api/internal/models"
	"github.com/BerylCAtieno/lexdoc-api/internal/payments"
	"github.com/BerylCAtieno/lexdoc-api/internal/repository"
	"github.com/BerylCAtieno/lexdoc-api/internal/services"
	"github.com/BerylCAtieno/lexdoc-api/internal/storage"
	"github.com/BerylCAtieno/lexdoc-api/internal/utils"
)

type stubVerifier struct{}

func (stubVerifier) Verify(_ context.Context, token string) (*models.Principal, error) {
	uid, ok := strings.CutPrefix(token, "tok-")
	if !ok {
		return nil, auth.ErrInvalidToken
	}
	return &models.Principal{UID: uid, Email: uid + "@example.com"}, nil
}

// stubAnalyzer reads every document as a 1000 EUR invoice and cannot draft,
// so filings come from the fallback template.
type stubAnalyzer struct{}

func (stubAnalyzer) ExtractFacts(context.Context, string) (*models.DocumentFacts, error) {
	return &models.DocumentFacts{
		Kind:      models.KindInvoice,
		Number:    "F-9",
		IssueDate: "2026-01-10",
		Amount:    decimal.NewNullDecimal(decimal.NewFromInt(1000)),
		Currency:  "EUR",
	}, nil
}

func (stubAnalyzer) OCRImage(context.Context, []byte, string) (string, error) {
	return "", errors.New("no vision model")
}

func (stubAnalyzer) DraftFiling(context.Context, *analyzer.DraftInput) (*models.FilingDraft, error) {
	return nil, fmt.Errorf("%w: no sections", analyzer.ErrInvalidResponse)
}

func (stubAnalyzer) AssessTutela(context.Context, *analyzer.TutelaInput) (*analyzer.TutelaOpinion, error) {
	return nil, errors.New("unavailable")
}

// stubPayments accepts webhooks signed "valid" whose body names the purchase.
type stubPayments struct{}

func (stubPayments) CreateCheckout(_ context.Context, req *payments.CheckoutRequest) (*payments.CheckoutSession, error) {
	return &payments.CheckoutSession{ID: "cs_" + req.PurchaseID, URL: "https://checkout.stripe.com/c/pay/cs_" + req.PurchaseID}, nil
}

func (stubPayments) ParseWebhook(payload []byte, signature string) (*payments.WebhookEvent, error) {
	if signature != "valid" {
		return nil, payments.ErrInvalidSignature
	}
	var body struct {
		PurchaseID string `json:"purchase_id"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, err
	}
	return &payments.WebhookEvent{
		ID: "evt_1", Kind: payments.EventPaid, StripeType: "checkout.session.completed",
		SessionID: "cs_" + body.PurchaseID, PurchaseID: body.PurchaseID,
	}, nil
}

func newTestServer(t *testing.T, maxFileSize int64) *httptest.Server {
	t.Helper()
	path := filepath.Join(t.TempDir(), "api.db")
	require.NoError(t, db.RunMigrations(path))
	conn, err := db.NewSQLiteDB(path)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	logger := utils.NewNopLogger()
	svc := services.New(services.Dependencies{
		Repo:     repository.NewRepository(conn),
		Storage:  storage.NewMemoryStorage(),
		Analyzer: stubAnalyzer{},
		Payments: stubPayments{},
		Settings: services.Settings{
			InterestRateES:     decimal.RequireFromString("3.25"),
			SMMLV:              decimal.RequireFromString("1423500"),
			AnalyzeConcurrency: 2,
		},
		Logger: logger,
	})

	srv := httptest.NewServer(NewRouter(svc, stubVerifier{}, Options{
		CORSOrigin:  "*",
		MaxFileSize: maxFileSize,
		Version:     "test",
	}, logger))
	t.Cleanup(srv.Close)
	return srv
}

type client struct {
	t     *testing.T
	base  string
	token string
}

func (c *client) do(method, path string, body io.Reader, contentType string) *http.Response {
	c.t.Helper()
	req, err := http.NewRequest(method, c.base+path, body)
	require.NoError(c.t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(c.t, err)
	c.t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (c *client) json(method, path string, in any, out any) int {
	c.t.Helper()
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		require.NoError(c.t, err)
		body = bytes.NewReader(data)
	}
	resp := c.do(method, path, body, "application/json")
	if out != nil {
		require.NoError(c.t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (c *client) upload(caseID, filename string, data []byte) *http.Response {
	c.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(c.t, err)
	_, err = fw.Write(data)
	require.NoError(c.t, err)
	require.NoError(c.t, mw.Close())
	return c.do(http.MethodPost, "/api/v1/cases/"+caseID+"/documents", &buf, mw.FormDataContentType())
}

var spanishClaim = map[string]any{
	"template_key": "es_reclamacion_cantidades",
	"title":        "Factura impagada",
	"claimant":     map[string]string{"name": "Talleres Ruiz SL"},
	"respondent":   map[string]string{"name": "Construcciones Norte SA"},
	"facts":        "Servicio prestado y no pagado.",
	"city":         "Valladolid",
}

func TestPublicEndpoints(t *testing.T) {
	srv := newTestServer(t, 1<<20)
	anon := &client{t: t, base: srv.URL}

	var health map[string]string
	assert.Equal(t, http.StatusOK, anon.json(http.MethodGet, "/api/v1/health", nil, &health))
	assert.Equal(t, "healthy", health["status"])

	var templates []map[string]any
	assert.Equal(t, http.StatusOK, anon.json(http.MethodGet, "/api/v1/templates", nil, &templates))
	assert.Len(t, templates, 3)

	var errBody map[string]string
	assert.Equal(t, http.StatusUnauthorized, anon.json(http.MethodGet, "/api/v1/cases", nil, &errBody))
	assert.Equal(t, "Missing bearer token", errBody["error"])

	bad := &client{t: t, base: srv.URL, token: "forged"}
	assert.Equal(t, http.StatusUnauthorized, bad.json(http.MethodGet, "/api/v1/me", nil, nil))

	preflight := anon.do(http.MethodOptions, "/api/v1/cases", nil, "")
	assert.Equal(t, http.StatusNoContent, preflight.StatusCode)
	assert.Equal(t, "*", preflight.Header.Get("Access-Control-Allow-Origin"))
}

func TestUnmatchedRequests(t *testing.T) {
	srv := newTestServer(t, 1<<20)
	anon := &client{t: t, base: srv.URL}

	var errBody map[string]string
	assert.Equal(t, http.StatusNotFound, anon.json(http.MethodGet, "/api/v1/nope", nil, &errBody))
	assert.Equal(t, "Route not found", errBody["error"])

	resp := anon.do(http.MethodPut, "/api/v1/health", nil, "")
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))

	preflight := anon.do(http.MethodOptions, "/api/v1/nope", nil, "")
	assert.Equal(t, http.StatusNoContent, preflight.StatusCode)

	metrics := anon.do(http.MethodGet, "/metrics", nil, "")
	body, err := io.ReadAll(metrics.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `method="GET",route="unmatched",status="404"`)
	assert.Contains(t, string(body), `method="PUT",route="unmatched",status="405"`)
}

func TestProfile(t *testing.T) {
	srv := newTestServer(t, 1<<20)
	c := &client{t: t, base: srv.URL, token: "tok-u1"}

	var me models.User
	require.Equal(t, http.StatusOK, c.json(http.MethodGet, "/api/v1/me", nil, &me))
	assert.Equal(t, "u1@example.com", me.Email)
	assert.Equal(t, models.RoleIndividual, me.Role)

	var errBody map[string]string
	status := c.json(http.MethodPatch, "/api/v1/me", map[string]string{"role": "lawyer"}, &errBody)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, errBody["error"], "bar_number")

	status = c.json(http.MethodPatch, "/api/v1/me", map[string]string{"role": "lawyer", "bar_number": "4821"}, &me)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "4821", me.BarNumber)

	status = c.json(http.MethodPatch, "/api/v1/me", map[string]string{"favourite_color": "blue"}, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestClaimToFilingFlow(t *testing.T) {
	srv := newTestServer(t, 1<<20)
	c := &client{t: t, base: srv.URL, token: "tok-u1"}

	var created models.Case
	require.Equal(t, http.StatusCreated, c.json(http.MethodPost, "/api/v1/cases", spanishClaim, &created))
	assert.Equal(t, models.JurisdictionSpain, created.Jurisdiction)
	casePath := "/api/v1/cases/" + created.ID

	resp := c.upload(created.ID, "factura.txt", []byte("FACTURA F-9\nTotal: 1.000,00 €"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var uploaded models.UploadResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&uploaded))
	assert.Equal(t, "text/plain", uploaded.ContentType)

	var analysis models.CaseAnalysisResponse
	require.Equal(t, http.StatusOK, c.json(http.MethodPost, casePath+"/analyze", nil, &analysis))
	require.Len(t, analysis.Analyzed, 1)
	assert.Empty(t, analysis.Failed)

	var claim models.ClaimResponse
	require.Equal(t, http.StatusOK, c.json(http.MethodGet, casePath+"/claim", nil, &claim))
	assert.Equal(t, models.TrackMonitorio, claim.Procedure.Track)
	assert.True(t, claim.Claim.Principal.Equal(decimal.NewFromInt(1000)))

	var errBody map[string]string
	assert.Equal(t, http.StatusPaymentRequired, c.json(http.MethodPost, casePath+"/filings", nil, &errBody))

	var checkout models.CheckoutResponse
	require.Equal(t, http.StatusCreated, c.json(http.MethodPost, casePath+"/checkout", nil, &checkout))
	assert.Equal(t, "cs_"+checkout.PurchaseID, checkout.SessionID)

	webhook := func(signature string) int {
		req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/v1/webhooks/stripe",
			strings.NewReader(`{"purchase_id":"`+checkout.PurchaseID+`"}`))
		require.NoError(t, err)
		req.Header.Set("Stripe-Signature", signature)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		return resp.StatusCode
	}
	assert.Equal(t, http.StatusBadRequest, webhook("forged"))
	assert.Equal(t, http.StatusOK, webhook("valid"))

	var purchases []models.Purchase
	require.Equal(t, http.StatusOK, c.json(http.MethodGet, "/api/v1/purchases", nil, &purchases))
	require.Len(t, purchases, 1)
	assert.Equal(t, models.PurchasePaid, purchases[0].Status)

	var filing models.Filing
	require.Equal(t, http.StatusCreated, c.json(http.MethodPost, casePath+"/filings?format=docx", nil, &filing))
	assert.True(t, filing.UsedFallback)
	assert.Equal(t, models.FormatDOCX, filing.Format)

	dl := c.do(http.MethodGet, "/api/v1/filings/"+filing.ID+"/download", nil, "")
	require.Equal(t, http.StatusOK, dl.StatusCode)
	assert.Equal(t, models.FormatDOCX.ContentType(), dl.Header.Get("Content-Type"))
	assert.Contains(t, dl.Header.Get("Content-Disposition"), filing.Filename)
	data, err := io.ReadAll(dl.Body)
	require.NoError(t, err)
	assert.Equal(t, filing.FileSize, int64(len(data)))

	var filings []models.Filing
	require.Equal(t, http.StatusOK, c.json(http.MethodGet, casePath+"/filings", nil, &filings))
	assert.Len(t, filings, 1)

	var got models.Case
	require.Equal(t, http.StatusOK, c.json(http.MethodGet, casePath, nil, &got))
	assert.Equal(t, models.CaseGenerated, got.Status)

	// Another account sees none of it.
	other := &client{t: t, base: srv.URL, token: "tok-u2"}
	assert.Equal(t, http.StatusNotFound, other.json(http.MethodGet, casePath, nil, nil))
	assert.Equal(t, http.StatusNotFound, other.do(http.MethodGet, "/api/v1/filings/"+filing.ID+"/download", nil, "").StatusCode)

	metrics := c.do(http.MethodGet, "/metrics", nil, "")
	body, err := io.ReadAll(metrics.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `route="/api/v1/cases/{id}/documents"`)
	assert.Contains(t, string(body), "lexdoc_filings_generated_total")
}

func TestStripeWebhook_OversizedPayload(t *testing.T) {
	srv := newTestServer(t, 1<<20)

	payload := `{"purchase_id": "` + strings.Repeat("x", 70_000) + `"}`
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/v1/webhooks/stripe", strings.NewReader(payload))
	require.NoError(t, err)
	req.Header.Set("Stripe-Signature", "valid")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
	var errBody map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&errBody))
	assert.Equal(t, "Webhook payload too large", errBody["error"])
}

func TestUploadRejects(t *testing.T) {
	srv := newTestServer(t, 1<<10)
	c := &client{t: t, base: srv.URL, token: "tok-u1"}

	var created models.Case
	require.Equal(t, http.StatusCreated, c.json(http.MethodPost, "/api/v1/cases", spanishClaim, &created))

	tests := []struct {
		name     string
		filename string
		data     []byte
		message  string
	}{
		{"unsupported type", "setup.exe", []byte("MZ"), "Only PDF"},
		{"too large", "big.txt", bytes.Repeat([]byte("a"), 4<<10), "exceeds 1.0 KiB"},
		{"empty", "empty.txt", nil, "empty"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := c.upload(created.ID, tt.filename, tt.data)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			var body map[string]string
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Contains(t, body["error"], tt.message)
		})
	}

	var docs []models.Document
	require.Equal(t, http.StatusOK, c.json(http.MethodGet, "/api/v1/cases/"+created.ID+"/documents", nil, &docs))
	assert.Empty(t, docs)
}

func TestDeleteCase(t *testing.T) {
	srv := newTestServer(t, 1<<20)
	c := &client{t: t, base: srv.URL, token: "tok-u1"}

	var created models.Case
	require.Equal(t, http.StatusCreated, c.json(http.MethodPost, "/api/v1/cases", spanishClaim, &created))

	resp := c.do(http.MethodDelete, "/api/v1/cases/"+created.ID, nil, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, http.StatusNotFound, c.json(http.MethodGet, "/api/v1/cases/"+created.ID, nil, nil))

	var cases []models.Case
	require.Equal(t, http.StatusOK, c.json(http.MethodGet, "/api/v1/cases", nil, &cases))
	assert.Empty(t, cases)
}
