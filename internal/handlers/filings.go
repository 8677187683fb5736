package handlers

import (
	"mime"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/BerylCAtieno/lexdoc-api/internal/models"
	"github.com/BerylCAtieno/lexdoc-api/internal/services"
	"github.com/BerylCAtieno/lexdoc-api/internal/utils"
)

type FilingHandler struct {
	base
	service services.FilingService
}

func NewFilingHandler(service services.FilingService, logger *utils.Logger) *FilingHandler {
	return &FilingHandler{base: base{logger: logger}, service: service}
}

func (h *FilingHandler) GenerateFiling(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	var req models.GenerateFilingRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.respondError(w, err)
		return
	}
	if format := r.URL.Query().Get("format"); format != "" {
		req.Format = models.FilingFormat(format)
	}
	filing, err := h.service.Generate(r.Context(), mux.Vars(r)["id"], p.UID, &req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, filing)
}

func (h *FilingHandler) ListFilings(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	filings, err := h.service.List(r.Context(), mux.Vars(r)["id"], p.UID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	if filings == nil {
		filings = []models.Filing{}
	}
	h.respondJSON(w, http.StatusOK, filings)
}

func (h *FilingHandler) DownloadFiling(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	filing, data, err := h.service.Download(r.Context(), mux.Vars(r)["id"], p.UID)
	if err != nil {
		h.respondError(w, err)
		return
	}

	w.Header().Set("Content-Type", filing.Format.ContentType())
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filing.Filename}))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.logger.Warn("Failed to write filing", "error", err, "id", filing.ID)
	}
}
