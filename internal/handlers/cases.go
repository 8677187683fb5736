package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/BerylCAtieno/lexdoc-api/internal/models"
	"github.com/BerylCAtieno/lexdoc-api/internal/services"
	"github.com/BerylCAtieno/lexdoc-api/internal/utils"
)

type CaseHandler struct {
	base
	service services.CaseService
}

func NewCaseHandler(service services.CaseService, logger *utils.Logger) *CaseHandler {
	return &CaseHandler{base: base{logger: logger}, service: service}
}

func (h *CaseHandler) CreateCase(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	var req models.CreateCaseRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.respondError(w, err)
		return
	}
	c, err := h.service.Create(r.Context(), p.UID, &req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, c)
}

func (h *CaseHandler) ListCases(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	cases, err := h.service.List(r.Context(), p.UID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	if cases == nil {
		cases = []models.Case{}
	}
	h.respondJSON(w, http.StatusOK, cases)
}

func (h *CaseHandler) GetCase(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	c, err := h.service.Get(r.Context(), mux.Vars(r)["id"], p.UID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, c)
}

func (h *CaseHandler) UpdateCase(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	var req models.UpdateCaseRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.respondError(w, err)
		return
	}
	c, err := h.service.Update(r.Context(), mux.Vars(r)["id"], p.UID, &req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, c)
}

func (h *CaseHandler) DeleteCase(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), mux.Vars(r)["id"], p.UID); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CaseHandler) AnalyzeCase(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	resp, err := h.service.AnalyzeCase(r.Context(), mux.Vars(r)["id"], p.UID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, resp)
}

func (h *CaseHandler) GetClaim(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	resp, err := h.service.Claim(r.Context(), mux.Vars(r)["id"], p.UID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, resp)
}

func (h *CaseHandler) AssessTutela(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	resp, err := h.service.AssessTutela(r.Context(), mux.Vars(r)["id"], p.UID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, resp)
}
