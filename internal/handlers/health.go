package handlers

import (
	"net/http"

	"github.com/BerylCAtieno/lexdoc-api/internal/legal"
	"github.com/BerylCAtieno/lexdoc-api/internal/utils"
)

type MetaHandler struct {
	base
	version string
}

func NewMetaHandler(version string, logger *utils.Logger) *MetaHandler {
	return &MetaHandler{base: base{logger: logger}, version: version}
}

func (h *MetaHandler) Health(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "healthy", "version": h.version})
}

func (h *MetaHandler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := legal.Templates()
	if err != nil {
		h.respondError(w, utils.WrapInternal("Template catalogue unavailable", err))
		return
	}
	h.respondJSON(w, http.StatusOK, templates)
}
