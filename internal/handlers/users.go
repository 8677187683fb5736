package handlers

import (
	"net/http"

	"github.com/BerylCAtieno/lexdoc-api/internal/models"
	"github.com/BerylCAtieno/lexdoc-api/internal/services"
	"github.com/BerylCAtieno/lexdoc-api/internal/utils"
)

type UserHandler struct {
	base
	service services.UserService
}

func NewUserHandler(service services.UserService, logger *utils.Logger) *UserHandler {
	return &UserHandler{base: base{logger: logger}, service: service}
}

func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	user, err := h.service.GetProfile(r.Context(), p.UID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, user)
}

func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	var req models.UpdateProfileRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.respondError(w, err)
		return
	}
	user, err := h.service.UpdateProfile(r.Context(), p.UID, &req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, user)
}
