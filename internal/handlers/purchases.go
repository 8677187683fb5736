package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/BerylCAtieno/lexdoc-api/internal/models"
	"github.com/BerylCAtieno/lexdoc-api/internal/services"
	"github.com/BerylCAtieno/lexdoc-api/internal/utils"
)

// maxWebhookBody is Stripe's documented upper bound for event payloads.
const maxWebhookBody = 65536

type PurchaseHandler struct {
	base
	service services.PurchaseService
}

func NewPurchaseHandler(service services.PurchaseService, logger *utils.Logger) *PurchaseHandler {
	return &PurchaseHandler{base: base{logger: logger}, service: service}
}

func (h *PurchaseHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	resp, err := h.service.Checkout(r.Context(), mux.Vars(r)["id"], p)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, resp)
}

func (h *PurchaseHandler) ListPurchases(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	purchases, err := h.service.List(r.Context(), p.UID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	if purchases == nil {
		purchases = []models.Purchase{}
	}
	h.respondJSON(w, http.StatusOK, purchases)
}

// StripeWebhook is public; the payload signature authenticates it.
func (h *PurchaseHandler) StripeWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.respondError(w, utils.NewPayloadTooLargeError("Webhook payload too large"))
			return
		}
		h.respondError(w, utils.NewBadRequestError("Failed to read body"))
		return
	}
	if err := h.service.HandleWebhook(r.Context(), payload, r.Header.Get("Stripe-Signature")); err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]bool{"received": true})
}
