package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/BerylCAtieno/lexdoc-api/internal/auth"
	"github.com/BerylCAtieno/lexdoc-api/internal/models"
	"github.com/BerylCAtieno/lexdoc-api/internal/utils"
)

// maxJSONBody bounds JSON request bodies; uploads have their own limit.
const maxJSONBody = 1 << 20

type base struct {
	logger *utils.Logger
}

func (b *base) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		b.logger.Error("Failed to encode JSON response", "error", err)
	}
}

func (b *base) respondError(w http.ResponseWriter, err error) {
	status := utils.StatusOf(err)
	message := "Internal server error"
	var appErr *utils.AppError
	if errors.As(err, &appErr) {
		message = appErr.Message
	}

	if status >= http.StatusInternalServerError {
		b.logger.Error("Request error", "status", status, "error", err)
	} else {
		b.logger.Debug("Request rejected", "status", status, "error", message)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// decodeJSON reads a JSON body into dst. An empty body leaves dst untouched.
func (b *base) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return utils.NewBadRequestError("Request body too large")
		}
		return utils.NewBadRequestError("Invalid JSON body: " + err.Error())
	}
	return nil
}

// principal returns the authenticated caller or writes a 401.
func (b *base) principal(w http.ResponseWriter, r *http.Request) (*models.Principal, bool) {
	p, ok := auth.PrincipalFrom(r.Context())
	if !ok {
		b.respondError(w, utils.NewUnauthorizedError("Authentication required"))
		return nil, false
	}
	return p, true
}
