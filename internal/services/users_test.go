package services

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BerylCAtieno/lexdoc-api/internal/models"
)

func ptr[T any](v T) *T { return &v }

func TestEnsureUser_CreatesThenKeepsProfile(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	user, err := h.svc.Users.EnsureUser(ctx, &models.Principal{UID: "u1", Email: "ana@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "ana", user.DisplayName)
	assert.Equal(t, models.RoleIndividual, user.Role)
	assert.Equal(t, "es-ES", user.Locale)

	_, err = h.svc.Users.UpdateProfile(ctx, "u1", &models.UpdateProfileRequest{
		DisplayName: ptr("Ana Pérez"),
		Role:        ptr(models.RoleLawyer),
		BarNumber:   ptr("ICAM 12345"),
		Locale:      ptr("es-CO"),
	})
	require.NoError(t, err)

	user, err = h.svc.Users.EnsureUser(ctx, &models.Principal{UID: "u1", Email: "ana.perez@example.com", DisplayName: "Ana"})
	require.NoError(t, err)
	assert.Equal(t, "ana.perez@example.com", user.Email)
	assert.Equal(t, "Ana Pérez", user.DisplayName)
	assert.Equal(t, models.RoleLawyer, user.Role)
	assert.Equal(t, "es-CO", user.Locale)
}

func TestUpdateProfile_Validation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.user(t, "u1")

	_, err := h.svc.Users.UpdateProfile(ctx, "u1", &models.UpdateProfileRequest{Locale: ptr("fr")})
	requireStatus(t, err, http.StatusBadRequest)

	_, err = h.svc.Users.UpdateProfile(ctx, "u1", &models.UpdateProfileRequest{Role: ptr(models.RoleLawyer)})
	requireStatus(t, err, http.StatusBadRequest)
	assert.Contains(t, err.Error(), "bar_number")

	_, err = h.svc.Users.GetProfile(ctx, "ghost")
	requireStatus(t, err, http.StatusNotFound)
}
