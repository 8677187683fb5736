package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BerylCAtieno/lexdoc-api/internal/auth"
	"github.com/BerylCAtieno/lexdoc-api/internal/models"
	"github.com/BerylCAtieno/lexdoc-api/internal/utils"
)

type fakeVerifier map[string]*models.Principal

func (f fakeVerifier) Verify(_ context.Context, token string) (*models.Principal, error) {
	if token == "explode" {
		return nil, errors.New("certificate fetch failed")
	}
	p, ok := f[token]
	if !ok {
		return nil, auth.ErrInvalidToken
	}
	return p, nil
}

type fakeUsers struct {
	ensured []string
	err     error
}

func (f *fakeUsers) EnsureUser(_ context.Context, p *models.Principal) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.ensured = append(f.ensured, p.UID)
	return &models.User{ID: p.UID, Email: p.Email}, nil
}

func (f *fakeUsers) GetProfile(context.Context, string) (*models.User, error) {
	return nil, errors.New("not used")
}

func (f *fakeUsers) UpdateProfile(context.Context, string, *models.UpdateProfileRequest) (*models.User, error) {
	return nil, errors.New("not used")
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["error"]
}

func TestAuth(t *testing.T) {
	verifier := fakeVerifier{"good": {UID: "u1", Email: "ana@example.com"}}
	users := &fakeUsers{}

	var seen *models.Principal
	handler := Auth(verifier, users, utils.NewNopLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = auth.PrincipalFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"valid token", "Bearer good", http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic good", http.StatusUnauthorized},
		{"unknown token", "Bearer nope", http.StatusUnauthorized},
		{"verifier failure", "Bearer explode", http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = nil
			req := httptest.NewRequest(http.MethodGet, "/api/v1/cases", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusOK {
				require.NotNil(t, seen)
				assert.Equal(t, "u1", seen.UID)
			} else {
				assert.Nil(t, seen)
				assert.NotEmpty(t, errorBody(t, rec))
			}
		})
	}
	assert.Equal(t, []string{"u1"}, users.ensured)
}

func TestAuth_EnsureUserFailure(t *testing.T) {
	users := &fakeUsers{err: utils.WrapInternal("Failed to register user", errors.New("database is locked"))}
	handler := Auth(fakeVerifier{"good": {UID: "u1"}}, users, utils.NewNopLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Failed to register user", errorBody(t, rec))
}

func TestCORS(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	handler := CORS("https://app.example.com")(next)

	preflight := httptest.NewRequest(http.MethodOptions, "/api/v1/cases", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, preflight)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Authorization")
	assert.Equal(t, "Origin", rec.Header().Get("Vary"))

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/cases", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestRecovery(t *testing.T) {
	handler := Recovery(utils.NewNopLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("nil map")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal server error", errorBody(t, rec))
}

func TestStatusRecorder_DefaultsToOK(t *testing.T) {
	rec := record(httptest.NewRecorder())
	_, err := rec.Write([]byte("ok"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.code())
	assert.Equal(t, 2, rec.bytes)
	assert.Same(t, rec, record(rec))
}
