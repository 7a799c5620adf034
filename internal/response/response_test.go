package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notionv2/service/internal/apperr"
	"github.com/notionv2/service/internal/storage"
)

type envelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details any    `json:"details"`
	} `json:"error"`
	RequestID string `json:"requestId"`
}

func serve(t *testing.T, h http.HandlerFunc) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Get("/", h)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec, env
}

func TestFail_AppError(t *testing.T) {
	rec, env := serve(t, func(w http.ResponseWriter, r *http.Request) {
		Fail(w, r, fmt.Errorf("wrapped: %w", apperr.BadRequest("Invalid input", map[string]string{"field": "email"})))
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.False(t, env.Success)
	require.NotNil(t, env.Error)
	assert.Equal(t, "BAD_REQUEST", env.Error.Code)
	assert.Equal(t, "Invalid input", env.Error.Message)
	assert.Equal(t, map[string]any{"field": "email"}, env.Error.Details)
	assert.NotEmpty(t, env.RequestID)
}

func TestFail_NotFoundResource(t *testing.T) {
	rec, env := serve(t, func(w http.ResponseWriter, r *http.Request) {
		Fail(w, r, apperr.NotFound("User"))
	})

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
	assert.Equal(t, "User not found", env.Error.Message)
}

func TestFail_StorageErrors(t *testing.T) {
	rec, env := serve(t, func(w http.ResponseWriter, r *http.Request) {
		Fail(w, r, fmt.Errorf("read %q: %w", "k", storage.ErrNotFound))
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)

	rec, env = serve(t, func(w http.ResponseWriter, r *http.Request) {
		Fail(w, r, storage.ErrInvalidKey)
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "BAD_REQUEST", env.Error.Code)
}

func TestFail_BodyTooLarge(t *testing.T) {
	rec, env := serve(t, func(w http.ResponseWriter, r *http.Request) {
		_, err := io.ReadAll(http.MaxBytesReader(w, io.NopCloser(strings.NewReader("0123456789")), 4))
		Fail(w, r, err)
	})
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, "PAYLOAD_TOO_LARGE", env.Error.Code)
}

func TestFail_UnknownErrorHidesMessage(t *testing.T) {
	ExposeInternalErrors(false)
	rec, env := serve(t, func(w http.ResponseWriter, r *http.Request) {
		Fail(w, r, errors.New("pq: connection refused"))
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "INTERNAL_SERVER_ERROR", env.Error.Code)
	assert.Equal(t, "An unexpected error occurred", env.Error.Message)

	ExposeInternalErrors(true)
	t.Cleanup(func() { ExposeInternalErrors(false) })
	_, env = serve(t, func(w http.ResponseWriter, r *http.Request) {
		Fail(w, r, errors.New("pq: connection refused"))
	})
	assert.Equal(t, "pq: connection refused", env.Error.Message)
}

func TestOK(t *testing.T) {
	rec, env := serve(t, func(w http.ResponseWriter, r *http.Request) {
		OK(w, map[string]string{"hello": "world"})
	})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
	assert.Nil(t, env.Error)
	assert.Equal(t, map[string]any{"hello": "world"}, env.Data)
}

func TestFallbacks(t *testing.T) {
	r := chi.NewRouter()
	r.NotFound(NotFound)
	r.MethodNotAllowed(MethodNotAllowed)
	r.Get("/only-get", func(w http.ResponseWriter, r *http.Request) {})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "The requested resource was not found")

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/only-get", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Contains(t, rec.Body.String(), "METHOD_NOT_ALLOWED")
}
