package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockPinger struct {
	mock.Mock
}

func (m *mockPinger) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func newRouter(p Pinger) http.Handler {
	h := NewHandler(p, "NotionV2 Clone API", "1.0.0")
	h.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	r := chi.NewRouter()
	r.Route("/health", h.Routes)
	r.Get("/api", h.Index)
	r.Get("/api/v1", h.Info)
	return r
}

func get(t *testing.T, h http.Handler, target string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestHealth_Healthy(t *testing.T) {
	p := &mockPinger{}
	p.On("Ping", mock.Anything).Return(nil)
	r := newRouter(p)

	rec, body := get(t, r, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "1.0.0", body["version"])
	assert.Equal(t, "2026-01-02T03:04:05Z", body["timestamp"])
	assert.Equal(t, map[string]any{"api": "healthy", "database": "healthy"}, body["services"])

	rec, body = get(t, r, "/health/ready")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ready", body["status"])

	p.AssertNumberOfCalls(t, "Ping", 2)
}

func TestHealth_DatabaseDown(t *testing.T) {
	p := &mockPinger{}
	p.On("Ping", mock.Anything).Return(errors.New("connection refused"))
	r := newRouter(p)

	rec, body := get(t, r, "/health")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "degraded", body["status"])
	assert.Equal(t, "unhealthy", body["services"].(map[string]any)["database"])

	rec, body = get(t, r, "/health/ready")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "Database connection failed", body["reason"])

	rec, body = get(t, r, "/health/live")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alive", body["status"])
}

func TestInfo(t *testing.T) {
	r := newRouter(&mockPinger{})

	_, body := get(t, r, "/api/v1")
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "NotionV2 Clone API", body["data"].(map[string]any)["name"])

	_, body = get(t, r, "/api")
	assert.Equal(t, []any{"/api/v1"}, body["data"].(map[string]any)["availableVersions"])
}
