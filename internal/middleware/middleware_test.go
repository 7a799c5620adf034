package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notionv2/service/internal/token"
)

type stubParser map[string]*token.Claims

func (s stubParser) Parse(raw string) (*token.Claims, error) {
	if c, ok := s[raw]; ok {
		return c, nil
	}
	return nil, errors.New("bad token")
}

func newRouter() chi.Router {
	claims := &token.Claims{Email: "ada@example.com", Name: "Ada"}
	claims.Subject = "u-1"

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(ExposeRequestID)
	r.Use(SecureHeaders)
	r.Use(Logger)
	r.Use(Authenticate(stubParser{"good": claims}))

	r.Get("/public", func(w http.ResponseWriter, r *http.Request) {
		id, ok := CurrentIdentity(r.Context())
		if ok {
			_, _ = w.Write([]byte(id.UserID))
			return
		}
		_, _ = w.Write([]byte("anonymous"))
	})
	r.With(RequireAuth).Get("/private", func(w http.ResponseWriter, r *http.Request) {
		id, _ := CurrentIdentity(r.Context())
		_, _ = w.Write([]byte(id.Email))
	})
	return r
}

func do(r http.Handler, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestAuthenticate(t *testing.T) {
	r := newRouter()

	tests := []struct {
		name string
		auth string
		want string
	}{
		{"no header", "", "anonymous"},
		{"valid", "Bearer good", "u-1"},
		{"invalid token", "Bearer bad", "anonymous"},
		{"wrong scheme", "Basic good", "anonymous"},
		{"empty bearer", "Bearer ", "anonymous"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(r, "/public", tc.auth)
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tc.want, rec.Body.String())
		})
	}
}

func TestRequireAuth(t *testing.T) {
	r := newRouter()

	rec := do(r, "/private", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"UNAUTHORIZED"`)
	assert.Contains(t, rec.Body.String(), "Authentication required")

	rec = do(r, "/private", "Bearer good")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ada@example.com", rec.Body.String())
}

func TestHeaders(t *testing.T) {
	rec := do(newRouter(), "/public", "")

	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "SAMEORIGIN", rec.Header().Get("X-Frame-Options"))
}
