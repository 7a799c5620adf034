package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/notionv2/service/internal/apperr"
	"github.com/notionv2/service/internal/response"
	"github.com/notionv2/service/internal/token"
)

// contextKey is an unexported type for context keys in this package.
type contextKey string

const identityKey contextKey = "identity"

// Identity is the authenticated caller.
type Identity struct {
	UserID string
	Email  string
	Name   string
}

// TokenParser verifies bearer tokens.
type TokenParser interface {
	Parse(raw string) (*token.Claims, error)
}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// CurrentIdentity returns the caller set by Authenticate, if any.
func CurrentIdentity(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok && id.UserID != ""
}

// Authenticate reads an optional "Authorization: Bearer <token>" header. Requests without a
// valid token continue anonymously; RequireAuth decides whether that is acceptable.
func Authenticate(parser TokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearer(r.Header.Get("Authorization"))
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			claims, err := parser.Parse(raw)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			ctx := WithIdentity(r.Context(), Identity{
				UserID: claims.Subject,
				Email:  claims.Email,
				Name:   claims.Name,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth rejects anonymous requests with 401.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentIdentity(r.Context()); !ok {
			response.Fail(w, r, apperr.Unauthorized("Authentication required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearer(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}
