package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
)

// RequestIDHeader is echoed on every response so clients can quote it.
const RequestIDHeader = "X-Request-ID"

var securityHeaders = map[string]string{
	"X-Content-Type-Options":       "nosniff",
	"X-Frame-Options":              "SAMEORIGIN",
	"Referrer-Policy":              "no-referrer",
	"Strict-Transport-Security":    "max-age=15552000; includeSubDomains",
	"Cross-Origin-Resource-Policy": "same-origin",
	"X-XSS-Protection":             "0",
}

// SecureHeaders sets conservative browser security headers.
func SecureHeaders(next http.Handler) http.Handler {
	for k, v := range securityHeaders {
		next = middleware.SetHeader(k, v)(next)
	}
	return next
}

// ExposeRequestID copies the id assigned by chi's RequestID middleware to the response.
func ExposeRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := middleware.GetReqID(r.Context()); id != "" {
			w.Header().Set(RequestIDHeader, id)
		}
		next.ServeHTTP(w, r)
	})
}
