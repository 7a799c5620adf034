// Package response provides shared JSON response helpers for HTTP handlers.
package response

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/notionv2/service/internal/apperr"
	"github.com/notionv2/service/internal/storage"
)

// Envelope is the standard API response envelope.
type Envelope struct {
	Success   bool       `json:"success"`
	Data      any        `json:"data,omitempty"`
	Error     *ErrorBody `json:"error,omitempty"`
	RequestID string     `json:"requestId,omitempty"`
}

// ErrorBody is the error part of a failed response.
type ErrorBody struct {
	Code    apperr.Code `json:"code"`
	Message string      `json:"message"`
	Details any         `json:"details,omitempty"`
}

var exposeInternal atomic.Bool

// ExposeInternalErrors makes Fail include the raw message of unexpected errors. Only
// enable it in development.
func ExposeInternalErrors(on bool) {
	exposeInternal.Store(on)
}

// JSON writes a JSON-encoded payload with the given HTTP status code.
func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// OK writes a 200 response with data.
func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, Envelope{Success: true, Data: data})
}

// Created writes a 201 response with data.
func Created(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, Envelope{Success: true, Data: data})
}

// NoContent writes a bare 204.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Error writes an error envelope with the given status, code and message.
func Error(w http.ResponseWriter, r *http.Request, status int, code apperr.Code, message string, details any) {
	JSON(w, status, Envelope{
		Success:   false,
		Error:     &ErrorBody{Code: code, Message: message, Details: details},
		RequestID: middleware.GetReqID(r.Context()),
	})
}

// Fail translates err into an error envelope and logs it.
//
//   - *apperr.Error keeps its status, code, message and details;
//   - storage.ErrNotFound becomes 404 and storage.ErrInvalidKey 400;
//   - request bodies over the size limit become 413;
//   - anything else is a 500 whose message is hidden unless ExposeInternalErrors is on.
func Fail(w http.ResponseWriter, r *http.Request, err error) {
	reqID := middleware.GetReqID(r.Context())

	var tooLarge *http.MaxBytesError
	switch appErr, ok := apperr.As(err); {
	case ok:
		if appErr.Status >= http.StatusInternalServerError {
			slog.ErrorContext(r.Context(), "request failed", "request_id", reqID, "error", err)
		}
		Error(w, r, appErr.Status, appErr.Code, appErr.Message, appErr.Details)
		return
	case errors.Is(err, storage.ErrNotFound):
		Error(w, r, http.StatusNotFound, apperr.CodeNotFound, "File not found", nil)
		return
	case errors.Is(err, storage.ErrInvalidKey):
		Error(w, r, http.StatusBadRequest, apperr.CodeBadRequest, "Invalid file key", nil)
		return
	case errors.As(err, &tooLarge):
		Fail(w, r, apperr.PayloadTooLarge(""))
		return
	}

	slog.ErrorContext(r.Context(), "request failed", "request_id", reqID, "error", err)

	message := "An unexpected error occurred"
	if exposeInternal.Load() {
		message = err.Error()
	}
	Error(w, r, http.StatusInternalServerError, apperr.CodeInternal, message, nil)
}

// NotFound is the router's fallback for unknown routes.
func NotFound(w http.ResponseWriter, r *http.Request) {
	Error(w, r, http.StatusNotFound, apperr.CodeNotFound, "The requested resource was not found", nil)
}

// MethodNotAllowed is the router's fallback for known routes with the wrong method.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	Error(w, r, http.StatusMethodNotAllowed, apperr.CodeMethodNotAllowed, "Method not allowed", nil)
}
