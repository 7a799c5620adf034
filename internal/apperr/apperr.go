// Package apperr defines the operational errors handlers return to clients.
package apperr

import (
	"errors"
	"net/http"
)

// Code is the machine-readable error code sent in the response envelope.
type Code string

const (
	CodeBadRequest         Code = "BAD_REQUEST"
	CodeUnauthorized       Code = "UNAUTHORIZED"
	CodeForbidden          Code = "FORBIDDEN"
	CodeNotFound           Code = "NOT_FOUND"
	CodeMethodNotAllowed   Code = "METHOD_NOT_ALLOWED"
	CodeConflict           Code = "CONFLICT"
	CodeValidation         Code = "VALIDATION_ERROR"
	CodePayloadTooLarge    Code = "PAYLOAD_TOO_LARGE"
	CodeInternal           Code = "INTERNAL_SERVER_ERROR"
)

// Error is an error that is safe to show to the client as-is.
type Error struct {
	Status  int
	Code    Code
	Message string
	Details any
}

func (e *Error) Error() string { return e.Message }

// New builds an Error.
func New(status int, code Code, message string, details any) *Error {
	return &Error{Status: status, Code: code, Message: message, Details: details}
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

func BadRequest(message string, details any) *Error {
	if message == "" {
		message = "Bad request"
	}
	return New(http.StatusBadRequest, CodeBadRequest, message, details)
}

func Unauthorized(message string) *Error {
	if message == "" {
		message = "Unauthorized"
	}
	return New(http.StatusUnauthorized, CodeUnauthorized, message, nil)
}

func Forbidden(message string) *Error {
	if message == "" {
		message = "Forbidden"
	}
	return New(http.StatusForbidden, CodeForbidden, message, nil)
}

// NotFound produces "<resource> not found".
func NotFound(resource string) *Error {
	if resource == "" {
		resource = "Resource"
	}
	return New(http.StatusNotFound, CodeNotFound, resource+" not found", nil)
}

func Conflict(message string) *Error {
	if message == "" {
		message = "Resource already exists"
	}
	return New(http.StatusConflict, CodeConflict, message, nil)
}

// Validation reports failed field constraints as a 400.
func Validation(message string, details any) *Error {
	if message == "" {
		message = "Validation failed"
	}
	return New(http.StatusBadRequest, CodeValidation, message, details)
}

func PayloadTooLarge(message string) *Error {
	if message == "" {
		message = "Payload too large"
	}
	return New(http.StatusRequestEntityTooLarge, CodePayloadTooLarge, message, nil)
}
