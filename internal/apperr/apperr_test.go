package apperr

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name       string
		err        *Error
		wantStatus int
		wantCode   Code
		wantMsg    string
	}{
		{"bad request", BadRequest("", nil), http.StatusBadRequest, CodeBadRequest, "Bad request"},
		{"unauthorized", Unauthorized(""), http.StatusUnauthorized, CodeUnauthorized, "Unauthorized"},
		{"forbidden", Forbidden("nope"), http.StatusForbidden, CodeForbidden, "nope"},
		{"not found", NotFound("Page"), http.StatusNotFound, CodeNotFound, "Page not found"},
		{"conflict", Conflict(""), http.StatusConflict, CodeConflict, "Resource already exists"},
		{"validation", Validation("", []string{"name"}), http.StatusBadRequest, CodeValidation, "Validation failed"},
		{"too large", PayloadTooLarge(""), http.StatusRequestEntityTooLarge, CodePayloadTooLarge, "Payload too large"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.wantStatus, tc.err.Status)
			assert.Equal(t, tc.wantCode, tc.err.Code)
			assert.Equal(t, tc.wantMsg, tc.err.Error())
		})
	}
}

func TestAs(t *testing.T) {
	e, ok := As(fmt.Errorf("handler: %w", Conflict("Email taken")))
	require.True(t, ok)
	assert.Equal(t, "Email taken", e.Message)

	_, ok = As(fmt.Errorf("plain"))
	assert.False(t, ok)
}
