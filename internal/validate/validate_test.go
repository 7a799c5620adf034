package validate

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notionv2/service/internal/apperr"
)

type signup struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=128"`
	Name     string `json:"name" validate:"max=10"`
}

func TestStruct_Valid(t *testing.T) {
	require.NoError(t, Struct(signup{Email: "ada@example.com", Password: "Secret123"}))
}

func TestStruct_ReportsEveryField(t *testing.T) {
	err := Struct(signup{Email: "nope", Password: "short", Name: "far too long a name"})
	require.Error(t, err)

	appErr, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, appErr.Status)
	assert.Equal(t, apperr.CodeValidation, appErr.Code)
	assert.Equal(t, "Validation failed", appErr.Message)
	assert.Equal(t, []FieldError{
		{Field: "email", Message: "must be a valid email address"},
		{Field: "password", Message: "must be at least 8 characters"},
		{Field: "name", Message: "must be at most 10 characters"},
	}, appErr.Details)
}

func TestStruct_Required(t *testing.T) {
	err := Struct(signup{})
	appErr, ok := apperr.As(err)
	require.True(t, ok)

	details, ok := appErr.Details.([]FieldError)
	require.True(t, ok)
	assert.Contains(t, details, FieldError{Field: "email", Message: "is required"})
	assert.Contains(t, details, FieldError{Field: "password", Message: "is required"})
}
