package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_IssueAndParse(t *testing.T) {
	m := NewManager("secret", time.Hour)

	raw, err := m.Issue(Subject{ID: "u-1", Email: "ada@example.com", Name: "Ada"})
	require.NoError(t, err)

	claims, err := m.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.Subject)
	assert.Equal(t, "ada@example.com", claims.Email)
	assert.Equal(t, "Ada", claims.Name)
}

func TestManager_RejectsWrongSecret(t *testing.T) {
	raw, err := NewManager("one", time.Hour).Issue(Subject{ID: "u-1"})
	require.NoError(t, err)

	_, err = NewManager("two", time.Hour).Parse(raw)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestManager_RejectsExpired(t *testing.T) {
	m := NewManager("secret", time.Minute)
	issued := time.Now().Add(-time.Hour)
	m.now = func() time.Time { return issued }
	raw, err := m.Issue(Subject{ID: "u-1"})
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.Parse(raw)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestManager_RejectsOtherAlgorithms(t *testing.T) {
	raw, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "u-1"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewManager("secret", time.Hour).Parse(raw)
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = NewManager("secret", time.Hour).Parse("garbage")
	assert.ErrorIs(t, err, ErrInvalid)
}
