// Package ident generates identifiers and URL-friendly slugs.
package ident

import (
	"strings"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultSlugLength caps slugs produced by Slug when maxLength <= 0.
const DefaultSlugLength = 100

// NewID returns a random UUID string.
func NewID() string {
	return uuid.NewString()
}

// ShortID returns n (1..32) random hex characters.
func ShortID(n int) string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	if n <= 0 || n > len(id) {
		return id
	}
	return id[:n]
}

// Slug lowercases text, folds accents to ASCII and joins alphanumeric runs with single
// hyphens. The result is cut to maxLength without leaving a trailing hyphen.
func Slug(text string, maxLength int) string {
	if maxLength <= 0 {
		maxLength = DefaultSlugLength
	}

	folded, _, err := transform.String(transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn))), text)
	if err != nil {
		folded = text
	}

	var b strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(folded) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}

	slug := b.String()
	if len(slug) > maxLength {
		slug = strings.TrimRight(slug[:maxLength], "-")
	}
	return slug
}
