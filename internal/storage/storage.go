// Package storage defines the object storage contract used for attachments and avatars.
// Two backends implement it: LocalProvider keeps bytes on the filesystem, RemoteProvider
// talks to any S3-compatible object store. Callers depend only on Provider.
package storage

import (
	"context"
	"errors"
	"path"
	"strings"
	"time"
)

// DefaultContentType is reported when an upload does not specify one.
const DefaultContentType = "application/octet-stream"

// DefaultSignedURLExpiry is used when SignedURL is called with a non-positive expiry.
const DefaultSignedURLExpiry = time.Hour

// ErrNotFound is wrapped by Download when the key does not exist.
var ErrNotFound = errors.New("object not found")

// ErrInvalidKey is returned for empty keys or keys that escape the storage namespace.
var ErrInvalidKey = errors.New("invalid object key")

// StoredFile describes an object held by a Provider.
type StoredFile struct {
	Key         string            `json:"key"`
	URL         string            `json:"url"`
	Size        int64             `json:"size"`
	ContentType string            `json:"contentType"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// UploadOptions tunes a single upload. A nil *UploadOptions is valid.
type UploadOptions struct {
	ContentType string
	Metadata    map[string]string
	IsPublic    bool
}

func (o *UploadOptions) contentType() string {
	if o == nil || o.ContentType == "" {
		return DefaultContentType
	}
	return o.ContentType
}

// metadata returns a copy with lowercased keys. S3 reports user metadata keys in lower
// case, so both backends store them that way.
func (o *UploadOptions) metadata() map[string]string {
	if o == nil || o.Metadata == nil {
		return nil
	}
	out := make(map[string]string, len(o.Metadata))
	for k, v := range o.Metadata {
		out[strings.ToLower(k)] = v
	}
	return out
}

func (o *UploadOptions) public() bool {
	return o != nil && o.IsPublic
}

// Provider is the uniform object storage contract.
type Provider interface {
	// Upload stores src under key, overwriting any existing object.
	Upload(ctx context.Context, key string, src Source, opts *UploadOptions) (*StoredFile, error)
	// Download returns the object bytes. The error wraps ErrNotFound when key is absent.
	Download(ctx context.Context, key string) ([]byte, error)
	// Delete removes the object. Deleting an absent key succeeds.
	Delete(ctx context.Context, key string) error
	// Exists reports whether key is present. Lookup failures count as absent.
	Exists(ctx context.Context, key string) bool
	// SignedURL returns a URL usable without backend credentials for at least expiresIn.
	SignedURL(ctx context.Context, key string, expiresIn time.Duration) (string, error)
	// Metadata describes key, or returns (nil, false) when it is absent.
	Metadata(ctx context.Context, key string) (*StoredFile, bool)
	// List returns every object whose key starts with prefix.
	List(ctx context.Context, prefix string) ([]StoredFile, error)
}

// ExpiringURLs reports whether p's SignedURL results actually stop working after the
// requested expiry. Local URLs are permanent direct links.
func ExpiringURLs(p Provider) bool {
	_, local := p.(*LocalProvider)
	return !local
}

// cleanKey normalizes key to a slash separated relative path and rejects anything that
// would leave the namespace.
func cleanKey(key string) (string, error) {
	key = strings.ReplaceAll(key, "\\", "/")
	if strings.TrimSpace(key) == "" || strings.HasPrefix(key, "/") {
		return "", ErrInvalidKey
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == ".." {
			return "", ErrInvalidKey
		}
	}
	cleaned := path.Clean(key)
	if cleaned == "." {
		return "", ErrInvalidKey
	}
	return cleaned, nil
}

func requireKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}
	return nil
}

func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + key
}
