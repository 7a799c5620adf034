package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/notionv2/service/internal/apperr"
	"github.com/notionv2/service/internal/ident"
	"github.com/notionv2/service/internal/storage"
)

// Store is the persistence the Service needs. *Repository implements it.
type Store interface {
	Create(ctx context.Context, email, name, passwordHash string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	UpdateName(ctx context.Context, id, name string) (*User, error)
	SetAvatar(ctx context.Context, id, url, key string) (*User, error)
}

// Avatar is an uploaded profile picture.
type Avatar struct {
	Filename    string
	ContentType string
	Source      storage.Source
}

var avatarTypes = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Service contains business logic for user management.
type Service struct {
	store Store
	files storage.Provider
}

// NewService creates a new user Service.
func NewService(store Store, files storage.Provider) *Service {
	return &Service{store: store, files: files}
}

// Create registers a new user account.
func (s *Service) Create(ctx context.Context, email, name, passwordHash string) (*User, error) {
	u, err := s.store.Create(ctx, strings.ToLower(email), name, passwordHash)
	if errors.Is(err, ErrAlreadyExists) {
		return nil, apperr.Conflict("Email is already registered")
	}
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// GetByID returns a user by their UUID.
func (s *Service) GetByID(ctx context.Context, id string) (*User, error) {
	u, err := s.store.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, apperr.NotFound("User")
	}
	return u, err
}

// GetByEmail returns a user by email. A missing user is reported as ErrNotFound so
// callers can decide how much to reveal.
func (s *Service) GetByEmail(ctx context.Context, email string) (*User, error) {
	return s.store.GetByEmail(ctx, strings.ToLower(email))
}

// UpdateName changes the user's display name.
func (s *Service) UpdateName(ctx context.Context, id, name string) (*User, error) {
	u, err := s.store.UpdateName(ctx, id, strings.TrimSpace(name))
	if errors.Is(err, ErrNotFound) {
		return nil, apperr.NotFound("User")
	}
	return u, err
}

// ChangeAvatar stores a new public avatar and removes the previous one.
func (s *Service) ChangeAvatar(ctx context.Context, id string, a Avatar) (*User, error) {
	ext, ok := avatarTypes[a.ContentType]
	if !ok {
		return nil, apperr.BadRequest("Avatar must be a PNG, JPEG, GIF or WebP image", nil)
	}

	current, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	key := path.Join("avatars", id, ident.NewID()+ext)
	stored, err := s.files.Upload(ctx, key, a.Source, &storage.UploadOptions{
		ContentType: a.ContentType,
		Metadata:    map[string]string{"user-id": id, "original-name": a.Filename},
		IsPublic:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("upload avatar: %w", err)
	}

	u, err := s.store.SetAvatar(ctx, id, stored.URL, stored.Key)
	if err != nil {
		_ = s.files.Delete(ctx, stored.Key)
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.NotFound("User")
		}
		return nil, err
	}

	if current.AvatarKey != nil && *current.AvatarKey != "" && *current.AvatarKey != stored.Key {
		if err := s.files.Delete(ctx, *current.AvatarKey); err != nil {
			slog.WarnContext(ctx, "failed to delete previous avatar", "user_id", id, "key", *current.AvatarKey, "error", err)
		}
	}
	return u, nil
}
