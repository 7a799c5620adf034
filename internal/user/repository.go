// Package user manages user accounts, profiles and avatars.
package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// User represents a registered account.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	AvatarURL    *string   `json:"avatarUrl,omitempty"`
	AvatarKey    *string   `json:"-"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// ErrNotFound is returned when a user does not exist.
var ErrNotFound = errors.New("user not found")

// ErrAlreadyExists is returned when an email is already registered.
var ErrAlreadyExists = errors.New("user already exists")

const userColumns = `id, email, name, avatar_url, avatar_key, password_hash, created_at, updated_at`

// Repository handles all user database operations.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new Repository with the given connection pool.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func scanUser(row pgx.Row) (*User, error) {
	u := &User{}
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.AvatarURL, &u.AvatarKey, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// Create inserts a new user and returns the created record.
func (r *Repository) Create(ctx context.Context, email, name, passwordHash string) (*User, error) {
	u, err := scanUser(r.db.QueryRow(ctx,
		`INSERT INTO users (email, name, password_hash)
		 VALUES ($1, $2, $3)
		 RETURNING `+userColumns,
		email, name, passwordHash,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrAlreadyExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// GetByID fetches a user by their UUID.
func (r *Repository) GetByID(ctx context.Context, id string) (*User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return u, err
}

// GetByEmail fetches a user by email address.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, err
}

// UpdateName changes the display name.
func (r *Repository) UpdateName(ctx context.Context, id, name string) (*User, error) {
	u, err := scanUser(r.db.QueryRow(ctx,
		`UPDATE users SET name = $2, updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+userColumns,
		id, name,
	))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("update user name: %w", err)
	}
	return u, err
}

// SetAvatar records the avatar's public URL and storage key.
func (r *Repository) SetAvatar(ctx context.Context, id, url, key string) (*User, error) {
	u, err := scanUser(r.db.QueryRow(ctx,
		`UPDATE users SET avatar_url = $2, avatar_key = $3, updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+userColumns,
		id, url, key,
	))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("set user avatar: %w", err)
	}
	return u, err
}

// isUniqueViolation checks whether an error is a PostgreSQL unique_violation (code 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
