// Package auth handles email and password registration and login.
package auth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/notionv2/service/internal/apperr"
	"github.com/notionv2/service/internal/token"
	"github.com/notionv2/service/internal/user"
)

// Accounts is the subset of user.Service the auth flow needs.
type Accounts interface {
	Create(ctx context.Context, email, name, passwordHash string) (*user.User, error)
	GetByEmail(ctx context.Context, email string) (*user.User, error)
}

// Issuer signs access tokens.
type Issuer interface {
	Issue(s token.Subject) (string, error)
}

// Session is returned after a successful register or login.
type Session struct {
	Token string     `json:"token" example:"eyJhbGci..."`
	User  *user.User `json:"user"`
}

// Service contains the business logic for password authentication.
type Service struct {
	accounts Accounts
	tokens   Issuer
	cost     int
}

// NewService creates a new auth Service.
func NewService(accounts Accounts, tokens Issuer) *Service {
	return &Service{accounts: accounts, tokens: tokens, cost: bcrypt.DefaultCost}
}

// Register creates an account and signs the caller in.
func (s *Service) Register(ctx context.Context, email, name, password string) (*Session, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u, err := s.accounts.Create(ctx, email, name, string(hash))
	if err != nil {
		return nil, err
	}
	return s.session(u)
}

// Login checks credentials. Unknown emails and wrong passwords are indistinguishable.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	invalid := apperr.Unauthorized("Invalid email or password")

	u, err := s.accounts.GetByEmail(ctx, email)
	if errors.Is(err, user.ErrNotFound) {
		return nil, invalid
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, invalid
	}
	return s.session(u)
}

func (s *Service) session(u *user.User) (*Session, error) {
	tok, err := s.tokens.Issue(token.Subject{ID: u.ID, Email: u.Email, Name: u.Name})
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &Session{Token: tok, User: u}, nil
}
