package auth

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/notionv2/service/internal/apperr"
	"github.com/notionv2/service/internal/response"
	"github.com/notionv2/service/internal/validate"
)

// Authenticator is implemented by Service.
type Authenticator interface {
	Register(ctx context.Context, email, name, password string) (*Session, error)
	Login(ctx context.Context, email, password string) (*Session, error)
}

// Handler holds HTTP handlers for auth endpoints.
type Handler struct {
	svc Authenticator
}

// NewHandler creates a new auth Handler.
func NewHandler(svc Authenticator) *Handler {
	return &Handler{svc: svc}
}

// RegisterRequest is the body for POST /auth/register.
type RegisterRequest struct {
	Email    string `json:"email"    validate:"required,email,max=255" example:"ada@example.com"`
	Name     string `json:"name"     validate:"required,min=1,max=100" example:"Ada Lovelace"`
	Password string `json:"password" validate:"required,min=8,max=72"  example:"correct-horse"`
}

// LoginRequest is the body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email" example:"ada@example.com"`
	Password string `json:"password" validate:"required"       example:"correct-horse"`
}

// Register godoc
//
//	@Summary		Register
//	@Description	Create an account with email and password and receive a bearer token.
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		RegisterRequest	true	"Account details"
//	@Success		201		{object}	response.Envelope{data=Session}
//	@Failure		400		{object}	response.Envelope
//	@Failure		409		{object}	response.Envelope
//	@Failure		500		{object}	response.Envelope
//	@Router			/auth/register [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decode(w, r, &req) {
		return
	}

	sess, err := h.svc.Register(r.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		response.Fail(w, r, err)
		return
	}
	response.Created(w, sess)
}

// Login godoc
//
//	@Summary		Login
//	@Description	Exchange email and password for a bearer token.
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		LoginRequest	true	"Credentials"
//	@Success		200		{object}	response.Envelope{data=Session}
//	@Failure		400		{object}	response.Envelope
//	@Failure		401		{object}	response.Envelope
//	@Failure		500		{object}	response.Envelope
//	@Router			/auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decode(w, r, &req) {
		return
	}

	sess, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		response.Fail(w, r, err)
		return
	}
	response.OK(w, sess)
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		response.Fail(w, r, apperr.BadRequest("Invalid request body", nil))
		return false
	}
	if err := validate.Struct(dst); err != nil {
		response.Fail(w, r, err)
		return false
	}
	return true
}
