package user

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/notionv2/service/internal/apperr"
	"github.com/notionv2/service/internal/middleware"
	"github.com/notionv2/service/internal/response"
	"github.com/notionv2/service/internal/storage"
	"github.com/notionv2/service/internal/validate"
)

// Profiles is the part of Service the HTTP layer uses.
type Profiles interface {
	GetByID(ctx context.Context, id string) (*User, error)
	UpdateName(ctx context.Context, id, name string) (*User, error)
	ChangeAvatar(ctx context.Context, id string, a Avatar) (*User, error)
}

// Handler holds HTTP handlers for user-related endpoints.
type Handler struct {
	svc       Profiles
	maxUpload int64
}

// NewHandler creates a new user Handler. Avatar uploads larger than maxUpload bytes are
// rejected with 413.
func NewHandler(svc Profiles, maxUpload int64) *Handler {
	return &Handler{svc: svc, maxUpload: maxUpload}
}

// UpdateProfileRequest is the body for PATCH /users/me.
type UpdateProfileRequest struct {
	Name string `json:"name" validate:"required,min=1,max=100"`
}

// GetMe godoc
//
//	@Summary		Get current user
//	@Description	Returns the profile of the currently authenticated user.
//	@Tags			users
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	response.Envelope{data=User}
//	@Failure		401	{object}	response.Envelope
//	@Failure		404	{object}	response.Envelope
//	@Failure		500	{object}	response.Envelope
//	@Router			/users/me [get]
func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.CurrentIdentity(r.Context())

	u, err := h.svc.GetByID(r.Context(), id.UserID)
	if err != nil {
		response.Fail(w, r, err)
		return
	}
	response.OK(w, u)
}

// UpdateProfile godoc
//
//	@Summary		Update current user
//	@Description	Changes the display name of the authenticated user.
//	@Tags			users
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			body	body		UpdateProfileRequest	true	"New profile values"
//	@Success		200		{object}	response.Envelope{data=User}
//	@Failure		400		{object}	response.Envelope
//	@Failure		401		{object}	response.Envelope
//	@Router			/users/me [patch]
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.CurrentIdentity(r.Context())

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Fail(w, r, apperr.BadRequest("Invalid request body", nil))
		return
	}
	if err := validate.Struct(req); err != nil {
		response.Fail(w, r, err)
		return
	}

	u, err := h.svc.UpdateName(r.Context(), id.UserID, req.Name)
	if err != nil {
		response.Fail(w, r, err)
		return
	}
	response.OK(w, u)
}

// UploadAvatar godoc
//
//	@Summary		Upload avatar
//	@Description	Replaces the authenticated user's avatar. The image is stored publicly.
//	@Tags			users
//	@Accept			multipart/form-data
//	@Produce		json
//	@Security		BearerAuth
//	@Param			avatar	formData	file	true	"PNG, JPEG, GIF or WebP image"
//	@Success		200		{object}	response.Envelope{data=User}
//	@Failure		400		{object}	response.Envelope
//	@Failure		401		{object}	response.Envelope
//	@Failure		413		{object}	response.Envelope
//	@Router			/users/me/avatar [post]
func (h *Handler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.CurrentIdentity(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		response.Fail(w, r, multipartError(err))
		return
	}
	_, fh, err := r.FormFile("avatar")
	if err != nil {
		response.Fail(w, r, apperr.BadRequest("An \"avatar\" file is required", nil))
		return
	}

	u, err := h.svc.ChangeAvatar(r.Context(), id.UserID, Avatar{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Source:      storage.FileHeader(fh),
	})
	if err != nil {
		response.Fail(w, r, err)
		return
	}
	response.OK(w, u)
}

// multipartError keeps size violations intact so they surface as 413.
func multipartError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return err
	}
	return apperr.BadRequest("Invalid multipart form", nil)
}
