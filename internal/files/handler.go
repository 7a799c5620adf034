// Package files exposes the storage Provider over HTTP. Every authenticated user owns the
// key namespace files/{userID}/.
package files

import (
	"errors"
	"mime"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/notionv2/service/internal/apperr"
	"github.com/notionv2/service/internal/ident"
	"github.com/notionv2/service/internal/middleware"
	"github.com/notionv2/service/internal/pagination"
	"github.com/notionv2/service/internal/response"
	"github.com/notionv2/service/internal/storage"
)

// MaxSignedURLExpiry is the longest lifetime a client may request for a signed URL.
const MaxSignedURLExpiry = 7 * 24 * time.Hour

const (
	metaFormPrefix   = "meta."
	metaHeaderPrefix = "X-Meta-"
	publicHeader     = "X-File-Public"
)

// Handler serves file endpoints.
type Handler struct {
	store     storage.Provider
	maxUpload int64
}

// NewHandler creates a files Handler. Request bodies above maxUpload bytes are rejected.
func NewHandler(store storage.Provider, maxUpload int64) *Handler {
	return &Handler{store: store, maxUpload: maxUpload}
}

// Routes mounts the authenticated API under the caller's router.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/files", h.List)
	r.Post("/files", h.Upload)
	r.Put("/files/*", h.Put)
	r.Get("/files/*", h.Metadata)
	r.Head("/files/*", h.Exists)
	r.Delete("/files/*", h.Delete)
	r.Get("/signed-url/*", h.SignedURL)
}

// SignedURLData is returned by GET /signed-url/*. ExpiresAt is omitted when the backend
// hands out permanent URLs.
type SignedURLData struct {
	URL       string     `json:"url"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// List godoc
//
//	@Summary		List files
//	@Description	Lists the caller's files in lexical key order, optionally narrowed by prefix.
//	@Tags			files
//	@Produce		json
//	@Security		BearerAuth
//	@Param			prefix	query		string	false	"Key prefix inside the caller's namespace"
//	@Param			page	query		int		false	"Page number"	default(1)
//	@Param			limit	query		int		false	"Page size"		default(20)
//	@Success		200		{object}	response.Envelope{data=pagination.Page[storage.StoredFile]}
//	@Failure		401		{object}	response.Envelope
//	@Failure		403		{object}	response.Envelope
//	@Router			/files [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.CurrentIdentity(r.Context())

	prefix := r.URL.Query().Get("prefix")
	if prefix == "" {
		prefix = namespace(id.UserID)
	} else if !owns(id.UserID, prefix) {
		response.Fail(w, r, apperr.Forbidden("Prefix is outside your files"))
		return
	}

	all, err := h.store.List(r.Context(), prefix)
	if err != nil {
		response.Fail(w, r, err)
		return
	}
	response.OK(w, pagination.Slice(all, pagination.Parse(r.URL.Query())))
}

// Upload godoc
//
//	@Summary		Upload a file
//	@Description	Stores a multipart file. Without a key one is generated from the file name.
//	@Tags			files
//	@Accept			multipart/form-data
//	@Produce		json
//	@Security		BearerAuth
//	@Param			file	formData	file	true	"File contents"
//	@Param			key		formData	string	false	"Explicit key inside the caller's namespace"
//	@Param			public	formData	bool	false	"Make the object publicly readable"
//	@Success		201		{object}	response.Envelope{data=storage.StoredFile}
//	@Failure		400		{object}	response.Envelope
//	@Failure		401		{object}	response.Envelope
//	@Failure		403		{object}	response.Envelope
//	@Failure		413		{object}	response.Envelope
//	@Router			/files [post]
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.CurrentIdentity(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		response.Fail(w, r, formError(err))
		return
	}
	_, fh, err := r.FormFile("file")
	if err != nil {
		response.Fail(w, r, apperr.BadRequest("A \"file\" field is required", nil))
		return
	}

	key := r.FormValue("key")
	switch {
	case key == "":
		key = GenerateKey(id.UserID, fh.Filename)
	case !owns(id.UserID, key):
		response.Fail(w, r, apperr.Forbidden("Key is outside your files"))
		return
	}

	meta := map[string]string{"uploaded-by": id.UserID, "original-name": fh.Filename}
	for name, values := range r.MultipartForm.Value {
		if k, ok := strings.CutPrefix(name, metaFormPrefix); ok && k != "" && len(values) > 0 {
			meta[strings.ToLower(k)] = values[0]
		}
	}

	stored, err := h.store.Upload(r.Context(), key, storage.FileHeader(fh), &storage.UploadOptions{
		ContentType: contentType(fh.Header.Get("Content-Type"), fh.Filename),
		Metadata:    meta,
		IsPublic:    r.FormValue("public") == "true",
	})
	if err != nil {
		response.Fail(w, r, err)
		return
	}
	response.Created(w, stored)
}

// Put godoc
//
//	@Summary		Upload raw bytes
//	@Description	Streams the request body to the given key. X-Meta-* headers become metadata.
//	@Tags			files
//	@Accept			application/octet-stream
//	@Produce		json
//	@Security		BearerAuth
//	@Param			key				path		string	true	"Object key"
//	@Param			X-File-Public	header		bool	false	"Make the object publicly readable"
//	@Success		201				{object}	response.Envelope{data=storage.StoredFile}
//	@Failure		400				{object}	response.Envelope
//	@Failure		403				{object}	response.Envelope
//	@Failure		413				{object}	response.Envelope
//	@Router			/files/{key} [put]
func (h *Handler) Put(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.CurrentIdentity(r.Context())
	key, ok := h.ownedKey(w, r, id.UserID)
	if !ok {
		return
	}

	meta := map[string]string{"uploaded-by": id.UserID}
	for name := range r.Header {
		if k, ok := strings.CutPrefix(name, metaHeaderPrefix); ok && k != "" {
			meta[strings.ToLower(k)] = r.Header.Get(name)
		}
	}

	body := http.MaxBytesReader(w, r.Body, h.maxUpload)
	stored, err := h.store.Upload(r.Context(), key, storage.Stream(body), &storage.UploadOptions{
		ContentType: contentType(r.Header.Get("Content-Type"), key),
		Metadata:    meta,
		IsPublic:    r.Header.Get(publicHeader) == "true",
	})
	if err != nil {
		response.Fail(w, r, err)
		return
	}
	response.Created(w, stored)
}

// Metadata godoc
//
//	@Summary		Describe a file
//	@Tags			files
//	@Produce		json
//	@Security		BearerAuth
//	@Param			key	path		string	true	"Object key"
//	@Success		200	{object}	response.Envelope{data=storage.StoredFile}
//	@Failure		403	{object}	response.Envelope
//	@Failure		404	{object}	response.Envelope
//	@Router			/files/{key} [get]
func (h *Handler) Metadata(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.CurrentIdentity(r.Context())
	key, ok := h.ownedKey(w, r, id.UserID)
	if !ok {
		return
	}

	file, found := h.store.Metadata(r.Context(), key)
	if !found {
		response.Fail(w, r, apperr.NotFound("File"))
		return
	}
	response.OK(w, file)
}

// Exists godoc
//
//	@Summary		Check a file exists
//	@Tags			files
//	@Security		BearerAuth
//	@Param			key	path	string	true	"Object key"
//	@Success		200
//	@Failure		404
//	@Router			/files/{key} [head]
func (h *Handler) Exists(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.CurrentIdentity(r.Context())
	key := chi.URLParam(r, "*")
	if !owns(id.UserID, key) {
		w.WriteHeader(http.StatusForbidden)
		return
	}
	if !h.store.Exists(r.Context(), key) {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// Delete godoc
//
//	@Summary		Delete a file
//	@Description	Deleting a missing file succeeds.
//	@Tags			files
//	@Security		BearerAuth
//	@Param			key	path	string	true	"Object key"
//	@Success		204
//	@Failure		403	{object}	response.Envelope
//	@Router			/files/{key} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.CurrentIdentity(r.Context())
	key, ok := h.ownedKey(w, r, id.UserID)
	if !ok {
		return
	}

	if err := h.store.Delete(r.Context(), key); err != nil {
		response.Fail(w, r, err)
		return
	}
	response.NoContent(w)
}

// SignedURL godoc
//
//	@Summary		Get a time-limited URL
//	@Description	Returns a URL that grants read access to the file. The local backend returns its plain public URL.
//	@Tags			files
//	@Produce		json
//	@Security		BearerAuth
//	@Param			key			path		string	true	"Object key"
//	@Param			expiresIn	query		int		false	"Lifetime in seconds"	default(3600)
//	@Success		200			{object}	response.Envelope{data=SignedURLData}
//	@Failure		400			{object}	response.Envelope
//	@Failure		403			{object}	response.Envelope
//	@Router			/signed-url/{key} [get]
func (h *Handler) SignedURL(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.CurrentIdentity(r.Context())
	key, ok := h.ownedKey(w, r, id.UserID)
	if !ok {
		return
	}

	expiresIn := storage.DefaultSignedURLExpiry
	if v := r.URL.Query().Get("expiresIn"); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil || secs <= 0 || time.Duration(secs)*time.Second > MaxSignedURLExpiry {
			response.Fail(w, r, apperr.BadRequest("expiresIn must be between 1 and 604800 seconds", nil))
			return
		}
		expiresIn = time.Duration(secs) * time.Second
	}

	url, err := h.store.SignedURL(r.Context(), key, expiresIn)
	if err != nil {
		response.Fail(w, r, err)
		return
	}
	data := SignedURLData{URL: url}
	if storage.ExpiringURLs(h.store) {
		at := time.Now().Add(expiresIn).UTC()
		data.ExpiresAt = &at
	}
	response.OK(w, data)
}

// Serve godoc
//
//	@Summary		Download a file
//	@Description	Returns the raw bytes of a stored object.
//	@Tags			files
//	@Produce		octet-stream
//	@Param			key	path	string	true	"Object key"
//	@Success		200
//	@Failure		404	{object}	response.Envelope
//	@Router			/uploads/{key} [get]
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")

	data, err := h.store.Download(r.Context(), key)
	if err != nil {
		response.Fail(w, r, err)
		return
	}

	ct := storage.DefaultContentType
	if file, ok := h.store.Metadata(r.Context(), key); ok {
		ct = file.ContentType
	}
	w.Header().Set("Content-Type", ct)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *Handler) ownedKey(w http.ResponseWriter, r *http.Request, userID string) (string, bool) {
	key := chi.URLParam(r, "*")
	if key == "" {
		response.Fail(w, r, storage.ErrInvalidKey)
		return "", false
	}
	if !owns(userID, key) {
		response.Fail(w, r, apperr.Forbidden("Key is outside your files"))
		return "", false
	}
	return key, true
}

// GenerateKey builds files/{userID}/{id}-{slug}{ext} from an uploaded file name.
func GenerateKey(userID, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	name := ident.ShortID(12)
	if slug := ident.Slug(strings.TrimSuffix(path.Base(filename), path.Ext(filename)), 60); slug != "" {
		name += "-" + slug
	}
	return namespace(userID) + name + ext
}

func namespace(userID string) string {
	return "files/" + userID + "/"
}

func owns(userID, key string) bool {
	if userID == "" || !strings.HasPrefix(key, namespace(userID)) {
		return false
	}
	for _, seg := range strings.FieldsFunc(key, func(r rune) bool { return r == '/' || r == '\\' }) {
		if seg == ".." {
			return false
		}
	}
	return true
}

// contentType prefers the declared type and falls back to the file extension.
func contentType(declared, name string) string {
	if declared != "" {
		if mt, _, err := mime.ParseMediaType(declared); err == nil && mt != "multipart/form-data" {
			return declared
		}
	}
	return mime.TypeByExtension(path.Ext(name))
}

// formError keeps body size violations intact so they surface as 413.
func formError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return err
	}
	return apperr.BadRequest("Invalid multipart form", nil)
}
