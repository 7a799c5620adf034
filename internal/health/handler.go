// Package health reports liveness, readiness and basic API information.
package health

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/notionv2/service/internal/response"
)

const (
	statusHealthy   = "healthy"
	statusDegraded  = "degraded"
	statusUnhealthy = "unhealthy"

	pingTimeout = 3 * time.Second
)

// Pinger checks a dependency. *pgxpool.Pool satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler serves the health and info endpoints.
type Handler struct {
	db      Pinger
	name    string
	version string
	now     func() time.Time
}

// NewHandler creates a health Handler.
func NewHandler(db Pinger, name, version string) *Handler {
	return &Handler{db: db, name: name, version: version, now: time.Now}
}

// Status is the body of GET /health.
type Status struct {
	Status    string            `json:"status" example:"healthy"`
	Timestamp time.Time         `json:"timestamp"`
	Version   string            `json:"version" example:"1.0.0"`
	Services  map[string]string `json:"services"`
}

// Probe is the body of the liveness and readiness endpoints.
type Probe struct {
	Status    string     `json:"status" example:"ready"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
	Reason    string     `json:"reason,omitempty"`
}

// Routes mounts /, /live and /ready.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.Health)
	r.Get("/live", h.Live)
	r.Get("/ready", h.Ready)
}

func (h *Handler) dbHealthy(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return h.db.Ping(ctx) == nil
}

// Health godoc
//
//	@Summary		Health check
//	@Description	Reports the state of the API and its database. Returns 503 when degraded.
//	@Tags			health
//	@Produce		json
//	@Success		200	{object}	Status
//	@Failure		503	{object}	Status
//	@Router			/health [get]
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	st := Status{
		Status:    statusHealthy,
		Timestamp: h.now().UTC(),
		Version:   h.version,
		Services:  map[string]string{"api": statusHealthy, "database": statusHealthy},
	}
	code := http.StatusOK
	if !h.dbHealthy(r.Context()) {
		st.Status = statusDegraded
		st.Services["database"] = statusUnhealthy
		code = http.StatusServiceUnavailable
	}
	response.JSON(w, code, st)
}

// Live godoc
//
//	@Summary	Liveness probe
//	@Tags		health
//	@Produce	json
//	@Success	200	{object}	Probe
//	@Router		/health/live [get]
func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	now := h.now().UTC()
	response.JSON(w, http.StatusOK, Probe{Status: "alive", Timestamp: &now})
}

// Ready godoc
//
//	@Summary	Readiness probe
//	@Tags		health
//	@Produce	json
//	@Success	200	{object}	Probe
//	@Failure	503	{object}	Probe
//	@Router		/health/ready [get]
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if !h.dbHealthy(r.Context()) {
		response.JSON(w, http.StatusServiceUnavailable, Probe{Status: "not ready", Reason: "Database connection failed"})
		return
	}
	now := h.now().UTC()
	response.JSON(w, http.StatusOK, Probe{Status: "ready", Timestamp: &now})
}

// APIInfo is returned by GET /api/v1.
type APIInfo struct {
	Name          string `json:"name" example:"NotionV2 Clone API"`
	Version       string `json:"version" example:"1.0.0"`
	Documentation string `json:"documentation" example:"/api/v1/docs"`
}

// Welcome is returned by GET /api.
type Welcome struct {
	Message           string   `json:"message"`
	AvailableVersions []string `json:"availableVersions"`
}

// Info godoc
//
//	@Summary	API information
//	@Tags		meta
//	@Produce	json
//	@Success	200	{object}	response.Envelope{data=APIInfo}
//	@Router		/ [get]
func (h *Handler) Info(w http.ResponseWriter, r *http.Request) {
	response.OK(w, APIInfo{Name: h.name, Version: h.version, Documentation: "/api/v1/docs"})
}

// Index serves GET /api.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	response.OK(w, Welcome{Message: "Welcome to " + h.name, AvailableVersions: []string{"/api/v1"}})
}
