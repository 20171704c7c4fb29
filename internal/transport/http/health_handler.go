package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/realghost120/ghostgaurd-becakd/internal/services"
)

// HealthHandler serves liveness, readiness and the diagnostics stats
// endpoint. Liveness never touches dependencies; readiness probes the
// registry and returns 503 while it is unreachable.
type HealthHandler struct {
	health  *services.HealthService
	license services.LicenseService
	logger  *slog.Logger
}

// NewHealthHandler creates the health handler. license may be nil; the
// stats endpoint then omits verification counters.
func NewHealthHandler(healthService *services.HealthService, licenseService services.LicenseService, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		health:  healthService,
		license: licenseService,
		logger:  logger.With(slog.String("handler", "health")),
	}
}

// Routes returns the chi router for /api/health.
func (h *HealthHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.HealthCheck)
	r.Get("/ready", h.ReadinessCheck)
	r.Get("/stats", h.Stats)
	r.Get("/version", h.Version)
	return r
}

// HealthCheck handles GET /api/health.
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.health.HealthCheck(r.Context()))
}

// ReadinessCheck handles GET /api/health/ready.
func (h *HealthHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	status := h.health.ReadinessCheck(r.Context())
	if status.Status != "ready" {
		render.Status(r, http.StatusServiceUnavailable)
	}
	render.JSON(w, r, status)
}

// Stats handles GET /api/health/stats.
func (h *HealthHandler) Stats(w http.ResponseWriter, r *http.Request) {
	var verify services.VerifyStats
	if h.license != nil {
		verify = h.license.Stats()
	}
	render.JSON(w, r, h.health.SystemStats(r.Context(), verify))
}

// Version handles GET /api/health/version.
func (h *HealthHandler) Version(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.health.Version())
}
