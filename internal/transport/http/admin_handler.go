package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "github.com/realghost120/ghostgaurd-becakd/internal/errors"
	"github.com/realghost120/ghostgaurd-becakd/internal/services"
	api "github.com/realghost120/ghostgaurd-becakd/pkg/contracts/api/v1"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// AdminHandler serves license administration: minting, listing, status
// changes, device resets and the spreadsheet export. The whole router
// sits behind the admin-secret middleware.
type AdminHandler struct {
	admin  services.AdminService
	logger *slog.Logger
}

// NewAdminHandler creates the admin handler.
func NewAdminHandler(adminService services.AdminService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		admin:  adminService,
		logger: logger.With(slog.String("handler", "admin")),
	}
}

// Routes returns the chi router for /api/admin.
func (h *AdminHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/licenses", h.CreateLicense)
	r.Get("/licenses", h.ListLicenses)
	r.Get("/licenses/export", h.ExportLicenses)
	r.Put("/licenses/{key}/status", h.UpdateStatus)
	r.Post("/licenses/{key}/reset-hwid", h.ResetHWID)
	return r
}

// CreateLicense handles POST /api/admin/licenses.
func (h *AdminHandler) CreateLicense(w http.ResponseWriter, r *http.Request) {
	var req api.CreateLicenseRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		renderInvalidBody(w, r, h.logger, err)
		return
	}
	if req.Duration == "" {
		renderMissingField(w, r, h.logger, "duration")
		return
	}

	rec, err := h.admin.CreateLicense(r.Context(), req.Duration)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, api.LicenseResponse{License: toDomainLicense(rec)})
}

// ListLicenses handles GET /api/admin/licenses with optional status and
// limit query filters.
func (h *AdminHandler) ListLicenses(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			renderMissingField(w, r, h.logger, "limit")
			return
		}
		limit = parsed
	}

	recs, err := h.admin.ListLicenses(r.Context(), status, limit)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	licenses := toDomainLicenses(recs)
	render.JSON(w, r, api.ListLicensesResponse{Licenses: licenses, Count: len(licenses)})
}

// UpdateStatus handles PUT /api/admin/licenses/{key}/status. The stored
// status doubles as the verification rejection reason, so the accepted
// set is closed.
func (h *AdminHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	var req api.UpdateLicenseStatusRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		renderInvalidBody(w, r, h.logger, err)
		return
	}
	if req.Status == "" {
		renderMissingField(w, r, h.logger, "status")
		return
	}

	rec, err := h.admin.UpdateStatus(r.Context(), key, req.Status)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	render.JSON(w, r, api.LicenseResponse{License: toDomainLicense(rec)})
}

// ResetHWID handles POST /api/admin/licenses/{key}/reset-hwid. Clearing
// the binding lets the next verifying device bind fresh; support uses
// this for legitimate hardware changes.
func (h *AdminHandler) ResetHWID(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	rec, err := h.admin.ResetHWID(r.Context(), key)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	render.JSON(w, r, api.LicenseResponse{License: toDomainLicense(rec)})
}

// ExportLicenses handles GET /api/admin/licenses/export, streaming the
// full registry as an xlsx attachment.
func (h *AdminHandler) ExportLicenses(w http.ResponseWriter, r *http.Request) {
	f, err := h.admin.ExportLicenses(r.Context())
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	defer f.Close()

	filename := fmt.Sprintf("ghostguard-licenses-%s.xlsx", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	if err := f.Write(w); err != nil {
		// Headers are gone already; all we can do is log.
		h.logger.ErrorContext(r.Context(), "license export write failed",
			slog.String("error", err.Error()))
	}
}

func (h *AdminHandler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	reqID, traceID := requestTrace(r)
	h.logger.ErrorContext(r.Context(), "admin request failed",
		slog.String("request_id", reqID),
		slog.String("path", r.URL.Path),
		slog.String("method", r.Method),
		slog.String("error", err.Error()))

	switch {
	case errors.Is(err, services.ErrInvalidDuration),
		errors.Is(err, services.ErrInvalidStatus),
		errors.Is(err, services.ErrInvalidInput):
		problem := apierrors.NewProblemDetails(
			http.StatusBadRequest,
			apierrors.TypeValidation,
			"Invalid Request",
			err.Error(),
			r.URL.Path+"#"+reqID,
		).WithExtension("trace_id", traceID)
		render.Render(w, r, problem)

	case errors.Is(err, services.ErrExportFailed):
		problem := apierrors.NewProblemDetails(
			http.StatusInternalServerError,
			apierrors.TypeInternal,
			"Export Failed",
			"The license export could not be generated.",
			r.URL.Path+"#"+reqID,
		).WithExtension("trace_id", traceID)
		render.Render(w, r, problem)

	default:
		render.Render(w, r, apierrors.MapLicenseError(err, traceID))
	}
}
