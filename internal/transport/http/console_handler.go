package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/realghost120/ghostgaurd-becakd/internal/services"
	api "github.com/realghost120/ghostgaurd-becakd/pkg/contracts/api/v1"
)

// ConsoleHandler serves the customer console's read surface over fleet
// state plus the two console writes (ban, action enqueue). Reads on a
// license the fleet has never heard from return the zero view, never an
// error: the console cannot distinguish "unknown" from "silent".
type ConsoleHandler struct {
	fleet  *services.FleetService
	logger *slog.Logger
}

// NewConsoleHandler creates the console-facing handler.
func NewConsoleHandler(fleetService *services.FleetService, logger *slog.Logger) *ConsoleHandler {
	return &ConsoleHandler{
		fleet:  fleetService,
		logger: logger.With(slog.String("handler", "console")),
	}
}

// Routes returns the chi router for /api/console.
func (h *ConsoleHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/status/{key}", h.Status)
	r.Get("/players/{key}", h.Players)
	r.Get("/bans/{key}", h.Bans)
	r.Get("/logs/{key}", h.Logs)
	r.Post("/ban", h.Ban)
	r.Post("/actions", h.EnqueueAction)
	return r
}

// Status handles GET /api/console/status/{key}. Online is derived from
// the last heartbeat age at read time, so a stalled server flips
// offline without any write happening.
func (h *ConsoleHandler) Status(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	view := h.fleet.Status(r.Context(), key)
	render.JSON(w, r, toDomainStatus(view))
}

// Players handles GET /api/console/players/{key}.
func (h *ConsoleHandler) Players(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	roster := h.fleet.Players(r.Context(), key)
	render.JSON(w, r, api.PlayersResponse{Players: toDomainPlayers(roster)})
}

// Bans handles GET /api/console/bans/{key}. History is append-only,
// oldest first; repeat bans of one player show as separate entries.
func (h *ConsoleHandler) Bans(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	bans := h.fleet.Bans(r.Context(), key)
	render.JSON(w, r, api.BansResponse{Bans: toDomainBans(bans)})
}

// Logs handles GET /api/console/logs/{key}, newest first.
func (h *ConsoleHandler) Logs(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	logs := h.fleet.Logs(r.Context(), key)
	render.JSON(w, r, api.LogsResponse{Logs: toDomainLogs(logs)})
}

// Ban handles POST /api/console/ban.
func (h *ConsoleHandler) Ban(w http.ResponseWriter, r *http.Request) {
	var req api.BanRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		renderInvalidBody(w, r, h.logger, err)
		return
	}
	if req.LicenseKey == "" {
		renderMissingField(w, r, h.logger, "license_key")
		return
	}
	if req.Player == "" {
		renderMissingField(w, r, h.logger, "player")
		return
	}

	h.fleet.Ban(r.Context(), req.LicenseKey, req.Player)
	render.JSON(w, r, api.AckResponse{Success: true})
}

// EnqueueAction handles POST /api/console/actions. The payload passes
// through opaque; the assigned id comes back so the console can
// correlate the action when the agent reports on it.
func (h *ConsoleHandler) EnqueueAction(w http.ResponseWriter, r *http.Request) {
	var req api.ActionEnqueueRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		renderInvalidBody(w, r, h.logger, err)
		return
	}
	if req.LicenseKey == "" {
		renderMissingField(w, r, h.logger, "license_key")
		return
	}
	if req.Type == "" {
		renderMissingField(w, r, h.logger, "type")
		return
	}

	action := h.fleet.EnqueueAction(r.Context(), req.LicenseKey, req.Type, req.Payload)
	render.JSON(w, r, api.EnqueueResponse{ID: action.ID})
}
