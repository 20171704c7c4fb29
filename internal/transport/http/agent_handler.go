package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/realghost120/ghostgaurd-becakd/internal/fleet"
	"github.com/realghost120/ghostgaurd-becakd/internal/license"
	"github.com/realghost120/ghostgaurd-becakd/internal/services"
	api "github.com/realghost120/ghostgaurd-becakd/pkg/contracts/api/v1"
)

// AgentHandler serves the surface game-server agents talk to: license
// verification, heartbeats, action polling and log pushes.
type AgentHandler struct {
	license services.LicenseService
	fleet   *services.FleetService
	logger  *slog.Logger
}

// NewAgentHandler creates the agent-facing handler.
func NewAgentHandler(licenseService services.LicenseService, fleetService *services.FleetService, logger *slog.Logger) *AgentHandler {
	return &AgentHandler{
		license: licenseService,
		fleet:   fleetService,
		logger:  logger.With(slog.String("handler", "agent")),
	}
}

// Routes returns the chi router for /api/agent.
func (h *AgentHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/verify", h.Verify)
	r.Post("/heartbeat", h.Heartbeat)
	r.Get("/actions", h.Actions)
	r.Post("/log", h.PushLog)
	return r
}

// Verify handles POST /api/agent/verify. Policy rejections come back
// with HTTP 200 and valid=false; only a missing key or a body that does
// not decode is a request error. A store outage reads as a rejection
// with reason UNAVAILABLE, still 200.
func (h *AgentHandler) Verify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)
	tracer := otel.Tracer("agent-handler")
	start := time.Now()

	ctx, span := tracer.Start(ctx, "agent_handler.verify",
		trace.WithAttributes(
			attribute.String("http.method", r.Method),
			attribute.String("http.route", "/api/agent/verify"),
			attribute.String("request_id", reqID),
		),
	)
	defer span.End()

	var req api.VerifyRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		span.RecordError(err)
		renderInvalidBody(w, r, h.logger, err)
		return
	}

	span.SetAttributes(
		attribute.String("license.key", license.MaskKey(req.LicenseKey)),
		attribute.Bool("license.hwid_present", req.HWID != ""),
	)

	decision := h.license.Verify(ctx, req.LicenseKey, req.HWID)

	resp := api.VerifyResponse{Valid: decision.Valid, Reason: decision.Reason}
	if decision.Token != nil {
		resp.Payload = decision.Token.Payload
		resp.Signature = decision.Token.Signature
		issued := decision.Token.IssuedAt
		resp.IssuedAt = &issued
	}

	span.SetAttributes(
		attribute.Bool("license.valid", decision.Valid),
		attribute.String("license.reason", decision.Reason),
		attribute.Int64("request.latency_ms", time.Since(start).Milliseconds()),
	)

	// An empty key is the caller's mistake, not a policy outcome, so it
	// alone maps to a request error. The body keeps the decision shape
	// so agents can handle both cases with one decode path.
	if decision.Reason == license.ReasonMissingKey {
		render.Status(r, http.StatusBadRequest)
	}
	render.JSON(w, r, resp)
}

// Heartbeat handles POST /api/agent/heartbeat. The reported roster
// replaces the previous one wholesale; an empty roster is a valid
// report of an empty server.
func (h *AgentHandler) Heartbeat(w http.ResponseWriter, r *http.Request) {
	var req api.HeartbeatRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		renderInvalidBody(w, r, h.logger, err)
		return
	}
	if req.LicenseKey == "" {
		renderMissingField(w, r, h.logger, "license_key")
		return
	}

	h.fleet.Heartbeat(r.Context(), req.LicenseKey, toRoster(req.Players), req.Version, req.Uptime)
	render.JSON(w, r, api.AckResponse{Success: true})
}

// Actions handles GET /api/agent/actions?key=K. Draining consumes the
// queue: each action is delivered to exactly one poll.
func (h *AgentHandler) Actions(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		renderMissingField(w, r, h.logger, "key")
		return
	}

	actions := h.fleet.DrainActions(r.Context(), key)
	render.JSON(w, r, api.ActionsResponse{Actions: toDomainActions(actions)})
}

// PushLog handles POST /api/agent/log.
func (h *AgentHandler) PushLog(w http.ResponseWriter, r *http.Request) {
	var req api.LogPushRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		renderInvalidBody(w, r, h.logger, err)
		return
	}
	if req.LicenseKey == "" {
		renderMissingField(w, r, h.logger, "license_key")
		return
	}
	if req.Message == "" {
		renderMissingField(w, r, h.logger, "message")
		return
	}

	h.fleet.PushLog(r.Context(), req.LicenseKey, fleet.LogEntry{
		Kind:    req.Kind,
		Message: req.Message,
		Title:   req.Title,
		Meta:    req.Meta,
	})
	render.JSON(w, r, api.AckResponse{Success: true})
}
