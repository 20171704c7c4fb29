package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	api "github.com/realghost120/ghostgaurd-becakd/pkg/contracts/api/v1"
)

// ClientLogHandler forwards console browser logs into the server log
// stream so frontend failures show up next to backend ones.
type ClientLogHandler struct {
	logger *slog.Logger
}

// NewClientLogHandler creates the client log handler.
func NewClientLogHandler(logger *slog.Logger) *ClientLogHandler {
	return &ClientLogHandler{
		logger: logger.With(slog.String("handler", "client_log")),
	}
}

// ClientLogRequest is one log line reported by the console frontend.
type ClientLogRequest struct {
	Level   string                 `json:"level"`
	Message string                 `json:"message"`
	Data    map[string]interface{} `json:"data,omitempty"`
	Source  string                 `json:"source,omitempty"`
}

// Handle processes POST /api/console/client-log.
func (h *ClientLogHandler) Handle(w http.ResponseWriter, r *http.Request) {
	var req ClientLogRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		renderInvalidBody(w, r, h.logger, err)
		return
	}
	if req.Message == "" {
		renderMissingField(w, r, h.logger, "message")
		return
	}

	var level slog.Level
	switch req.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	attrs := []slog.Attr{slog.String("client_source", req.Source)}
	if req.Data != nil {
		attrs = append(attrs, slog.Any("data", req.Data))
	}
	h.logger.LogAttrs(r.Context(), level, req.Message, attrs...)

	render.JSON(w, r, api.AckResponse{Success: true})
}
