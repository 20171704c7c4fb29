package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	apierrors "github.com/realghost120/ghostgaurd-becakd/internal/errors"
	"github.com/realghost120/ghostgaurd-becakd/internal/infrastructure"
)

// requestTrace returns the request id and trace id for response
// extensions, falling back to the request id when no trace is active.
func requestTrace(r *http.Request) (reqID, traceID string) {
	reqID = middleware.GetReqID(r.Context())
	traceID = infrastructure.TraceIDFromContext(r.Context())
	if traceID == "" {
		traceID = reqID
	}
	return reqID, traceID
}

// renderInvalidBody responds 400 for a request body that failed to
// decode. Rejections that are part of the verification policy never go
// through here; this is strictly for malformed input.
func renderInvalidBody(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	reqID, traceID := requestTrace(r)
	logger.WarnContext(r.Context(), "malformed request body",
		slog.String("request_id", reqID),
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()))

	problem := apierrors.NewProblemDetails(
		http.StatusBadRequest,
		apierrors.TypeValidation,
		"Invalid Request Body",
		err.Error(),
		r.URL.Path+"#"+reqID,
	).WithExtension("trace_id", traceID)
	render.Render(w, r, problem)
}

// renderMissingField responds 400 for a required field or query
// parameter that the request left empty.
func renderMissingField(w http.ResponseWriter, r *http.Request, logger *slog.Logger, field string) {
	reqID, traceID := requestTrace(r)
	logger.WarnContext(r.Context(), "missing required field",
		slog.String("request_id", reqID),
		slog.String("path", r.URL.Path),
		slog.String("field", field))

	problem := apierrors.NewProblemDetails(
		http.StatusBadRequest,
		apierrors.TypeValidation,
		"Missing Required Field",
		field+" is required",
		r.URL.Path+"#"+reqID,
	).WithExtension("trace_id", traceID).
		WithExtension("field", field)
	render.Render(w, r, problem)
}
