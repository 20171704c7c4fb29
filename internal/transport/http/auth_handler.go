package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "github.com/realghost120/ghostgaurd-becakd/internal/errors"
	"github.com/realghost120/ghostgaurd-becakd/internal/services"
	api "github.com/realghost120/ghostgaurd-becakd/pkg/contracts/api/v1"
)

// AuthHandler serves console account registration and login.
type AuthHandler struct {
	auth   services.AuthService
	logger *slog.Logger
}

// NewAuthHandler creates the auth handler.
func NewAuthHandler(authService services.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		auth:   authService,
		logger: logger.With(slog.String("handler", "auth")),
	}
}

// Routes returns the chi router for /api/auth.
func (h *AuthHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/register", h.Register)
	r.Post("/login", h.Login)
	return r
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req api.RegisterRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		renderInvalidBody(w, r, h.logger, err)
		return
	}
	if req.Username == "" {
		renderMissingField(w, r, h.logger, "username")
		return
	}
	if req.Password == "" {
		renderMissingField(w, r, h.logger, "password")
		return
	}

	rec, err := h.auth.Register(r.Context(), req.Username, req.Password, req.LicenseKey)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, api.AuthResponse{Success: true, Customer: toDomainCustomer(rec)})
}

// Login handles POST /api/auth/login. Unknown usernames and wrong
// passwords both come back as one credentials rejection.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req api.LoginRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		renderInvalidBody(w, r, h.logger, err)
		return
	}
	if req.Username == "" {
		renderMissingField(w, r, h.logger, "username")
		return
	}
	if req.Password == "" {
		renderMissingField(w, r, h.logger, "password")
		return
	}

	rec, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	render.JSON(w, r, api.AuthResponse{Success: true, Customer: toDomainCustomer(rec)})
}

func (h *AuthHandler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	reqID, traceID := requestTrace(r)
	h.logger.WarnContext(r.Context(), "auth request rejected",
		slog.String("request_id", reqID),
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()))

	render.Render(w, r, apierrors.MapLicenseError(err, traceID))
}
