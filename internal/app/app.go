package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/gorilla/websocket"

	"github.com/realghost120/ghostgaurd-becakd/internal/config"
	"github.com/realghost120/ghostgaurd-becakd/internal/fleet"
	"github.com/realghost120/ghostgaurd-becakd/internal/infrastructure"
	"github.com/realghost120/ghostgaurd-becakd/internal/license"
	customMiddleware "github.com/realghost120/ghostgaurd-becakd/internal/middleware"
	"github.com/realghost120/ghostgaurd-becakd/internal/services"
	"github.com/realghost120/ghostgaurd-becakd/internal/store"
	handlers "github.com/realghost120/ghostgaurd-becakd/internal/transport/http"
	ws "github.com/realghost120/ghostgaurd-becakd/internal/websocket"
	"github.com/realghost120/ghostgaurd-becakd/pkg/contracts"
)

const (
	writeBackWorkers      = 2
	writeBackTimeout      = 5 * time.Second
	writeBackDrainTimeout = 10 * time.Second
	systemMetricsInterval = 15 * time.Second
)

// Application wires configuration, the license registry, the fleet
// tracker and the HTTP surface into one runnable unit.
type Application struct {
	Config        *config.Config
	Router        *chi.Mux
	Server        *http.Server
	Store         store.Store
	WriteBacks    *store.WriteBackQueue
	Issuer        *license.Issuer
	Resolver      *license.Resolver
	Tracker       *fleet.Tracker
	Hub           *ws.Hub
	Logger        *slog.Logger
	Services      *ServiceContainer
	OTelProviders *infrastructure.OTelProviders

	systemMetrics *infrastructure.SystemMetricsCollector
}

// ServiceContainer holds all application services.
type ServiceContainer struct {
	License services.LicenseService
	Fleet   *services.FleetService
	Auth    services.AuthService
	Admin   services.AdminService
	Health  *services.HealthService
}

// NewApplication creates a new application instance with dependency injection.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("Application starting",
		slog.String("name", config.AppName),
		slog.String("version", config.AppVersion),
		slog.String("store_backend", cfg.Store.Backend))

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.DefaultOTelConfig(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
	}

	if err := app.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.setupRouter()
	app.createServer()

	return app, nil
}

// initializeServices builds the registry, the verification path, the
// fleet tracker and the service layer, in dependency order.
func (a *Application) initializeServices() error {
	ctx := context.Background()

	st, err := a.openStore(ctx)
	if err != nil {
		return fmt.Errorf("failed to open license registry: %w", err)
	}
	a.Store = st

	queue := store.NewWriteBackQueue(writeBackWorkers, writeBackTimeout, a.Logger)
	queue.Start(ctx)
	a.WriteBacks = queue

	// The issuer is fatal on a missing secret: a server that cannot
	// sign grants must not come up and silently hand out nothing.
	issuer, err := license.NewIssuer(a.Config.Security.SigningSecret)
	if err != nil {
		return fmt.Errorf("failed to initialize grant issuer: %w", err)
	}
	a.Issuer = issuer

	resolver := license.NewResolver(st, issuer, queue, a.Logger)
	if m, err := license.InitializeVerifyMetrics(a.OTelProviders.Meter); err != nil {
		a.Logger.Warn("verify metrics unavailable", slog.String("error", err.Error()))
	} else {
		resolver.SetMetrics(m)
	}
	a.Resolver = resolver

	tracker := fleet.NewTracker(fleet.NewIDGenerator(), a.Logger)
	if m, err := fleet.InitializeMetrics(a.OTelProviders.Meter); err != nil {
		a.Logger.Warn("fleet metrics unavailable", slog.String("error", err.Error()))
	} else {
		tracker.SetMetrics(m)
	}
	a.Tracker = tracker

	hub := ws.NewHub(a.Logger)
	if m, err := ws.InitializeMetrics(a.OTelProviders.Meter); err != nil {
		a.Logger.Warn("websocket metrics unavailable", slog.String("error", err.Error()))
	} else {
		hub.SetMetrics(m)
	}
	hub.Start()
	a.Hub = hub

	collector, err := infrastructure.NewSystemMetricsCollector(a.OTelProviders.Meter, systemMetricsInterval)
	if err != nil {
		a.Logger.Warn("system metrics collector unavailable", slog.String("error", err.Error()))
		collector = nil
	}
	a.systemMetrics = collector

	fleetService := services.NewFleetService(tracker, hub, a.Logger)

	a.Services = &ServiceContainer{
		License: services.NewLicenseService(resolver, a.Logger),
		Fleet:   fleetService,
		Auth:    services.NewAuthService(st, a.Logger),
		Admin:   services.NewAdminService(st, a.Logger),
		Health:  services.NewHealthService(config.AppVersion, contracts.BuildTime, st, fleetService, hub, collector, a.Logger),
	}

	return nil
}

// openStore selects the registry backend from configuration.
func (a *Application) openStore(ctx context.Context) (store.Store, error) {
	switch a.Config.Store.Backend {
	case config.BackendMemory:
		return store.NewMemoryStore(), nil
	case config.BackendPostgres:
		return store.NewPGStore(ctx, a.Config.Store.Postgres.DSN)
	case config.BackendSheets:
		return store.NewSheetsStore(ctx, store.SheetsConfig{
			SpreadsheetID:   a.Config.Store.Sheets.SpreadsheetID,
			LicensesSheet:   a.Config.Store.Sheets.LicensesSheet,
			CustomersSheet:  a.Config.Store.Sheets.CustomersSheet,
			CredentialsFile: a.Config.Store.Sheets.CredentialsFile,
			APIKey:          a.Config.Store.Sheets.APIKey,
		})
	default:
		return nil, fmt.Errorf("unknown store backend: %q", a.Config.Store.Backend)
	}
}

// setupRouter configures the HTTP router with all routes.
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	// Minimal middleware that won't interfere with the WebSocket
	// upgrade; these don't wrap the ResponseWriter.
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	// Console feed upgrade, registered before the full middleware group.
	r.With(customMiddleware.WebSocketTraceMiddleware(a.Logger)).HandleFunc("/ws", a.handleWebSocket)

	r.Group(func(r chi.Router) {
		otelMiddleware, err := customMiddleware.NewOTelMiddleware(a.OTelProviders)
		if err != nil {
			a.Logger.Error("Failed to create OpenTelemetry middleware", slog.String("error", err.Error()))
		} else {
			r.Use(otelMiddleware.Handler)
		}

		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(customMiddleware.Recoverer(a.Logger))
		r.Use(customMiddleware.SecurityHeaders)
		r.Use(customMiddleware.CORS(a.getCORSConfig()))

		if a.Config.Security.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
			).Handler)
		}

		a.setupAPIRoutes(r)
	})

	// Prometheus scrape endpoint, outside the middleware group.
	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	a.Router = r
}

// setupAPIRoutes configures API endpoints.
func (a *Application) setupAPIRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		r.Group(func(r chi.Router) {
			r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout, a.Logger))

			healthHandler := handlers.NewHealthHandler(a.Services.Health, a.Services.License, a.Logger)
			r.Mount("/health", healthHandler.Routes())

			agentHandler := handlers.NewAgentHandler(a.Services.License, a.Services.Fleet, a.Logger)
			r.Mount("/agent", agentHandler.Routes())

			consoleHandler := handlers.NewConsoleHandler(a.Services.Fleet, a.Logger)
			r.Mount("/console", consoleHandler.Routes())

			authHandler := handlers.NewAuthHandler(a.Services.Auth, a.Logger)
			r.Mount("/auth", authHandler.Routes())

			// Browser console forwarding from the operator UI.
			r.Post("/logs", handlers.NewClientLogHandler(a.Logger).Handle)
		})

		// Admin surface: shared-secret auth plus an audit trail.
		r.Group(func(r chi.Router) {
			r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout, a.Logger))
			r.Use(customMiddleware.AdminAuth(a.Logger, a.Config.Security.AdminSecret))
			r.Use(customMiddleware.AuditLog(a.Logger))

			adminHandler := handlers.NewAdminHandler(a.Services.Admin, a.Logger)
			r.Mount("/admin", adminHandler.Routes())
		})
	})
}

// getCORSConfig builds the CORS policy from configuration.
func (a *Application) getCORSConfig() customMiddleware.CORSConfig {
	cfg := customMiddleware.CORSConfig{
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{
			"Accept",
			"Authorization",
			"Content-Type",
			"X-Request-ID",
			"X-Requested-With",
			customMiddleware.AdminSecretHeader,
		},
		ExposedHeaders: []string{
			"X-Request-ID",
		},
		AllowCredentials: true,
		MaxAge:           300,
		Logger:           a.Logger,
	}

	cfg.AllowedOrigins = a.corsOrigins()
	if a.Config.Logging.Development {
		a.Logger.Info("CORS configured for development mode",
			slog.Any("allowed_origins", cfg.AllowedOrigins))
	}

	return cfg
}

// corsOrigins returns the origins allowed to reach the console surface.
// Development mode adds the usual local UI dev server ports.
func (a *Application) corsOrigins() []string {
	origins := make([]string, 0, len(a.Config.Security.AllowedOrigins)+2)
	if a.Config.Security.EnableCORS {
		origins = append(origins, a.Config.Security.AllowedOrigins...)
	}
	if a.Config.Logging.Development {
		origins = append(origins,
			"http://localhost:3000",
			"http://127.0.0.1:3000",
		)
	}
	if len(origins) == 0 {
		origins = append(origins, fmt.Sprintf("http://localhost:%d", a.Config.Server.Port))
	}
	return origins
}

// createServer creates the HTTP server.
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Start starts the application. A server error cancels ctx so Run can
// unwind instead of hanging on a dead listener.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", config.AppName),
		slog.String("version", config.AppVersion),
		slog.Int("port", a.Config.Server.Port),
		slog.String("level", a.Config.Logging.Level))

	if a.systemMetrics != nil {
		go a.systemMetrics.Start(ctx)
	}

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	a.Logger.InfoContext(ctx, "Application started successfully",
		slog.String("address", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)))

	return nil
}

// Stop gracefully stops the application.
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	a.Hub.Stop()

	// Flush pending write-backs (last_seen stamps, hwid bindings)
	// before the registry goes away.
	if err := a.WriteBacks.Stop(writeBackDrainTimeout); err != nil {
		a.Logger.ErrorContext(ctx, "Write-back queue did not drain", slog.String("error", err.Error()))
	}

	if a.systemMetrics != nil {
		a.systemMetrics.Stop()
	}

	if closer, ok := a.Store.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			a.Logger.ErrorContext(ctx, "Error closing license registry", slog.String("error", err.Error()))
		}
	}

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return nil
}

// Run runs the application until interrupted.
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	select {
	case <-sigChan:
		a.Logger.InfoContext(ctx, "Received interrupt signal")
	case <-ctx.Done():
		a.Logger.InfoContext(ctx, "Server stopped")
	}

	return a.Stop(context.Background())
}

// handleWebSocket upgrades a console connection and hands it to the hub.
func (a *Application) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	traceID := infrastructure.GetTraceID(ctx)

	upgrader := websocket.Upgrader{
		ReadBufferSize:  a.Config.WebSocket.ReadBufferSize,
		WriteBufferSize: a.Config.WebSocket.WriteBufferSize,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			// No origin means a non-browser client (CLI consoles,
			// curl probes); the feed is read-only so let them in.
			if origin == "" {
				return true
			}
			for _, allowed := range a.corsOrigins() {
				if origin == allowed {
					return true
				}
			}
			a.Logger.WarnContext(ctx, "WebSocket origin rejected",
				slog.String("origin", origin))
			return false
		},
		Error: func(w http.ResponseWriter, r *http.Request, status int, reason error) {
			a.Logger.ErrorContext(ctx, "WebSocket upgrade error",
				slog.Int("status", status),
				slog.String("reason", reason.Error()))
		},
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		a.Logger.ErrorContext(ctx, "WebSocket upgrade failed",
			slog.String("error", err.Error()),
			slog.String("origin", r.Header.Get("Origin")))
		return
	}

	a.Logger.InfoContext(ctx, "Console feed client connected",
		slog.String("remote_addr", r.RemoteAddr),
		slog.String("trace_id", traceID))

	ws.ServeWSWithTrace(a.Hub, conn, traceID)
}
