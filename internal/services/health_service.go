package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/realghost120/ghostgaurd-becakd/internal/infrastructure"
	"github.com/realghost120/ghostgaurd-becakd/internal/store"
	ws "github.com/realghost120/ghostgaurd-becakd/internal/websocket"
)

// storeProbeTimeout bounds the registry reachability check during
// readiness probes.
const storeProbeTimeout = 3 * time.Second

// HealthService provides health check functionality
type HealthService struct {
	version   string
	buildTime string
	store     store.Store
	fleet     *FleetService
	hub       *ws.Hub
	collector *infrastructure.SystemMetricsCollector
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status     string            `json:"status"`
	Timestamp  time.Time         `json:"timestamp"`
	Version    string            `json:"version"`
	Uptime     string            `json:"uptime"`
	Components map[string]string `json:"components,omitempty"`
}

// SystemStats represents runtime statistics for the diagnostics surface
type SystemStats struct {
	UptimeSeconds    float64     `json:"uptime_seconds"`
	Goroutines       int64       `json:"goroutines"`
	MemoryAllocBytes int64       `json:"memory_alloc_bytes"`
	FleetSessions    int         `json:"fleet_sessions"`
	WebSocketClients int         `json:"websocket_clients"`
	Verification     VerifyStats `json:"verification"`
	GoVersion        string      `json:"go_version"`
	OS               string      `json:"os"`
	Arch             string      `json:"arch"`
}

// NewHealthService creates a new health service with injected dependencies.
// fleet, hub and collector may be nil; the corresponding stats are omitted.
func NewHealthService(version, buildTime string, st store.Store, fleet *FleetService, hub *ws.Hub, collector *infrastructure.SystemMetricsCollector, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("HealthService initialized",
		slog.String("version", version),
		slog.String("build_time", buildTime))

	return &HealthService{
		version:   version,
		buildTime: buildTime,
		store:     st,
		fleet:     fleet,
		hub:       hub,
		collector: collector,
		startTime: time.Now(),
		logger:    logger,
	}
}

// HealthCheck returns overall liveness. It never touches dependencies;
// a running process is a live process.
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
		Version:   hs.version,
		Uptime:    time.Since(hs.startTime).Round(time.Second).String(),
	}
}

// ReadinessCheck probes the registry and reports per-component state.
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:     "ready",
		Timestamp:  time.Now().UTC(),
		Version:    hs.version,
		Uptime:     time.Since(hs.startTime).Round(time.Second).String(),
		Components: make(map[string]string),
	}

	status.Components["store"] = hs.checkStore(ctx)
	status.Components["fleet"] = hs.checkFleet()
	status.Components["websocket"] = hs.checkWebSocket()

	// Disabled components are absent by configuration, not broken
	for _, state := range status.Components {
		if state != "ready" && state != "disabled" {
			status.Status = "not_ready"
			break
		}
	}
	return status
}

// VersionInfo is the build identity returned by the version endpoint.
type VersionInfo struct {
	Version   string `json:"version"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
}

// Version returns the build identity.
func (hs *HealthService) Version() VersionInfo {
	return VersionInfo{
		Version:   hs.version,
		BuildTime: hs.buildTime,
		GoVersion: runtime.Version(),
	}
}

// SystemStats returns runtime statistics for the diagnostics endpoint.
func (hs *HealthService) SystemStats(ctx context.Context, verify VerifyStats) SystemStats {
	stats := SystemStats{
		UptimeSeconds: time.Since(hs.startTime).Seconds(),
		Verification:  verify,
		GoVersion:     runtime.Version(),
		OS:            runtime.GOOS,
		Arch:          runtime.GOARCH,
	}

	if hs.collector != nil {
		if snap := hs.collector.GetCurrentStats(ctx); snap != nil {
			stats.Goroutines = snap.GoRoutines
			stats.MemoryAllocBytes = snap.MemoryAllocated
		}
	}
	if hs.fleet != nil {
		stats.FleetSessions = hs.fleet.SessionCount()
	}
	if hs.hub != nil {
		stats.WebSocketClients = hs.hub.ClientCount()
	}
	return stats
}

// checkStore probes registry reachability. Backends without a Ping
// (the in-memory store) count as ready by construction.
func (hs *HealthService) checkStore(ctx context.Context) string {
	type pinger interface {
		Ping(ctx context.Context) error
	}

	p, ok := hs.store.(pinger)
	if !ok {
		return "ready"
	}

	probeCtx, cancel := context.WithTimeout(ctx, storeProbeTimeout)
	defer cancel()

	if err := p.Ping(probeCtx); err != nil {
		hs.logger.Warn("store readiness probe failed",
			slog.String("error", err.Error()))
		if errors.Is(err, context.DeadlineExceeded) {
			return "timeout"
		}
		return fmt.Sprintf("unreachable: %v", err)
	}
	return "ready"
}

func (hs *HealthService) checkFleet() string {
	if hs.fleet == nil {
		return "disabled"
	}
	return "ready"
}

func (hs *HealthService) checkWebSocket() string {
	if hs.hub == nil {
		return "disabled"
	}
	return "ready"
}
