package services

import (
	"context"
	"errors"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/realghost120/ghostgaurd-becakd/internal/fleet"
	"github.com/realghost120/ghostgaurd-becakd/internal/infrastructure"
	"github.com/realghost120/ghostgaurd-becakd/internal/store"
	ws "github.com/realghost120/ghostgaurd-becakd/internal/websocket"
)

// pingableStore wraps a store with a controllable reachability probe.
type pingableStore struct {
	store.Store
	pingErr error
}

func (p *pingableStore) Ping(ctx context.Context) error { return p.pingErr }

func TestHealthServiceHealthCheck(t *testing.T) {
	svc := NewHealthService("1.2.0", "2025-06-01T00:00:00Z", store.NewMemoryStore(), nil, nil, nil, discardLogger())

	status := svc.HealthCheck(context.Background())
	assert.Equal(t, "ok", status.Status)
	assert.Equal(t, "1.2.0", status.Version)
	assert.False(t, status.Timestamp.IsZero())
	assert.Nil(t, status.Components)
}

func TestHealthServiceReadinessCheck(t *testing.T) {
	tracker := fleet.NewTracker(fleet.NewIDGenerator(), discardLogger())
	fleetSvc := NewFleetService(tracker, nil, discardLogger())
	hub := ws.NewHub(discardLogger())

	tests := []struct {
		name           string
		st             store.Store
		fleet          *FleetService
		hub            *ws.Hub
		wantStatus     string
		wantComponents map[string]string
	}{
		{
			name:       "all components ready",
			st:         store.NewMemoryStore(),
			fleet:      fleetSvc,
			hub:        hub,
			wantStatus: "ready",
			wantComponents: map[string]string{
				"store":     "ready",
				"fleet":     "ready",
				"websocket": "ready",
			},
		},
		{
			name:       "disabled components do not block readiness",
			st:         store.NewMemoryStore(),
			wantStatus: "ready",
			wantComponents: map[string]string{
				"store":     "ready",
				"fleet":     "disabled",
				"websocket": "disabled",
			},
		},
		{
			name:       "unreachable store flips to not_ready",
			st:         &pingableStore{Store: store.NewMemoryStore(), pingErr: errors.New("dial tcp: refused")},
			fleet:      fleetSvc,
			hub:        hub,
			wantStatus: "not_ready",
			wantComponents: map[string]string{
				"store":     "unreachable: dial tcp: refused",
				"fleet":     "ready",
				"websocket": "ready",
			},
		},
		{
			name:       "probe timeout is reported as such",
			st:         &pingableStore{Store: store.NewMemoryStore(), pingErr: context.DeadlineExceeded},
			wantStatus: "not_ready",
			wantComponents: map[string]string{
				"store":     "timeout",
				"fleet":     "disabled",
				"websocket": "disabled",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewHealthService("1.2.0", "unknown", tt.st, tt.fleet, tt.hub, nil, discardLogger())

			status := svc.ReadinessCheck(context.Background())
			assert.Equal(t, tt.wantStatus, status.Status)
			assert.Equal(t, tt.wantComponents, status.Components)
		})
	}
}

func TestHealthServiceVersion(t *testing.T) {
	svc := NewHealthService("1.2.0", "2025-06-01T00:00:00Z", store.NewMemoryStore(), nil, nil, nil, discardLogger())

	info := svc.Version()
	assert.Equal(t, "1.2.0", info.Version)
	assert.Equal(t, "2025-06-01T00:00:00Z", info.BuildTime)
	assert.Equal(t, runtime.Version(), info.GoVersion)
}

func TestHealthServiceSystemStats(t *testing.T) {
	tracker := fleet.NewTracker(fleet.NewIDGenerator(), discardLogger())
	fleetSvc := NewFleetService(tracker, nil, discardLogger())
	fleetSvc.Heartbeat(context.Background(), "GG-AAAAA-BBBBB-CCCCC-DD", nil, "1.0.0", 60)
	hub := ws.NewHub(discardLogger())

	meter := sdkmetric.NewMeterProvider().Meter("test")
	collector, err := infrastructure.NewSystemMetricsCollector(meter, time.Minute)
	require.NoError(t, err)

	svc := NewHealthService("1.2.0", "unknown", store.NewMemoryStore(), fleetSvc, hub, collector, discardLogger())

	verify := VerifyStats{Total: 5, Accepted: 4, Rejected: 1}
	stats := svc.SystemStats(context.Background(), verify)

	assert.Equal(t, verify, stats.Verification)
	assert.Equal(t, 1, stats.FleetSessions)
	assert.Zero(t, stats.WebSocketClients)
	assert.Positive(t, stats.Goroutines)
	assert.Positive(t, stats.MemoryAllocBytes)
	assert.Equal(t, runtime.Version(), stats.GoVersion)
	assert.Equal(t, runtime.GOOS, stats.OS)
	assert.Equal(t, runtime.GOARCH, stats.Arch)
}

func TestHealthServiceSystemStatsNilDependencies(t *testing.T) {
	svc := NewHealthService("1.2.0", "unknown", store.NewMemoryStore(), nil, nil, nil, discardLogger())

	stats := svc.SystemStats(context.Background(), VerifyStats{})
	assert.Zero(t, stats.FleetSessions)
	assert.Zero(t, stats.WebSocketClients)
	assert.Zero(t, stats.Goroutines)
}
