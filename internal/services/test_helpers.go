package services

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/stretchr/testify/mock"
)

// MockEventBroadcaster is a mock for the EventBroadcaster interface
type MockEventBroadcaster struct {
	mock.Mock
}

func (m *MockEventBroadcaster) BroadcastHeartbeat(ctx context.Context, licenseKey string, players int, version string, uptime int64) {
	m.Called(ctx, licenseKey, players, version, uptime)
}

func (m *MockEventBroadcaster) BroadcastBan(ctx context.Context, licenseKey, player string, when time.Time) {
	m.Called(ctx, licenseKey, player, when)
}

func (m *MockEventBroadcaster) BroadcastActionQueued(ctx context.Context, licenseKey, actionID, actionType string) {
	m.Called(ctx, licenseKey, actionID, actionType)
}

func (m *MockEventBroadcaster) BroadcastActionsDrained(ctx context.Context, licenseKey string, count int) {
	m.Called(ctx, licenseKey, count)
}

func (m *MockEventBroadcaster) BroadcastLog(ctx context.Context, licenseKey, kind, message string) {
	m.Called(ctx, licenseKey, kind, message)
}

// discardLogger returns a logger for tests that keeps output quiet.
func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}
