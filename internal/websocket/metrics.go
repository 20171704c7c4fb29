package websocket

import (
	"fmt"

	"go.opentelemetry.io/otel/metric"
)

// MeterName identifies the websocket instrument scope.
const MeterName = "ghostguard.websocket"

// Metrics holds the hub instrument set.
type Metrics struct {
	ConnectionsTotal metric.Int64Counter
	ActiveClients    metric.Int64UpDownCounter
	Broadcasts       metric.Int64Counter
	MessagesSent     metric.Int64Counter
	MessagesDropped  metric.Int64Counter
}

// InitializeMetrics creates the hub metrics on meter.
func InitializeMetrics(meter metric.Meter) (*Metrics, error) {
	metrics := &Metrics{}

	var err error

	metrics.ConnectionsTotal, err = meter.Int64Counter(
		"websocket_connections_total",
		metric.WithDescription("Total number of WebSocket connections accepted"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create connections counter: %w", err)
	}

	metrics.ActiveClients, err = meter.Int64UpDownCounter(
		"websocket_clients_active",
		metric.WithDescription("Number of currently connected console clients"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create active clients counter: %w", err)
	}

	metrics.Broadcasts, err = meter.Int64Counter(
		"websocket_broadcasts_total",
		metric.WithDescription("Total number of events broadcast to the feed"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create broadcasts counter: %w", err)
	}

	metrics.MessagesSent, err = meter.Int64Counter(
		"websocket_messages_sent_total",
		metric.WithDescription("Total number of messages delivered to clients"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create messages sent counter: %w", err)
	}

	metrics.MessagesDropped, err = meter.Int64Counter(
		"websocket_messages_dropped_total",
		metric.WithDescription("Total number of messages dropped on slow clients"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create messages dropped counter: %w", err)
	}

	return metrics, nil
}
