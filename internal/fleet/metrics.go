package fleet

import (
	"fmt"

	"go.opentelemetry.io/otel/metric"
)

// MeterName identifies the fleet instrument scope.
const MeterName = "fleet-tracker"

// Metrics holds the fleet instrument set.
type Metrics struct {
	Heartbeats      metric.Int64Counter
	BansRecorded    metric.Int64Counter
	LogsAppended    metric.Int64Counter
	ActionsEnqueued metric.Int64Counter
	ActionsEvicted  metric.Int64Counter
	ActionsDrained  metric.Int64Counter
}

// InitializeMetrics creates the fleet metrics on meter.
func InitializeMetrics(meter metric.Meter) (*Metrics, error) {
	metrics := &Metrics{}

	var err error

	metrics.Heartbeats, err = meter.Int64Counter(
		"fleet_heartbeats_total",
		metric.WithDescription("Total number of heartbeats ingested"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create heartbeats counter: %w", err)
	}

	metrics.BansRecorded, err = meter.Int64Counter(
		"fleet_bans_recorded_total",
		metric.WithDescription("Total number of ban events recorded"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create bans counter: %w", err)
	}

	metrics.LogsAppended, err = meter.Int64Counter(
		"fleet_logs_appended_total",
		metric.WithDescription("Total number of log entries appended"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create logs counter: %w", err)
	}

	metrics.ActionsEnqueued, err = meter.Int64Counter(
		"fleet_actions_enqueued_total",
		metric.WithDescription("Total number of actions queued for agents"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create actions enqueued counter: %w", err)
	}

	metrics.ActionsEvicted, err = meter.Int64Counter(
		"fleet_actions_evicted_total",
		metric.WithDescription("Total number of actions dropped by overflow trims"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create actions evicted counter: %w", err)
	}

	metrics.ActionsDrained, err = meter.Int64Counter(
		"fleet_actions_drained_total",
		metric.WithDescription("Total number of actions delivered to agents"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create actions drained counter: %w", err)
	}

	return metrics, nil
}
