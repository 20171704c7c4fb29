package license

import (
	"fmt"

	"go.opentelemetry.io/otel/metric"
)

const (
	TracerName = "license-resolver"
	MeterName  = "license-resolver"
)

// VerifyMetrics holds the verification instrument set.
type VerifyMetrics struct {
	VerifyAttempts   metric.Int64Counter
	VerifyRejections metric.Int64Counter
	VerifyDuration   metric.Float64Histogram
	TokensIssued     metric.Int64Counter
	HWIDBinds        metric.Int64Counter
}

// InitializeVerifyMetrics creates the verification metrics on meter.
func InitializeVerifyMetrics(meter metric.Meter) (*VerifyMetrics, error) {
	metrics := &VerifyMetrics{}

	var err error

	metrics.VerifyAttempts, err = meter.Int64Counter(
		"license_verify_attempts_total",
		metric.WithDescription("Total number of license verification attempts"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create verify attempts counter: %w", err)
	}

	metrics.VerifyRejections, err = meter.Int64Counter(
		"license_verify_rejections_total",
		metric.WithDescription("Total number of rejected verifications by reason"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create verify rejections counter: %w", err)
	}

	metrics.VerifyDuration, err = meter.Float64Histogram(
		"license_verify_duration_seconds",
		metric.WithDescription("License verification duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create verify duration histogram: %w", err)
	}

	metrics.TokensIssued, err = meter.Int64Counter(
		"license_tokens_issued_total",
		metric.WithDescription("Total number of signed tokens issued"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create tokens issued counter: %w", err)
	}

	metrics.HWIDBinds, err = meter.Int64Counter(
		"license_hwid_binds_total",
		metric.WithDescription("Total number of first-use device binds"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create hwid binds counter: %w", err)
	}

	return metrics, nil
}
