package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/realghost120/ghostgaurd-becakd/internal/infrastructure"
	"github.com/realghost120/ghostgaurd-becakd/internal/license"
)

// Verifier is the resolver surface the license service fronts.
type Verifier interface {
	Verify(ctx context.Context, licenseKey, hwid string) license.Decision
}

// LicenseService provides the verification entry point for the transport
// layer. Rejections are part of the decision, never a Go error.
type LicenseService interface {
	Verify(ctx context.Context, licenseKey, hwid string) license.Decision
	Stats() VerifyStats
}

// VerifyStats summarizes verification traffic since service start. The
// health surface reports it; the authoritative counters live in the
// OpenTelemetry instruments.
type VerifyStats struct {
	Total          int64         `json:"total"`
	Accepted       int64         `json:"accepted"`
	Rejected       int64         `json:"rejected"`
	LastVerify     *time.Time    `json:"last_verify,omitempty"`
	AverageLatency time.Duration `json:"average_latency"`
	Uptime         time.Duration `json:"uptime"`
}

// licenseService implements LicenseService with request tracking
type licenseService struct {
	resolver Verifier
	logger   *slog.Logger

	mu           sync.Mutex
	startTime    time.Time
	total        int64
	accepted     int64
	rejected     int64
	lastVerify   time.Time
	totalLatency time.Duration
}

// NewLicenseService creates a new license service around resolver.
func NewLicenseService(resolver Verifier, logger *slog.Logger) LicenseService {
	if logger == nil {
		logger = slog.Default()
	}
	return &licenseService{
		resolver:  resolver,
		logger:    logger.With(slog.String("service", "license")),
		startTime: time.Now(),
	}
}

// Verify runs the ordered verification policy and records the outcome.
func (s *licenseService) Verify(ctx context.Context, licenseKey, hwid string) license.Decision {
	start := time.Now()
	traceID := infrastructure.GetTraceID(ctx)

	s.logger.InfoContext(ctx, "license verification started",
		slog.String("trace_id", traceID),
		slog.String("license_key", license.MaskKey(licenseKey)),
		slog.Bool("hwid_supplied", hwid != ""))

	decision := s.resolver.Verify(ctx, licenseKey, hwid)
	elapsed := time.Since(start)

	s.mu.Lock()
	s.total++
	if decision.Valid {
		s.accepted++
	} else {
		s.rejected++
	}
	s.lastVerify = time.Now()
	s.totalLatency += elapsed
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "license verification completed",
		slog.String("trace_id", traceID),
		slog.String("license_key", license.MaskKey(licenseKey)),
		slog.Bool("valid", decision.Valid),
		slog.String("reason", decision.Reason),
		slog.Duration("duration", elapsed))

	return decision
}

// Stats returns a snapshot of the in-process verification counters.
func (s *licenseService) Stats() VerifyStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := VerifyStats{
		Total:    s.total,
		Accepted: s.accepted,
		Rejected: s.rejected,
		Uptime:   time.Since(s.startTime),
	}
	if s.total > 0 {
		stats.AverageLatency = s.totalLatency / time.Duration(s.total)
		last := s.lastVerify
		stats.LastVerify = &last
	}
	return stats
}
