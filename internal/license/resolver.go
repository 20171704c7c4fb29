package license

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/realghost120/ghostgaurd-becakd/internal/store"
)

// storeTimeout bounds every registry call made on the verification path.
const storeTimeout = 5 * time.Second

// Decision is the outcome of a verification. Rejections are expected
// results, not errors: Valid is false and Reason names the policy that
// fired. Token is set only on the accepted path.
type Decision struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
	Token  *Token `json:"token,omitempty"`
}

// Resolver applies the ordered license verification policy against the
// external registry and delegates accepted requests to the token issuer.
// Registry write-backs (device binds, last_seen stamps) go through the
// write-back queue and never influence the decision.
type Resolver struct {
	store      store.Store
	issuer     *Issuer
	writebacks *store.WriteBackQueue
	logger     *slog.Logger
	metrics    *VerifyMetrics
	now        func() time.Time
}

// NewResolver creates a resolver. The write-back queue may be nil, in
// which case deferred writes run inline (still best-effort).
func NewResolver(st store.Store, issuer *Issuer, writebacks *store.WriteBackQueue, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		store:      st,
		issuer:     issuer,
		writebacks: writebacks,
		logger:     logger.With(slog.String("component", "resolver")),
		now:        time.Now,
	}
}

// SetMetrics attaches verification metrics to the resolver.
func (r *Resolver) SetMetrics(metrics *VerifyMetrics) {
	r.metrics = metrics
}

// Verify runs the full verification policy for licenseKey. The supplied
// hwid may be empty; policy #5 decides what that means against the
// record's binding state.
func (r *Resolver) Verify(ctx context.Context, licenseKey, hwid string) Decision {
	tracer := otel.Tracer(TracerName)
	ctx, span := tracer.Start(ctx, "license.verify",
		trace.WithAttributes(
			attribute.String("license.key_prefix", MaskKey(licenseKey)),
			attribute.Bool("license.hwid_supplied", hwid != ""),
		),
	)
	defer span.End()

	start := r.now()
	decision := r.verify(ctx, licenseKey, hwid)
	r.recordVerify(ctx, decision, r.now().Sub(start))

	span.SetAttributes(
		attribute.Bool("license.valid", decision.Valid),
		attribute.String("license.reason", decision.Reason),
	)
	if decision.Valid {
		span.SetStatus(codes.Ok, "license verified")
	} else {
		span.SetStatus(codes.Error, decision.Reason)
	}

	return decision
}

// verify evaluates the policy steps in order, short-circuiting on the
// first rejection.
func (r *Resolver) verify(ctx context.Context, licenseKey, hwid string) Decision {
	// 1. Malformed input fails fast, before any registry traffic.
	if licenseKey == "" {
		return reject(ReasonMissingKey)
	}

	// 2. Registry lookup with a bounded timeout. Fail closed: an
	// unreachable registry never grants access.
	storeCtx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	rec, err := r.store.GetLicense(storeCtx, licenseKey)
	if errors.Is(err, store.ErrNotFound) {
		return reject(ReasonNotFound)
	}
	if err != nil {
		r.logger.ErrorContext(ctx, "license lookup failed",
			slog.String("license_key", MaskKey(licenseKey)),
			slog.String("error", err.Error()))
		return reject(ReasonUnavailable)
	}

	// 3. Status gate: anything but ACTIVE rejects with the stored value.
	if rec.Status != store.StatusActive {
		return reject(rec.Status)
	}

	// 4. Expiry gate.
	if rec.ExpiresAt != nil && rec.ExpiresAt.Before(r.now()) {
		return reject(ReasonExpired)
	}

	// 5. Device binding: locked on first use. A bound record rejects any
	// other device id, including an absent one. Concurrent first binds
	// race without a compare-and-swap; last writer wins.
	switch {
	case rec.HWID != "" && rec.HWID != hwid:
		return reject(ReasonHWIDMismatch)
	case rec.HWID == "" && hwid != "":
		boundHWID := hwid
		r.submitWriteBack(ctx, "hwid_bind", licenseKey, func(ctx context.Context) error {
			return r.store.UpdateLicenseHWID(ctx, licenseKey, boundHWID)
		})
		if r.metrics != nil {
			r.metrics.HWIDBinds.Add(ctx, 1)
		}
	}

	// 6. Accepted: stamp last_seen, best effort.
	seen := r.now()
	r.submitWriteBack(ctx, "last_seen", licenseKey, func(ctx context.Context) error {
		return r.store.UpdateLicenseLastSeen(ctx, licenseKey, seen)
	})

	// 7. Hand the accepted request to the issuer.
	token := r.issuer.Issue(licenseKey, rec.Status, rec.ExpiresAt)
	return Decision{Valid: true, Token: &token}
}

// submitWriteBack schedules a fire-and-forget registry write. Failures
// are logged, never propagated to the caller.
func (r *Resolver) submitWriteBack(ctx context.Context, label, licenseKey string, fn func(context.Context) error) {
	if r.writebacks != nil {
		r.writebacks.Submit(label, fn)
		return
	}

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), storeTimeout)
	defer cancel()
	if err := fn(writeCtx); err != nil {
		r.logger.WarnContext(ctx, "write-back failed",
			slog.String("label", label),
			slog.String("license_key", MaskKey(licenseKey)),
			slog.String("error", err.Error()))
	}
}

func (r *Resolver) recordVerify(ctx context.Context, d Decision, elapsed time.Duration) {
	if r.metrics == nil {
		return
	}

	r.metrics.VerifyAttempts.Add(ctx, 1)
	r.metrics.VerifyDuration.Record(ctx, elapsed.Seconds())

	if d.Valid {
		r.metrics.TokensIssued.Add(ctx, 1)
	} else {
		r.metrics.VerifyRejections.Add(ctx, 1,
			metric.WithAttributes(attribute.String("reason", d.Reason)))
	}
}

func reject(reason string) Decision {
	return Decision{Valid: false, Reason: reason}
}
