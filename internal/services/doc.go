// Package services implements the business logic layer of the GhostGuard
// backend. It provides a clean separation between HTTP handlers and the
// license registry, fleet tracker and console feed, ensuring that business
// rules are centralized and testable.
//
// # Architecture
//
// Services follow these architectural principles:
//
//	1. Interface-driven design for testability
//	2. Context propagation for cancellation and tracing
//	3. Dependency injection for loose coupling
//	4. Domain-focused methods that encapsulate business rules
//
// # Available Services
//
// The package provides these core services:
//
//	- LicenseService: verification entry point wrapping the resolver
//	- FleetService: heartbeats, rosters, bans, logs and action mailboxes
//	- AuthService: console account registration and login
//	- AdminService: license issuance, status changes and exports
//	- HealthService: liveness, readiness and runtime statistics
//
// # Error Handling
//
// Services return domain sentinels that handlers transform into RFC 7807
// responses. Verification rejections are NOT errors: they flow back as
// structured decisions with a reason code, and only infrastructure
// failures surface as Go errors.
//
// # Common Service Pattern
//
// Services typically follow this structure:
//
//	type ServiceName struct {
//	    store  store.Store
//	    logger *slog.Logger
//	}
//
//	func NewServiceName(store store.Store, logger *slog.Logger) *ServiceName {
//	    return &ServiceName{store: store, logger: logger}
//	}
//
//	func (s *ServiceName) BusinessOperation(ctx context.Context, input Input) (*Output, error) {
//	    if err := input.Validate(); err != nil {
//	        return nil, fmt.Errorf("validation failed: %w", err)
//	    }
//	    result, err := s.store.Operation(ctx, input)
//	    if err != nil {
//	        s.logger.ErrorContext(ctx, "operation failed", "error", err)
//	        return nil, fmt.Errorf("operation failed: %w", err)
//	    }
//	    return result, nil
//	}
//
// # Testing
//
// Services are tested against the in-memory store and mock broadcasters:
//
//	st := store.NewMemoryStore()
//	service := NewAdminService(st, logger)
//	rec, err := service.CreateLicense(ctx, "monthly")
package services
