// Package app provides application initialization and lifecycle
// management for the GhostGuard server. It wires configuration, the
// license registry, the verification path, the fleet tracker and the
// HTTP surface together at startup and handles graceful shutdown.
//
// # Initialization Flow
//
// The typical initialization sequence:
//
//	1. Load configuration from environment and files
//	2. Initialize logging and observability
//	3. Open the license registry (memory, Postgres or Sheets)
//	4. Start the write-back queue and build the grant issuer/resolver
//	5. Build the fleet tracker and console feed hub
//	6. Wire services, handlers and middleware into the router
//	7. Configure the HTTP server
//
// # Usage
//
// The main entry point is typically:
//
//	application, err := app.NewApplication()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := application.Run(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Graceful Shutdown
//
// Run handles SIGINT and SIGTERM to ensure:
//
//	- Active requests are completed before the listener closes
//	- Console feed connections are closed cleanly
//	- Pending registry write-backs are flushed
//	- Registry connections are closed
//	- Telemetry providers are shut down
//
// # Error Handling
//
// All initialization errors are returned to the caller for proper
// handling. The app does not call os.Exit() directly, allowing
// the main function to control the exit process.
package app
