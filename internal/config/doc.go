// Package config provides centralized configuration management for the
// GhostGuard server. It handles loading configuration from multiple
// sources, validation, and a type-safe API for the rest of the
// application.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of
// precedence:
//
//	1. Environment variables (highest priority)
//	2. A YAML configuration file
//	3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern GHOSTGUARD_* for
// namespacing, built from the section and field names:
//
//	GHOSTGUARD_SERVER_PORT=8080
//	GHOSTGUARD_STORE_BACKEND=postgres
//	GHOSTGUARD_STORE_POSTGRES_DSN=postgres://...
//	GHOSTGUARD_SECURITY_SIGNING_SECRET=...
//	GHOSTGUARD_LOGGING_LEVEL=info
//
// GHOSTGUARD_CONFIG points at an explicit config file; otherwise
// config.yaml and configs/config.yaml are probed.
//
// # Secrets
//
// The signing secret and admin secret are configuration like everything
// else, but no default exists for either: the server refuses to start
// without a signing secret, and the admin surface rejects all requests
// until an admin secret is set.
//
// # Usage
//
// Load configuration at application startup:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
