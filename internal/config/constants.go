package config

// Application constants shared across the GhostGuard binaries.
const (
	AppName    = "GhostGuard"
	AppVersion = "1.2.0"

	// EnvPrefix namespaces every environment variable the server reads,
	// e.g. GHOSTGUARD_SERVER_PORT.
	EnvPrefix = "GHOSTGUARD"
)

// Store backend selectors.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendSheets   = "sheets"
)

const (
	defaultLogFile        = "logs/ghostguardd.log"
	defaultLicensesSheet  = "Licenses"
	defaultCustomersSheet = "Customers"
)
