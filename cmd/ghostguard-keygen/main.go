package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/realghost120/ghostgaurd-becakd/internal/config"
	"github.com/realghost120/ghostgaurd-becakd/internal/exporter"
	"github.com/realghost120/ghostgaurd-becakd/internal/infrastructure"
	"github.com/realghost120/ghostgaurd-becakd/internal/services"
	"github.com/realghost120/ghostgaurd-becakd/internal/store"
)

// storeOpenTimeout bounds backend connection setup.
const storeOpenTimeout = 30 * time.Second

func main() {
	count := flag.Int("count", 1, "number of licenses to mint")
	duration := flag.String("duration", "monthly", "license duration: monthly | quarterly | yearly | lifetime")
	backend := flag.String("backend", "", "store backend override: memory | postgres | sheets (defaults to the configured store)")
	dsn := flag.String("dsn", "", "postgres connection string override")
	out := flag.String("out", "", "also write the minted licenses to this csv file")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Warn("Failed to load config, using defaults", "error", err)
		cfg = config.Default()
	}
	if *backend != "" {
		cfg.Store.Backend = *backend
	}
	if *dsn != "" {
		cfg.Store.Postgres.DSN = *dsn
	}

	// Keys print to stdout; keep log lines out of the stream.
	cfg.Logging.Output = "file"
	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		logger = slog.Default()
	}

	if *count < 1 {
		logger.Error("Invalid count", slog.Int("count", *count))
		fmt.Fprintln(os.Stderr, "count must be at least 1")
		os.Exit(1)
	}
	if cfg.Store.Backend == config.BackendMemory {
		logger.Warn("Minting against the in-memory store; licenses vanish on exit",
			slog.String("hint", "use -out to keep a csv copy"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), storeOpenTimeout)
	st, err := openStore(ctx, cfg)
	cancel()
	if err != nil {
		logger.Error("Failed to open store",
			slog.String("backend", cfg.Store.Backend),
			slog.String("error", err.Error()))
		fmt.Fprintf(os.Stderr, "cannot open %s store: %v\n", cfg.Store.Backend, err)
		os.Exit(1)
	}

	admin := services.NewAdminService(st, logger)
	records, err := mint(context.Background(), admin, *duration, *count)
	if err != nil {
		logger.Error("Minting failed",
			slog.String("duration", *duration),
			slog.String("error", err.Error()))
		fmt.Fprintf(os.Stderr, "minting failed: %v\n", err)
		os.Exit(1)
	}

	for _, rec := range records {
		fmt.Println(rec.LicenseKey)
	}

	if *out != "" {
		if err := exporter.NewLicenseExporter().ExportFile(*out, records); err != nil {
			logger.Error("CSV export failed",
				slog.String("path", *out),
				slog.String("error", err.Error()))
			fmt.Fprintf(os.Stderr, "csv export failed: %v\n", err)
			os.Exit(1)
		}
		logger.Info("Minted licenses exported",
			slog.String("path", *out),
			slog.Int("count", len(records)))
	}

	logger.Info("Minting complete",
		slog.String("backend", cfg.Store.Backend),
		slog.String("duration", *duration),
		slog.Int("count", len(records)))
}

// mint creates count licenses with the given duration, stopping at the
// first failure. Already-minted keys stay in the store; partial output is
// better than rolled-back work for an operator tool.
func mint(ctx context.Context, admin services.AdminService, duration string, count int) ([]*store.LicenseRecord, error) {
	records := make([]*store.LicenseRecord, 0, count)
	for i := 0; i < count; i++ {
		rec, err := admin.CreateLicense(ctx, duration)
		if err != nil {
			return records, fmt.Errorf("license %d of %d: %w", i+1, count, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// openStore mirrors the server's backend selection so minted keys land in
// the same registry the daemon verifies against.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.Store.Backend {
	case config.BackendMemory:
		return store.NewMemoryStore(), nil
	case config.BackendPostgres:
		return store.NewPGStore(ctx, cfg.Store.Postgres.DSN)
	case config.BackendSheets:
		return store.NewSheetsStore(ctx, store.SheetsConfig{
			SpreadsheetID:   cfg.Store.Sheets.SpreadsheetID,
			LicensesSheet:   cfg.Store.Sheets.LicensesSheet,
			CustomersSheet:  cfg.Store.Sheets.CustomersSheet,
			CredentialsFile: cfg.Store.Sheets.CredentialsFile,
			APIKey:          cfg.Store.Sheets.APIKey,
		})
	default:
		return nil, fmt.Errorf("unknown store backend: %q", cfg.Store.Backend)
	}
}
