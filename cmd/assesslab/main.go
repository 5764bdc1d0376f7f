// AssessLab Core - assessment platform backend
//
// This is the main entry point for the AssessLab API server. It wires
// configuration, the SQLite store, the auth service, and the HTTP API, then
// waits for a shutdown signal.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/assesslab/assess-core/migrations"

	"github.com/assesslab/assess-core/internal/api"
	"github.com/assesslab/assess-core/internal/assessment"
	"github.com/assesslab/assess-core/internal/audit"
	"github.com/assesslab/assess-core/internal/auth"
	"github.com/assesslab/assess-core/internal/infrastructure/config"
	"github.com/assesslab/assess-core/internal/infrastructure/database"
	"github.com/assesslab/assess-core/internal/infrastructure/logging"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	rollback := flag.Bool("rollback", false, "roll back the most recent database migration and exit")
	flag.Parse()

	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var err error
	if *rollback {
		err = runRollback(ctx)
	} else {
		err = run(ctx)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting AssessLab Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open database
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	// Run migrations
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	applied, pending, err := db.GetMigrationStatus(ctx)
	if err != nil {
		return fmt.Errorf("reading migration status: %w", err)
	}
	log.Info("database migrations complete", "applied", len(applied), "pending", len(pending))

	// Build the auth stack. Signing secrets may be absent here; token
	// issuance fails per call until they are configured.
	userRepo := auth.NewSQLiteUserRepository(db.DB)
	roleRepo := auth.NewSQLiteRoleRepository(db.DB)
	tokenRepo := auth.NewSQLiteTokenRepository(db.DB)
	issuer := auth.NewIssuer(
		cfg.Security.JWT.AccessSecret,
		cfg.Security.JWT.RefreshSecret,
		cfg.GetAccessTokenTTL(),
		cfg.GetRefreshTokenTTL(),
	)
	authService := auth.NewService(userRepo, roleRepo, tokenRepo, issuer, log.Logger)

	if cfg.Security.JWT.AccessSecret == "" || cfg.Security.JWT.RefreshSecret == "" {
		log.Warn("token signing secrets not configured, logins will fail until set")
	}

	// Bootstrap an administrator account on first run
	if seedErr := auth.SeedAdmin(ctx, userRepo, roleRepo, log.Logger); seedErr != nil {
		return fmt.Errorf("seeding administrator: %w", seedErr)
	}

	// Start the API server
	server, err := api.New(api.Deps{
		Config:      cfg.API,
		Logger:      log,
		AuthService: authService,
		Issuer:      issuer,
		Assessments: assessment.NewSQLiteRepository(db.DB),
		Audit:       audit.NewSQLiteRepository(db.DB),
		Version:     version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if startErr := server.Start(ctx); startErr != nil {
		return fmt.Errorf("starting API server: %w", startErr)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")
	log.Info("AssessLab Core stopped")
	return nil
}

// runRollback undoes the most recently applied database migration. This is
// a development helper behind the -rollback flag; the server itself only
// migrates forward.
func runRollback(ctx context.Context) error {
	log := logging.Default()

	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close() //nolint:errcheck // Process exits right after

	if err := db.MigrateDown(ctx); err != nil {
		return fmt.Errorf("rolling back migration: %w", err)
	}

	applied, pending, err := db.GetMigrationStatus(ctx)
	if err != nil {
		return fmt.Errorf("reading migration status: %w", err)
	}
	log.Info("migration rolled back", "applied", len(applied), "pending", len(pending))
	return nil
}

// getConfigPath returns the configuration file path.
// Uses ASSESSLAB_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("ASSESSLAB_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
