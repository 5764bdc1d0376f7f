package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func openTestDB(t *testing.T, cfg Config) *DB {
	t.Helper()
	db, err := Open(cfg)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // Test cleanup
	return db
}

func TestOpenCreatesFileAndDirectory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "assesslab.db")
	openTestDB(t, Config{Path: dbPath, WALMode: true, BusyTimeout: 5})

	if _, err := os.Stat(dbPath); err != nil {
		t.Errorf("database file not created: %v", err)
	}
}

func TestOpenEnforcesForeignKeys(t *testing.T) {
	db := openTestDB(t, Config{Path: filepath.Join(t.TempDir(), "fk.db"), BusyTimeout: 5})

	var fk int
	if err := db.QueryRowContext(context.Background(), "PRAGMA foreign_keys").Scan(&fk); err != nil {
		t.Fatalf("reading foreign_keys pragma: %v", err)
	}
	if fk != 1 {
		t.Errorf("foreign_keys = %d, want 1", fk)
	}
}

func TestOpenWALMode(t *testing.T) {
	db := openTestDB(t, Config{Path: filepath.Join(t.TempDir(), "wal.db"), WALMode: true, BusyTimeout: 5})

	var mode string
	if err := db.QueryRowContext(context.Background(), "PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("reading journal_mode pragma: %v", err)
	}
	if mode != "wal" {
		t.Errorf("journal_mode = %q, want %q", mode, "wal")
	}
}

func TestHealthCheck(t *testing.T) {
	db := openTestDB(t, Config{Path: filepath.Join(t.TempDir(), "health.db"), BusyTimeout: 5})
	ctx := context.Background()

	if err := db.HealthCheck(ctx); err != nil {
		t.Errorf("HealthCheck() on open database: %v", err)
	}

	if err := db.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if err := db.HealthCheck(ctx); err == nil {
		t.Error("HealthCheck() succeeded on closed database")
	}
}

func TestParseMigrationFilename(t *testing.T) {
	tests := []struct {
		filename    string
		wantVersion string
		wantName    string
		wantUp      bool
		wantOK      bool
	}{
		{"20260110_090000_auth_schema.up.sql", "20260110_090000", "auth_schema", true, true},
		{"20260110_090000_auth_schema.down.sql", "20260110_090000", "auth_schema", false, true},
		{"20260124_100000_audit_log.up.sql", "20260124_100000", "audit_log", true, true},
		{"20260110_090000_auth_schema.sql", "", "", false, false}, // no direction
		{"20260110_090000.up.sql", "", "", false, false},          // no name
		{"README.md", "", "", false, false},
		{"notes.up.sql", "", "", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			version, name, up, ok := parseMigrationFilename(tt.filename)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if version != tt.wantVersion || name != tt.wantName || up != tt.wantUp {
				t.Errorf("parsed (%q, %q, %v), want (%q, %q, %v)",
					version, name, up, tt.wantVersion, tt.wantName, tt.wantUp)
			}
		})
	}
}
