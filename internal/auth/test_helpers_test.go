package auth

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/assesslab/assess-core/internal/infrastructure/database"
	_ "github.com/assesslab/assess-core/migrations"
)

// testDB opens a temporary SQLite database with the full schema applied.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.Open(database.Config{
		Path:        filepath.Join(t.TempDir(), "test.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("migrating test database: %v", err)
	}
	return db.DB
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// createTestRole inserts a role with the given flags and returns it.
func createTestRole(t *testing.T, db *sql.DB, name string, mutate func(*Role)) *Role {
	t.Helper()

	role := &Role{ID: "role-" + name, Name: name}
	if mutate != nil {
		mutate(role)
	}
	if err := NewSQLiteRoleRepository(db).Create(context.Background(), role); err != nil {
		t.Fatalf("creating test role: %v", err)
	}
	return role
}

// createTestUser inserts a user with a hashed password and returns it.
func createTestUser(t *testing.T, db *sql.DB, email, password, roleID string) *User {
	t.Helper()

	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("hashing test password: %v", err)
	}
	user := &User{
		ID:        "user-" + email,
		FirstName: "Test",
		LastName:  "User",
		Email:     email,
		RoleID:    roleID,
	}
	if err := NewSQLiteUserRepository(db).Create(context.Background(), user, hash); err != nil {
		t.Fatalf("creating test user: %v", err)
	}
	return user
}
