package auth

import (
	"context"
	"errors"
	"testing"
)

func TestTokenRepositorySaveAndGet(t *testing.T) {
	db := testDB(t)
	repo := NewSQLiteTokenRepository(db)
	ctx := context.Background()

	user := createTestUser(t, db, "tok@example.com", "password1", "")

	if err := repo.Save(ctx, user.ID, "token-one"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := repo.GetByUserID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetByUserID: %v", err)
	}
	if got.Token != "token-one" {
		t.Errorf("Token = %q, want token-one", got.Token)
	}
}

func TestTokenRepositoryLastWriteWins(t *testing.T) {
	db := testDB(t)
	repo := NewSQLiteTokenRepository(db)
	ctx := context.Background()

	user := createTestUser(t, db, "tok@example.com", "password1", "")

	if err := repo.Save(ctx, user.ID, "token-one"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := repo.Save(ctx, user.ID, "token-two"); err != nil {
		t.Fatalf("Save replace: %v", err)
	}

	got, err := repo.GetByUserID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetByUserID: %v", err)
	}
	if got.Token != "token-two" {
		t.Errorf("Token = %q, want token-two", got.Token)
	}

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM refresh_tokens WHERE user_id = ?`, user.ID).Scan(&count); err != nil {
		t.Fatalf("counting rows: %v", err)
	}
	if count != 1 {
		t.Errorf("rows = %d, want 1", count)
	}
}

func TestTokenRepositoryNotFound(t *testing.T) {
	db := testDB(t)
	repo := NewSQLiteTokenRepository(db)

	if _, err := repo.GetByUserID(context.Background(), "missing"); !errors.Is(err, ErrTokenNotFound) {
		t.Errorf("GetByUserID err = %v, want ErrTokenNotFound", err)
	}
}

func TestTokenRepositoryCascadeOnUserDelete(t *testing.T) {
	db := testDB(t)
	repo := NewSQLiteTokenRepository(db)
	ctx := context.Background()

	user := createTestUser(t, db, "gone@example.com", "password1", "")
	if err := repo.Save(ctx, user.ID, "token"); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if _, err := db.Exec(`DELETE FROM users WHERE id = ?`, user.ID); err != nil {
		t.Fatalf("deleting user: %v", err)
	}
	if _, err := repo.GetByUserID(ctx, user.ID); !errors.Is(err, ErrTokenNotFound) {
		t.Errorf("token survived user delete, err = %v", err)
	}
}
