package auth

import (
	"context"
	"errors"
	"testing"
)

func TestUserRepositoryCreateAndGet(t *testing.T) {
	db := testDB(t)
	repo := NewSQLiteUserRepository(db)
	ctx := context.Background()

	role := createTestRole(t, db, "learner", nil)
	user := &User{
		ID:        "u1",
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
		Phone:     "07700900000",
		RoleID:    role.ID,
	}
	if err := repo.Create(ctx, user, "hash"); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.GetByID(ctx, "u1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.FirstName != "Ada" || got.Email != "ada@example.com" || got.RoleID != role.ID {
		t.Errorf("GetByID returned %+v", got)
	}
	if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
		t.Error("timestamps not set")
	}

	byEmail, err := repo.GetByEmail(ctx, "ada@example.com")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if byEmail.ID != "u1" {
		t.Errorf("GetByEmail returned id %q, want u1", byEmail.ID)
	}

	hash, err := repo.GetPasswordHash(ctx, "u1")
	if err != nil {
		t.Fatalf("GetPasswordHash: %v", err)
	}
	if hash != "hash" {
		t.Errorf("GetPasswordHash = %q, want hash", hash)
	}
}

func TestUserRepositoryNullableFields(t *testing.T) {
	db := testDB(t)
	repo := NewSQLiteUserRepository(db)
	ctx := context.Background()

	user := &User{ID: "u1", FirstName: "No", LastName: "Contact"}
	if err := repo.Create(ctx, user, "hash"); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.GetByID(ctx, "u1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Email != "" || got.Phone != "" || got.RoleID != "" {
		t.Errorf("optional fields not empty: %+v", got)
	}
}

func TestUserRepositoryDuplicateEmail(t *testing.T) {
	db := testDB(t)
	repo := NewSQLiteUserRepository(db)
	ctx := context.Background()

	a := &User{ID: "u1", FirstName: "A", LastName: "A", Email: "dup@example.com"}
	if err := repo.Create(ctx, a, "hash"); err != nil {
		t.Fatalf("Create: %v", err)
	}

	b := &User{ID: "u2", FirstName: "B", LastName: "B", Email: "dup@example.com"}
	err := repo.Create(ctx, b, "hash")
	if !errors.Is(err, ErrEmailExists) {
		t.Fatalf("Create duplicate err = %v, want ErrEmailExists", err)
	}

	// The failed insert must not leave a dangling credential row.
	if _, err := repo.GetPasswordHash(ctx, "u2"); !errors.Is(err, ErrCredentialNotFound) {
		t.Errorf("credential for rolled-back user exists, err = %v", err)
	}
}

func TestUserRepositoryNotFound(t *testing.T) {
	db := testDB(t)
	repo := NewSQLiteUserRepository(db)
	ctx := context.Background()

	if _, err := repo.GetByID(ctx, "missing"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("GetByID err = %v, want ErrUserNotFound", err)
	}
	if _, err := repo.GetByEmail(ctx, "missing@example.com"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("GetByEmail err = %v, want ErrUserNotFound", err)
	}
	if _, err := repo.GetPasswordHash(ctx, "missing"); !errors.Is(err, ErrCredentialNotFound) {
		t.Errorf("GetPasswordHash err = %v, want ErrCredentialNotFound", err)
	}
}

func TestUserRepositoryUpdate(t *testing.T) {
	db := testDB(t)
	repo := NewSQLiteUserRepository(db)
	ctx := context.Background()

	role := createTestRole(t, db, "learner", nil)
	createTestUser(t, db, "patch@example.com", "password1", role.ID)
	id := "user-patch@example.com"

	t.Run("partial update leaves other fields", func(t *testing.T) {
		phone := "07700900001"
		got, err := repo.Update(ctx, id, UserPatch{Phone: &phone})
		if err != nil {
			t.Fatalf("Update: %v", err)
		}
		if got.Phone != phone {
			t.Errorf("Phone = %q, want %q", got.Phone, phone)
		}
		if got.FirstName != "Test" || got.Email != "patch@example.com" || got.RoleID != role.ID {
			t.Errorf("unpatched fields changed: %+v", got)
		}
	})

	t.Run("empty string clears nullable column", func(t *testing.T) {
		empty := ""
		got, err := repo.Update(ctx, id, UserPatch{Phone: &empty})
		if err != nil {
			t.Fatalf("Update: %v", err)
		}
		if got.Phone != "" {
			t.Errorf("Phone = %q, want cleared", got.Phone)
		}
	})

	t.Run("empty patch is a read", func(t *testing.T) {
		got, err := repo.Update(ctx, id, UserPatch{})
		if err != nil {
			t.Fatalf("Update: %v", err)
		}
		if got.ID != id {
			t.Errorf("ID = %q, want %q", got.ID, id)
		}
	})

	t.Run("missing user", func(t *testing.T) {
		name := "Ghost"
		if _, err := repo.Update(ctx, "missing", UserPatch{FirstName: &name}); !errors.Is(err, ErrUserNotFound) {
			t.Errorf("Update err = %v, want ErrUserNotFound", err)
		}
	})

	t.Run("email collision", func(t *testing.T) {
		createTestUser(t, db, "taken@example.com", "password1", role.ID)
		taken := "taken@example.com"
		if _, err := repo.Update(ctx, id, UserPatch{Email: &taken}); !errors.Is(err, ErrEmailExists) {
			t.Errorf("Update err = %v, want ErrEmailExists", err)
		}
	})
}

func TestUserRepositoryCount(t *testing.T) {
	db := testDB(t)
	repo := NewSQLiteUserRepository(db)
	ctx := context.Background()

	n, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 0 {
		t.Errorf("Count = %d, want 0", n)
	}

	createTestUser(t, db, "one@example.com", "password1", "")
	createTestUser(t, db, "two@example.com", "password1", "")

	n, err = repo.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 2 {
		t.Errorf("Count = %d, want 2", n)
	}
}
