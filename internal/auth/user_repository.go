package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
)

// UserRepository persists users and their credentials.
type UserRepository interface {
	// Create inserts the user and its password hash in one transaction.
	// Returns ErrEmailExists if the email is already registered.
	Create(ctx context.Context, user *User, passwordHash string) error

	// GetByID returns the user or ErrUserNotFound.
	GetByID(ctx context.Context, id string) (*User, error)

	// GetByEmail returns the user or ErrUserNotFound.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// GetPasswordHash returns the stored hash for the user or
	// ErrCredentialNotFound.
	GetPasswordHash(ctx context.Context, userID string) (string, error)

	// Update applies the non-nil fields of the patch and returns the
	// updated user. Returns ErrUserNotFound if no such user exists.
	Update(ctx context.Context, id string, patch UserPatch) (*User, error)

	// Count returns the total number of users.
	Count(ctx context.Context) (int, error)
}

// SQLiteUserRepository implements UserRepository on SQLite.
type SQLiteUserRepository struct {
	db *sql.DB
}

// NewSQLiteUserRepository creates a user repository backed by db.
func NewSQLiteUserRepository(db *sql.DB) *SQLiteUserRepository {
	return &SQLiteUserRepository{db: db}
}

const userColumns = `id, first_name, last_name, email, phone, role_id, created_at, updated_at`

// Create inserts the user row and its credential atomically. If either
// insert fails the transaction rolls back and no partial account remains.
func (r *SQLiteUserRepository) Create(ctx context.Context, user *User, passwordHash string) error {
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO users (id, first_name, last_name, email, phone, role_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.FirstName, user.LastName,
		nullString(user.Email), nullString(user.Phone), nullString(user.RoleID),
		now.Format(time.RFC3339), now.Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailExists
		}
		return fmt.Errorf("inserting user: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO credentials (user_id, password_hash)
		VALUES (?, ?)`,
		user.ID, passwordHash,
	)
	if err != nil {
		return fmt.Errorf("inserting credential: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// GetByID retrieves a user by id.
func (r *SQLiteUserRepository) GetByID(ctx context.Context, id string) (*User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

// GetByEmail retrieves a user by email.
func (r *SQLiteUserRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	return scanUser(row)
}

// GetPasswordHash retrieves the stored password hash for a user.
func (r *SQLiteUserRepository) GetPasswordHash(ctx context.Context, userID string) (string, error) {
	var hash string
	err := r.db.QueryRowContext(ctx,
		`SELECT password_hash FROM credentials WHERE user_id = ?`, userID).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrCredentialNotFound
	}
	if err != nil {
		return "", fmt.Errorf("querying credential: %w", err)
	}
	return hash, nil
}

// Update applies a partial update. Only the non-nil patch fields are
// written; the rest of the row is untouched.
func (r *SQLiteUserRepository) Update(ctx context.Context, id string, patch UserPatch) (*User, error) {
	sets := make([]string, 0, 6)
	args := make([]any, 0, 7)

	add := func(column string, value *string, nullable bool) {
		if value == nil {
			return
		}
		sets = append(sets, column+" = ?")
		if nullable {
			args = append(args, nullString(*value))
		} else {
			args = append(args, *value)
		}
	}
	add("first_name", patch.FirstName, false)
	add("last_name", patch.LastName, false)
	add("email", patch.Email, true)
	add("phone", patch.Phone, true)
	add("role_id", patch.RoleID, true)

	if len(sets) > 0 {
		sets = append(sets, "updated_at = ?")
		args = append(args, time.Now().UTC().Format(time.RFC3339))
		args = append(args, id)

		res, err := r.db.ExecContext(ctx,
			`UPDATE users SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
		if err != nil {
			if isUniqueViolation(err) {
				return nil, ErrEmailExists
			}
			return nil, fmt.Errorf("updating user: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("reading rows affected: %w", err)
		}
		if affected == 0 {
			return nil, ErrUserNotFound
		}
	}

	return r.GetByID(ctx, id)
}

// Count returns the number of user rows.
func (r *SQLiteUserRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting users: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*User, error) {
	var (
		u                    User
		email, phone, roleID sql.NullString
		createdAt, updatedAt string
	)
	err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &email, &phone, &roleID, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning user: %w", err)
	}
	u.Email = email.String
	u.Phone = phone.String
	u.RoleID = roleID.String
	u.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	u.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &u, nil
}

// nullString maps the empty string to NULL for nullable columns.
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}
