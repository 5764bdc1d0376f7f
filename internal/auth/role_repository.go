package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// RoleRepository persists roles.
type RoleRepository interface {
	// Create inserts the role.
	Create(ctx context.Context, role *Role) error

	// GetByID returns the role or ErrRoleNotFound.
	GetByID(ctx context.Context, id string) (*Role, error)
}

// SQLiteRoleRepository implements RoleRepository on SQLite.
type SQLiteRoleRepository struct {
	db *sql.DB
}

// NewSQLiteRoleRepository creates a role repository backed by db.
func NewSQLiteRoleRepository(db *sql.DB) *SQLiteRoleRepository {
	return &SQLiteRoleRepository{db: db}
}

const roleColumns = `id, name,
	can_manage_assessment, can_manage_user, can_manage_role,
	can_manage_notification, can_manage_local_group, can_manage_reports,
	can_attempt_assessment, can_view_report, can_manage_my_account,
	can_view_notification, created_at, updated_at`

// Create inserts the role row.
func (r *SQLiteRoleRepository) Create(ctx context.Context, role *Role) error {
	now := time.Now().UTC()
	role.CreatedAt = now
	role.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO roles (id, name,
			can_manage_assessment, can_manage_user, can_manage_role,
			can_manage_notification, can_manage_local_group, can_manage_reports,
			can_attempt_assessment, can_view_report, can_manage_my_account,
			can_view_notification, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		role.ID, role.Name,
		boolToInt(role.CanManageAssessment), boolToInt(role.CanManageUser), boolToInt(role.CanManageRole),
		boolToInt(role.CanManageNotification), boolToInt(role.CanManageLocalGroup), boolToInt(role.CanManageReports),
		boolToInt(role.CanAttemptAssessment), boolToInt(role.CanViewReport), boolToInt(role.CanManageMyAccount),
		boolToInt(role.CanViewNotification), now.Format(time.RFC3339), now.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting role: %w", err)
	}
	return nil
}

// GetByID retrieves a role by id.
func (r *SQLiteRoleRepository) GetByID(ctx context.Context, id string) (*Role, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+roleColumns+` FROM roles WHERE id = ?`, id)

	var (
		role                 Role
		createdAt, updatedAt string
	)
	err := row.Scan(&role.ID, &role.Name,
		&role.CanManageAssessment, &role.CanManageUser, &role.CanManageRole,
		&role.CanManageNotification, &role.CanManageLocalGroup, &role.CanManageReports,
		&role.CanAttemptAssessment, &role.CanViewReport, &role.CanManageMyAccount,
		&role.CanViewNotification, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRoleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning role: %w", err)
	}
	role.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	role.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &role, nil
}

// boolToInt stores booleans as 0/1 in INTEGER columns.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
