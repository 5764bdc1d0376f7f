package auth

import (
	"errors"
	"time"
)

// Sentinel errors returned by repositories. The service layer maps these to
// API-facing errors; callers should compare with errors.Is.
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrRoleNotFound       = errors.New("role not found")
	ErrEmailExists        = errors.New("email already registered")
	ErrCredentialNotFound = errors.New("credential not found")
	ErrTokenNotFound      = errors.New("refresh token not found")
)

// User is a platform account. Email, Phone, and RoleID use the empty string
// for "not set"; the repositories translate that to NULL on write.
type User struct {
	ID        string    `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	RoleID    string    `json:"role_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Role is a named bundle of capability flags. Each flag maps to exactly one
// permission name; see permissions.go for the projection.
type Role struct {
	ID                    string    `json:"id"`
	Name                  string    `json:"name"`
	CanManageAssessment   bool      `json:"can_manage_assessment"`
	CanManageUser         bool      `json:"can_manage_user"`
	CanManageRole         bool      `json:"can_manage_role"`
	CanManageNotification bool      `json:"can_manage_notification"`
	CanManageLocalGroup   bool      `json:"can_manage_local_group"`
	CanManageReports      bool      `json:"can_manage_reports"`
	CanAttemptAssessment  bool      `json:"can_attempt_assessment"`
	CanViewReport         bool      `json:"can_view_report"`
	CanManageMyAccount    bool      `json:"can_manage_my_account"`
	CanViewNotification   bool      `json:"can_view_notification"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// RefreshToken is the stored refresh token for a user. Storage is
// last-write-wins: one row per user, replaced on every login.
type RefreshToken struct {
	UserID    string    `json:"user_id"`
	Token     string    `json:"token"`
	CreatedAt time.Time `json:"created_at"`
}

// UserPatch carries a partial user update. Nil fields are left unchanged;
// a non-nil pointer to the empty string clears the column.
type UserPatch struct {
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	Email     *string `json:"email,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	RoleID    *string `json:"role_id,omitempty"`
}

// TokenPair is the result of a successful login.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}
