package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/assesslab/assess-core/internal/apperr"
)

// Service composes repositories, hashing, and the token issuer into the
// account and token operations exposed by the API.
type Service struct {
	users  UserRepository
	roles  RoleRepository
	tokens TokenRepository
	issuer *Issuer
	logger *slog.Logger
}

// NewService wires a Service. A nil logger falls back to slog.Default.
func NewService(users UserRepository, roles RoleRepository, tokens TokenRepository, issuer *Issuer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{users: users, roles: roles, tokens: tokens, issuer: issuer, logger: logger}
}

// RegisterParams are the inputs for Register. Email and Password are
// required; Phone and RoleID are optional.
type RegisterParams struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Phone     string
	RoleID    string
}

// Register creates a user with hashed credentials. Registering an email
// that is already taken fails with a conflict.
func (s *Service) Register(ctx context.Context, p RegisterParams) (*User, error) {
	_, err := s.users.GetByEmail(ctx, p.Email)
	if err == nil {
		return nil, apperr.Conflict("User already exists", "User with this email already exists")
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, apperr.Internal("Error checking existing user")
	}

	hash, err := HashPassword(p.Password)
	if err != nil {
		s.logger.Error("password hashing failed", "error", err)
		return nil, apperr.Internal("Error creating user")
	}

	user := &User{
		ID:        uuid.NewString(),
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Email:     p.Email,
		Phone:     p.Phone,
		RoleID:    p.RoleID,
	}
	if err := s.users.Create(ctx, user, hash); err != nil {
		if errors.Is(err, ErrEmailExists) {
			return nil, apperr.Conflict("User already exists", "User with this email already exists")
		}
		s.logger.Error("user insert failed", "error", err)
		return nil, apperr.Internal("Error creating user")
	}

	s.logger.Info("user registered", "user_id", user.ID)
	return user, nil
}

// UpdateUser applies a partial profile update.
func (s *Service) UpdateUser(ctx context.Context, id string, patch UserPatch) (*User, error) {
	if _, err := s.users.GetByID(ctx, id); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, apperr.NotFound("User not found", "User with this id does not exist")
		}
		return nil, apperr.Internal("Error fetching user")
	}

	user, err := s.users.Update(ctx, id, patch)
	if err != nil {
		switch {
		case errors.Is(err, ErrUserNotFound):
			return nil, apperr.NotFound("User not found", "User with this id does not exist")
		case errors.Is(err, ErrEmailExists):
			return nil, apperr.Conflict("User already exists", "User with this email already exists")
		}
		s.logger.Error("user update failed", "error", err, "user_id", id)
		return nil, apperr.Internal("Error updating user")
	}
	return user, nil
}

// Login verifies credentials and issues an access/refresh token pair. An
// unknown email and a wrong password produce the same error, so a caller
// cannot probe which addresses are registered. The refresh token is
// persisted only after both tokens were minted.
func (s *Service) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, apperr.Unauthorized("Invalid credentials", "Invalid credentials")
		}
		return nil, apperr.Internal("Error fetching user")
	}

	// A missing credential row verifies as a mismatch, same as a wrong
	// password.
	hash, err := s.users.GetPasswordHash(ctx, user.ID)
	if err != nil && !errors.Is(err, ErrCredentialNotFound) {
		return nil, apperr.Internal("Error fetching credentials")
	}
	ok, err := VerifyPassword(password, hash)
	if err != nil || !ok {
		return nil, apperr.Unauthorized("Invalid credentials", "Invalid credentials")
	}

	if user.RoleID == "" {
		return nil, apperr.Unauthorized("Role not assigned", "Role not assigned")
	}

	perms, err := s.permissionsFor(ctx, user.RoleID)
	if err != nil {
		return nil, err
	}

	accessToken, err := s.issuer.IssueAccessToken(user.ID, user.RoleID, perms)
	if err != nil {
		return nil, apperr.Internal("Access token secret not found")
	}
	refreshToken, err := s.issuer.IssueRefreshToken(user.ID)
	if err != nil {
		return nil, apperr.Internal("Refresh token secret not found")
	}

	if err := s.tokens.Save(ctx, user.ID, refreshToken); err != nil {
		s.logger.Error("refresh token save failed", "error", err, "user_id", user.ID)
		return nil, apperr.Internal("Error saving refresh token")
	}

	s.logger.Info("user logged in", "user_id", user.ID)
	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// Refresh exchanges a valid refresh token for a new access token. The role
// and permissions are re-resolved, so a role change takes effect on the
// next refresh rather than waiting out the refresh token's lifetime.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.issuer.VerifyRefreshToken(refreshToken)
	if err != nil {
		if errors.Is(err, ErrSecretMissing) {
			return "", apperr.Internal("Refresh token secret not found")
		}
		s.logger.Warn("refresh token rejected", "error", err)
		return "", apperr.Forbidden("Token not valid", "Token not valid")
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return "", apperr.Unauthorized("User not found", "User not found")
		}
		return "", apperr.Internal("Error fetching user")
	}

	if user.RoleID == "" {
		return "", apperr.Unauthorized("Role not assigned", "Role not assigned")
	}

	perms, err := s.permissionsFor(ctx, user.RoleID)
	if err != nil {
		return "", err
	}

	accessToken, err := s.issuer.IssueAccessToken(user.ID, user.RoleID, perms)
	if err != nil {
		return "", apperr.Internal("Access token secret not found")
	}
	return accessToken, nil
}

// CreateRoleParams are the inputs for CreateRole.
type CreateRoleParams struct {
	Name                  string
	CanManageAssessment   bool
	CanManageUser         bool
	CanManageRole         bool
	CanManageNotification bool
	CanManageLocalGroup   bool
	CanManageReports      bool
	CanAttemptAssessment  bool
	CanViewReport         bool
	CanManageMyAccount    bool
	CanViewNotification   bool
}

// CreateRole creates a role with the given capability flags.
func (s *Service) CreateRole(ctx context.Context, p CreateRoleParams) (*Role, error) {
	role := &Role{
		ID:                    uuid.NewString(),
		Name:                  p.Name,
		CanManageAssessment:   p.CanManageAssessment,
		CanManageUser:         p.CanManageUser,
		CanManageRole:         p.CanManageRole,
		CanManageNotification: p.CanManageNotification,
		CanManageLocalGroup:   p.CanManageLocalGroup,
		CanManageReports:      p.CanManageReports,
		CanAttemptAssessment:  p.CanAttemptAssessment,
		CanViewReport:         p.CanViewReport,
		CanManageMyAccount:    p.CanManageMyAccount,
		CanViewNotification:   p.CanViewNotification,
	}
	if err := s.roles.Create(ctx, role); err != nil {
		s.logger.Error("role insert failed", "error", err)
		return nil, apperr.Internal("Error creating role")
	}
	s.logger.Info("role created", "role_id", role.ID, "name", role.Name)
	return role, nil
}

// GetRole returns a role by id.
func (s *Service) GetRole(ctx context.Context, id string) (*Role, error) {
	role, err := s.roles.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrRoleNotFound) {
			return nil, apperr.NotFound("Role not found", "Role not found")
		}
		return nil, apperr.Internal("Error fetching role")
	}
	return role, nil
}

// GetUser returns a user by id.
func (s *Service) GetUser(ctx context.Context, id string) (*User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, apperr.NotFound("User not found", "User with this id does not exist")
		}
		return nil, apperr.Internal("Error fetching user")
	}
	return user, nil
}

// permissionsFor resolves a role's permission list. A role id that no
// longer resolves to a row yields the empty set rather than an error; the
// resulting token simply grants nothing.
func (s *Service) permissionsFor(ctx context.Context, roleID string) ([]Permission, error) {
	role, err := s.roles.GetByID(ctx, roleID)
	if err != nil && !errors.Is(err, ErrRoleNotFound) {
		return nil, apperr.Internal("Error fetching role")
	}
	return PermissionsForRole(role), nil
}
