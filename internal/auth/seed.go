package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// DefaultAdminEmail is the address assigned to the bootstrap administrator.
const DefaultAdminEmail = "admin@assesslab.local"

// SeedAdmin creates an administrator role and account on an empty database.
// It is a no-op once any user exists. The generated password is logged once
// at startup; there is no other way to recover it, only to reset it.
func SeedAdmin(ctx context.Context, users UserRepository, roles RoleRepository, logger *slog.Logger) error {
	count, err := users.Count(ctx)
	if err != nil {
		return fmt.Errorf("counting users: %w", err)
	}
	if count > 0 {
		return nil
	}

	role := &Role{
		ID:                    uuid.NewString(),
		Name:                  "administrator",
		CanManageAssessment:   true,
		CanManageUser:         true,
		CanManageRole:         true,
		CanManageNotification: true,
		CanManageLocalGroup:   true,
		CanManageReports:      true,
		CanAttemptAssessment:  true,
		CanViewReport:         true,
		CanManageMyAccount:    true,
		CanViewNotification:   true,
	}
	if err := roles.Create(ctx, role); err != nil {
		return fmt.Errorf("creating administrator role: %w", err)
	}

	password, err := generatePassword()
	if err != nil {
		return fmt.Errorf("generating password: %w", err)
	}
	hash, err := HashPassword(password)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	user := &User{
		ID:        uuid.NewString(),
		FirstName: "Platform",
		LastName:  "Administrator",
		Email:     DefaultAdminEmail,
		RoleID:    role.ID,
	}
	if err := users.Create(ctx, user, hash); err != nil {
		return fmt.Errorf("creating administrator user: %w", err)
	}

	logger.Warn("seeded administrator account, change the password after first login",
		"email", user.Email,
		"password", password,
	)
	return nil
}

// generatePassword returns a 24-character random password.
func generatePassword() (string, error) {
	buf := make([]byte, 18)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
