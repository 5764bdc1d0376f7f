package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token verification errors. ErrSecretMissing means the signing secret for
// the requested operation is not configured; it is a deployment fault, not a
// caller fault, and the service maps it to an internal error.
var (
	ErrSecretMissing = errors.New("token secret not configured")
	ErrTokenInvalid  = errors.New("token not valid")
)

// AccessClaims is the access token payload. Permissions are resolved at
// issue time; a token holds the permission set its user had when it was
// minted.
type AccessClaims struct {
	UserID      string       `json:"userId"`
	RoleID      string       `json:"roleId,omitempty"`
	Permissions []Permission `json:"permissions"`
	jwt.RegisteredClaims
}

// RefreshClaims is the refresh token payload. It carries only the user id;
// role and permissions are re-resolved on every refresh.
type RefreshClaims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// Issuer mints and verifies HS256 tokens. Access and refresh tokens are
// signed with independent secrets so one kind can never stand in for the
// other. Secrets may be absent at construction; each operation checks the
// secret it needs and fails with ErrSecretMissing.
type Issuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

// NewIssuer builds an Issuer. Empty secrets are allowed; the corresponding
// operations fail until configured.
func NewIssuer(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *Issuer {
	return &Issuer{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}
}

// IssueAccessToken signs an access token for the user with the given role
// and permission set. A nil permission slice is encoded as an empty array.
// Every token carries a unique jti, so two tokens minted within the same
// second are still distinct strings.
func (i *Issuer) IssueAccessToken(userID, roleID string, perms []Permission) (string, error) {
	if len(i.accessSecret) == 0 {
		return "", fmt.Errorf("access token: %w", ErrSecretMissing)
	}
	if perms == nil {
		perms = []Permission{}
	}
	now := i.now()
	claims := AccessClaims{
		UserID:      userID,
		RoleID:      roleID,
		Permissions: perms,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.accessTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.accessSecret)
}

// IssueRefreshToken signs a refresh token for the user.
func (i *Issuer) IssueRefreshToken(userID string) (string, error) {
	if len(i.refreshSecret) == 0 {
		return "", fmt.Errorf("refresh token: %w", ErrSecretMissing)
	}
	now := i.now()
	claims := RefreshClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.refreshTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.refreshSecret)
}

// VerifyAccessToken validates signature and expiry and returns the claims.
// Any parse or validation failure collapses to ErrTokenInvalid.
func (i *Issuer) VerifyAccessToken(tokenString string) (*AccessClaims, error) {
	if len(i.accessSecret) == 0 {
		return nil, fmt.Errorf("access token: %w", ErrSecretMissing)
	}
	claims := &AccessClaims{}
	if err := i.verify(tokenString, claims, i.accessSecret); err != nil {
		return nil, err
	}
	return claims, nil
}

// VerifyRefreshToken validates signature and expiry and returns the claims.
func (i *Issuer) VerifyRefreshToken(tokenString string) (*RefreshClaims, error) {
	if len(i.refreshSecret) == 0 {
		return nil, fmt.Errorf("refresh token: %w", ErrSecretMissing)
	}
	claims := &RefreshClaims{}
	if err := i.verify(tokenString, claims, i.refreshSecret); err != nil {
		return nil, err
	}
	return claims, nil
}

func (i *Issuer) verify(tokenString string, claims jwt.Claims, secret []byte) error {
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) { return secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}
	if !token.Valid {
		return ErrTokenInvalid
	}
	return nil
}
