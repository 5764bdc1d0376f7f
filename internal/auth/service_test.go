package auth

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"reflect"
	"testing"
	"time"

	"github.com/assesslab/assess-core/internal/apperr"
)

type serviceEnv struct {
	db      *sql.DB
	users   *SQLiteUserRepository
	roles   *SQLiteRoleRepository
	tokens  *SQLiteTokenRepository
	issuer  *Issuer
	service *Service
}

func newServiceEnv(t *testing.T, issuer *Issuer) *serviceEnv {
	t.Helper()

	db := testDB(t)
	env := &serviceEnv{
		db:     db,
		users:  NewSQLiteUserRepository(db),
		roles:  NewSQLiteRoleRepository(db),
		tokens: NewSQLiteTokenRepository(db),
		issuer: issuer,
	}
	env.service = NewService(env.users, env.roles, env.tokens, issuer, testLogger())
	return env
}

func wantAppError(t *testing.T, err error, status int, name string) *apperr.Error {
	t.Helper()

	appErr := apperr.From(err)
	if appErr == nil {
		t.Fatalf("err = %v, want *apperr.Error", err)
	}
	if appErr.Status != status {
		t.Errorf("Status = %d, want %d", appErr.Status, status)
	}
	if appErr.Name != name {
		t.Errorf("Name = %q, want %q", appErr.Name, name)
	}
	return appErr
}

func TestServiceRegister(t *testing.T) {
	env := newServiceEnv(t, testIssuer())
	ctx := context.Background()

	user, err := env.service.Register(ctx, RegisterParams{
		FirstName: "Grace",
		LastName:  "Hopper",
		Email:     "grace@example.com",
		Password:  "password1",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.ID == "" {
		t.Error("user id not assigned")
	}

	// The stored hash must verify, and must not be the raw password.
	hash, err := env.users.GetPasswordHash(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetPasswordHash: %v", err)
	}
	if hash == "password1" {
		t.Error("password stored in clear")
	}
	if ok, _ := VerifyPassword("password1", hash); !ok {
		t.Error("stored hash does not verify")
	}
}

func TestServiceRegisterDuplicateEmail(t *testing.T) {
	env := newServiceEnv(t, testIssuer())
	ctx := context.Background()

	params := RegisterParams{FirstName: "A", LastName: "B", Email: "dup@example.com", Password: "password1"}
	if _, err := env.service.Register(ctx, params); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	_, err := env.service.Register(ctx, params)
	wantAppError(t, err, http.StatusConflict, "User already exists")
}

func TestServiceLogin(t *testing.T) {
	env := newServiceEnv(t, testIssuer())
	ctx := context.Background()

	role := createTestRole(t, env.db, "assessor", func(r *Role) {
		r.CanManageUser = true
		r.CanViewReport = true
	})
	createTestUser(t, env.db, "login@example.com", "password1", role.ID)

	pair, err := env.service.Login(ctx, "login@example.com", "password1")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("empty token in pair")
	}

	claims, err := env.issuer.VerifyAccessToken(pair.AccessToken)
	if err != nil {
		t.Fatalf("VerifyAccessToken: %v", err)
	}
	if claims.UserID != "user-login@example.com" || claims.RoleID != role.ID {
		t.Errorf("claims = %+v", claims)
	}
	want := []Permission{PermManageUser, PermViewReport}
	if !reflect.DeepEqual(claims.Permissions, want) {
		t.Errorf("Permissions = %v, want %v", claims.Permissions, want)
	}

	// The refresh token must be persisted for the user.
	stored, err := env.tokens.GetByUserID(ctx, claims.UserID)
	if err != nil {
		t.Fatalf("GetByUserID: %v", err)
	}
	if stored.Token != pair.RefreshToken {
		t.Error("stored refresh token differs from issued one")
	}
}

func TestServiceLoginUniformRejection(t *testing.T) {
	env := newServiceEnv(t, testIssuer())
	ctx := context.Background()

	role := createTestRole(t, env.db, "learner", nil)
	createTestUser(t, env.db, "known@example.com", "password1", role.ID)

	_, unknownErr := env.service.Login(ctx, "unknown@example.com", "password1")
	unknown := wantAppError(t, unknownErr, http.StatusUnauthorized, "Invalid credentials")

	_, wrongErr := env.service.Login(ctx, "known@example.com", "wrong-password")
	wrong := wantAppError(t, wrongErr, http.StatusUnauthorized, "Invalid credentials")

	// Unknown email and wrong password must be indistinguishable.
	if unknown.Detail != wrong.Detail || unknown.Status != wrong.Status || unknown.Name != wrong.Name {
		t.Errorf("rejections differ: %+v vs %+v", unknown, wrong)
	}
}

func TestServiceLoginNoRole(t *testing.T) {
	env := newServiceEnv(t, testIssuer())
	createTestUser(t, env.db, "norole@example.com", "password1", "")

	_, err := env.service.Login(context.Background(), "norole@example.com", "password1")
	wantAppError(t, err, http.StatusUnauthorized, "Role not assigned")
}

func TestServiceLoginVanishedRole(t *testing.T) {
	env := newServiceEnv(t, testIssuer())
	ctx := context.Background()

	role := createTestRole(t, env.db, "temp", func(r *Role) { r.CanManageUser = true })
	user := createTestUser(t, env.db, "orphan@example.com", "password1", role.ID)

	// Deleting the role sets role_id NULL on the user. Restore the stale id
	// to simulate a role row vanishing underneath a still-assigned user.
	if _, err := env.db.Exec(`DELETE FROM roles WHERE id = ?`, role.ID); err != nil {
		t.Fatalf("deleting role: %v", err)
	}
	if _, err := env.db.Exec(`PRAGMA foreign_keys = OFF`); err != nil {
		t.Fatalf("disabling foreign keys: %v", err)
	}
	if _, err := env.db.Exec(`UPDATE users SET role_id = ? WHERE id = ?`, role.ID, user.ID); err != nil {
		t.Fatalf("restoring role_id: %v", err)
	}

	pair, err := env.service.Login(ctx, "orphan@example.com", "password1")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	claims, err := env.issuer.VerifyAccessToken(pair.AccessToken)
	if err != nil {
		t.Fatalf("VerifyAccessToken: %v", err)
	}
	if len(claims.Permissions) != 0 {
		t.Errorf("Permissions = %v, want empty for vanished role", claims.Permissions)
	}
}

func TestServiceLoginMissingSecretNoPartialState(t *testing.T) {
	tests := []struct {
		name   string
		issuer *Issuer
		detail string
	}{
		{
			name:   "access secret missing",
			issuer: NewIssuer("", testRefreshSecret, 15*time.Minute, 7*24*time.Hour),
			detail: "Access token secret not found",
		},
		{
			name:   "refresh secret missing",
			issuer: NewIssuer(testAccessSecret, "", 15*time.Minute, 7*24*time.Hour),
			detail: "Refresh token secret not found",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newServiceEnv(t, tt.issuer)
			ctx := context.Background()

			role := createTestRole(t, env.db, "learner", nil)
			user := createTestUser(t, env.db, "sec@example.com", "password1", role.ID)

			_, err := env.service.Login(ctx, "sec@example.com", "password1")
			appErr := wantAppError(t, err, http.StatusInternalServerError, "Internal server error")
			if appErr.Detail != tt.detail {
				t.Errorf("Detail = %q, want %q", appErr.Detail, tt.detail)
			}

			// Nothing may be persisted for a failed login.
			if _, err := env.tokens.GetByUserID(ctx, user.ID); !errors.Is(err, ErrTokenNotFound) {
				t.Errorf("refresh token persisted despite failed login, err = %v", err)
			}
		})
	}
}

func TestServiceLoginReplacesRefreshToken(t *testing.T) {
	env := newServiceEnv(t, testIssuer())
	ctx := context.Background()

	role := createTestRole(t, env.db, "learner", nil)
	user := createTestUser(t, env.db, "twice@example.com", "password1", role.ID)

	if _, err := env.service.Login(ctx, "twice@example.com", "password1"); err != nil {
		t.Fatalf("first Login: %v", err)
	}
	second, err := env.service.Login(ctx, "twice@example.com", "password1")
	if err != nil {
		t.Fatalf("second Login: %v", err)
	}

	stored, err := env.tokens.GetByUserID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetByUserID: %v", err)
	}
	if stored.Token != second.RefreshToken {
		t.Error("second login did not replace the stored refresh token")
	}
}

func TestServiceRefresh(t *testing.T) {
	env := newServiceEnv(t, testIssuer())
	ctx := context.Background()

	role := createTestRole(t, env.db, "assessor", func(r *Role) { r.CanManageAssessment = true })
	createTestUser(t, env.db, "refresh@example.com", "password1", role.ID)

	pair, err := env.service.Login(ctx, "refresh@example.com", "password1")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	access, err := env.service.Refresh(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	claims, err := env.issuer.VerifyAccessToken(access)
	if err != nil {
		t.Fatalf("VerifyAccessToken: %v", err)
	}
	if claims.UserID != "user-refresh@example.com" {
		t.Errorf("UserID = %q", claims.UserID)
	}
	if !reflect.DeepEqual(claims.Permissions, []Permission{PermManageAssessment}) {
		t.Errorf("Permissions = %v", claims.Permissions)
	}
}

func TestServiceRefreshReflectsRoleChange(t *testing.T) {
	env := newServiceEnv(t, testIssuer())
	ctx := context.Background()

	oldRole := createTestRole(t, env.db, "learner", func(r *Role) { r.CanAttemptAssessment = true })
	newRole := createTestRole(t, env.db, "assessor", func(r *Role) {
		r.CanManageAssessment = true
		r.CanManageReports = true
	})
	user := createTestUser(t, env.db, "promoted@example.com", "password1", oldRole.ID)

	pair, err := env.service.Login(ctx, "promoted@example.com", "password1")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	if _, err := env.users.Update(ctx, user.ID, UserPatch{RoleID: &newRole.ID}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	access, err := env.service.Refresh(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	claims, err := env.issuer.VerifyAccessToken(access)
	if err != nil {
		t.Fatalf("VerifyAccessToken: %v", err)
	}
	want := []Permission{PermManageAssessment, PermManageReports}
	if !reflect.DeepEqual(claims.Permissions, want) {
		t.Errorf("Permissions = %v, want %v after role change", claims.Permissions, want)
	}
}

func TestServiceRefreshRejections(t *testing.T) {
	env := newServiceEnv(t, testIssuer())
	ctx := context.Background()

	role := createTestRole(t, env.db, "learner", nil)
	createTestUser(t, env.db, "reject@example.com", "password1", role.ID)

	t.Run("garbage token", func(t *testing.T) {
		_, err := env.service.Refresh(ctx, "not-a-token")
		wantAppError(t, err, http.StatusForbidden, "Token not valid")
	})

	t.Run("expired token", func(t *testing.T) {
		expired := NewIssuer(testAccessSecret, testRefreshSecret, 15*time.Minute, -time.Minute)
		token, err := expired.IssueRefreshToken("user-reject@example.com")
		if err != nil {
			t.Fatalf("IssueRefreshToken: %v", err)
		}
		_, err = env.service.Refresh(ctx, token)
		wantAppError(t, err, http.StatusForbidden, "Token not valid")
	})

	t.Run("access token presented as refresh", func(t *testing.T) {
		pair, err := env.service.Login(ctx, "reject@example.com", "password1")
		if err != nil {
			t.Fatalf("Login: %v", err)
		}
		_, err = env.service.Refresh(ctx, pair.AccessToken)
		wantAppError(t, err, http.StatusForbidden, "Token not valid")
	})

	t.Run("user deleted after issue", func(t *testing.T) {
		token, err := env.issuer.IssueRefreshToken("no-such-user")
		if err != nil {
			t.Fatalf("IssueRefreshToken: %v", err)
		}
		_, err = env.service.Refresh(ctx, token)
		wantAppError(t, err, http.StatusUnauthorized, "User not found")
	})

	t.Run("role unassigned after issue", func(t *testing.T) {
		createTestUser(t, env.db, "demoted@example.com", "password1", role.ID)
		pair, err := env.service.Login(ctx, "demoted@example.com", "password1")
		if err != nil {
			t.Fatalf("Login: %v", err)
		}
		empty := ""
		if _, err := env.users.Update(ctx, "user-demoted@example.com", UserPatch{RoleID: &empty}); err != nil {
			t.Fatalf("Update: %v", err)
		}
		_, err = env.service.Refresh(ctx, pair.RefreshToken)
		wantAppError(t, err, http.StatusUnauthorized, "Role not assigned")
	})
}

func TestServiceUpdateUser(t *testing.T) {
	env := newServiceEnv(t, testIssuer())
	ctx := context.Background()

	user := createTestUser(t, env.db, "upd@example.com", "password1", "")

	name := "Renamed"
	got, err := env.service.UpdateUser(ctx, user.ID, UserPatch{FirstName: &name})
	if err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}
	if got.FirstName != "Renamed" {
		t.Errorf("FirstName = %q", got.FirstName)
	}

	_, err = env.service.UpdateUser(ctx, "missing", UserPatch{FirstName: &name})
	wantAppError(t, err, http.StatusNotFound, "User not found")
}

func TestServiceCreateRole(t *testing.T) {
	env := newServiceEnv(t, testIssuer())
	ctx := context.Background()

	role, err := env.service.CreateRole(ctx, CreateRoleParams{
		Name:          "moderator",
		CanManageUser: true,
		CanViewReport: true,
	})
	if err != nil {
		t.Fatalf("CreateRole: %v", err)
	}
	if role.ID == "" {
		t.Error("role id not assigned")
	}

	got, err := env.service.GetRole(ctx, role.ID)
	if err != nil {
		t.Fatalf("GetRole: %v", err)
	}
	if got.Name != "moderator" || !got.CanManageUser || !got.CanViewReport || got.CanManageRole {
		t.Errorf("stored role = %+v", got)
	}
}
