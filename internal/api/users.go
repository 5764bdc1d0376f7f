package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/assesslab/assess-core/internal/auth"
)

type registerRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Phone     string `json:"phone,omitempty"`
	RoleID    string `json:"role_id,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// handleRegister creates a new user account.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if req.FirstName == "" || req.LastName == "" || req.Email == "" || req.Password == "" {
		writeBadRequest(w, "first_name, last_name, email, and password are required")
		return
	}
	if len(req.Password) < 8 { //nolint:mnd // minimum password length
		writeBadRequest(w, "password must be at least 8 characters")
		return
	}

	user, err := s.authService.Register(r.Context(), auth.RegisterParams{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
		Phone:     req.Phone,
		RoleID:    req.RoleID,
	})
	if err != nil {
		s.writeAppError(w, err)
		return
	}

	s.auditLog(r.Context(), "register", "user", user.ID, "", map[string]any{"email": user.Email})
	writeJSON(w, http.StatusCreated, user)
}

// handleLogin verifies credentials and returns an access/refresh token pair.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeBadRequest(w, "email and password are required")
		return
	}

	pair, err := s.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, pair)
}

// handleRefreshToken exchanges a refresh token for a new access token.
func (s *Server) handleRefreshToken(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.RefreshToken == "" {
		writeBadRequest(w, "refreshToken is required")
		return
	}

	accessToken, err := s.authService.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		s.writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"accessToken": accessToken})
}

// handleGetUser returns a single user by ID.
func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	user, err := s.authService.GetUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// handleUpdateUser modifies a user's mutable fields. Users can edit their
// own profile; editing anyone else needs the canManageUser permission.
func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	claims := claimsFromContext(r.Context())

	if claims.UserID != id && !hasPermission(claims, auth.PermManageUser) {
		writeForbidden(w, "cannot update another user's account")
		return
	}

	var patch auth.UserPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	// Role assignment is an admin operation even on your own account.
	if patch.RoleID != nil && !hasPermission(claims, auth.PermManageUser) {
		writeForbidden(w, "cannot change role assignment")
		return
	}

	user, err := s.authService.UpdateUser(r.Context(), id, patch)
	if err != nil {
		s.writeAppError(w, err)
		return
	}

	s.auditLog(r.Context(), "update", "user", id, claims.UserID, nil)
	writeJSON(w, http.StatusOK, user)
}

// hasPermission reports whether the token claims include the permission.
func hasPermission(claims *auth.AccessClaims, perm auth.Permission) bool {
	if claims == nil {
		return false
	}
	for _, p := range claims.Permissions {
		if p == perm {
			return true
		}
	}
	return false
}
