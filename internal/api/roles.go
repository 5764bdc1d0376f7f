package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/assesslab/assess-core/internal/auth"
)

type createRoleRequest struct {
	Name                  string `json:"name"`
	CanManageAssessment   bool   `json:"can_manage_assessment"`
	CanManageUser         bool   `json:"can_manage_user"`
	CanManageRole         bool   `json:"can_manage_role"`
	CanManageNotification bool   `json:"can_manage_notification"`
	CanManageLocalGroup   bool   `json:"can_manage_local_group"`
	CanManageReports      bool   `json:"can_manage_reports"`
	CanAttemptAssessment  bool   `json:"can_attempt_assessment"`
	CanViewReport         bool   `json:"can_view_report"`
	CanManageMyAccount    bool   `json:"can_manage_my_account"`
	CanViewNotification   bool   `json:"can_view_notification"`
}

// handleCreateRole creates a role with the given capability flags.
func (s *Server) handleCreateRole(w http.ResponseWriter, r *http.Request) {
	var req createRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Name == "" {
		writeBadRequest(w, "name is required")
		return
	}

	role, err := s.authService.CreateRole(r.Context(), auth.CreateRoleParams{
		Name:                  req.Name,
		CanManageAssessment:   req.CanManageAssessment,
		CanManageUser:         req.CanManageUser,
		CanManageRole:         req.CanManageRole,
		CanManageNotification: req.CanManageNotification,
		CanManageLocalGroup:   req.CanManageLocalGroup,
		CanManageReports:      req.CanManageReports,
		CanAttemptAssessment:  req.CanAttemptAssessment,
		CanViewReport:         req.CanViewReport,
		CanManageMyAccount:    req.CanManageMyAccount,
		CanViewNotification:   req.CanViewNotification,
	})
	if err != nil {
		s.writeAppError(w, err)
		return
	}

	s.auditLog(r.Context(), "create", "role", role.ID, claimsFromContext(r.Context()).UserID,
		map[string]any{"name": role.Name})
	writeJSON(w, http.StatusCreated, role)
}

// handleListPermissions returns the canonical permission list, so role
// management clients can build capability pickers without hardcoding it.
func (s *Server) handleListPermissions(w http.ResponseWriter, _ *http.Request) {
	perms := auth.AllPermissions()
	writeJSON(w, http.StatusOK, map[string]any{
		"permissions": perms,
		"count":       len(perms),
	})
}

// handleGetRole returns a single role by ID.
func (s *Server) handleGetRole(w http.ResponseWriter, r *http.Request) {
	role, err := s.authService.GetRole(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, role)
}
