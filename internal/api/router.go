package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/assesslab/assess-core/internal/auth"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.Route("/v1", func(r chi.Router) {
		// Health check (no auth required)
		r.Get("/health", s.handleHealth)

		// Account and token endpoints (no auth required)
		r.Post("/users/register", s.handleRegister)
		r.Post("/users/login", s.handleLogin)
		r.Post("/users/token", s.handleRefreshToken)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Get("/users/{id}", s.handleGetUser)
			r.Patch("/users/{id}", s.handleUpdateUser)

			r.Group(func(r chi.Router) {
				r.Use(s.requirePermission(auth.PermManageRole))
				r.Post("/roles", s.handleCreateRole)
				r.Get("/roles/{id}", s.handleGetRole)
				r.Get("/permissions", s.handleListPermissions)
			})

			r.With(s.requirePermission(auth.PermManageReports)).
				Get("/audit", s.handleListAuditLog)

			// Assessment content. Reads are open to any authenticated
			// user; writes need the canManageAssessment permission.
			r.Get("/assessments", s.handleListAssessments)
			r.Get("/assessments/{id}", s.handleGetAssessment)
			r.Get("/assessments/{id}/questions", s.handleListQuestions)
			r.Get("/questions/{id}/options", s.handleListOptions)
			r.Get("/tags", s.handleListTags)

			r.Group(func(r chi.Router) {
				r.Use(s.requirePermission(auth.PermManageAssessment))

				r.Post("/assessments", s.handleCreateAssessment)
				r.Patch("/assessments/{id}", s.handleUpdateAssessment)
				r.Delete("/assessments/{id}", s.handleDeleteAssessment)

				r.Post("/questions", s.handleCreateQuestion)
				r.Patch("/questions/{id}", s.handleUpdateQuestion)
				r.Delete("/questions/{id}", s.handleDeleteQuestion)

				r.Post("/options", s.handleCreateOption)
				r.Patch("/options/{id}", s.handleUpdateOption)
				r.Delete("/options/{id}", s.handleDeleteOption)

				r.Post("/tags", s.handleCreateTag)
				r.Delete("/tags/{id}", s.handleDeleteTag)
			})
		})
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}
