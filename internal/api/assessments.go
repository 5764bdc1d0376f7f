package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/assesslab/assess-core/internal/assessment"
)

type createAssessmentRequest struct {
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	IsActive    bool      `json:"is_active"`
	StartAt     time.Time `json:"start_at,omitzero"`
	EndAt       time.Time `json:"end_at,omitzero"`
	Duration    int       `json:"duration,omitempty"`
}

type createQuestionRequest struct {
	AssessmentID string  `json:"assessment_id"`
	Description  string  `json:"description"`
	Marks        float64 `json:"marks"`
	Section      int     `json:"section"`
}

type createOptionRequest struct {
	QuestionID  string `json:"question_id"`
	Description string `json:"description"`
	IsCorrect   bool   `json:"is_correct"`
}

type createTagRequest struct {
	Name string `json:"name"`
}

// handleCreateAssessment creates an assessment owned by the caller.
func (s *Server) handleCreateAssessment(w http.ResponseWriter, r *http.Request) {
	var req createAssessmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Name == "" {
		writeBadRequest(w, "name is required")
		return
	}

	a := &assessment.Assessment{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Description: req.Description,
		IsActive:    req.IsActive,
		StartAt:     req.StartAt,
		EndAt:       req.EndAt,
		Duration:    req.Duration,
		CreatedBy:   claimsFromContext(r.Context()).UserID,
	}
	if err := s.assessments.CreateAssessment(r.Context(), a); err != nil {
		s.logger.Error("create assessment failed", "error", err)
		writeInternalError(w, "failed to create assessment")
		return
	}

	s.auditLog(r.Context(), "create", "assessment", a.ID, a.CreatedBy, map[string]any{"name": a.Name})
	writeJSON(w, http.StatusCreated, a)
}

// handleListAssessments returns all assessments.
func (s *Server) handleListAssessments(w http.ResponseWriter, r *http.Request) {
	list, err := s.assessments.ListAssessments(r.Context())
	if err != nil {
		s.logger.Error("list assessments failed", "error", err)
		writeInternalError(w, "failed to list assessments")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"assessments": list,
		"count":       len(list),
	})
}

// handleGetAssessment returns a single assessment by ID.
func (s *Server) handleGetAssessment(w http.ResponseWriter, r *http.Request) {
	a, err := s.assessments.GetAssessment(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeContentError(w, err, "failed to get assessment")
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// handleUpdateAssessment applies a partial assessment update.
func (s *Server) handleUpdateAssessment(w http.ResponseWriter, r *http.Request) {
	var patch assessment.AssessmentPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	a, err := s.assessments.UpdateAssessment(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		s.writeContentError(w, err, "failed to update assessment")
		return
	}
	s.auditLog(r.Context(), "update", "assessment", a.ID, claimsFromContext(r.Context()).UserID, nil)
	writeJSON(w, http.StatusOK, a)
}

// handleDeleteAssessment removes an assessment and its questions.
func (s *Server) handleDeleteAssessment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.assessments.DeleteAssessment(r.Context(), id); err != nil {
		s.writeContentError(w, err, "failed to delete assessment")
		return
	}
	s.auditLog(r.Context(), "delete", "assessment", id, claimsFromContext(r.Context()).UserID, nil)
	w.WriteHeader(http.StatusNoContent)
}

// handleCreateQuestion adds a question to an assessment.
func (s *Server) handleCreateQuestion(w http.ResponseWriter, r *http.Request) {
	var req createQuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.AssessmentID == "" || req.Description == "" {
		writeBadRequest(w, "assessment_id and description are required")
		return
	}
	if req.Section == 0 {
		req.Section = 1
	}

	q := &assessment.Question{
		ID:           uuid.NewString(),
		AssessmentID: req.AssessmentID,
		Description:  req.Description,
		Marks:        req.Marks,
		Section:      req.Section,
	}
	if err := s.assessments.CreateQuestion(r.Context(), q); err != nil {
		s.writeContentError(w, err, "failed to create question")
		return
	}

	s.auditLog(r.Context(), "create", "question", q.ID, claimsFromContext(r.Context()).UserID,
		map[string]any{"assessment_id": q.AssessmentID})
	writeJSON(w, http.StatusCreated, q)
}

// handleListQuestions returns an assessment's questions.
func (s *Server) handleListQuestions(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.assessments.GetAssessment(r.Context(), id); err != nil {
		s.writeContentError(w, err, "failed to list questions")
		return
	}

	list, err := s.assessments.ListQuestions(r.Context(), id)
	if err != nil {
		s.logger.Error("list questions failed", "error", err)
		writeInternalError(w, "failed to list questions")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"questions": list,
		"count":     len(list),
	})
}

// handleUpdateQuestion applies a partial question update.
func (s *Server) handleUpdateQuestion(w http.ResponseWriter, r *http.Request) {
	var patch assessment.QuestionPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	q, err := s.assessments.UpdateQuestion(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		s.writeContentError(w, err, "failed to update question")
		return
	}
	s.auditLog(r.Context(), "update", "question", q.ID, claimsFromContext(r.Context()).UserID, nil)
	writeJSON(w, http.StatusOK, q)
}

// handleDeleteQuestion removes a question and its options.
func (s *Server) handleDeleteQuestion(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.assessments.DeleteQuestion(r.Context(), id); err != nil {
		s.writeContentError(w, err, "failed to delete question")
		return
	}
	s.auditLog(r.Context(), "delete", "question", id, claimsFromContext(r.Context()).UserID, nil)
	w.WriteHeader(http.StatusNoContent)
}

// handleCreateOption adds an answer option to a question.
func (s *Server) handleCreateOption(w http.ResponseWriter, r *http.Request) {
	var req createOptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.QuestionID == "" || req.Description == "" {
		writeBadRequest(w, "question_id and description are required")
		return
	}

	o := &assessment.Option{
		ID:          uuid.NewString(),
		QuestionID:  req.QuestionID,
		Description: req.Description,
		IsCorrect:   req.IsCorrect,
	}
	if err := s.assessments.CreateOption(r.Context(), o); err != nil {
		s.writeContentError(w, err, "failed to create option")
		return
	}

	s.auditLog(r.Context(), "create", "option", o.ID, claimsFromContext(r.Context()).UserID,
		map[string]any{"question_id": o.QuestionID})
	writeJSON(w, http.StatusCreated, o)
}

// handleListOptions returns a question's options.
func (s *Server) handleListOptions(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.assessments.GetQuestion(r.Context(), id); err != nil {
		s.writeContentError(w, err, "failed to list options")
		return
	}

	list, err := s.assessments.ListOptions(r.Context(), id)
	if err != nil {
		s.logger.Error("list options failed", "error", err)
		writeInternalError(w, "failed to list options")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"options": list,
		"count":   len(list),
	})
}

// handleUpdateOption applies a partial option update.
func (s *Server) handleUpdateOption(w http.ResponseWriter, r *http.Request) {
	var patch assessment.OptionPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	o, err := s.assessments.UpdateOption(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		s.writeContentError(w, err, "failed to update option")
		return
	}
	s.auditLog(r.Context(), "update", "option", o.ID, claimsFromContext(r.Context()).UserID, nil)
	writeJSON(w, http.StatusOK, o)
}

// handleDeleteOption removes an option.
func (s *Server) handleDeleteOption(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.assessments.DeleteOption(r.Context(), id); err != nil {
		s.writeContentError(w, err, "failed to delete option")
		return
	}
	s.auditLog(r.Context(), "delete", "option", id, claimsFromContext(r.Context()).UserID, nil)
	w.WriteHeader(http.StatusNoContent)
}

// handleCreateTag creates a tag.
func (s *Server) handleCreateTag(w http.ResponseWriter, r *http.Request) {
	var req createTagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Name == "" {
		writeBadRequest(w, "name is required")
		return
	}

	tag := &assessment.Tag{ID: uuid.NewString(), Name: req.Name}
	if err := s.assessments.CreateTag(r.Context(), tag); err != nil {
		s.writeContentError(w, err, "failed to create tag")
		return
	}

	s.auditLog(r.Context(), "create", "tag", tag.ID, claimsFromContext(r.Context()).UserID,
		map[string]any{"name": tag.Name})
	writeJSON(w, http.StatusCreated, tag)
}

// handleListTags returns all tags.
func (s *Server) handleListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := s.assessments.ListTags(r.Context())
	if err != nil {
		s.logger.Error("list tags failed", "error", err)
		writeInternalError(w, "failed to list tags")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"tags":  tags,
		"count": len(tags),
	})
}

// handleDeleteTag removes a tag.
func (s *Server) handleDeleteTag(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.assessments.DeleteTag(r.Context(), id); err != nil {
		s.writeContentError(w, err, "failed to delete tag")
		return
	}
	s.auditLog(r.Context(), "delete", "tag", id, claimsFromContext(r.Context()).UserID, nil)
	w.WriteHeader(http.StatusNoContent)
}

// writeContentError maps assessment repository errors onto HTTP responses.
func (s *Server) writeContentError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, assessment.ErrAssessmentNotFound):
		writeNotFound(w, "assessment not found")
	case errors.Is(err, assessment.ErrQuestionNotFound):
		writeNotFound(w, "question not found")
	case errors.Is(err, assessment.ErrOptionNotFound):
		writeNotFound(w, "option not found")
	case errors.Is(err, assessment.ErrTagNotFound):
		writeNotFound(w, "tag not found")
	case errors.Is(err, assessment.ErrTagExists):
		writeConflict(w, "tag name already exists")
	default:
		s.logger.Error("assessment content request failed", "error", err)
		writeInternalError(w, fallback)
	}
}
