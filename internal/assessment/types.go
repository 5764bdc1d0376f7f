package assessment

import (
	"errors"
	"time"
)

// Sentinel errors returned by the repository.
var (
	ErrAssessmentNotFound = errors.New("assessment not found")
	ErrQuestionNotFound   = errors.New("question not found")
	ErrOptionNotFound     = errors.New("option not found")
	ErrTagNotFound        = errors.New("tag not found")
	ErrTagExists          = errors.New("tag name already exists")
)

// Assessment is a scheduled test. StartAt and EndAt bound the attempt
// window; Duration is the per-attempt time limit in minutes. Zero values
// mean "not set" and are stored as NULL.
type Assessment struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	IsActive    bool      `json:"is_active"`
	StartAt     time.Time `json:"start_at,omitzero"`
	EndAt       time.Time `json:"end_at,omitzero"`
	Duration    int       `json:"duration,omitempty"`
	CreatedBy   string    `json:"created_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Question belongs to an assessment. Marks may be fractional; Section
// groups questions within a paper.
type Question struct {
	ID           string  `json:"id"`
	AssessmentID string  `json:"assessment_id"`
	Description  string  `json:"description"`
	Marks        float64 `json:"marks"`
	Section      int     `json:"section"`
}

// Option is one answer choice for a question.
type Option struct {
	ID          string `json:"id"`
	QuestionID  string `json:"question_id"`
	Description string `json:"description"`
	IsCorrect   bool   `json:"is_correct"`
}

// Tag is a label for grouping assessments. Names are unique.
type Tag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// AssessmentPatch carries a partial assessment update. Nil fields are left
// unchanged.
type AssessmentPatch struct {
	Name        *string    `json:"name,omitempty"`
	Description *string    `json:"description,omitempty"`
	IsActive    *bool      `json:"is_active,omitempty"`
	StartAt     *time.Time `json:"start_at,omitempty"`
	EndAt       *time.Time `json:"end_at,omitempty"`
	Duration    *int       `json:"duration,omitempty"`
}

// QuestionPatch carries a partial question update.
type QuestionPatch struct {
	Description *string  `json:"description,omitempty"`
	Marks       *float64 `json:"marks,omitempty"`
	Section     *int     `json:"section,omitempty"`
}

// OptionPatch carries a partial option update.
type OptionPatch struct {
	Description *string `json:"description,omitempty"`
	IsCorrect   *bool   `json:"is_correct,omitempty"`
}
