// Package assessment holds the assessment content model: assessments, their
// questions and answer options, and free-form tags. It is a thin CRUD layer
// over SQLite; access control happens in the API layer, which requires the
// canManageAssessment permission for writes.
package assessment
