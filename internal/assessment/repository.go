package assessment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
)

// Repository persists assessment content. Deletes cascade: removing an
// assessment removes its questions, and removing a question removes its
// options.
type Repository interface {
	CreateAssessment(ctx context.Context, a *Assessment) error
	GetAssessment(ctx context.Context, id string) (*Assessment, error)
	ListAssessments(ctx context.Context) ([]Assessment, error)
	UpdateAssessment(ctx context.Context, id string, patch AssessmentPatch) (*Assessment, error)
	DeleteAssessment(ctx context.Context, id string) error

	CreateQuestion(ctx context.Context, q *Question) error
	GetQuestion(ctx context.Context, id string) (*Question, error)
	ListQuestions(ctx context.Context, assessmentID string) ([]Question, error)
	UpdateQuestion(ctx context.Context, id string, patch QuestionPatch) (*Question, error)
	DeleteQuestion(ctx context.Context, id string) error

	CreateOption(ctx context.Context, o *Option) error
	ListOptions(ctx context.Context, questionID string) ([]Option, error)
	UpdateOption(ctx context.Context, id string, patch OptionPatch) (*Option, error)
	DeleteOption(ctx context.Context, id string) error

	CreateTag(ctx context.Context, tag *Tag) error
	ListTags(ctx context.Context) ([]Tag, error)
	DeleteTag(ctx context.Context, id string) error
}

// SQLiteRepository implements Repository on SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a repository backed by db.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const assessmentColumns = `id, name, description, is_active, start_at, end_at, duration, created_by, created_at, updated_at`

// CreateAssessment inserts the assessment row.
func (r *SQLiteRepository) CreateAssessment(ctx context.Context, a *Assessment) error {
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO assessments (id, name, description, is_active, start_at, end_at, duration, created_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Name, nullString(a.Description), boolToInt(a.IsActive),
		nullTime(a.StartAt), nullTime(a.EndAt), nullInt(a.Duration), nullString(a.CreatedBy),
		now.Format(time.RFC3339), now.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting assessment: %w", err)
	}
	return nil
}

// GetAssessment retrieves an assessment by id.
func (r *SQLiteRepository) GetAssessment(ctx context.Context, id string) (*Assessment, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+assessmentColumns+` FROM assessments WHERE id = ?`, id)
	a, err := scanAssessment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAssessmentNotFound
	}
	return a, err
}

// ListAssessments returns all assessments, newest first.
func (r *SQLiteRepository) ListAssessments(ctx context.Context) ([]Assessment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+assessmentColumns+` FROM assessments ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("querying assessments: %w", err)
	}
	defer rows.Close()

	assessments := []Assessment{}
	for rows.Next() {
		a, err := scanAssessment(rows)
		if err != nil {
			return nil, err
		}
		assessments = append(assessments, *a)
	}
	return assessments, rows.Err()
}

// UpdateAssessment applies the non-nil patch fields and returns the updated
// row.
func (r *SQLiteRepository) UpdateAssessment(ctx context.Context, id string, patch AssessmentPatch) (*Assessment, error) {
	sets := []string{}
	args := []any{}

	if patch.Name != nil {
		sets, args = append(sets, "name = ?"), append(args, *patch.Name)
	}
	if patch.Description != nil {
		sets, args = append(sets, "description = ?"), append(args, nullString(*patch.Description))
	}
	if patch.IsActive != nil {
		sets, args = append(sets, "is_active = ?"), append(args, boolToInt(*patch.IsActive))
	}
	if patch.StartAt != nil {
		sets, args = append(sets, "start_at = ?"), append(args, nullTime(*patch.StartAt))
	}
	if patch.EndAt != nil {
		sets, args = append(sets, "end_at = ?"), append(args, nullTime(*patch.EndAt))
	}
	if patch.Duration != nil {
		sets, args = append(sets, "duration = ?"), append(args, nullInt(*patch.Duration))
	}

	if len(sets) > 0 {
		sets = append(sets, "updated_at = ?")
		args = append(args, time.Now().UTC().Format(time.RFC3339), id)

		if err := r.execExpectingRow(ctx,
			`UPDATE assessments SET `+strings.Join(sets, ", ")+` WHERE id = ?`,
			args, ErrAssessmentNotFound); err != nil {
			return nil, err
		}
	}
	return r.GetAssessment(ctx, id)
}

// DeleteAssessment removes the assessment and, via cascade, its questions
// and their options.
func (r *SQLiteRepository) DeleteAssessment(ctx context.Context, id string) error {
	return r.execExpectingRow(ctx, `DELETE FROM assessments WHERE id = ?`, []any{id}, ErrAssessmentNotFound)
}

// CreateQuestion inserts the question row.
func (r *SQLiteRepository) CreateQuestion(ctx context.Context, q *Question) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO questions (id, assessment_id, description, marks, section)
		VALUES (?, ?, ?, ?, ?)`,
		q.ID, q.AssessmentID, q.Description, q.Marks, q.Section,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrAssessmentNotFound
		}
		return fmt.Errorf("inserting question: %w", err)
	}
	return nil
}

// GetQuestion retrieves a question by id.
func (r *SQLiteRepository) GetQuestion(ctx context.Context, id string) (*Question, error) {
	var q Question
	err := r.db.QueryRowContext(ctx,
		`SELECT id, assessment_id, description, marks, section FROM questions WHERE id = ?`, id).
		Scan(&q.ID, &q.AssessmentID, &q.Description, &q.Marks, &q.Section)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrQuestionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning question: %w", err)
	}
	return &q, nil
}

// ListQuestions returns an assessment's questions ordered by section.
func (r *SQLiteRepository) ListQuestions(ctx context.Context, assessmentID string) ([]Question, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, assessment_id, description, marks, section
		FROM questions WHERE assessment_id = ? ORDER BY section, id`, assessmentID)
	if err != nil {
		return nil, fmt.Errorf("querying questions: %w", err)
	}
	defer rows.Close()

	questions := []Question{}
	for rows.Next() {
		var q Question
		if err := rows.Scan(&q.ID, &q.AssessmentID, &q.Description, &q.Marks, &q.Section); err != nil {
			return nil, fmt.Errorf("scanning question: %w", err)
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// UpdateQuestion applies the non-nil patch fields and returns the updated
// row.
func (r *SQLiteRepository) UpdateQuestion(ctx context.Context, id string, patch QuestionPatch) (*Question, error) {
	sets := []string{}
	args := []any{}

	if patch.Description != nil {
		sets, args = append(sets, "description = ?"), append(args, *patch.Description)
	}
	if patch.Marks != nil {
		sets, args = append(sets, "marks = ?"), append(args, *patch.Marks)
	}
	if patch.Section != nil {
		sets, args = append(sets, "section = ?"), append(args, *patch.Section)
	}

	if len(sets) > 0 {
		args = append(args, id)
		if err := r.execExpectingRow(ctx,
			`UPDATE questions SET `+strings.Join(sets, ", ")+` WHERE id = ?`,
			args, ErrQuestionNotFound); err != nil {
			return nil, err
		}
	}
	return r.GetQuestion(ctx, id)
}

// DeleteQuestion removes the question and, via cascade, its options.
func (r *SQLiteRepository) DeleteQuestion(ctx context.Context, id string) error {
	return r.execExpectingRow(ctx, `DELETE FROM questions WHERE id = ?`, []any{id}, ErrQuestionNotFound)
}

// CreateOption inserts the option row.
func (r *SQLiteRepository) CreateOption(ctx context.Context, o *Option) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO options (id, question_id, description, is_correct)
		VALUES (?, ?, ?, ?)`,
		o.ID, o.QuestionID, o.Description, boolToInt(o.IsCorrect),
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrQuestionNotFound
		}
		return fmt.Errorf("inserting option: %w", err)
	}
	return nil
}

// ListOptions returns a question's options.
func (r *SQLiteRepository) ListOptions(ctx context.Context, questionID string) ([]Option, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, question_id, description, is_correct
		FROM options WHERE question_id = ? ORDER BY id`, questionID)
	if err != nil {
		return nil, fmt.Errorf("querying options: %w", err)
	}
	defer rows.Close()

	options := []Option{}
	for rows.Next() {
		var o Option
		if err := rows.Scan(&o.ID, &o.QuestionID, &o.Description, &o.IsCorrect); err != nil {
			return nil, fmt.Errorf("scanning option: %w", err)
		}
		options = append(options, o)
	}
	return options, rows.Err()
}

// UpdateOption applies the non-nil patch fields and returns the updated
// row.
func (r *SQLiteRepository) UpdateOption(ctx context.Context, id string, patch OptionPatch) (*Option, error) {
	sets := []string{}
	args := []any{}

	if patch.Description != nil {
		sets, args = append(sets, "description = ?"), append(args, *patch.Description)
	}
	if patch.IsCorrect != nil {
		sets, args = append(sets, "is_correct = ?"), append(args, boolToInt(*patch.IsCorrect))
	}

	if len(sets) > 0 {
		args = append(args, id)
		if err := r.execExpectingRow(ctx,
			`UPDATE options SET `+strings.Join(sets, ", ")+` WHERE id = ?`,
			args, ErrOptionNotFound); err != nil {
			return nil, err
		}
	}

	var o Option
	err := r.db.QueryRowContext(ctx,
		`SELECT id, question_id, description, is_correct FROM options WHERE id = ?`, id).
		Scan(&o.ID, &o.QuestionID, &o.Description, &o.IsCorrect)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOptionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning option: %w", err)
	}
	return &o, nil
}

// DeleteOption removes the option.
func (r *SQLiteRepository) DeleteOption(ctx context.Context, id string) error {
	return r.execExpectingRow(ctx, `DELETE FROM options WHERE id = ?`, []any{id}, ErrOptionNotFound)
}

// CreateTag inserts the tag. Tag names are unique; a duplicate fails with
// ErrTagExists.
func (r *SQLiteRepository) CreateTag(ctx context.Context, tag *Tag) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO tags (id, name) VALUES (?, ?)`, tag.ID, tag.Name)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return ErrTagExists
		}
		return fmt.Errorf("inserting tag: %w", err)
	}
	return nil
}

// ListTags returns all tags ordered by name.
func (r *SQLiteRepository) ListTags(ctx context.Context) ([]Tag, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM tags ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("querying tags: %w", err)
	}
	defer rows.Close()

	tags := []Tag{}
	for rows.Next() {
		var tag Tag
		if err := rows.Scan(&tag.ID, &tag.Name); err != nil {
			return nil, fmt.Errorf("scanning tag: %w", err)
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}

// DeleteTag removes the tag.
func (r *SQLiteRepository) DeleteTag(ctx context.Context, id string) error {
	return r.execExpectingRow(ctx, `DELETE FROM tags WHERE id = ?`, []any{id}, ErrTagNotFound)
}

// execExpectingRow runs a statement that must touch exactly one row and
// maps "no rows touched" to the entity's not-found error.
func (r *SQLiteRepository) execExpectingRow(ctx context.Context, query string, args []any, notFound error) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("executing statement: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading rows affected: %w", err)
	}
	if affected == 0 {
		return notFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAssessment(row rowScanner) (*Assessment, error) {
	var (
		a                    Assessment
		description, creator sql.NullString
		startAt, endAt       sql.NullString
		duration             sql.NullInt64
		createdAt, updatedAt string
	)
	err := row.Scan(&a.ID, &a.Name, &description, &a.IsActive,
		&startAt, &endAt, &duration, &creator, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning assessment: %w", err)
	}
	a.Description = description.String
	a.CreatedBy = creator.String
	a.Duration = int(duration.Int64)
	if startAt.Valid {
		a.StartAt, _ = time.Parse(time.RFC3339, startAt.String)
	}
	if endAt.Valid {
		a.EndAt, _ = time.Parse(time.RFC3339, endAt.String)
	}
	a.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	a.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &a, nil
}

// nullString maps the empty string to NULL for nullable columns.
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// nullTime maps the zero time to NULL.
func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

// nullInt maps zero to NULL.
func nullInt(n int) any {
	if n == 0 {
		return nil
	}
	return n
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func isForeignKeyViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey
}
