package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/edugrid/gradecore-backend/internal/apperr"
	"github.com/edugrid/gradecore-backend/internal/model"
)

// ExamRepository handles exam data access. Questions and settings live
// as JSONB on the exam row: an exam definition is one aggregate and is
// always read and written whole.
type ExamRepository struct {
	pool *pgxpool.Pool
}

// NewExamRepository creates a new ExamRepository.
func NewExamRepository(pool *pgxpool.Pool) *ExamRepository {
	return &ExamRepository{pool: pool}
}

const examColumns = `id, course_id, instructor_id, title, description, instructions,
	duration_minutes, start_time, end_time, publish_time, settings,
	pass_percentage, status, questions, total_points, created_at, updated_at`

func scanExam(row pgx.Row) (*model.Exam, error) {
	e := &model.Exam{}
	err := row.Scan(&e.ID, &e.CourseID, &e.InstructorID, &e.Title, &e.Description,
		&e.Instructions, &e.DurationMin, &e.StartTime, &e.EndTime, &e.PublishTime,
		&e.Settings, &e.PassPercentage, &e.Status, &e.Questions, &e.TotalPoints,
		&e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// Create inserts a new exam aggregate.
func (r *ExamRepository) Create(ctx context.Context, e *model.Exam) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO exams (id, course_id, instructor_id, title, description, instructions,
		        duration_minutes, start_time, end_time, publish_time, settings,
		        pass_percentage, status, questions, total_points, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		e.ID, e.CourseID, e.InstructorID, e.Title, e.Description, e.Instructions,
		e.DurationMin, e.StartTime, e.EndTime, e.PublishTime, e.Settings,
		e.PassPercentage, e.Status, e.Questions, e.TotalPoints, e.CreatedAt, e.UpdatedAt)
	return err
}

// GetByID retrieves an exam by its UUID.
func (r *ExamRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	e, err := scanExam(r.pool.QueryRow(ctx,
		`SELECT `+examColumns+` FROM exams WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("exam", id)
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

// Update rewrites the whole aggregate, questions included.
func (r *ExamRepository) Update(ctx context.Context, e *model.Exam) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE exams SET
		        title = $2, description = $3, instructions = $4,
		        duration_minutes = $5, start_time = $6, end_time = $7,
		        publish_time = $8, settings = $9, pass_percentage = $10,
		        status = $11, questions = $12, total_points = $13, updated_at = $14
		 WHERE id = $1`,
		e.ID, e.Title, e.Description, e.Instructions,
		e.DurationMin, e.StartTime, e.EndTime,
		e.PublishTime, e.Settings, e.PassPercentage,
		e.Status, e.Questions, e.TotalPoints, e.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("exam", e.ID)
	}
	return nil
}

// Delete removes an exam. Responses are kept for audit; the foreign key
// is ON DELETE RESTRICT, so exams with responses cannot be deleted.
func (r *ExamRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM exams WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("exam", id)
	}
	return nil
}

// ListByInstructor retrieves an instructor's exams with pagination,
// newest first.
func (r *ExamRepository) ListByInstructor(ctx context.Context, instructorID string, limit, offset int) ([]model.Exam, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM exams WHERE instructor_id = $1`, instructorID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+examColumns+`
		 FROM exams WHERE instructor_id = $1
		 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		instructorID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	exams, err := collectExams(rows)
	if err != nil {
		return nil, 0, err
	}
	return exams, total, nil
}

// ListByCourse retrieves all exams attached to a course.
func (r *ExamRepository) ListByCourse(ctx context.Context, courseID string) ([]model.Exam, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+examColumns+`
		 FROM exams WHERE course_id = $1
		 ORDER BY start_time`, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectExams(rows)
}

// ListPublished returns all currently published exams. Used for cache
// prewarming on application startup.
func (r *ExamRepository) ListPublished(ctx context.Context) ([]model.Exam, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+examColumns+` FROM exams WHERE status = $1`, model.ExamStatusPublished)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectExams(rows)
}

func collectExams(rows pgx.Rows) ([]model.Exam, error) {
	var exams []model.Exam
	for rows.Next() {
		e, err := scanExam(rows)
		if err != nil {
			return nil, err
		}
		exams = append(exams, *e)
	}
	return exams, rows.Err()
}
