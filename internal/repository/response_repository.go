package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/edugrid/gradecore-backend/internal/apperr"
	"github.com/edugrid/gradecore-backend/internal/model"
)

// ResponseRepository handles exam response data access. The submit and
// abandon transitions are conditional UPDATEs on status, so exactly one
// of any number of concurrent callers can move a response out of
// IN_PROGRESS.
type ResponseRepository struct {
	pool *pgxpool.Pool
}

// NewResponseRepository creates a new ResponseRepository.
func NewResponseRepository(pool *pgxpool.Pool) *ResponseRepository {
	return &ResponseRepository{pool: pool}
}

const responseColumns = `id, exam_id, student_id, course_id, answers, question_scores,
	started_at, submitted_at, time_spent_seconds, status, total_score, max_score,
	percentage, passed, graded, auto_graded, attempt_number, instructor_feedback,
	graded_by, graded_at, flagged_for_review, flag_reason, flag_priority,
	late_submission, created_at, updated_at`

func scanResponse(row pgx.Row) (*model.ExamResponse, error) {
	r := &model.ExamResponse{}
	err := row.Scan(&r.ID, &r.ExamID, &r.StudentID, &r.CourseID, &r.Answers,
		&r.QuestionScores, &r.StartedAt, &r.SubmittedAt, &r.TimeSpentSec, &r.Status,
		&r.TotalScore, &r.MaxScore, &r.Percentage, &r.Passed, &r.Graded, &r.AutoGraded,
		&r.AttemptNumber, &r.InstructorFeedback, &r.GradedBy, &r.GradedAt,
		&r.FlaggedForReview, &r.FlagReason, &r.FlagPriority, &r.LateSubmission,
		&r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// pgUniqueViolation is the Postgres error code for a unique index hit.
const pgUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// Create inserts a new response. The unique (exam_id, student_id,
// attempt_number) index backs the attempt numbering guarantee: when two
// concurrent starts race for the same attempt number, the loser gets a
// typed error instead of a raw driver failure and can retry.
func (r *ResponseRepository) Create(ctx context.Context, resp *model.ExamResponse) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO exam_responses (id, exam_id, student_id, course_id, answers, question_scores,
		        started_at, submitted_at, time_spent_seconds, status, total_score, max_score,
		        percentage, passed, graded, auto_graded, attempt_number, instructor_feedback,
		        graded_by, graded_at, flagged_for_review, flag_reason, flag_priority,
		        late_submission, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
		         $17, $18, $19, $20, $21, $22, $23, $24, $25, $26)`,
		resp.ID, resp.ExamID, resp.StudentID, resp.CourseID, resp.Answers, resp.QuestionScores,
		resp.StartedAt, resp.SubmittedAt, resp.TimeSpentSec, resp.Status, resp.TotalScore,
		resp.MaxScore, resp.Percentage, resp.Passed, resp.Graded, resp.AutoGraded,
		resp.AttemptNumber, resp.InstructorFeedback, resp.GradedBy, resp.GradedAt,
		resp.FlaggedForReview, resp.FlagReason, resp.FlagPriority, resp.LateSubmission,
		resp.CreatedAt, resp.UpdatedAt)
	if isUniqueViolation(err) {
		return apperr.InvalidState("attempt %d for student %s already exists on exam %s",
			resp.AttemptNumber, resp.StudentID, resp.ExamID)
	}
	return err
}

// GetByID retrieves a response by its UUID.
func (r *ResponseRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.ExamResponse, error) {
	resp, err := scanResponse(r.pool.QueryRow(ctx,
		`SELECT `+responseColumns+` FROM exam_responses WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("response", id)
	}
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// Update rewrites the mutable portion of a response.
func (r *ResponseRepository) Update(ctx context.Context, resp *model.ExamResponse) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE exam_responses SET
		        answers = $2, question_scores = $3, submitted_at = $4,
		        time_spent_seconds = $5, status = $6, total_score = $7,
		        percentage = $8, passed = $9, graded = $10, auto_graded = $11,
		        instructor_feedback = $12, graded_by = $13, graded_at = $14,
		        flagged_for_review = $15, flag_reason = $16, flag_priority = $17,
		        late_submission = $18, updated_at = $19
		 WHERE id = $1`,
		resp.ID, resp.Answers, resp.QuestionScores, resp.SubmittedAt,
		resp.TimeSpentSec, resp.Status, resp.TotalScore,
		resp.Percentage, resp.Passed, resp.Graded, resp.AutoGraded,
		resp.InstructorFeedback, resp.GradedBy, resp.GradedAt,
		resp.FlaggedForReview, resp.FlagReason, resp.FlagPriority,
		resp.LateSubmission, resp.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("response", resp.ID)
	}
	return nil
}

// CountByExamAndStudent counts a student's attempts at an exam,
// whatever their status.
func (r *ResponseRepository) CountByExamAndStudent(ctx context.Context, examID uuid.UUID, studentID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM exam_responses WHERE exam_id = $1 AND student_id = $2`,
		examID, studentID).Scan(&count)
	return count, err
}

// ListByExam retrieves all responses to an exam.
func (r *ResponseRepository) ListByExam(ctx context.Context, examID uuid.UUID) ([]model.ExamResponse, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+responseColumns+`
		 FROM exam_responses WHERE exam_id = $1
		 ORDER BY started_at`, examID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectResponses(rows)
}

// ListByExamAndStudent retrieves one student's attempts at an exam in
// attempt order.
func (r *ResponseRepository) ListByExamAndStudent(ctx context.Context, examID uuid.UUID, studentID string) ([]model.ExamResponse, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+responseColumns+`
		 FROM exam_responses WHERE exam_id = $1 AND student_id = $2
		 ORDER BY attempt_number`, examID, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectResponses(rows)
}

// MarkSubmitted moves a response from IN_PROGRESS to SUBMITTED. The
// WHERE status clause makes the transition a compare-and-swap: a second
// caller matches zero rows and gets AlreadySubmitted.
func (r *ResponseRepository) MarkSubmitted(ctx context.Context, id uuid.UUID, submittedAt time.Time) (*model.ExamResponse, error) {
	resp, err := scanResponse(r.pool.QueryRow(ctx,
		`UPDATE exam_responses
		 SET status = $2, submitted_at = $3, updated_at = $3
		 WHERE id = $1 AND status = $4
		 RETURNING `+responseColumns,
		id, model.ResponseStatusSubmitted, submittedAt, model.ResponseStatusInProgress))
	if errors.Is(err, pgx.ErrNoRows) {
		// Either absent or already out of IN_PROGRESS.
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return nil, getErr
		}
		return nil, apperr.AlreadySubmitted(id)
	}
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// MarkAbandoned moves a response from IN_PROGRESS to ABANDONED, with
// the same compare-and-swap shape as MarkSubmitted.
func (r *ResponseRepository) MarkAbandoned(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE exam_responses
		 SET status = $2, updated_at = NOW()
		 WHERE id = $1 AND status = $3`,
		id, model.ResponseStatusAbandoned, model.ResponseStatusInProgress)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		resp, getErr := r.GetByID(ctx, id)
		if getErr != nil {
			return getErr
		}
		return apperr.InvalidState("response %s is %s", id, resp.Status)
	}
	return nil
}

// ListOverdueInProgress finds IN_PROGRESS responses whose deadline has
// passed, either because the exam window closed or the per-attempt
// duration ran out. Feeds the sweep.
func (r *ResponseRepository) ListOverdueInProgress(ctx context.Context, now time.Time) ([]model.ExamResponse, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+prefixedResponseColumns("r")+`
		 FROM exam_responses r
		 JOIN exams e ON e.id = r.exam_id
		 WHERE r.status = $1
		   AND (e.end_time <= $2 OR r.started_at + e.duration_minutes * INTERVAL '1 minute' <= $2)`,
		model.ResponseStatusInProgress, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectResponses(rows)
}

func prefixedResponseColumns(alias string) string {
	cols := strings.Split(responseColumns, ",")
	for i, col := range cols {
		cols[i] = alias + "." + strings.TrimSpace(col)
	}
	return strings.Join(cols, ", ")
}

func collectResponses(rows pgx.Rows) ([]model.ExamResponse, error) {
	var responses []model.ExamResponse
	for rows.Next() {
		resp, err := scanResponse(rows)
		if err != nil {
			return nil, err
		}
		responses = append(responses, *resp)
	}
	return responses, rows.Err()
}
