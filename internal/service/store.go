package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/edugrid/gradecore-backend/internal/model"
)

// ExamStore is the persistence boundary for the exam aggregate.
// Implementations return apperr.NotFound for absent ids.
type ExamStore interface {
	Create(ctx context.Context, exam *model.Exam) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error)
	Update(ctx context.Context, exam *model.Exam) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByInstructor(ctx context.Context, instructorID string, limit, offset int) ([]model.Exam, int, error)
	ListByCourse(ctx context.Context, courseID string) ([]model.Exam, error)
	ListPublished(ctx context.Context) ([]model.Exam, error)
}

// ResponseStore is the persistence boundary for exam responses.
//
// MarkSubmitted and MarkAbandoned are atomic compare-and-swap
// transitions out of IN_PROGRESS: the loser of a concurrent race
// receives apperr.AlreadySubmitted (or apperr.InvalidState for abandon)
// and must not re-trigger any side effects.
type ResponseStore interface {
	Create(ctx context.Context, resp *model.ExamResponse) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.ExamResponse, error)
	Update(ctx context.Context, resp *model.ExamResponse) error
	CountByExamAndStudent(ctx context.Context, examID uuid.UUID, studentID string) (int, error)
	ListByExam(ctx context.Context, examID uuid.UUID) ([]model.ExamResponse, error)
	ListByExamAndStudent(ctx context.Context, examID uuid.UUID, studentID string) ([]model.ExamResponse, error)
	MarkSubmitted(ctx context.Context, id uuid.UUID, submittedAt time.Time) (*model.ExamResponse, error)
	MarkAbandoned(ctx context.Context, id uuid.UUID) error
	ListOverdueInProgress(ctx context.Context, now time.Time) ([]model.ExamResponse, error)
}

// ExamCache holds the student-facing exam paper, warmed on publish so
// live traffic never touches the answer key path.
type ExamCache interface {
	WarmExam(ctx context.Context, exam *model.Exam) error
	GetPaper(ctx context.Context, examID uuid.UUID) (*model.ExamPaper, error)
	Invalidate(ctx context.Context, examID uuid.UUID) error
}

// EventPublisher fans attempt lifecycle events out to the live exam
// monitor. Publishing is best-effort; failures must not fail the
// triggering operation.
type EventPublisher interface {
	PublishExamEvent(ctx context.Context, event model.ExamEvent) error
}
