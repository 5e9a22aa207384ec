package model

import (
	"time"

	"github.com/google/uuid"
)

// ExamStatus enumerates the stored states of an exam. ACTIVE and
// COMPLETED are derived from the time window of a PUBLISHED exam and are
// never written to storage.
type ExamStatus string

const (
	ExamStatusDraft     ExamStatus = "DRAFT"
	ExamStatusPublished ExamStatus = "PUBLISHED"
	ExamStatusActive    ExamStatus = "ACTIVE"
	ExamStatusCompleted ExamStatus = "COMPLETED"
	ExamStatusCancelled ExamStatus = "CANCELLED"
)

// ExamSettings groups the per-exam behavior toggles. RequireSafeBrowser
// is passed through to clients, never enforced here.
type ExamSettings struct {
	MaxAttempts        int  `json:"max_attempts"`
	ShowResults        bool `json:"show_results"`
	ShuffleQuestions   bool `json:"shuffle_questions"`
	ShuffleOptions     bool `json:"shuffle_options"`
	AllowNavigation    bool `json:"allow_navigation"`
	ShowTimer          bool `json:"show_timer"`
	AutoSubmit         bool `json:"auto_submit"`
	RequireSafeBrowser bool `json:"require_safe_browser"`
	VisibleToStudents  bool `json:"visible_to_students"`
}

// DefaultExamSettings returns the settings applied when a create request
// omits them.
func DefaultExamSettings() ExamSettings {
	return ExamSettings{
		MaxAttempts:       1,
		ShowResults:       true,
		AllowNavigation:   true,
		ShowTimer:         true,
		AutoSubmit:        true,
		VisibleToStudents: true,
	}
}

// Exam is the exam aggregate: definition, schedule, settings, and the
// embedded ordered question list. TotalPoints is always derived from the
// questions and recomputed after every mutation.
type Exam struct {
	ID             uuid.UUID      `json:"id"`
	CourseID       string         `json:"course_id"`
	InstructorID   string         `json:"instructor_id"`
	Title          string         `json:"title"`
	Description    string         `json:"description,omitempty"`
	Instructions   string         `json:"instructions,omitempty"`
	DurationMin    int            `json:"duration_minutes"`
	StartTime      time.Time      `json:"start_time"`
	EndTime        time.Time      `json:"end_time"`
	PublishTime    *time.Time     `json:"publish_time,omitempty"`
	Settings       ExamSettings   `json:"settings"`
	PassPercentage float64        `json:"pass_percentage"`
	Status         ExamStatus     `json:"status"`
	Questions      []ExamQuestion `json:"questions"`
	TotalPoints    int            `json:"total_points"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// RecomputeTotalPoints re-derives TotalPoints from the question list.
// Call after any question mutation; TotalPoints is never set directly.
func (e *Exam) RecomputeTotalPoints() {
	total := 0
	for i := range e.Questions {
		total += e.Questions[i].Points
	}
	e.TotalPoints = total
}

// EffectiveStatus derives ACTIVE/COMPLETED from the time window for a
// published exam. Stored statuses pass through unchanged.
func (e *Exam) EffectiveStatus(now time.Time) ExamStatus {
	if e.Status != ExamStatusPublished {
		return e.Status
	}
	switch {
	case !now.Before(e.EndTime):
		return ExamStatusCompleted
	case !now.Before(e.StartTime):
		return ExamStatusActive
	default:
		return ExamStatusPublished
	}
}

// InWindow reports whether now falls inside [StartTime, EndTime).
func (e *Exam) InWindow(now time.Time) bool {
	return !now.Before(e.StartTime) && now.Before(e.EndTime)
}

// Question returns the embedded question with the given id, or nil.
func (e *Exam) Question(questionID uuid.UUID) *ExamQuestion {
	for i := range e.Questions {
		if e.Questions[i].ID == questionID {
			return &e.Questions[i]
		}
	}
	return nil
}

// ExamPaper is the student-facing exam payload cached on publish. It
// never contains answer keys.
type ExamPaper struct {
	ExamID           uuid.UUID            `json:"exam_id"`
	Title            string               `json:"title"`
	Instructions     string               `json:"instructions,omitempty"`
	DurationMin      int                  `json:"duration_minutes"`
	TotalPoints      int                  `json:"total_points"`
	ShowTimer        bool                 `json:"show_timer"`
	AllowNavigation  bool                 `json:"allow_navigation"`
	ShuffleQuestions bool                 `json:"shuffle_questions"`
	ShuffleOptions   bool                 `json:"shuffle_options"`
	Questions        []QuestionForStudent `json:"questions"`
}

// CreateExamRequest is the payload for creating a new draft exam.
type CreateExamRequest struct {
	CourseID       string               `json:"course_id" binding:"required"`
	Title          string               `json:"title" binding:"required,exam_title"`
	Description    string               `json:"description" binding:"omitempty,max=5000"`
	Instructions   string               `json:"instructions" binding:"omitempty,max=5000"`
	DurationMin    int                  `json:"duration_minutes" binding:"required"`
	StartTime      time.Time            `json:"start_time" binding:"required"`
	EndTime        time.Time            `json:"end_time" binding:"required"`
	PassPercentage float64              `json:"pass_percentage" binding:"min=0,max=100"`
	Settings       *ExamSettings        `json:"settings" binding:"omitempty"`
	Questions      []AddQuestionRequest `json:"questions" binding:"omitempty,dive"`
}

// UpdateExamRequest is a partial patch for an editable exam. Nil fields
// are left untouched.
type UpdateExamRequest struct {
	Title          *string       `json:"title" binding:"omitempty,exam_title"`
	Description    *string       `json:"description" binding:"omitempty,max=5000"`
	Instructions   *string       `json:"instructions" binding:"omitempty,max=5000"`
	DurationMin    *int          `json:"duration_minutes" binding:"omitempty"`
	StartTime      *time.Time    `json:"start_time" binding:"omitempty"`
	EndTime        *time.Time    `json:"end_time" binding:"omitempty"`
	PassPercentage *float64      `json:"pass_percentage" binding:"omitempty,min=0,max=100"`
	Settings       *ExamSettings `json:"settings" binding:"omitempty"`
}
