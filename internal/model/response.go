package model

import (
	"time"

	"github.com/google/uuid"
)

// ResponseStatus enumerates the states of a student's attempt.
type ResponseStatus string

const (
	ResponseStatusInProgress ResponseStatus = "IN_PROGRESS"
	ResponseStatusSubmitted  ResponseStatus = "SUBMITTED"
	ResponseStatusGraded     ResponseStatus = "GRADED"
	ResponseStatusAbandoned  ResponseStatus = "ABANDONED"
)

// ExamResponse is one student's attempt at an exam. Responses are never
// deleted; they remain as audit records.
//
// MaxScore is snapshotted from the exam's TotalPoints when the attempt
// starts, so a definition edit mid-attempt cannot move the percentage
// denominator.
type ExamResponse struct {
	ID                 uuid.UUID         `json:"id"`
	ExamID             uuid.UUID         `json:"exam_id"`
	StudentID          string            `json:"student_id"`
	CourseID           string            `json:"course_id"`
	Answers            map[string]string `json:"answers"`
	QuestionScores     map[string]int    `json:"question_scores"`
	StartedAt          time.Time         `json:"started_at"`
	SubmittedAt        *time.Time        `json:"submitted_at,omitempty"`
	TimeSpentSec       int               `json:"time_spent_seconds"`
	Status             ResponseStatus    `json:"status"`
	TotalScore         int               `json:"total_score"`
	MaxScore           int               `json:"max_score"`
	Percentage         float64           `json:"percentage"`
	Passed             bool              `json:"passed"`
	Graded             bool              `json:"graded"`
	AutoGraded         bool              `json:"auto_graded"`
	AttemptNumber      int               `json:"attempt_number"`
	InstructorFeedback string            `json:"instructor_feedback,omitempty"`
	GradedBy           string            `json:"graded_by,omitempty"`
	GradedAt           *time.Time        `json:"graded_at,omitempty"`
	FlaggedForReview   bool              `json:"flagged_for_review"`
	FlagReason         string            `json:"flag_reason,omitempty"`
	FlagPriority       string            `json:"flag_priority,omitempty"`
	LateSubmission     bool              `json:"late_submission"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
}

// SaveAnswerRequest is the payload for saving a single answer.
type SaveAnswerRequest struct {
	QuestionID string `json:"question_id" binding:"required,uuid"`
	Answer     string `json:"answer" binding:"max=20000"`
}

// ManualGradeRequest is the payload for grading one question by hand.
type ManualGradeRequest struct {
	QuestionID string `json:"question_id" binding:"required,uuid"`
	Score      int    `json:"score" binding:"min=0"`
	Feedback   string `json:"feedback" binding:"omitempty,max=5000"`
}

// BatchGradeOp is the uniform operation applied by a batch grade call.
// Exactly one of the kinds is executed per response.
type BatchGradeOp struct {
	Kind       string `json:"kind" binding:"required,oneof=score feedback flag"`
	QuestionID string `json:"question_id" binding:"omitempty,uuid"`
	Score      int    `json:"score" binding:"min=0"`
	Feedback   string `json:"feedback" binding:"omitempty,max=5000"`
	FlagReason string `json:"flag_reason" binding:"omitempty,max=1000"`
	Priority   string `json:"priority" binding:"omitempty,oneof=low normal high"`
}

// BatchGradeRequest applies one operation to each listed response
// independently. Failures are reported per id; successes are kept.
type BatchGradeRequest struct {
	ResponseIDs []string     `json:"response_ids" binding:"required,min=1,dive,uuid"`
	Op          BatchGradeOp `json:"op" binding:"required"`
}

// BatchGradeResult reports per-id outcomes of a batch grade call.
type BatchGradeResult struct {
	Succeeded []uuid.UUID       `json:"succeeded"`
	Failed    map[string]string `json:"failed,omitempty"`
}

// FlagRequest marks a response for instructor review.
type FlagRequest struct {
	Reason   string `json:"reason" binding:"required,max=1000"`
	Priority string `json:"priority" binding:"omitempty,oneof=low normal high"`
}

// FeedbackRequest amends the response-level instructor feedback.
type FeedbackRequest struct {
	Feedback string `json:"feedback" binding:"required,max=5000"`
}

// AttemptState is the live view of an in-progress attempt.
type AttemptState struct {
	ResponseID   uuid.UUID         `json:"response_id"`
	ExamID       uuid.UUID         `json:"exam_id"`
	Status       ResponseStatus    `json:"status"`
	Answers      map[string]string `json:"answers"`
	RemainingSec float64           `json:"remaining_seconds"`
}
