package model

import (
	"time"

	"github.com/google/uuid"
)

// ExamEventType enumerates attempt lifecycle events published to the
// live monitor channel.
type ExamEventType string

const (
	EventAttemptStarted    ExamEventType = "attempt.started"
	EventResponseSubmitted ExamEventType = "response.submitted"
	EventResponseGraded    ExamEventType = "response.graded"
	EventResponseAbandoned ExamEventType = "response.abandoned"
)

// ExamEvent is one monitor event for an exam.
type ExamEvent struct {
	Type          ExamEventType `json:"type"`
	ExamID        uuid.UUID     `json:"exam_id"`
	ResponseID    uuid.UUID     `json:"response_id"`
	StudentID     string        `json:"student_id"`
	AttemptNumber int           `json:"attempt_number"`
	Late          bool          `json:"late,omitempty"`
	At            time.Time     `json:"at"`
}
