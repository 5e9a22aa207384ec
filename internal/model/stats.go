package model

import "github.com/google/uuid"

// ExamStats is the derived statistics view over one exam's responses.
// All rates default to 0 for zero-response exams.
type ExamStats struct {
	ExamID           uuid.UUID              `json:"exam_id"`
	TotalResponses   int                    `json:"total_responses"`
	StatusCounts     map[ResponseStatus]int `json:"status_counts"`
	StartedCount     int                    `json:"started_count"`
	SubmittedCount   int                    `json:"submitted_count"`
	GradedCount      int                    `json:"graded_count"`
	PassedCount      int                    `json:"passed_count"`
	GradingProgress  float64                `json:"grading_progress"`
	PassRate         float64                `json:"pass_rate"`
	CompletionRate   float64                `json:"completion_rate"`
	AverageScore     float64                `json:"average_score"`
	ScoreStdDev      float64                `json:"score_std_dev"`
	AverageTimeSpent float64                `json:"average_time_spent_seconds"`
}

// GradingView is the instructor-side breakdown used to drive manual
// grading: which questions still need scores, on which responses.
type GradingView struct {
	Exam             *Exam                  `json:"exam"`
	QuestionProgress []QuestionGradingState `json:"question_progress"`
	PendingResponses []PendingResponse      `json:"pending_responses"`
	SubmittedCount   int                    `json:"submitted_count"`
	GradedCount      int                    `json:"graded_count"`
}

// QuestionGradingState tracks grading completeness for one question
// across all submitted responses.
type QuestionGradingState struct {
	QuestionID   uuid.UUID    `json:"question_id"`
	Type         QuestionType `json:"type"`
	Points       int          `json:"points"`
	AutoGradable bool         `json:"auto_gradable"`
	GradedCount  int          `json:"graded_count"`
	PendingCount int          `json:"pending_count"`
}

// PendingResponse identifies a submitted response still awaiting manual
// scores, with the question ids left to grade.
type PendingResponse struct {
	ResponseID       uuid.UUID   `json:"response_id"`
	StudentID        string      `json:"student_id"`
	AttemptNumber    int         `json:"attempt_number"`
	FlaggedForReview bool        `json:"flagged_for_review"`
	PendingQuestions []uuid.UUID `json:"pending_questions"`
}
