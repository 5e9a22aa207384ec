package model

import "github.com/google/uuid"

// QuestionType enumerates the supported question kinds.
type QuestionType string

const (
	QuestionTypeMultipleChoice QuestionType = "multiple-choice"
	QuestionTypeTrueFalse      QuestionType = "true-false"
	QuestionTypeText           QuestionType = "text"
	QuestionTypeEssay          QuestionType = "essay"
)

// ExamQuestion is a single question embedded in an exam aggregate.
type ExamQuestion struct {
	ID                 uuid.UUID    `json:"id"`
	Type               QuestionType `json:"type"`
	Text               string       `json:"text"`
	Options            []string     `json:"options,omitempty"`
	CorrectAnswer      string       `json:"correct_answer,omitempty"`
	CorrectAnswerIndex *int         `json:"correct_answer_index,omitempty"`
	Points             int          `json:"points"`
	Explanation        string       `json:"explanation,omitempty"`
	Required           bool         `json:"required"`
	CaseSensitive      bool         `json:"case_sensitive"`
	AcceptableAnswers  []string     `json:"acceptable_answers,omitempty"`
	DisplayOrder       int          `json:"display_order"`
}

// CanAutoGrade reports whether the question is scorable without human
// judgment: choice questions always, text questions only when they carry
// an acceptable-answer set.
func (q *ExamQuestion) CanAutoGrade() bool {
	switch q.Type {
	case QuestionTypeMultipleChoice, QuestionTypeTrueFalse:
		return true
	case QuestionTypeText:
		return len(q.AcceptableAnswers) > 0
	default:
		return false
	}
}

// QuestionForStudent is a question stripped of its answer key, safe to
// send to a student taking the exam.
type QuestionForStudent struct {
	ID           uuid.UUID    `json:"id"`
	Type         QuestionType `json:"type"`
	Text         string       `json:"text"`
	Options      []string     `json:"options,omitempty"`
	Points       int          `json:"points"`
	Required     bool         `json:"required"`
	DisplayOrder int          `json:"display_order"`
}

// ForStudent returns the answer-free view of the question.
func (q *ExamQuestion) ForStudent() QuestionForStudent {
	return QuestionForStudent{
		ID:           q.ID,
		Type:         q.Type,
		Text:         q.Text,
		Options:      q.Options,
		Points:       q.Points,
		Required:     q.Required,
		DisplayOrder: q.DisplayOrder,
	}
}

// AddQuestionRequest is the payload for adding a question to an exam.
type AddQuestionRequest struct {
	Type               string   `json:"type" binding:"required,oneof=multiple-choice true-false text essay"`
	Text               string   `json:"text" binding:"required,min=1,max=5000"`
	Options            []string `json:"options" binding:"omitempty,dive,max=1000"`
	CorrectAnswer      string   `json:"correct_answer" binding:"omitempty,max=1000"`
	CorrectAnswerIndex *int     `json:"correct_answer_index" binding:"omitempty,min=0"`
	Points             int      `json:"points" binding:"required,min=1"`
	Explanation        string   `json:"explanation" binding:"omitempty,max=5000"`
	Required           bool     `json:"required"`
	CaseSensitive      bool     `json:"case_sensitive"`
	AcceptableAnswers  []string `json:"acceptable_answers" binding:"omitempty,dive,max=1000"`
	DisplayOrder       int      `json:"display_order" binding:"min=0"`
}
