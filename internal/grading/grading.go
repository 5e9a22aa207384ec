// Package grading implements deterministic scoring of exam responses.
// All functions are pure over the response/exam pair; persistence and
// orchestration live in the service layer.
package grading

import (
	"math"
	"strconv"
	"strings"

	"github.com/edugrid/gradecore-backend/internal/model"
)

// Outcome is the result of auto-grading a single question.
type Outcome struct {
	Awarded   int
	Malformed bool // answer key missing or unusable; scored zero
}

// ScoreQuestion grades one auto-gradable question against a raw answer
// string. Full points on match, zero otherwise; no partial credit.
// A malformed answer key is non-fatal: the question scores zero and the
// outcome is marked so the response can be flagged.
func ScoreQuestion(q *model.ExamQuestion, answer string) Outcome {
	switch q.Type {
	case model.QuestionTypeMultipleChoice:
		return scoreChoice(q, answer)
	case model.QuestionTypeTrueFalse:
		return scoreTrueFalse(q, answer)
	case model.QuestionTypeText:
		return scoreText(q, answer)
	default:
		return Outcome{Malformed: true}
	}
}

func scoreChoice(q *model.ExamQuestion, answer string) Outcome {
	if q.CorrectAnswer == "" && q.CorrectAnswerIndex == nil {
		return Outcome{Malformed: true}
	}
	if q.CorrectAnswer != "" && answer == q.CorrectAnswer {
		return Outcome{Awarded: q.Points}
	}
	if q.CorrectAnswerIndex != nil {
		idx := *q.CorrectAnswerIndex
		if answer == strconv.Itoa(idx) {
			return Outcome{Awarded: q.Points}
		}
		if idx >= 0 && idx < len(q.Options) && answer == q.Options[idx] {
			return Outcome{Awarded: q.Points}
		}
	}
	return Outcome{}
}

func scoreTrueFalse(q *model.ExamQuestion, answer string) Outcome {
	if q.CorrectAnswer == "" {
		return Outcome{Malformed: true}
	}
	if strings.EqualFold(strings.TrimSpace(answer), q.CorrectAnswer) {
		return Outcome{Awarded: q.Points}
	}
	return Outcome{}
}

func scoreText(q *model.ExamQuestion, answer string) Outcome {
	if len(q.AcceptableAnswers) == 0 {
		return Outcome{Malformed: true}
	}
	got := strings.TrimSpace(answer)
	for _, acceptable := range q.AcceptableAnswers {
		want := strings.TrimSpace(acceptable)
		if q.CaseSensitive {
			if got == want {
				return Outcome{Awarded: q.Points}
			}
		} else if strings.EqualFold(got, want) {
			return Outcome{Awarded: q.Points}
		}
	}
	return Outcome{}
}

// AutoGrade scores every auto-gradable question of the exam into the
// response's QuestionScores map, leaving the rest for manual grading,
// then recomputes the totals. Questions with malformed answer keys are
// scored zero and the response is flagged for review; the pass as a
// whole never fails.
func AutoGrade(resp *model.ExamResponse, exam *model.Exam) {
	if resp.QuestionScores == nil {
		resp.QuestionScores = make(map[string]int, len(exam.Questions))
	}

	allAuto := true
	for i := range exam.Questions {
		q := &exam.Questions[i]
		if !q.CanAutoGrade() {
			allAuto = false
			continue
		}
		out := ScoreQuestion(q, resp.Answers[q.ID.String()])
		resp.QuestionScores[q.ID.String()] = out.Awarded
		if out.Malformed && !resp.FlaggedForReview {
			resp.FlaggedForReview = true
			resp.FlagReason = "question " + q.ID.String() + " has no usable answer key"
		}
	}
	resp.AutoGraded = allAuto

	Recompute(resp, exam)
}

// Recompute re-derives totalScore, percentage, passed, and graded from
// the score map. Invoked after every score mutation, auto or manual.
func Recompute(resp *model.ExamResponse, exam *model.Exam) {
	total := 0
	scored := 0
	for i := range exam.Questions {
		if s, ok := resp.QuestionScores[exam.Questions[i].ID.String()]; ok {
			total += s
			scored++
		}
	}

	resp.TotalScore = total
	resp.Percentage = Percentage(total, resp.MaxScore)
	resp.Passed = resp.Percentage >= exam.PassPercentage
	resp.Graded = len(exam.Questions) > 0 && scored == len(exam.Questions)
}

// Percentage returns score/max as a percentage rounded to two decimals.
// A zero denominator yields 0, never NaN.
func Percentage(score, max int) float64 {
	if max <= 0 {
		return 0
	}
	return math.Round(float64(score)/float64(max)*100*100) / 100
}
