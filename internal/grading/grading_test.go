package grading

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/edugrid/gradecore-backend/internal/model"
)

func intPtr(v int) *int { return &v }

func mcQuestion(points int, correct string, idx *int, options ...string) model.ExamQuestion {
	return model.ExamQuestion{
		ID:                 uuid.New(),
		Type:               model.QuestionTypeMultipleChoice,
		Text:               "pick one",
		Options:            options,
		CorrectAnswer:      correct,
		CorrectAnswerIndex: idx,
		Points:             points,
	}
}

func TestScoreQuestionMultipleChoice(t *testing.T) {
	tests := []struct {
		name    string
		q       model.ExamQuestion
		answer  string
		want    int
		wantBad bool
	}{
		{"match by value", mcQuestion(5, "A", nil, "A", "B"), "A", 5, false},
		{"wrong value", mcQuestion(5, "A", nil, "A", "B"), "B", 0, false},
		{"match by index", mcQuestion(3, "", intPtr(1), "red", "blue"), "1", 3, false},
		{"match by option text at index", mcQuestion(3, "", intPtr(1), "red", "blue"), "blue", 3, false},
		{"wrong index", mcQuestion(3, "", intPtr(1), "red", "blue"), "0", 0, false},
		{"no answer key", mcQuestion(5, "", nil, "A", "B"), "A", 0, true},
		{"empty answer", mcQuestion(5, "A", nil, "A", "B"), "", 0, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out := ScoreQuestion(&tc.q, tc.answer)
			if out.Awarded != tc.want {
				t.Errorf("awarded = %d, want %d", out.Awarded, tc.want)
			}
			if out.Malformed != tc.wantBad {
				t.Errorf("malformed = %v, want %v", out.Malformed, tc.wantBad)
			}
		})
	}
}

func TestScoreQuestionTrueFalse(t *testing.T) {
	q := model.ExamQuestion{
		ID:            uuid.New(),
		Type:          model.QuestionTypeTrueFalse,
		CorrectAnswer: "true",
		Points:        2,
	}

	for _, answer := range []string{"true", "TRUE", " True "} {
		if out := ScoreQuestion(&q, answer); out.Awarded != 2 {
			t.Errorf("answer %q awarded %d, want 2", answer, out.Awarded)
		}
	}
	if out := ScoreQuestion(&q, "false"); out.Awarded != 0 {
		t.Errorf("wrong answer awarded %d, want 0", out.Awarded)
	}

	q.CorrectAnswer = ""
	if out := ScoreQuestion(&q, "true"); !out.Malformed || out.Awarded != 0 {
		t.Errorf("missing key: got %+v, want malformed zero", out)
	}
}

func TestScoreQuestionText(t *testing.T) {
	q := model.ExamQuestion{
		ID:                uuid.New(),
		Type:              model.QuestionTypeText,
		Points:            4,
		AcceptableAnswers: []string{"Photosynthesis", "photo synthesis"},
	}

	if out := ScoreQuestion(&q, "photosynthesis"); out.Awarded != 4 {
		t.Errorf("case-insensitive match awarded %d, want 4", out.Awarded)
	}
	if out := ScoreQuestion(&q, "  Photosynthesis  "); out.Awarded != 4 {
		t.Errorf("trimmed match awarded %d, want 4", out.Awarded)
	}

	q.CaseSensitive = true
	if out := ScoreQuestion(&q, "photosynthesis"); out.Awarded != 0 {
		t.Errorf("case-sensitive mismatch awarded %d, want 0", out.Awarded)
	}
	if out := ScoreQuestion(&q, "Photosynthesis"); out.Awarded != 4 {
		t.Errorf("case-sensitive match awarded %d, want 4", out.Awarded)
	}
}

func TestScoreQuestionDeterministic(t *testing.T) {
	q := mcQuestion(5, "A", nil, "A", "B")
	first := ScoreQuestion(&q, "A")
	for i := 0; i < 100; i++ {
		if out := ScoreQuestion(&q, "A"); out != first {
			t.Fatalf("iteration %d: got %+v, want %+v", i, out, first)
		}
	}
}

func TestPercentage(t *testing.T) {
	tests := []struct {
		score, max int
		want       float64
	}{
		{10, 10, 100},
		{6, 10, 60},
		{1, 3, 33.33},
		{2, 3, 66.67},
		{0, 10, 0},
		{5, 0, 0}, // zero denominator must not NaN
	}
	for _, tc := range tests {
		if got := Percentage(tc.score, tc.max); got != tc.want {
			t.Errorf("Percentage(%d, %d) = %v, want %v", tc.score, tc.max, got, tc.want)
		}
	}
}

func newExamWith(passPct float64, questions ...model.ExamQuestion) *model.Exam {
	e := &model.Exam{
		ID:             uuid.New(),
		Title:          "Grading fixture",
		PassPercentage: passPct,
		Status:         model.ExamStatusPublished,
		Questions:      questions,
		StartTime:      time.Now().Add(-time.Hour),
		EndTime:        time.Now().Add(time.Hour),
	}
	e.RecomputeTotalPoints()
	return e
}

func newResponseFor(exam *model.Exam, answers map[string]string) *model.ExamResponse {
	return &model.ExamResponse{
		ID:             uuid.New(),
		ExamID:         exam.ID,
		StudentID:      "student-1",
		Answers:        answers,
		QuestionScores: map[string]int{},
		MaxScore:       exam.TotalPoints,
		Status:         model.ResponseStatusSubmitted,
	}
}

func TestAutoGradeAllCorrect(t *testing.T) {
	q1 := mcQuestion(5, "A", nil, "A", "B")
	q2 := mcQuestion(5, "B", nil, "A", "B")
	exam := newExamWith(60, q1, q2)

	resp := newResponseFor(exam, map[string]string{
		q1.ID.String(): "A",
		q2.ID.String(): "B",
	})
	AutoGrade(resp, exam)

	if resp.TotalScore != 10 || resp.MaxScore != 10 {
		t.Errorf("score = %d/%d, want 10/10", resp.TotalScore, resp.MaxScore)
	}
	if resp.Percentage != 100 {
		t.Errorf("percentage = %v, want 100", resp.Percentage)
	}
	if !resp.Passed {
		t.Error("passed = false, want true")
	}
	if !resp.Graded || !resp.AutoGraded {
		t.Errorf("graded = %v autoGraded = %v, want both true", resp.Graded, resp.AutoGraded)
	}
}

func TestAutoGradePassBoundaryInclusive(t *testing.T) {
	q1 := mcQuestion(3, "A", nil, "A", "B")
	q2 := mcQuestion(2, "B", nil, "A", "B")
	exam := newExamWith(60, q1, q2)

	// 3 of 5 points is exactly 60%.
	resp := newResponseFor(exam, map[string]string{
		q1.ID.String(): "A",
		q2.ID.String(): "A",
	})
	AutoGrade(resp, exam)

	if resp.Percentage != 60 {
		t.Fatalf("percentage = %v, want 60", resp.Percentage)
	}
	if !resp.Passed {
		t.Error("passed = false at exact boundary, want true")
	}
}

func TestAutoGradeLeavesEssayPending(t *testing.T) {
	mc := mcQuestion(5, "A", nil, "A", "B")
	essay := model.ExamQuestion{
		ID:     uuid.New(),
		Type:   model.QuestionTypeEssay,
		Text:   "explain",
		Points: 10,
	}
	exam := newExamWith(50, mc, essay)

	resp := newResponseFor(exam, map[string]string{
		mc.ID.String():    "A",
		essay.ID.String(): "long answer",
	})
	AutoGrade(resp, exam)

	if resp.AutoGraded {
		t.Error("autoGraded = true with an essay present, want false")
	}
	if resp.Graded {
		t.Error("graded = true with essay unscored, want false")
	}
	if _, scored := resp.QuestionScores[essay.ID.String()]; scored {
		t.Error("essay received an auto score entry")
	}
	if resp.TotalScore != 5 {
		t.Errorf("totalScore = %d, want 5", resp.TotalScore)
	}
}

func TestAutoGradeMalformedKeyFlagsResponse(t *testing.T) {
	bad := mcQuestion(5, "", nil, "A", "B") // no answer key
	good := mcQuestion(5, "B", nil, "A", "B")
	exam := newExamWith(50, bad, good)

	resp := newResponseFor(exam, map[string]string{
		bad.ID.String():  "A",
		good.ID.String(): "B",
	})
	AutoGrade(resp, exam)

	if !resp.FlaggedForReview {
		t.Error("response not flagged despite malformed answer key")
	}
	if resp.QuestionScores[bad.ID.String()] != 0 {
		t.Error("malformed question must score zero")
	}
	if resp.TotalScore != 5 {
		t.Errorf("totalScore = %d, want 5 (good question still graded)", resp.TotalScore)
	}
	if !resp.Graded {
		t.Error("graded = false, want true (every question has a score entry)")
	}
}

func TestRecomputeAfterManualScore(t *testing.T) {
	essay1 := model.ExamQuestion{ID: uuid.New(), Type: model.QuestionTypeEssay, Points: 10}
	essay2 := model.ExamQuestion{ID: uuid.New(), Type: model.QuestionTypeEssay, Points: 10}
	exam := newExamWith(60, essay1, essay2)

	resp := newResponseFor(exam, map[string]string{})
	AutoGrade(resp, exam)
	if resp.Graded {
		t.Fatal("graded = true before any manual scores")
	}

	resp.QuestionScores[essay1.ID.String()] = 8
	Recompute(resp, exam)
	if resp.Graded {
		t.Fatal("graded = true with one essay still unscored")
	}

	resp.QuestionScores[essay2.ID.String()] = 7
	Recompute(resp, exam)
	if !resp.Graded {
		t.Fatal("graded = false after all questions scored")
	}
	if resp.TotalScore != 15 || resp.Percentage != 75 {
		t.Errorf("total = %d pct = %v, want 15 / 75", resp.TotalScore, resp.Percentage)
	}
	if !resp.Passed {
		t.Error("passed = false, want true at 75%% against 60%%")
	}
}
