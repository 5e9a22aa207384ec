package service

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/edugrid/gradecore-backend/internal/apperr"
	"github.com/edugrid/gradecore-backend/internal/model"
)

// submitAttempt starts an attempt for the student, saves the given
// answers keyed by question index, and submits it.
func (env *testEnv) submitAttempt(t *testing.T, exam *model.Exam, studentID string, answers map[int]string) *model.ExamResponse {
	t.Helper()
	ctx := context.Background()
	resp, err := env.attemptSvc.StartAttempt(ctx, exam.ID, studentID)
	if err != nil {
		t.Fatalf("start attempt: %v", err)
	}
	for idx, answer := range answers {
		if _, err := env.attemptSvc.SaveAnswer(ctx, resp.ID, exam.Questions[idx].ID, answer); err != nil {
			t.Fatalf("save answer: %v", err)
		}
	}
	resp, err = env.attemptSvc.Submit(ctx, resp.ID)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	return resp
}

func TestManualGradeProgressesToGraded(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	exam := env.openExam(t, 50, essayReq(10), essayReq(10))
	resp := env.submitAttempt(t, exam, "stu-1", map[int]string{0: "first answer", 1: "second answer"})

	after, err := env.gradingSvc.ManualGrade(ctx, resp.ID, exam.Questions[0].ID, 7, "good start", "lect-1")
	if err != nil {
		t.Fatalf("grade q1: %v", err)
	}
	if after.Status != model.ResponseStatusSubmitted {
		t.Errorf("status = %s with one essay pending, want SUBMITTED", after.Status)
	}
	if after.Graded {
		t.Error("graded = true with one essay pending")
	}

	after, err = env.gradingSvc.ManualGrade(ctx, resp.ID, exam.Questions[1].ID, 4, "", "lect-1")
	if err != nil {
		t.Fatalf("grade q2: %v", err)
	}
	if after.Status != model.ResponseStatusGraded {
		t.Errorf("status = %s after both essays scored, want GRADED", after.Status)
	}
	if after.TotalScore != 11 || after.Percentage != 55 {
		t.Errorf("score = %d (%.2f%%), want 11 (55%%)", after.TotalScore, after.Percentage)
	}
	if !after.Passed {
		t.Error("passed = false at 55% against pass mark 50")
	}
	if after.AutoGraded {
		t.Error("autoGraded = true on a manually graded response")
	}
	if after.GradedBy != "lect-1" || after.GradedAt == nil {
		t.Errorf("gradedBy = %q, gradedAt = %v", after.GradedBy, after.GradedAt)
	}
	if after.InstructorFeedback != "good start" {
		t.Errorf("feedback = %q, want the earlier note preserved", after.InstructorFeedback)
	}
	if got := len(env.publisher.byType(model.EventResponseGraded)); got != 1 {
		t.Errorf("graded events = %d, want 1", got)
	}
}

func TestManualGradeScoreBounds(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	exam := env.openExam(t, 50, essayReq(10))
	resp := env.submitAttempt(t, exam, "stu-1", map[int]string{0: "answer"})

	for _, score := range []int{-1, 11} {
		_, err := env.gradingSvc.ManualGrade(ctx, resp.ID, exam.Questions[0].ID, score, "", "lect-1")
		if !apperr.IsKind(err, apperr.KindInvalidScore) {
			t.Errorf("score %d err = %v, want invalid score", score, err)
		}
	}

	// Boundary values are valid.
	if _, err := env.gradingSvc.ManualGrade(ctx, resp.ID, exam.Questions[0].ID, 0, "", "lect-1"); err != nil {
		t.Errorf("score 0: %v", err)
	}
}

func TestManualGradeStateGuards(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	exam := env.openExam(t, 50, essayReq(10))
	resp, err := env.attemptSvc.StartAttempt(ctx, exam.ID, "stu-1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	// IN_PROGRESS work cannot be graded.
	_, err = env.gradingSvc.ManualGrade(ctx, resp.ID, exam.Questions[0].ID, 5, "", "lect-1")
	if !apperr.IsKind(err, apperr.KindInvalidState) {
		t.Errorf("in-progress err = %v, want invalid state", err)
	}

	if _, err := env.attemptSvc.Submit(ctx, resp.ID); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := env.gradingSvc.ManualGrade(ctx, resp.ID, exam.Questions[0].ID, 5, "", "lect-1"); err != nil {
		t.Fatalf("grade: %v", err)
	}

	// Grades freeze once terminal.
	_, err = env.gradingSvc.ManualGrade(ctx, resp.ID, exam.Questions[0].ID, 9, "", "lect-1")
	if !apperr.IsKind(err, apperr.KindInvalidState) {
		t.Errorf("regrade err = %v, want invalid state", err)
	}

	// Unknown question on a gradable response.
	resp2 := env.submitAttempt(t, exam, "stu-2", map[int]string{0: "x"})
	_, err = env.gradingSvc.ManualGrade(ctx, resp2.ID, uuid.New(), 5, "", "lect-1")
	if !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("unknown question err = %v, want not found", err)
	}
}

func TestBatchGradePartialFailure(t *testing.T) {
	env := newTestEnv()

	exam := env.openExam(t, 50, essayReq(10))
	good := env.submitAttempt(t, exam, "stu-1", map[int]string{0: "answer"})
	inProgress, err := env.attemptSvc.StartAttempt(context.Background(), exam.ID, "stu-2")
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	result := env.gradingSvc.BatchGrade(context.Background(), &model.BatchGradeRequest{
		ResponseIDs: []string{good.ID.String(), inProgress.ID.String(), "not-a-uuid"},
		Op: model.BatchGradeOp{
			Kind:       "score",
			QuestionID: exam.Questions[0].ID.String(),
			Score:      8,
		},
	}, "lect-1")

	if len(result.Succeeded) != 1 || result.Succeeded[0] != good.ID {
		t.Errorf("succeeded = %v, want only %s", result.Succeeded, good.ID)
	}
	if len(result.Failed) != 2 {
		t.Fatalf("failed = %v, want 2 entries", result.Failed)
	}
	if _, ok := result.Failed[inProgress.ID.String()]; !ok {
		t.Errorf("missing failure for in-progress response: %v", result.Failed)
	}
	if _, ok := result.Failed["not-a-uuid"]; !ok {
		t.Errorf("missing failure for malformed id: %v", result.Failed)
	}

	// The winner's grade actually landed.
	graded, _ := env.attemptSvc.GetResponse(context.Background(), good.ID)
	if graded.TotalScore != 8 {
		t.Errorf("score = %d, want 8", graded.TotalScore)
	}
}

func TestFlagForReviewIsScoreNeutral(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	exam := env.openExam(t, 60, mcReq(5, "A", "A", "B"))
	resp := env.submitAttempt(t, exam, "stu-1", map[int]string{0: "A"})
	before, _ := env.attemptSvc.GetResponse(ctx, resp.ID)

	flagged, err := env.gradingSvc.FlagForReview(ctx, resp.ID, "possible collusion", "")
	if err != nil {
		t.Fatalf("flag: %v", err)
	}
	if !flagged.FlaggedForReview || flagged.FlagReason != "possible collusion" {
		t.Errorf("flag not recorded: %+v", flagged)
	}
	if flagged.FlagPriority != "normal" {
		t.Errorf("priority = %q, want default normal", flagged.FlagPriority)
	}
	if flagged.TotalScore != before.TotalScore || flagged.Status != before.Status || flagged.Passed != before.Passed {
		t.Errorf("flagging changed scoring state: before %+v after %+v", before, flagged)
	}
}

func TestAmendFeedback(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	exam := env.openExam(t, 60, mcReq(5, "A", "A", "B"))
	resp := env.submitAttempt(t, exam, "stu-1", map[int]string{0: "A"})

	// The all-choice submission is already GRADED; feedback stays open.
	after, err := env.gradingSvc.AmendFeedback(ctx, resp.ID, "well done")
	if err != nil {
		t.Fatalf("amend: %v", err)
	}
	if after.InstructorFeedback != "well done" {
		t.Errorf("feedback = %q", after.InstructorFeedback)
	}

	inProgress, err := env.attemptSvc.StartAttempt(ctx, exam.ID, "stu-2")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	_, err = env.gradingSvc.AmendFeedback(ctx, inProgress.ID, "too early")
	if !apperr.IsKind(err, apperr.KindInvalidState) {
		t.Errorf("in-progress err = %v, want invalid state", err)
	}
}

func TestGetExamForGrading(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	exam := env.openExam(t, 50, mcReq(5, "A", "A", "B"), essayReq(10))
	env.submitAttempt(t, exam, "stu-b", map[int]string{0: "A", 1: "essay b"})
	env.submitAttempt(t, exam, "stu-a", map[int]string{0: "B", 1: "essay a"})
	if _, err := env.attemptSvc.StartAttempt(ctx, exam.ID, "stu-c"); err != nil {
		t.Fatalf("start: %v", err)
	}

	view, err := env.gradingSvc.GetExamForGrading(ctx, exam.ID)
	if err != nil {
		t.Fatalf("view: %v", err)
	}

	if view.SubmittedCount != 2 {
		t.Errorf("submittedCount = %d, want 2 (in-progress excluded)", view.SubmittedCount)
	}
	if view.GradedCount != 0 {
		t.Errorf("gradedCount = %d, want 0", view.GradedCount)
	}

	mc, essay := view.QuestionProgress[0], view.QuestionProgress[1]
	if !mc.AutoGradable || mc.GradedCount != 2 || mc.PendingCount != 0 {
		t.Errorf("choice progress = %+v, want fully graded", mc)
	}
	if essay.AutoGradable || essay.GradedCount != 0 || essay.PendingCount != 2 {
		t.Errorf("essay progress = %+v, want fully pending", essay)
	}

	if len(view.PendingResponses) != 2 {
		t.Fatalf("pendingResponses = %d, want 2", len(view.PendingResponses))
	}
	if view.PendingResponses[0].StudentID != "stu-a" {
		t.Errorf("pending order = [%s, %s], want sorted by student", view.PendingResponses[0].StudentID, view.PendingResponses[1].StudentID)
	}
	for _, pending := range view.PendingResponses {
		if len(pending.PendingQuestions) != 1 || pending.PendingQuestions[0] != exam.Questions[1].ID {
			t.Errorf("pendingQuestions = %v, want only the essay", pending.PendingQuestions)
		}
	}
}
