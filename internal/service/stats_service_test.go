package service

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/edugrid/gradecore-backend/internal/apperr"
	"github.com/edugrid/gradecore-backend/internal/model"
)

func TestComputeExamStatsZeroResponses(t *testing.T) {
	env := newTestEnv()

	exam := env.openExam(t, 60, mcReq(5, "A", "A", "B"))
	stats, err := env.statsSvc.ComputeExamStats(context.Background(), exam.ID)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}

	if stats.TotalResponses != 0 {
		t.Errorf("totalResponses = %d, want 0", stats.TotalResponses)
	}
	for name, v := range map[string]float64{
		"gradingProgress":  stats.GradingProgress,
		"passRate":         stats.PassRate,
		"completionRate":   stats.CompletionRate,
		"averageScore":     stats.AverageScore,
		"scoreStdDev":      stats.ScoreStdDev,
		"averageTimeSpent": stats.AverageTimeSpent,
	} {
		if v != 0 || math.IsNaN(v) {
			t.Errorf("%s = %v, want 0", name, v)
		}
	}
}

func TestComputeExamStatsUnknownExam(t *testing.T) {
	env := newTestEnv()
	_, err := env.statsSvc.ComputeExamStats(context.Background(), uuid.New())
	if !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("err = %v, want not found", err)
	}
}

func TestComputeExamStatsAggregates(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	// Two 5-point choice questions, pass mark 60%.
	exam := env.openExam(t, 60, mcReq(5, "A", "A", "B"), mcReq(5, "B", "A", "B"))

	// stu-1 scores 10/10 in 10 minutes, stu-2 scores 5/10 in 20 minutes.
	r1, _ := env.attemptSvc.StartAttempt(ctx, exam.ID, "stu-1")
	env.attemptSvc.SaveAnswer(ctx, r1.ID, exam.Questions[0].ID, "A")
	env.attemptSvc.SaveAnswer(ctx, r1.ID, exam.Questions[1].ID, "B")
	r2, _ := env.attemptSvc.StartAttempt(ctx, exam.ID, "stu-2")
	env.attemptSvc.SaveAnswer(ctx, r2.ID, exam.Questions[0].ID, "A")

	env.advance(10 * time.Minute)
	if _, err := env.attemptSvc.Submit(ctx, r1.ID); err != nil {
		t.Fatalf("submit r1: %v", err)
	}
	env.advance(10 * time.Minute)
	if _, err := env.attemptSvc.Submit(ctx, r2.ID); err != nil {
		t.Fatalf("submit r2: %v", err)
	}

	// stu-3 never submits.
	if _, err := env.attemptSvc.StartAttempt(ctx, exam.ID, "stu-3"); err != nil {
		t.Fatalf("start r3: %v", err)
	}

	stats, err := env.statsSvc.ComputeExamStats(ctx, exam.ID)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}

	if stats.TotalResponses != 3 || stats.StartedCount != 3 {
		t.Errorf("totals = %d/%d, want 3/3", stats.TotalResponses, stats.StartedCount)
	}
	if stats.SubmittedCount != 2 || stats.GradedCount != 2 {
		t.Errorf("submitted = %d, graded = %d, want 2/2", stats.SubmittedCount, stats.GradedCount)
	}
	if stats.StatusCounts[model.ResponseStatusInProgress] != 1 {
		t.Errorf("in-progress count = %d, want 1", stats.StatusCounts[model.ResponseStatusInProgress])
	}
	if stats.StatusCounts[model.ResponseStatusGraded] != 2 {
		t.Errorf("graded status count = %d, want 2", stats.StatusCounts[model.ResponseStatusGraded])
	}

	if stats.GradingProgress != 1 {
		t.Errorf("gradingProgress = %v, want 1", stats.GradingProgress)
	}
	if stats.PassedCount != 1 || stats.PassRate != 0.5 {
		t.Errorf("passed = %d, passRate = %v, want 1 and 0.5", stats.PassedCount, stats.PassRate)
	}
	if want := 2.0 / 3.0; math.Abs(stats.CompletionRate-want) > 1e-9 {
		t.Errorf("completionRate = %v, want %v", stats.CompletionRate, want)
	}

	// Scores 10 and 5: mean 7.5, population std dev 2.5.
	if stats.AverageScore != 7.5 {
		t.Errorf("averageScore = %v, want 7.5", stats.AverageScore)
	}
	if math.Abs(stats.ScoreStdDev-2.5) > 1e-9 {
		t.Errorf("scoreStdDev = %v, want 2.5", stats.ScoreStdDev)
	}

	// Durations 600s and 1200s.
	if stats.AverageTimeSpent != 900 {
		t.Errorf("averageTimeSpent = %v, want 900", stats.AverageTimeSpent)
	}
}

func TestComputeExamStatsIdenticalScores(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	exam := env.openExam(t, 60, mcReq(5, "A", "A", "B"))
	for _, student := range []string{"stu-1", "stu-2"} {
		resp, err := env.attemptSvc.StartAttempt(ctx, exam.ID, student)
		if err != nil {
			t.Fatalf("start %s: %v", student, err)
		}
		if _, err := env.attemptSvc.SaveAnswer(ctx, resp.ID, exam.Questions[0].ID, "A"); err != nil {
			t.Fatalf("save %s: %v", student, err)
		}
		if _, err := env.attemptSvc.Submit(ctx, resp.ID); err != nil {
			t.Fatalf("submit %s: %v", student, err)
		}
	}

	stats, err := env.statsSvc.ComputeExamStats(ctx, exam.ID)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.ScoreStdDev != 0 {
		t.Errorf("scoreStdDev = %v for identical scores, want 0", stats.ScoreStdDev)
	}
	if stats.PassRate != 1 {
		t.Errorf("passRate = %v, want 1", stats.PassRate)
	}
}
