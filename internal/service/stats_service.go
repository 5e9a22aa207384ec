package service

import (
	"context"
	"math"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/edugrid/gradecore-backend/internal/model"
)

// StatsService derives per-exam statistics from the response set in a
// single pass. Results are computed on demand and never cached.
type StatsService struct {
	exams     ExamStore
	responses ResponseStore
	log       zerolog.Logger
}

// NewStatsService creates a new StatsService.
func NewStatsService(exams ExamStore, responses ResponseStore, log zerolog.Logger) *StatsService {
	return &StatsService{
		exams:     exams,
		responses: responses,
		log:       log.With().Str("component", "stats_service").Logger(),
	}
}

// ComputeExamStats scans the exam's responses once and derives the
// aggregate view. A zero-response exam yields all-zero rates, never NaN.
func (s *StatsService) ComputeExamStats(ctx context.Context, examID uuid.UUID) (*model.ExamStats, error) {
	if _, err := s.exams.GetByID(ctx, examID); err != nil {
		return nil, err
	}
	responses, err := s.responses.ListByExam(ctx, examID)
	if err != nil {
		return nil, err
	}

	stats := &model.ExamStats{
		ExamID:       examID,
		StatusCounts: map[model.ResponseStatus]int{},
	}

	var (
		scoreSum     float64
		scoreSquares float64
		timeSum      float64
		timeCount    int
	)
	for i := range responses {
		resp := &responses[i]
		stats.TotalResponses++
		stats.StatusCounts[resp.Status]++
		stats.StartedCount++

		if resp.SubmittedAt != nil {
			timeSum += float64(resp.TimeSpentSec)
			timeCount++
		}
		switch resp.Status {
		case model.ResponseStatusSubmitted, model.ResponseStatusGraded:
			stats.SubmittedCount++
		}
		if resp.Graded {
			stats.GradedCount++
			score := float64(resp.TotalScore)
			scoreSum += score
			scoreSquares += score * score
			if resp.Passed {
				stats.PassedCount++
			}
		}
	}

	if stats.SubmittedCount > 0 {
		stats.GradingProgress = float64(stats.GradedCount) / float64(stats.SubmittedCount)
	}
	if stats.GradedCount > 0 {
		stats.PassRate = float64(stats.PassedCount) / float64(stats.GradedCount)
		stats.AverageScore = scoreSum / float64(stats.GradedCount)
		// Population variance over the graded scores.
		variance := scoreSquares/float64(stats.GradedCount) - stats.AverageScore*stats.AverageScore
		if variance > 0 {
			stats.ScoreStdDev = math.Sqrt(variance)
		}
	}
	if stats.StartedCount > 0 {
		stats.CompletionRate = float64(stats.SubmittedCount) / float64(stats.StartedCount)
	}
	if timeCount > 0 {
		stats.AverageTimeSpent = timeSum / float64(timeCount)
	}
	return stats, nil
}
