package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/edugrid/gradecore-backend/internal/apperr"
	"github.com/edugrid/gradecore-backend/internal/config"
	"github.com/edugrid/gradecore-backend/internal/model"
)

// RedisExamCache keeps the student-facing exam paper in Redis. Papers
// are warmed on publish so the hot attempt path never rebuilds them
// from the answer-key-bearing aggregate.
type RedisExamCache struct {
	rdb *redis.Client
	log zerolog.Logger
}

// NewRedisExamCache creates a new RedisExamCache.
func NewRedisExamCache(rdb *redis.Client, log zerolog.Logger) *RedisExamCache {
	return &RedisExamCache{
		rdb: rdb,
		log: log.With().Str("component", "exam_cache").Logger(),
	}
}

// WarmExam builds the student paper from the exam aggregate and caches
// it. The paper carries no correct answers.
func (c *RedisExamCache) WarmExam(ctx context.Context, exam *model.Exam) error {
	questions := make([]model.QuestionForStudent, len(exam.Questions))
	for i := range exam.Questions {
		questions[i] = exam.Questions[i].ForStudent()
	}

	paper := model.ExamPaper{
		ExamID:           exam.ID,
		Title:            exam.Title,
		Instructions:     exam.Instructions,
		DurationMin:      exam.DurationMin,
		TotalPoints:      exam.TotalPoints,
		ShowTimer:        exam.Settings.ShowTimer,
		AllowNavigation:  exam.Settings.AllowNavigation,
		ShuffleQuestions: exam.Settings.ShuffleQuestions,
		ShuffleOptions:   exam.Settings.ShuffleOptions,
		Questions:        questions,
	}

	payload, err := json.Marshal(paper)
	if err != nil {
		return fmt.Errorf("marshal paper: %w", err)
	}
	if err := c.rdb.Set(ctx, config.CacheKey.ExamPaperKey(exam.ID.String()), payload, 0).Err(); err != nil {
		return fmt.Errorf("cache to redis: %w", err)
	}

	c.log.Debug().
		Str("exam_id", exam.ID.String()).
		Int("questions", len(questions)).
		Msg("Paper cache warmed")
	return nil
}

// GetPaper retrieves the cached paper. A miss is apperr.NotFound; the
// caller falls back to the store.
func (c *RedisExamCache) GetPaper(ctx context.Context, examID uuid.UUID) (*model.ExamPaper, error) {
	data, err := c.rdb.Get(ctx, config.CacheKey.ExamPaperKey(examID.String())).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperr.NotFound("exam paper", examID)
		}
		return nil, fmt.Errorf("get paper: %w", err)
	}

	var paper model.ExamPaper
	if err := json.Unmarshal(data, &paper); err != nil {
		return nil, fmt.Errorf("unmarshal paper: %w", err)
	}
	return &paper, nil
}

// Invalidate drops the cached paper, for cancelled or retracted exams.
func (c *RedisExamCache) Invalidate(ctx context.Context, examID uuid.UUID) error {
	return c.rdb.Del(ctx, config.CacheKey.ExamPaperKey(examID.String())).Err()
}
