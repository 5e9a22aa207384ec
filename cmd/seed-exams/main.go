package main

import (
	"context"
	"fmt"
	"time"

	"github.com/edugrid/gradecore-backend/internal/cache"
	"github.com/edugrid/gradecore-backend/internal/config"
	"github.com/edugrid/gradecore-backend/internal/database"
	"github.com/edugrid/gradecore-backend/internal/logger"
	"github.com/edugrid/gradecore-backend/internal/model"
	"github.com/edugrid/gradecore-backend/internal/repository"
	"github.com/edugrid/gradecore-backend/internal/service"
)

// Seeds a handful of exams for local development: one draft, one
// published and open now, one published in the future.
func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	examRepo := repository.NewExamRepository(pool)
	examCache := cache.NewRedisExamCache(rdb, log)
	examService := service.NewExamService(examRepo, examCache, log)

	instructorID := "dev-lecturer-1"
	now := time.Now()

	seeds := []struct {
		req     model.CreateExamRequest
		publish bool
	}{
		{
			req: model.CreateExamRequest{
				CourseID:       "dev-course-101",
				Title:          "Midterm: Data Structures",
				Instructions:   "Answer every question. The essay is graded by hand.",
				DurationMin:    60,
				StartTime:      now.Add(-time.Hour),
				EndTime:        now.Add(6 * time.Hour),
				PassPercentage: 60,
				Questions:      sampleQuestions(),
			},
			publish: true,
		},
		{
			req: model.CreateExamRequest{
				CourseID:       "dev-course-101",
				Title:          "Final: Data Structures",
				DurationMin:    90,
				StartTime:      now.AddDate(0, 0, 7),
				EndTime:        now.AddDate(0, 0, 7).Add(4 * time.Hour),
				PassPercentage: 60,
				Questions:      sampleQuestions(),
			},
			publish: true,
		},
		{
			req: model.CreateExamRequest{
				CourseID:    "dev-course-202",
				Title:       "Quiz Draft: Networking Basics",
				DurationMin: 15,
				StartTime:   now.AddDate(0, 0, 14),
				EndTime:     now.AddDate(0, 0, 14).Add(2 * time.Hour),
			},
			publish: false,
		},
	}

	created := 0
	for _, seed := range seeds {
		exam, err := examService.Create(ctx, instructorID, &seed.req)
		if err != nil {
			fmt.Printf("Error creating %q: %v\n", seed.req.Title, err)
			continue
		}
		if seed.publish {
			if _, err := examService.Publish(ctx, exam.ID); err != nil {
				fmt.Printf("Error publishing %q: %v\n", seed.req.Title, err)
				continue
			}
		}
		created++
		fmt.Printf("Created %q (%s, published=%t)\n", exam.Title, exam.ID, seed.publish)
	}

	fmt.Printf("\nSeed completed! Added %d/%d exams.\n", created, len(seeds))
}

func sampleQuestions() []model.AddQuestionRequest {
	idx := func(i int) *int { return &i }
	return []model.AddQuestionRequest{
		{
			Type:               "multiple-choice",
			Text:               "Which structure gives O(1) amortized append?",
			Options:            []string{"linked list", "dynamic array", "binary heap", "B-tree"},
			CorrectAnswerIndex: idx(1),
			Points:             5,
			DisplayOrder:       1,
		},
		{
			Type:          "true-false",
			Text:          "A stack is first-in-first-out.",
			CorrectAnswer: "false",
			Points:        2,
			DisplayOrder:  2,
		},
		{
			Type:              "text",
			Text:              "Name the traversal that visits the root between its subtrees.",
			AcceptableAnswers: []string{"inorder", "in-order"},
			Points:            3,
			DisplayOrder:      3,
		},
		{
			Type:         "essay",
			Text:         "Compare hash tables and balanced trees for range queries.",
			Points:       10,
			DisplayOrder: 4,
		},
	}
}
