package router

import (
	"net/http"
	"time"

	"github.com/edugrid/gradecore-backend/internal/config"
	"github.com/edugrid/gradecore-backend/internal/handler"
	"github.com/edugrid/gradecore-backend/internal/middleware"
	"github.com/edugrid/gradecore-backend/internal/model"
	"github.com/edugrid/gradecore-backend/internal/response"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Exam    *handler.ExamHandler
	Attempt *handler.AttemptHandler
	Grading *handler.GradingHandler
	Stats   *handler.StatsHandler
	Monitor *handler.MonitorHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(handlers *Handlers, cfg *config.Config) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Apply brotli middleware globally.
	router.Use(middleware.Brotli())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter for answer traffic (120 requests per minute per IP).
	// Autosave clients fire frequently, so the budget is generous.
	answerLimiter := middleware.NewRateLimiter(120, time.Minute)

	// ─── 1. Student Group (JWT, student role) ──────────────────────────
	studentAPI := router.Group("/api/v1/student")
	studentAPI.Use(
		middleware.RequireAuth(cfg.JWTSecret),
		middleware.RequireRole(model.RoleStudent),
	)
	{
		studentAPI.GET("/exams/:exam_id/paper",
			middleware.PrivateCacheControl(60),
			handlers.Attempt.GetPaper,
		)
		studentAPI.POST("/exams/:exam_id/attempts", handlers.Attempt.StartAttempt)
		studentAPI.GET("/exams/:exam_id/attempts", handlers.Attempt.ListAttempts)

		studentAPI.PUT("/responses/:response_id/answers",
			answerLimiter.Middleware(),
			handlers.Attempt.SaveAnswer,
		)
		studentAPI.POST("/responses/:response_id/submit", handlers.Attempt.SubmitAttempt)
		studentAPI.GET("/responses/:response_id/state", handlers.Attempt.GetAttemptState)
		studentAPI.GET("/responses/:response_id", handlers.Attempt.GetResult)
	}

	// ─── 2. Lecturer Group (JWT, lecturer or admin role) ───────────────
	lecturerAPI := router.Group("/api/v1/lecturer")
	lecturerAPI.Use(
		middleware.RequireAuth(cfg.JWTSecret),
		middleware.RequireRole(model.RoleLecturer, model.RoleAdmin),
	)
	{
		// Exam lifecycle
		lecturerAPI.GET("/exams", handlers.Exam.ListExams)
		lecturerAPI.POST("/exams", handlers.Exam.CreateExam)
		lecturerAPI.GET("/exams/:exam_id", handlers.Exam.GetExam)
		lecturerAPI.PATCH("/exams/:exam_id", handlers.Exam.UpdateExam)
		lecturerAPI.DELETE("/exams/:exam_id", handlers.Exam.DeleteExam)
		lecturerAPI.POST("/exams/:exam_id/questions", handlers.Exam.AddQuestion)
		lecturerAPI.DELETE("/exams/:exam_id/questions/:question_id", handlers.Exam.RemoveQuestion)
		lecturerAPI.POST("/exams/:exam_id/publish", handlers.Exam.PublishExam)
		lecturerAPI.POST("/exams/:exam_id/cancel", handlers.Exam.CancelExam)

		// Grading
		lecturerAPI.GET("/exams/:exam_id/grading", handlers.Grading.GetExamForGrading)
		lecturerAPI.POST("/exams/:exam_id/grades/batch", handlers.Grading.BatchGrade)
		lecturerAPI.GET("/responses/:response_id", handlers.Grading.GetResponse)
		lecturerAPI.POST("/responses/:response_id/grades", handlers.Grading.GradeQuestion)
		lecturerAPI.POST("/responses/:response_id/flag", handlers.Grading.FlagResponse)
		lecturerAPI.PUT("/responses/:response_id/feedback", handlers.Grading.AmendFeedback)

		// Statistics
		lecturerAPI.GET("/exams/:exam_id/stats", handlers.Stats.GetExamStats)
	}

	// ─── 3. WebSocket Group (WS Auth via query token) ──────────────────
	ws := router.Group("/ws/v1")
	ws.Use(
		middleware.RequireWSAuth(cfg.JWTSecret),
		middleware.RequireRole(model.RoleLecturer, model.RoleAdmin),
	)
	{
		ws.GET("/lecturer/exams/:exam_id/monitor", handlers.Monitor.MonitorExam)
	}

	return router
}
