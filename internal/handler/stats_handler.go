package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/edugrid/gradecore-backend/internal/middleware"
	"github.com/edugrid/gradecore-backend/internal/model"
	"github.com/edugrid/gradecore-backend/internal/response"
	"github.com/edugrid/gradecore-backend/internal/service"
)

// StatsHandler serves aggregate exam statistics.
type StatsHandler struct {
	statsService *service.StatsService
	examService  *service.ExamService
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(statsService *service.StatsService, examService *service.ExamService) *StatsHandler {
	return &StatsHandler{
		statsService: statsService,
		examService:  examService,
	}
}

// GetExamStats godoc
// GET /api/v1/lecturer/exams/:exam_id/stats
// Recomputed on every call; a zero-response exam yields all-zero rates.
func (h *StatsHandler) GetExamStats(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	exam, err := h.examService.GetByID(c.Request.Context(), examID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	if claims.Role != model.RoleAdmin && exam.InstructorID != claims.UserID {
		response.Fail(c, http.StatusForbidden, response.ErrNotExamInstructor)
		return
	}

	stats, err := h.statsService.ComputeExamStats(c.Request.Context(), examID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"stats": stats})
}
