package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/edugrid/gradecore-backend/internal/middleware"
	"github.com/edugrid/gradecore-backend/internal/model"
	"github.com/edugrid/gradecore-backend/internal/response"
	"github.com/edugrid/gradecore-backend/internal/service"
	"github.com/edugrid/gradecore-backend/internal/validator"
)

// GradingHandler handles instructor-side grading endpoints.
type GradingHandler struct {
	gradingService *service.GradingService
	examService    *service.ExamService
}

// NewGradingHandler creates a new GradingHandler.
func NewGradingHandler(gradingService *service.GradingService, examService *service.ExamService) *GradingHandler {
	return &GradingHandler{
		gradingService: gradingService,
		examService:    examService,
	}
}

// GetExamForGrading godoc
// GET /api/v1/lecturer/exams/:exam_id/grading
// Returns per-question grading progress and the responses still waiting
// on manual scores.
func (h *GradingHandler) GetExamForGrading(c *gin.Context) {
	exam, ok := h.ownedExam(c)
	if !ok {
		return
	}

	view, err := h.gradingService.GetExamForGrading(c.Request.Context(), exam.ID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"grading": view})
}

// GetResponse godoc
// GET /api/v1/lecturer/responses/:response_id
// Instructor view of one response, review flags included.
func (h *GradingHandler) GetResponse(c *gin.Context) {
	resp, ok := h.ownedResponse(c)
	if !ok {
		return
	}
	response.Success(c, http.StatusOK, gin.H{"response": resp})
}

// GradeQuestion godoc
// POST /api/v1/lecturer/responses/:response_id/grades
// Enters a manual score for one question of a submitted response.
func (h *GradingHandler) GradeQuestion(c *gin.Context) {
	resp, ok := h.ownedResponse(c)
	if !ok {
		return
	}

	var req model.ManualGradeRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	questionID, err := uuid.Parse(req.QuestionID)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	claims := middleware.GetClaims(c)
	graded, err := h.gradingService.ManualGrade(c.Request.Context(), resp.ID, questionID, req.Score, req.Feedback, claims.UserID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"response": graded})
}

// BatchGrade godoc
// POST /api/v1/lecturer/exams/:exam_id/grades/batch
// Applies one operation across many responses; failures are reported
// per response id and never roll back the successes.
func (h *GradingHandler) BatchGrade(c *gin.Context) {
	if _, ok := h.ownedExam(c); !ok {
		return
	}

	var req model.BatchGradeRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	claims := middleware.GetClaims(c)
	result := h.gradingService.BatchGrade(c.Request.Context(), &req, claims.UserID)
	response.Success(c, http.StatusOK, gin.H{"result": result})
}

// FlagResponse godoc
// POST /api/v1/lecturer/responses/:response_id/flag
func (h *GradingHandler) FlagResponse(c *gin.Context) {
	resp, ok := h.ownedResponse(c)
	if !ok {
		return
	}

	var req model.FlagRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	flagged, err := h.gradingService.FlagForReview(c.Request.Context(), resp.ID, req.Reason, req.Priority)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"response": flagged})
}

// AmendFeedback godoc
// PUT /api/v1/lecturer/responses/:response_id/feedback
func (h *GradingHandler) AmendFeedback(c *gin.Context) {
	resp, ok := h.ownedResponse(c)
	if !ok {
		return
	}

	var req model.FeedbackRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	updated, err := h.gradingService.AmendFeedback(c.Request.Context(), resp.ID, req.Feedback)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"response": updated})
}

func (h *GradingHandler) ownedExam(c *gin.Context) (*model.Exam, bool) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return nil, false
	}
	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return nil, false
	}

	exam, err := h.examService.GetByID(c.Request.Context(), examID)
	if err != nil {
		response.FromError(c, err)
		return nil, false
	}
	if claims.Role != model.RoleAdmin && exam.InstructorID != claims.UserID {
		response.Fail(c, http.StatusForbidden, response.ErrNotExamInstructor)
		return nil, false
	}
	return exam, true
}

// ownedResponse loads a response and checks the caller teaches the exam
// it belongs to.
func (h *GradingHandler) ownedResponse(c *gin.Context) (*model.ExamResponse, bool) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return nil, false
	}
	responseID, err := uuid.Parse(c.Param("response_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return nil, false
	}

	resp, err := h.gradingService.GetResponseByID(c.Request.Context(), responseID)
	if err != nil {
		response.FromError(c, err)
		return nil, false
	}
	exam, err := h.examService.GetByID(c.Request.Context(), resp.ExamID)
	if err != nil {
		response.FromError(c, err)
		return nil, false
	}
	if claims.Role != model.RoleAdmin && exam.InstructorID != claims.UserID {
		response.Fail(c, http.StatusForbidden, response.ErrNotExamInstructor)
		return nil, false
	}
	return resp, true
}
