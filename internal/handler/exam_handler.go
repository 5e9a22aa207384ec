package handler

import (
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/edugrid/gradecore-backend/internal/middleware"
	"github.com/edugrid/gradecore-backend/internal/model"
	"github.com/edugrid/gradecore-backend/internal/response"
	"github.com/edugrid/gradecore-backend/internal/service"
	"github.com/edugrid/gradecore-backend/internal/validator"
)

// ExamHandler handles exam authoring and lifecycle endpoints.
type ExamHandler struct {
	examService *service.ExamService
}

// NewExamHandler creates a new ExamHandler.
func NewExamHandler(examService *service.ExamService) *ExamHandler {
	return &ExamHandler{examService: examService}
}

// ListExams godoc
// GET /api/v1/lecturer/exams
// Lists the caller's exams with pagination.
func (h *ExamHandler) ListExams(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	// A course_id filter returns the course roster unpaginated, so a
	// course page can show its exams without walking instructor pages.
	if courseID := c.Query("course_id"); courseID != "" {
		exams, err := h.examService.ListByCourse(c.Request.Context(), courseID)
		if err != nil {
			response.FromError(c, err)
			return
		}
		response.Success(c, http.StatusOK, gin.H{"exams": exams})
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "10"))

	exams, total, err := h.examService.ListByInstructor(c.Request.Context(), claims.UserID, page, perPage)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"exams": exams}, &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: int(math.Ceil(float64(total) / float64(perPage))),
	})
}

// CreateExam godoc
// POST /api/v1/lecturer/exams
// Creates a new draft exam owned by the caller.
func (h *ExamHandler) CreateExam(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.CreateExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	exam, err := h.examService.Create(c.Request.Context(), claims.UserID, &req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"exam": exam})
}

// GetExam godoc
// GET /api/v1/lecturer/exams/:exam_id
func (h *ExamHandler) GetExam(c *gin.Context) {
	exam, ok := h.ownedExam(c)
	if !ok {
		return
	}
	response.Success(c, http.StatusOK, gin.H{"exam": exam})
}

// UpdateExam godoc
// PATCH /api/v1/lecturer/exams/:exam_id
// Patches exam metadata. Allowed while DRAFT, or PUBLISHED before the
// window opens.
func (h *ExamHandler) UpdateExam(c *gin.Context) {
	exam, ok := h.ownedExam(c)
	if !ok {
		return
	}

	var req model.UpdateExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	updated, err := h.examService.Update(c.Request.Context(), exam.ID, &req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"exam": updated})
}

// AddQuestion godoc
// POST /api/v1/lecturer/exams/:exam_id/questions
func (h *ExamHandler) AddQuestion(c *gin.Context) {
	exam, ok := h.ownedExam(c)
	if !ok {
		return
	}

	var req model.AddQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	updated, err := h.examService.AddQuestion(c.Request.Context(), exam.ID, &req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"exam": updated})
}

// RemoveQuestion godoc
// DELETE /api/v1/lecturer/exams/:exam_id/questions/:question_id
func (h *ExamHandler) RemoveQuestion(c *gin.Context) {
	exam, ok := h.ownedExam(c)
	if !ok {
		return
	}
	questionID, err := uuid.Parse(c.Param("question_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	updated, err := h.examService.RemoveQuestion(c.Request.Context(), exam.ID, questionID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"exam": updated})
}

// PublishExam godoc
// POST /api/v1/lecturer/exams/:exam_id/publish
// Publishes a draft: validates the whole definition, warms the paper
// cache, and opens the exam for students inside its window.
func (h *ExamHandler) PublishExam(c *gin.Context) {
	exam, ok := h.ownedExam(c)
	if !ok {
		return
	}

	published, err := h.examService.Publish(c.Request.Context(), exam.ID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"exam": published})
}

// CancelExam godoc
// POST /api/v1/lecturer/exams/:exam_id/cancel
func (h *ExamHandler) CancelExam(c *gin.Context) {
	exam, ok := h.ownedExam(c)
	if !ok {
		return
	}

	cancelled, err := h.examService.Cancel(c.Request.Context(), exam.ID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"exam": cancelled})
}

// DeleteExam godoc
// DELETE /api/v1/lecturer/exams/:exam_id
func (h *ExamHandler) DeleteExam(c *gin.Context) {
	exam, ok := h.ownedExam(c)
	if !ok {
		return
	}

	if err := h.examService.Delete(c.Request.Context(), exam.ID); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": exam.ID})
}

// ownedExam loads the exam from the :exam_id param and enforces that
// the caller owns it. Admins may act on any exam.
func (h *ExamHandler) ownedExam(c *gin.Context) (*model.Exam, bool) {
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
