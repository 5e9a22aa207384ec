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

// AttemptHandler handles the student attempt lifecycle endpoints.
type AttemptHandler struct {
	attemptService *service.AttemptService
	examService    *service.ExamService
}

// NewAttemptHandler creates a new AttemptHandler.
func NewAttemptHandler(attemptService *service.AttemptService, examService *service.ExamService) *AttemptHandler {
	return &AttemptHandler{
		attemptService: attemptService,
		examService:    examService,
	}
}

// GetPaper godoc
// GET /api/v1/student/exams/:exam_id/paper
// Returns the student-facing exam paper, without answer keys. Access is
// gated the same way as attempt start, so the questions cannot be
// pulled before the window opens.
func (h *AttemptHandler) GetPaper(c *gin.Context) {
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

	paper, err := h.attemptService.GetPaper(c.Request.Context(), examID, claims.UserID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"paper": paper})
}

// StartAttempt godoc
// POST /api/v1/student/exams/:exam_id/attempts
func (h *AttemptHandler) StartAttempt(c *gin.Context) {
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

	resp, err := h.attemptService.StartAttempt(c.Request.Context(), examID, claims.UserID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"response": resp})
}

// SaveAnswer godoc
// PUT /api/v1/student/responses/:response_id/answers
// Upserts one answer; saving the same question again overwrites.
func (h *AttemptHandler) SaveAnswer(c *gin.Context) {
	resp, ok := h.ownedResponse(c)
	if !ok {
		return
	}

	var req model.SaveAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	questionID, err := uuid.Parse(req.QuestionID)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	updated, err := h.attemptService.SaveAnswer(c.Request.Context(), resp.ID, questionID, req.Answer)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"response": updated})
}

// SubmitAttempt godoc
// POST /api/v1/student/responses/:response_id/submit
// Finalizes the attempt; auto-gradable questions are scored on the spot.
func (h *AttemptHandler) SubmitAttempt(c *gin.Context) {
	resp, ok := h.ownedResponse(c)
	if !ok {
		return
	}

	submitted, err := h.attemptService.Submit(c.Request.Context(), resp.ID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"response": h.resultView(c, submitted)})
}

// GetAttemptState godoc
// GET /api/v1/student/responses/:response_id/state
// Live view of an attempt: saved answers plus remaining seconds.
func (h *AttemptHandler) GetAttemptState(c *gin.Context) {
	resp, ok := h.ownedResponse(c)
	if !ok {
		return
	}

	state, err := h.attemptService.GetState(c.Request.Context(), resp.ID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"state": state})
}

// GetResult godoc
// GET /api/v1/student/responses/:response_id
func (h *AttemptHandler) GetResult(c *gin.Context) {
	resp, ok := h.ownedResponse(c)
	if !ok {
		return
	}
	response.Success(c, http.StatusOK, gin.H{"response": h.resultView(c, resp)})
}

// ListAttempts godoc
// GET /api/v1/student/exams/:exam_id/attempts
func (h *AttemptHandler) ListAttempts(c *gin.Context) {
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

	attempts, err := h.attemptService.ListAttempts(c.Request.Context(), examID, claims.UserID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	views := make([]*model.ExamResponse, len(attempts))
	for i := range attempts {
		views[i] = h.resultView(c, &attempts[i])
	}
	response.Success(c, http.StatusOK, gin.H{"attempts": views})
}

// ownedResponse loads the response from the :response_id param and
// enforces that it belongs to the calling student.
func (h *AttemptHandler) ownedResponse(c *gin.Context) (*model.ExamResponse, bool) {
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

	resp, err := h.attemptService.GetResponse(c.Request.Context(), responseID)
	if err != nil {
		response.FromError(c, err)
		return nil, false
	}
	if resp.StudentID != claims.UserID {
		// Do not reveal that the response exists.
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return nil, false
	}
	return resp, true
}

// resultView strips scoring fields when the exam hides results from
// students. Review flags are instructor-internal and never shown.
func (h *AttemptHandler) resultView(c *gin.Context, resp *model.ExamResponse) *model.ExamResponse {
	view := *resp
	view.FlaggedForReview = false
	view.FlagReason = ""
	view.FlagPriority = ""

	exam, err := h.examService.GetByID(c.Request.Context(), resp.ExamID)
	if err == nil && !exam.Settings.ShowResults {
		view.TotalScore = 0
		view.Percentage = 0
		view.Passed = false
		view.QuestionScores = nil
		view.InstructorFeedback = ""
	}
	return &view
}
