package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/edugrid/gradecore-backend/internal/apperr"
	"github.com/edugrid/gradecore-backend/internal/model"
)

const (
	minDurationMin = 5
	maxDurationMin = 480
)

// ExamService owns the exam aggregate: creation, question mutation,
// publish validation, and lifecycle transitions.
type ExamService struct {
	exams ExamStore
	cache ExamCache
	log   zerolog.Logger
	now   func() time.Time
}

// NewExamService creates a new ExamService.
func NewExamService(exams ExamStore, cache ExamCache, log zerolog.Logger) *ExamService {
	return &ExamService{
		exams: exams,
		cache: cache,
		log:   log.With().Str("component", "exam_service").Logger(),
		now:   time.Now,
	}
}

// Create validates the request and stores a new DRAFT exam. TotalPoints
// is recomputed from any supplied questions, which may be empty.
func (s *ExamService) Create(ctx context.Context, instructorID string, req *model.CreateExamRequest) (*model.Exam, error) {
	var violations []string
	if req.Title == "" {
		violations = append(violations, "title is required")
	}
	if req.CourseID == "" {
		violations = append(violations, "course_id is required")
	}
	if req.DurationMin < minDurationMin || req.DurationMin > maxDurationMin {
		violations = append(violations, fmt.Sprintf("duration_minutes must be between %d and %d", minDurationMin, maxDurationMin))
	}
	if !req.StartTime.Before(req.EndTime) {
		violations = append(violations, "start_time must be before end_time")
	}
	if len(violations) > 0 {
		return nil, apperr.Validation(violations...)
	}

	settings := model.DefaultExamSettings()
	if req.Settings != nil {
		settings = *req.Settings
	}
	if settings.MaxAttempts < 1 {
		settings.MaxAttempts = 1
	}

	now := s.now()
	exam := &model.Exam{
		ID:             uuid.New(),
		CourseID:       req.CourseID,
		InstructorID:   instructorID,
		Title:          req.Title,
		Description:    req.Description,
		Instructions:   req.Instructions,
		DurationMin:    req.DurationMin,
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		Settings:       settings,
		PassPercentage: req.PassPercentage,
		Status:         model.ExamStatusDraft,
		Questions:      buildQuestions(req.Questions),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	exam.RecomputeTotalPoints()

	if err := s.exams.Create(ctx, exam); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("exam_id", exam.ID.String()).
		Str("course_id", exam.CourseID).
		Int("questions", len(exam.Questions)).
		Msg("Exam created")
	return exam, nil
}

// GetByID retrieves an exam by id.
func (s *ExamService) GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	return s.exams.GetByID(ctx, id)
}

// ListByInstructor retrieves an instructor's exams with pagination.
func (s *ExamService) ListByInstructor(ctx context.Context, instructorID string, page, perPage int) ([]model.Exam, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	if perPage > 100 {
		perPage = 100
	}
	return s.exams.ListByInstructor(ctx, instructorID, perPage, (page-1)*perPage)
}

// ListByCourse retrieves every exam attached to a course, any status.
func (s *ExamService) ListByCourse(ctx context.Context, courseID string) ([]model.Exam, error) {
	return s.exams.ListByCourse(ctx, courseID)
}

// AddQuestion appends a question to a draft exam and recomputes
// TotalPoints. The question list is frozen once the exam is published.
func (s *ExamService) AddQuestion(ctx context.Context, examID uuid.UUID, req *model.AddQuestionRequest) (*model.Exam, error) {
	exam, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		return nil, err
	}
	if exam.Status != model.ExamStatusDraft {
		return nil, apperr.InvalidState("exam %s is %s, questions can only change while DRAFT", examID, exam.Status)
	}

	q := buildQuestion(req)
	if q.DisplayOrder == 0 {
		q.DisplayOrder = len(exam.Questions) + 1
	}
	exam.Questions = append(exam.Questions, q)
	exam.RecomputeTotalPoints()
	exam.UpdatedAt = s.now()

	if err := s.exams.Update(ctx, exam); err != nil {
		return nil, err
	}
	return exam, nil
}

// RemoveQuestion deletes a question from a draft exam and recomputes
// TotalPoints.
func (s *ExamService) RemoveQuestion(ctx context.Context, examID, questionID uuid.UUID) (*model.Exam, error) {
	exam, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		return nil, err
	}
	if exam.Status != model.ExamStatusDraft {
		return nil, apperr.InvalidState("exam %s is %s, questions can only change while DRAFT", examID, exam.Status)
	}

	idx := -1
	for i := range exam.Questions {
		if exam.Questions[i].ID == questionID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, apperr.NotFound("question", questionID)
	}

	exam.Questions = append(exam.Questions[:idx], exam.Questions[idx+1:]...)
	exam.RecomputeTotalPoints()
	exam.UpdatedAt = s.now()

	if err := s.exams.Update(ctx, exam); err != nil {
		return nil, err
	}
	return exam, nil
}

// Publish transitions DRAFT to PUBLISHED after checking every publish
// constraint, reporting the full violation list rather than the first.
// On success the question list and TotalPoints are frozen and the
// student paper is warmed into the cache.
func (s *ExamService) Publish(ctx context.Context, examID uuid.UUID) (*model.Exam, error) {
	exam, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		return nil, err
	}
	if exam.Status != model.ExamStatusDraft {
		return nil, apperr.InvalidState("exam %s is %s, expected DRAFT", examID, exam.Status)
	}

	var violations []string
	if len(exam.Questions) == 0 {
		violations = append(violations, "exam has no questions")
	}
	gradable := false
	hasEssay := false
	for i := range exam.Questions {
		q := &exam.Questions[i]
		if q.Points <= 0 {
			violations = append(violations, fmt.Sprintf("question %s has no points", q.ID))
		}
		if q.CanAutoGrade() {
			gradable = true
		}
		if q.Type == model.QuestionTypeEssay {
			hasEssay = true
		}
	}
	if len(exam.Questions) > 0 && !gradable && !hasEssay {
		violations = append(violations, "exam needs at least one auto-gradable or essay question")
	}
	if len(violations) > 0 {
		return nil, apperr.Validation(violations...)
	}

	now := s.now()
	exam.Status = model.ExamStatusPublished
	exam.PublishTime = &now
	exam.UpdatedAt = now
	exam.RecomputeTotalPoints()

	if err := s.exams.Update(ctx, exam); err != nil {
		return nil, err
	}

	if err := s.cache.WarmExam(ctx, exam); err != nil {
		// Cache is a read optimization; publish already succeeded.
		s.log.Warn().Err(err).Str("exam_id", examID.String()).Msg("Paper cache warm failed")
	}

	s.log.Info().Str("exam_id", examID.String()).Int("total_points", exam.TotalPoints).Msg("Exam published")
	return exam, nil
}

// Update applies a partial patch. Permitted while DRAFT, or while
// PUBLISHED but before the window opens; a live exam is never edited
// mid-attempt.
func (s *ExamService) Update(ctx context.Context, examID uuid.UUID, patch *model.UpdateExamRequest) (*model.Exam, error) {
	exam, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	editable := exam.Status == model.ExamStatusDraft ||
		(exam.Status == model.ExamStatusPublished && now.Before(exam.StartTime))
	if !editable {
		return nil, apperr.InvalidState("exam %s is %s and cannot be edited", examID, exam.EffectiveStatus(now))
	}

	if patch.Title != nil {
		exam.Title = *patch.Title
	}
	if patch.Description != nil {
		exam.Description = *patch.Description
	}
	if patch.Instructions != nil {
		exam.Instructions = *patch.Instructions
	}
	if patch.DurationMin != nil {
		exam.DurationMin = *patch.DurationMin
	}
	if patch.StartTime != nil {
		exam.StartTime = *patch.StartTime
	}
	if patch.EndTime != nil {
		exam.EndTime = *patch.EndTime
	}
	if patch.PassPercentage != nil {
		exam.PassPercentage = *patch.PassPercentage
	}
	if patch.Settings != nil {
		exam.Settings = *patch.Settings
	}

	var violations []string
	if exam.DurationMin < minDurationMin || exam.DurationMin > maxDurationMin {
		violations = append(violations, fmt.Sprintf("duration_minutes must be between %d and %d", minDurationMin, maxDurationMin))
	}
	if !exam.StartTime.Before(exam.EndTime) {
		violations = append(violations, "start_time must be before end_time")
	}
	if len(violations) > 0 {
		return nil, apperr.Validation(violations...)
	}

	exam.RecomputeTotalPoints()
	exam.UpdatedAt = now

	if err := s.exams.Update(ctx, exam); err != nil {
		return nil, err
	}

	if exam.Status == model.ExamStatusPublished {
		if err := s.cache.WarmExam(ctx, exam); err != nil {
			s.log.Warn().Err(err).Str("exam_id", examID.String()).Msg("Paper cache refresh failed")
		}
	}
	return exam, nil
}

// Cancel moves an exam into the terminal CANCELLED state from any prior
// state.
func (s *ExamService) Cancel(ctx context.Context, examID uuid.UUID) (*model.Exam, error) {
	exam, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		return nil, err
	}
	if exam.Status == model.ExamStatusCancelled {
		return nil, apperr.InvalidState("exam %s is already cancelled", examID)
	}

	exam.Status = model.ExamStatusCancelled
	exam.UpdatedAt = s.now()
	if err := s.exams.Update(ctx, exam); err != nil {
		return nil, err
	}

	if err := s.cache.Invalidate(ctx, examID); err != nil {
		s.log.Warn().Err(err).Str("exam_id", examID.String()).Msg("Paper cache invalidate failed")
	}

	s.log.Info().Str("exam_id", examID.String()).Msg("Exam cancelled")
	return exam, nil
}

// Delete removes an exam definition. Ownership checks belong to the
// caller; responses are retained as audit records.
func (s *ExamService) Delete(ctx context.Context, examID uuid.UUID) error {
	if _, err := s.exams.GetByID(ctx, examID); err != nil {
		return err
	}
	if err := s.exams.Delete(ctx, examID); err != nil {
		return err
	}
	if err := s.cache.Invalidate(ctx, examID); err != nil {
		s.log.Warn().Err(err).Str("exam_id", examID.String()).Msg("Paper cache invalidate failed")
	}
	return nil
}

// PrewarmAllCaches loads every published exam paper into the cache.
// Called once at startup so live traffic never races a cold cache.
func (s *ExamService) PrewarmAllCaches(ctx context.Context) error {
	exams, err := s.exams.ListPublished(ctx)
	if err != nil {
		return err
	}
	warmed := 0
	for i := range exams {
		if err := s.cache.WarmExam(ctx, &exams[i]); err != nil {
			s.log.Warn().Err(err).Str("exam_id", exams[i].ID.String()).Msg("Paper cache prewarm failed")
			continue
		}
		warmed++
	}
	s.log.Info().Int("warmed", warmed).Int("published", len(exams)).Msg("Paper caches prewarmed")
	return nil
}

func buildQuestions(reqs []model.AddQuestionRequest) []model.ExamQuestion {
	questions := make([]model.ExamQuestion, 0, len(reqs))
	for i := range reqs {
		q := buildQuestion(&reqs[i])
		if q.DisplayOrder == 0 {
			q.DisplayOrder = len(questions) + 1
		}
		questions = append(questions, q)
	}
	return questions
}

func buildQuestion(req *model.AddQuestionRequest) model.ExamQuestion {
	return model.ExamQuestion{
		ID:                 uuid.New(),
		Type:               model.QuestionType(req.Type),
		Text:               req.Text,
		Options:            req.Options,
		CorrectAnswer:      req.CorrectAnswer,
		CorrectAnswerIndex: req.CorrectAnswerIndex,
		Points:             req.Points,
		Explanation:        req.Explanation,
		Required:           req.Required,
		CaseSensitive:      req.CaseSensitive,
		AcceptableAnswers:  req.AcceptableAnswers,
		DisplayOrder:       req.DisplayOrder,
	}
}
