package service

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/edugrid/gradecore-backend/internal/apperr"
	"github.com/edugrid/gradecore-backend/internal/grading"
	"github.com/edugrid/gradecore-backend/internal/model"
)

// GradingService handles instructor-side scoring: manual grades for
// questions the auto-grader cannot score, batch operations, review
// flags, and the grading breakdown view.
type GradingService struct {
	exams     ExamStore
	responses ResponseStore
	events    EventPublisher
	log       zerolog.Logger
	now       func() time.Time
}

// NewGradingService creates a new GradingService.
func NewGradingService(exams ExamStore, responses ResponseStore, events EventPublisher, log zerolog.Logger) *GradingService {
	return &GradingService{
		exams:     exams,
		responses: responses,
		events:    events,
		log:       log.With().Str("component", "grading_service").Logger(),
		now:       time.Now,
	}
}

// ManualGrade writes an instructor score for one question and recomputes
// the response totals. Scores merge into the per-question map, so two
// instructors grading different questions of the same response do not
// conflict. Once every question is scored the response becomes GRADED.
func (s *GradingService) ManualGrade(ctx context.Context, responseID, questionID uuid.UUID, score int, feedback, gradedBy string) (*model.ExamResponse, error) {
	resp, err := s.responses.GetByID(ctx, responseID)
	if err != nil {
		return nil, err
	}
	if resp.Status != model.ResponseStatusSubmitted {
		return nil, apperr.InvalidState("response %s is %s, scores can only be entered while SUBMITTED", responseID, resp.Status)
	}

	exam, err := s.exams.GetByID(ctx, resp.ExamID)
	if err != nil {
		return nil, err
	}
	q := exam.Question(questionID)
	if q == nil {
		return nil, apperr.NotFound("question", questionID)
	}
	if score < 0 || score > q.Points {
		return nil, apperr.InvalidScore(score, q.Points)
	}

	now := s.now()
	if resp.QuestionScores == nil {
		resp.QuestionScores = map[string]int{}
	}
	resp.QuestionScores[questionID.String()] = score
	if feedback != "" {
		resp.InstructorFeedback = feedback
	}
	resp.GradedBy = gradedBy
	resp.GradedAt = &now

	grading.Recompute(resp, exam)
	if resp.Graded {
		resp.Status = model.ResponseStatusGraded
	}
	resp.UpdatedAt = now

	if err := s.responses.Update(ctx, resp); err != nil {
		return nil, err
	}

	if resp.Status == model.ResponseStatusGraded {
		if err := s.events.PublishExamEvent(ctx, model.ExamEvent{
			Type:          model.EventResponseGraded,
			ExamID:        resp.ExamID,
			ResponseID:    resp.ID,
			StudentID:     resp.StudentID,
			AttemptNumber: resp.AttemptNumber,
			At:            now,
		}); err != nil {
			s.log.Debug().Err(err).Msg("Monitor event publish failed")
		}
	}

	s.log.Info().
		Str("response_id", responseID.String()).
		Str("question_id", questionID.String()).
		Int("score", score).
		Str("graded_by", gradedBy).
		Msg("Manual grade recorded")
	return resp, nil
}

// GetResponseByID retrieves one response for the instructor view.
func (s *GradingService) GetResponseByID(ctx context.Context, responseID uuid.UUID) (*model.ExamResponse, error) {
	return s.responses.GetByID(ctx, responseID)
}

// BatchGrade applies one uniform operation to each listed response
// independently. Per-id failures are collected and reported; successes
// are never rolled back.
func (s *GradingService) BatchGrade(ctx context.Context, req *model.BatchGradeRequest, gradedBy string) *model.BatchGradeResult {
	result := &model.BatchGradeResult{
		Succeeded: []uuid.UUID{},
		Failed:    map[string]string{},
	}

	for _, raw := range req.ResponseIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			result.Failed[raw] = "invalid response id"
			continue
		}
		if err := s.applyBatchOp(ctx, id, &req.Op, gradedBy); err != nil {
			result.Failed[raw] = err.Error()
			continue
		}
		result.Succeeded = append(result.Succeeded, id)
	}
	return result
}

func (s *GradingService) applyBatchOp(ctx context.Context, responseID uuid.UUID, op *model.BatchGradeOp, gradedBy string) error {
	switch op.Kind {
	case "score":
		qid, err := uuid.Parse(op.QuestionID)
		if err != nil {
			return apperr.NotFound("question", op.QuestionID)
		}
		_, err = s.ManualGrade(ctx, responseID, qid, op.Score, op.Feedback, gradedBy)
		return err
	case "feedback":
		_, err := s.AmendFeedback(ctx, responseID, op.Feedback)
		return err
	case "flag":
		_, err := s.FlagForReview(ctx, responseID, op.FlagReason, op.Priority)
		return err
	default:
		return apperr.Validation("unknown batch operation " + op.Kind)
	}
}

// FlagForReview marks a response for instructor attention. The flag is
// an independent side channel and never touches scoring state, so it is
// permitted in any status.
func (s *GradingService) FlagForReview(ctx context.Context, responseID uuid.UUID, reason, priority string) (*model.ExamResponse, error) {
	resp, err := s.responses.GetByID(ctx, responseID)
	if err != nil {
		return nil, err
	}

	resp.FlaggedForReview = true
	resp.FlagReason = reason
	if priority == "" {
		priority = "normal"
	}
	resp.FlagPriority = priority
	resp.UpdatedAt = s.now()

	if err := s.responses.Update(ctx, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// AmendFeedback updates the response-level instructor feedback. Allowed
// on SUBMITTED and on terminal GRADED responses; grades themselves stay
// frozen after GRADED.
func (s *GradingService) AmendFeedback(ctx context.Context, responseID uuid.UUID, feedback string) (*model.ExamResponse, error) {
	resp, err := s.responses.GetByID(ctx, responseID)
	if err != nil {
		return nil, err
	}
	if resp.Status != model.ResponseStatusSubmitted && resp.Status != model.ResponseStatusGraded {
		return nil, apperr.InvalidState("response %s is %s, feedback applies to submitted work", responseID, resp.Status)
	}

	resp.InstructorFeedback = feedback
	resp.UpdatedAt = s.now()
	if err := s.responses.Update(ctx, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// GetExamForGrading assembles the instructor view: per-question grading
// progress across all submitted responses, plus the responses still
// waiting on manual scores and exactly which questions they wait on.
func (s *GradingService) GetExamForGrading(ctx context.Context, examID uuid.UUID) (*model.GradingView, error) {
	exam, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		return nil, err
	}
	responses, err := s.responses.ListByExam(ctx, examID)
	if err != nil {
		return nil, err
	}

	progress := make([]model.QuestionGradingState, len(exam.Questions))
	for i := range exam.Questions {
		q := &exam.Questions[i]
		progress[i] = model.QuestionGradingState{
			QuestionID:   q.ID,
			Type:         q.Type,
			Points:       q.Points,
			AutoGradable: q.CanAutoGrade(),
		}
	}

	view := &model.GradingView{
		Exam:             exam,
		QuestionProgress: progress,
		PendingResponses: []model.PendingResponse{},
	}

	for i := range responses {
		resp := &responses[i]
		if resp.Status != model.ResponseStatusSubmitted && resp.Status != model.ResponseStatusGraded {
			continue
		}
		view.SubmittedCount++
		if resp.Status == model.ResponseStatusGraded {
			view.GradedCount++
		}

		var pending []uuid.UUID
		for j := range exam.Questions {
			q := &exam.Questions[j]
			if _, scored := resp.QuestionScores[q.ID.String()]; scored {
				view.QuestionProgress[j].GradedCount++
			} else {
				view.QuestionProgress[j].PendingCount++
				pending = append(pending, q.ID)
			}
		}
		if len(pending) > 0 {
			view.PendingResponses = append(view.PendingResponses, model.PendingResponse{
				ResponseID:       resp.ID,
				StudentID:        resp.StudentID,
				AttemptNumber:    resp.AttemptNumber,
				FlaggedForReview: resp.FlaggedForReview,
				PendingQuestions: pending,
			})
		}
	}

	sort.Slice(view.PendingResponses, func(i, j int) bool {
		a, b := view.PendingResponses[i], view.PendingResponses[j]
		if a.StudentID != b.StudentID {
			return a.StudentID < b.StudentID
		}
		return a.AttemptNumber < b.AttemptNumber
	})
	return view, nil
}
