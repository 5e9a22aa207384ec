package service

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/edugrid/gradecore-backend/internal/apperr"
	"github.com/edugrid/gradecore-backend/internal/grading"
	"github.com/edugrid/gradecore-backend/internal/model"
)

// AttemptService manages one student's attempt lifecycle: start, answer
// saving, submission, and the overdue-attempt sweep.
type AttemptService struct {
	exams     ExamStore
	responses ResponseStore
	cache     ExamCache
	events    EventPublisher
	log       zerolog.Logger
	now       func() time.Time
}

// NewAttemptService creates a new AttemptService.
func NewAttemptService(exams ExamStore, responses ResponseStore, cache ExamCache, events EventPublisher, log zerolog.Logger) *AttemptService {
	return &AttemptService{
		exams:     exams,
		responses: responses,
		cache:     cache,
		events:    events,
		log:       log.With().Str("component", "attempt_service").Logger(),
		now:       time.Now,
	}
}

// StartAttempt opens a new IN_PROGRESS response for (exam, student).
// The exam must be published, visible, and inside its window; the
// student must have attempts remaining. MaxScore is snapshotted from the
// exam's current TotalPoints so later definition edits cannot move the
// denominator of a live attempt.
func (s *AttemptService) StartAttempt(ctx context.Context, examID uuid.UUID, studentID string) (*model.ExamResponse, error) {
	exam, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if exam.Status != model.ExamStatusPublished || !exam.Settings.VisibleToStudents {
		return nil, apperr.OutOfWindow("exam %s is not open for attempts", examID)
	}
	if !exam.InWindow(now) {
		return nil, apperr.OutOfWindow("exam %s window is %s to %s", examID,
			exam.StartTime.Format(time.RFC3339), exam.EndTime.Format(time.RFC3339))
	}

	prior, err := s.responses.CountByExamAndStudent(ctx, examID, studentID)
	if err != nil {
		return nil, err
	}
	if prior >= exam.Settings.MaxAttempts {
		return nil, apperr.AttemptLimit(examID, exam.Settings.MaxAttempts)
	}

	resp := &model.ExamResponse{
		ID:             uuid.New(),
		ExamID:         examID,
		StudentID:      studentID,
		CourseID:       exam.CourseID,
		Answers:        map[string]string{},
		QuestionScores: map[string]int{},
		StartedAt:      now,
		Status:         model.ResponseStatusInProgress,
		MaxScore:       exam.TotalPoints,
		AttemptNumber:  prior + 1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.responses.Create(ctx, resp); err != nil {
		return nil, err
	}

	s.publish(ctx, model.ExamEvent{
		Type:          model.EventAttemptStarted,
		ExamID:        examID,
		ResponseID:    resp.ID,
		StudentID:     studentID,
		AttemptNumber: resp.AttemptNumber,
		At:            now,
	})

	s.log.Info().
		Str("exam_id", examID.String()).
		Str("student_id", studentID).
		Int("attempt", resp.AttemptNumber).
		Msg("Attempt started")
	return resp, nil
}

// SaveAnswer upserts one answer into an in-progress response. Overwrites
// are idempotent; no history is kept.
func (s *AttemptService) SaveAnswer(ctx context.Context, responseID, questionID uuid.UUID, answer string) (*model.ExamResponse, error) {
	resp, err := s.responses.GetByID(ctx, responseID)
	if err != nil {
		return nil, err
	}
	if resp.Status != model.ResponseStatusInProgress {
		return nil, apperr.InvalidState("response %s is %s, answers can only change while IN_PROGRESS", responseID, resp.Status)
	}

	exam, err := s.exams.GetByID(ctx, resp.ExamID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if !now.Before(exam.EndTime) {
		return nil, apperr.OutOfWindow("exam %s closed at %s", exam.ID, exam.EndTime.Format(time.RFC3339))
	}
	if exam.Question(questionID) == nil {
		return nil, apperr.NotFound("question", questionID)
	}

	if resp.Answers == nil {
		resp.Answers = map[string]string{}
	}
	resp.Answers[questionID.String()] = answer
	resp.UpdatedAt = now

	if err := s.responses.Update(ctx, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// Submit finalizes an attempt. The IN_PROGRESS to SUBMITTED transition is
// an atomic compare-and-swap in the store: exactly one concurrent caller
// wins, the rest receive AlreadySubmitted without re-triggering grading.
// Auto-gradable questions are scored immediately.
func (s *AttemptService) Submit(ctx context.Context, responseID uuid.UUID) (*model.ExamResponse, error) {
	now := s.now()
	resp, err := s.responses.MarkSubmitted(ctx, responseID, now)
	if err != nil {
		return nil, err
	}

	exam, err := s.exams.GetByID(ctx, resp.ExamID)
	if err != nil {
		return nil, err
	}

	resp.TimeSpentSec = int(now.Sub(resp.StartedAt) / time.Second)
	resp.LateSubmission = now.After(exam.EndTime)

	grading.AutoGrade(resp, exam)
	if resp.Graded {
		resp.Status = model.ResponseStatusGraded
	}
	resp.UpdatedAt = now

	if err := s.responses.Update(ctx, resp); err != nil {
		return nil, err
	}

	s.publish(ctx, model.ExamEvent{
		Type:          model.EventResponseSubmitted,
		ExamID:        resp.ExamID,
		ResponseID:    resp.ID,
		StudentID:     resp.StudentID,
		AttemptNumber: resp.AttemptNumber,
		Late:          resp.LateSubmission,
		At:            now,
	})
	if resp.Status == model.ResponseStatusGraded {
		s.publish(ctx, model.ExamEvent{
			Type:          model.EventResponseGraded,
			ExamID:        resp.ExamID,
			ResponseID:    resp.ID,
			StudentID:     resp.StudentID,
			AttemptNumber: resp.AttemptNumber,
			At:            now,
		})
	}

	s.log.Info().
		Str("response_id", resp.ID.String()).
		Int("score", resp.TotalScore).
		Bool("late", resp.LateSubmission).
		Bool("graded", resp.Graded).
		Msg("Response submitted")
	return resp, nil
}

// GetResponse retrieves one response by id.
func (s *AttemptService) GetResponse(ctx context.Context, responseID uuid.UUID) (*model.ExamResponse, error) {
	return s.responses.GetByID(ctx, responseID)
}

// ListAttempts returns a student's attempts at one exam.
func (s *AttemptService) ListAttempts(ctx context.Context, examID uuid.UUID, studentID string) ([]model.ExamResponse, error) {
	return s.responses.ListByExamAndStudent(ctx, examID, studentID)
}

// GetState returns the live view of an attempt: saved answers and the
// remaining time against both the exam window and the attempt duration.
func (s *AttemptService) GetState(ctx context.Context, responseID uuid.UUID) (*model.AttemptState, error) {
	resp, err := s.responses.GetByID(ctx, responseID)
	if err != nil {
		return nil, err
	}
	exam, err := s.exams.GetByID(ctx, resp.ExamID)
	if err != nil {
		return nil, err
	}

	deadline := resp.StartedAt.Add(time.Duration(exam.DurationMin) * time.Minute)
	if exam.EndTime.Before(deadline) {
		deadline = exam.EndTime
	}
	remaining := deadline.Sub(s.now()).Seconds()
	if remaining < 0 {
		remaining = 0
	}

	return &model.AttemptState{
		ResponseID:   resp.ID,
		ExamID:       resp.ExamID,
		Status:       resp.Status,
		Answers:      resp.Answers,
		RemainingSec: remaining,
	}, nil
}

// GetPaper returns the student-facing exam payload for one student,
// preferring the warm cache and falling back to the store. Access
// mirrors StartAttempt: published, visible, window open. A student who
// already holds an IN_PROGRESS attempt keeps access regardless, so an
// instructor hiding the exam mid-sitting cannot blank a live screen.
// Shuffle settings are applied per call, so every fetch sees its own
// ordering.
func (s *AttemptService) GetPaper(ctx context.Context, examID uuid.UUID, studentID string) (*model.ExamPaper, error) {
	exam, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		return nil, err
	}
	if exam.Status != model.ExamStatusPublished {
		return nil, apperr.InvalidState("exam %s is not published", examID)
	}
	if !exam.Settings.VisibleToStudents || !exam.InWindow(s.now()) {
		open, err := s.hasOpenAttempt(ctx, examID, studentID)
		if err != nil {
			return nil, err
		}
		if !open {
			return nil, apperr.OutOfWindow("exam %s is not open", examID)
		}
	}

	if paper, err := s.cache.GetPaper(ctx, examID); err == nil {
		shufflePaper(paper)
		return paper, nil
	}

	questions := make([]model.QuestionForStudent, len(exam.Questions))
	for i := range exam.Questions {
		questions[i] = exam.Questions[i].ForStudent()
	}
	paper := &model.ExamPaper{
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
	shufflePaper(paper)
	return paper, nil
}

// hasOpenAttempt reports whether the student holds an IN_PROGRESS
// attempt on the exam.
func (s *AttemptService) hasOpenAttempt(ctx context.Context, examID uuid.UUID, studentID string) (bool, error) {
	attempts, err := s.responses.ListByExamAndStudent(ctx, examID, studentID)
	if err != nil {
		return false, err
	}
	for i := range attempts {
		if attempts[i].Status == model.ResponseStatusInProgress {
			return true, nil
		}
	}
	return false, nil
}

// shufflePaper reorders the paper in place per its shuffle flags. Option
// slices may alias the exam aggregate, so they are copied before
// reordering. Choice answers are matched by option value during grading,
// so a reordered paper grades the same.
func shufflePaper(p *model.ExamPaper) {
	if p.ShuffleQuestions {
		rand.Shuffle(len(p.Questions), func(i, j int) {
			p.Questions[i], p.Questions[j] = p.Questions[j], p.Questions[i]
		})
	}
	if !p.ShuffleOptions {
		return
	}
	for i := range p.Questions {
		q := &p.Questions[i]
		if q.Type != model.QuestionTypeMultipleChoice || len(q.Options) < 2 {
			continue
		}
		opts := append([]string(nil), q.Options...)
		rand.Shuffle(len(opts), func(a, b int) {
			opts[a], opts[b] = opts[b], opts[a]
		})
		q.Options = opts
	}
}

// SweepOverdue finds IN_PROGRESS responses whose exam window has closed
// and either force-submits them (autoSubmit exams, answers as saved) or
// marks them ABANDONED. The sweep is stateless and idempotent: a
// response already out of IN_PROGRESS is skipped by the store CAS, so
// concurrent schedulers are safe.
func (s *AttemptService) SweepOverdue(ctx context.Context) (int, error) {
	now := s.now()
	overdue, err := s.responses.ListOverdueInProgress(ctx, now)
	if err != nil {
		return 0, err
	}
	if len(overdue) == 0 {
		return 0, nil
	}

	examAutoSubmit := make(map[uuid.UUID]bool)
	acted := 0
	for i := range overdue {
		resp := &overdue[i]

		auto, known := examAutoSubmit[resp.ExamID]
		if !known {
			exam, err := s.exams.GetByID(ctx, resp.ExamID)
			if err != nil {
				s.log.Warn().Err(err).Str("exam_id", resp.ExamID.String()).Msg("Sweep: exam lookup failed")
				continue
			}
			auto = exam.Settings.AutoSubmit
			examAutoSubmit[resp.ExamID] = auto
		}

		if auto {
			if _, err := s.Submit(ctx, resp.ID); err != nil {
				if apperr.IsKind(err, apperr.KindAlreadySubmitted) {
					continue // lost the race to the student or another sweeper
				}
				s.log.Error().Err(err).Str("response_id", resp.ID.String()).Msg("Sweep: force submit failed")
				continue
			}
		} else {
			if err := s.abandon(ctx, resp.ID, now); err != nil {
				if apperr.IsKind(err, apperr.KindInvalidState) {
					continue
				}
				s.log.Error().Err(err).Str("response_id", resp.ID.String()).Msg("Sweep: abandon failed")
				continue
			}
		}
		acted++
	}

	if acted > 0 {
		s.log.Info().Int("count", acted).Msg("Sweep settled overdue responses")
	}
	return acted, nil
}

func (s *AttemptService) abandon(ctx context.Context, responseID uuid.UUID, now time.Time) error {
	if err := s.responses.MarkAbandoned(ctx, responseID); err != nil {
		return err
	}
	resp, err := s.responses.GetByID(ctx, responseID)
	if err != nil {
		return err
	}
	s.publish(ctx, model.ExamEvent{
		Type:          model.EventResponseAbandoned,
		ExamID:        resp.ExamID,
		ResponseID:    resp.ID,
		StudentID:     resp.StudentID,
		AttemptNumber: resp.AttemptNumber,
		At:            now,
	})
	return nil
}

func (s *AttemptService) publish(ctx context.Context, event model.ExamEvent) {
	if err := s.events.PublishExamEvent(ctx, event); err != nil {
		s.log.Debug().Err(err).Str("type", string(event.Type)).Msg("Monitor event publish failed")
	}
}
