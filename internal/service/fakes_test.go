package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/edugrid/gradecore-backend/internal/apperr"
	"github.com/edugrid/gradecore-backend/internal/model"
)

// memExamStore is an in-memory ExamStore for tests.
type memExamStore struct {
	mu    sync.Mutex
	exams map[uuid.UUID]*model.Exam
}

func newMemExamStore() *memExamStore {
	return &memExamStore{exams: make(map[uuid.UUID]*model.Exam)}
}

func cloneExam(e *model.Exam) *model.Exam {
	c := *e
	c.Questions = append([]model.ExamQuestion(nil), e.Questions...)
	return &c
}

func (m *memExamStore) Create(_ context.Context, exam *model.Exam) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exams[exam.ID] = cloneExam(exam)
	return nil
}

func (m *memExamStore) GetByID(_ context.Context, id uuid.UUID) (*model.Exam, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.exams[id]
	if !ok {
		return nil, apperr.NotFound("exam", id)
	}
	return cloneExam(e), nil
}

func (m *memExamStore) Update(_ context.Context, exam *model.Exam) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.exams[exam.ID]; !ok {
		return apperr.NotFound("exam", exam.ID)
	}
	m.exams[exam.ID] = cloneExam(exam)
	return nil
}

func (m *memExamStore) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.exams[id]; !ok {
		return apperr.NotFound("exam", id)
	}
	delete(m.exams, id)
	return nil
}

func (m *memExamStore) ListByInstructor(_ context.Context, instructorID string, limit, offset int) ([]model.Exam, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Exam
	for _, e := range m.exams {
		if e.InstructorID == instructorID {
			out = append(out, *cloneExam(e))
		}
	}
	total := len(out)
	if offset > len(out) {
		offset = len(out)
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, total, nil
}

func (m *memExamStore) ListByCourse(_ context.Context, courseID string) ([]model.Exam, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Exam
	for _, e := range m.exams {
		if e.CourseID == courseID {
			out = append(out, *cloneExam(e))
		}
	}
	return out, nil
}

func (m *memExamStore) ListPublished(_ context.Context) ([]model.Exam, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Exam
	for _, e := range m.exams {
		if e.Status == model.ExamStatusPublished {
			out = append(out, *cloneExam(e))
		}
	}
	return out, nil
}

// memResponseStore is an in-memory ResponseStore whose MarkSubmitted and
// MarkAbandoned are true compare-and-swap transitions under a mutex.
type memResponseStore struct {
	mu        sync.Mutex
	responses map[uuid.UUID]*model.ExamResponse
}

func newMemResponseStore() *memResponseStore {
	return &memResponseStore{responses: make(map[uuid.UUID]*model.ExamResponse)}
}

func cloneResponse(r *model.ExamResponse) *model.ExamResponse {
	c := *r
	c.Answers = make(map[string]string, len(r.Answers))
	for k, v := range r.Answers {
		c.Answers[k] = v
	}
	c.QuestionScores = make(map[string]int, len(r.QuestionScores))
	for k, v := range r.QuestionScores {
		c.QuestionScores[k] = v
	}
	return &c
}

func (m *memResponseStore) Create(_ context.Context, resp *model.ExamResponse) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[resp.ID] = cloneResponse(resp)
	return nil
}

func (m *memResponseStore) GetByID(_ context.Context, id uuid.UUID) (*model.ExamResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.responses[id]
	if !ok {
		return nil, apperr.NotFound("response", id)
	}
	return cloneResponse(r), nil
}

func (m *memResponseStore) Update(_ context.Context, resp *model.ExamResponse) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.responses[resp.ID]; !ok {
		return apperr.NotFound("response", resp.ID)
	}
	m.responses[resp.ID] = cloneResponse(resp)
	return nil
}

func (m *memResponseStore) CountByExamAndStudent(_ context.Context, examID uuid.UUID, studentID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, r := range m.responses {
		if r.ExamID == examID && r.StudentID == studentID {
			count++
		}
	}
	return count, nil
}

func (m *memResponseStore) ListByExam(_ context.Context, examID uuid.UUID) ([]model.ExamResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.ExamResponse
	for _, r := range m.responses {
		if r.ExamID == examID {
			out = append(out, *cloneResponse(r))
		}
	}
	return out, nil
}

func (m *memResponseStore) ListByExamAndStudent(_ context.Context, examID uuid.UUID, studentID string) ([]model.ExamResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.ExamResponse
	for _, r := range m.responses {
		if r.ExamID == examID && r.StudentID == studentID {
			out = append(out, *cloneResponse(r))
		}
	}
	return out, nil
}

func (m *memResponseStore) MarkSubmitted(_ context.Context, id uuid.UUID, submittedAt time.Time) (*model.ExamResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.responses[id]
	if !ok {
		return nil, apperr.NotFound("response", id)
	}
	if r.Status != model.ResponseStatusInProgress {
		return nil, apperr.AlreadySubmitted(id)
	}
	r.Status = model.ResponseStatusSubmitted
	at := submittedAt
	r.SubmittedAt = &at
	return cloneResponse(r), nil
}

func (m *memResponseStore) MarkAbandoned(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.responses[id]
	if !ok {
		return apperr.NotFound("response", id)
	}
	if r.Status != model.ResponseStatusInProgress {
		return apperr.InvalidState("response %s is %s", id, r.Status)
	}
	r.Status = model.ResponseStatusAbandoned
	return nil
}

func (m *memResponseStore) ListOverdueInProgress(_ context.Context, now time.Time) ([]model.ExamResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.ExamResponse
	for _, r := range m.responses {
		if r.Status == model.ResponseStatusInProgress {
			out = append(out, *cloneResponse(r))
		}
	}
	return out, nil
}

// nopCache implements ExamCache without storage; GetPaper always misses.
type nopCache struct{}

func (nopCache) WarmExam(context.Context, *model.Exam) error { return nil }
func (nopCache) GetPaper(context.Context, uuid.UUID) (*model.ExamPaper, error) {
	return nil, apperr.NotFound("exam paper", "cache")
}
func (nopCache) Invalidate(context.Context, uuid.UUID) error { return nil }

// recordingPublisher captures published monitor events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []model.ExamEvent
}

func (p *recordingPublisher) PublishExamEvent(_ context.Context, event model.ExamEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) byType(t model.ExamEventType) []model.ExamEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []model.ExamEvent
	for _, e := range p.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// testEnv wires the services against in-memory stores with a controlled
// clock.
type testEnv struct {
	exams     *memExamStore
	responses *memResponseStore
	publisher *recordingPublisher
	clock     time.Time

	examSvc    *ExamService
	attemptSvc *AttemptService
	gradingSvc *GradingService
	statsSvc   *StatsService
}

func newTestEnv() *testEnv {
	env := &testEnv{
		exams:     newMemExamStore(),
		responses: newMemResponseStore(),
		publisher: &recordingPublisher{},
		clock:     time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC),
	}
	log := zerolog.Nop()
	env.examSvc = NewExamService(env.exams, nopCache{}, log)
	env.attemptSvc = NewAttemptService(env.exams, env.responses, nopCache{}, env.publisher, log)
	env.gradingSvc = NewGradingService(env.exams, env.responses, env.publisher, log)
	env.statsSvc = NewStatsService(env.exams, env.responses, log)

	now := func() time.Time { return env.clock }
	env.examSvc.now = now
	env.attemptSvc.now = now
	env.gradingSvc.now = now
	return env
}

func (env *testEnv) advance(d time.Duration) { env.clock = env.clock.Add(d) }

func intPtr(v int) *int { return &v }

func mcReq(points int, correct string, options ...string) model.AddQuestionRequest {
	return model.AddQuestionRequest{
		Type:          string(model.QuestionTypeMultipleChoice),
		Text:          "pick one",
		Options:       options,
		CorrectAnswer: correct,
		Points:        points,
	}
}

func essayReq(points int) model.AddQuestionRequest {
	return model.AddQuestionRequest{
		Type:   string(model.QuestionTypeEssay),
		Text:   "explain at length",
		Points: points,
	}
}

// openExam creates and publishes an exam whose window contains the test
// clock.
func (env *testEnv) openExam(t interface {
	Helper()
	Fatalf(string, ...any)
}, passPct float64, questions ...model.AddQuestionRequest) *model.Exam {
	t.Helper()
	exam, err := env.examSvc.Create(context.Background(), "lect-1", &model.CreateExamRequest{
		CourseID:       "course-1",
		Title:          "Unit Test Exam",
		DurationMin:    60,
		StartTime:      env.clock.Add(-time.Hour),
		EndTime:        env.clock.Add(time.Hour),
		PassPercentage: passPct,
		Questions:      questions,
	})
	if err != nil {
		t.Fatalf("create exam: %v", err)
	}
	exam, err = env.examSvc.Publish(context.Background(), exam.ID)
	if err != nil {
		t.Fatalf("publish exam: %v", err)
	}
	return exam
}
