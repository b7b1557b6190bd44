package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/quizgate/quizgate/internal/config"
	"github.com/quizgate/quizgate/internal/model"
	"github.com/quizgate/quizgate/internal/upstream"
)

// fakeQuizAPI counts upstream calls and records the last submission.
type fakeQuizAPI struct {
	mu          sync.Mutex
	questions   []model.Question
	fetchCalls  int
	fetchErr    error
	submitCalls int
	submitErr   error
	score       int
	lastPayload model.SubmissionPayload
}

func (f *fakeQuizAPI) FetchQuestions(ctx context.Context, token string, quizID int) ([]model.Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchCalls++
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.questions, nil
}

func (f *fakeQuizAPI) SubmitAttempt(ctx context.Context, token string, payload interface{}) (*upstream.SubmitResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitCalls++
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	if p, ok := payload.(model.SubmissionPayload); ok {
		f.lastPayload = p
	}
	return &upstream.SubmitResult{Score: f.score}, nil
}

func (f *fakeQuizAPI) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetchCalls, f.submitCalls
}

func newAttemptTestService(t *testing.T, api *fakeQuizAPI) (*AttemptService, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	svc := NewAttemptService(api, client, zerolog.Nop())
	// Hold the ticker still; tests drive the countdown directly.
	svc.tick = time.Hour
	return svc, mr
}

func testQuestions() []model.Question {
	return []model.Question{
		{ID: 1, QuestionText: "Q1", QuestionType: "multiple_choice", Options: []string{"A", "B", "C", "D"}},
		{ID: 2, QuestionText: "Q2", QuestionType: "multiple_choice", Options: []string{"A", "B", "C", "D"}},
		{ID: 3, QuestionText: "Q3", QuestionType: "true_false", Options: []string{"True", "False"}},
		{ID: 4, QuestionText: "Q4", QuestionType: "multiple_choice", Options: []string{"A", "B", "C", "D"}},
		{ID: 5, QuestionText: "Q5", QuestionType: "multiple_choice", Options: []string{"A", "B", "C", "D"}},
	}
}

func testQuiz(start, end time.Time) model.QuizSummary {
	return model.QuizSummary{
		ID:              42,
		Title:           "Go Fundamentals",
		StartTime:       start,
		EndTime:         end,
		NumQuestions:    5,
		DurationMinutes: 10,
		Status:          model.QuizStatusStarted,
		TrainerID:       "trainer-1",
	}
}

func TestBeginActiveAttempt(t *testing.T) {
	api := &fakeQuizAPI{questions: testQuestions(), score: 4}
	svc, _ := newAttemptTestService(t, api)

	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	quiz := testQuiz(now.Add(-time.Minute), now.Add(time.Hour))
	view, err := svc.Begin(context.Background(), "p1", "tok", quiz)
	if err != nil {
		t.Fatalf("begin failed: %v", err)
	}

	if view.State != model.AttemptStateActive {
		t.Fatalf("expected active state, got %s", view.State)
	}
	if view.RemainingSeconds != 600 {
		t.Fatalf("expected 600 seconds remaining, got %d", view.RemainingSeconds)
	}
	if len(view.Questions) != 5 {
		t.Fatalf("expected 5 questions, got %d", len(view.Questions))
	}
	if fetches, _ := api.counts(); fetches != 1 {
		t.Fatalf("expected 1 question fetch, got %d", fetches)
	}
}

func TestBeginAfterWindowCloseSkipsFetch(t *testing.T) {
	api := &fakeQuizAPI{questions: testQuestions()}
	svc, _ := newAttemptTestService(t, api)

	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	// Window ended an hour ago.
	quiz := testQuiz(now.Add(-2*time.Hour), now.Add(-time.Hour))
	view, err := svc.Begin(context.Background(), "p1", "tok", quiz)
	if err != nil {
		t.Fatalf("begin failed: %v", err)
	}

	if view.State != model.AttemptStateExpired {
		t.Fatalf("expected expired state, got %s", view.State)
	}
	if len(view.Questions) != 0 {
		t.Fatalf("expired attempt must not expose questions, got %d", len(view.Questions))
	}
	if fetches, _ := api.counts(); fetches != 0 {
		t.Fatalf("expired begin must not fetch questions, got %d fetches", fetches)
	}
}

func TestBeginAtExactEndTimeIsExpired(t *testing.T) {
	api := &fakeQuizAPI{questions: testQuestions()}
	svc, _ := newAttemptTestService(t, api)

	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	// End time equals now; the window is half-open.
	quiz := testQuiz(now.Add(-time.Hour), now)
	view, err := svc.Begin(context.Background(), "p1", "tok", quiz)
	if err != nil {
		t.Fatalf("begin failed: %v", err)
	}
	if view.State != model.AttemptStateExpired {
		t.Fatalf("expected expired state at exact end time, got %s", view.State)
	}
}

func TestBeginFetchFailureRegistersNothing(t *testing.T) {
	api := &fakeQuizAPI{fetchErr: errors.New("boom")}
	svc, _ := newAttemptTestService(t, api)

	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	quiz := testQuiz(now.Add(-time.Minute), now.Add(time.Hour))
	if _, err := svc.Begin(context.Background(), "p1", "tok", quiz); err == nil {
		t.Fatal("expected begin to fail on fetch error")
	}

	// A retry with a healthy upstream starts fresh.
	api.mu.Lock()
	api.fetchErr = nil
	api.questions = testQuestions()
	api.mu.Unlock()

	view, err := svc.Begin(context.Background(), "p1", "tok", quiz)
	if err != nil {
		t.Fatalf("retry begin failed: %v", err)
	}
	if view.State != model.AttemptStateActive {
		t.Fatalf("expected active state, got %s", view.State)
	}
}

func TestCountdownTickDecrements(t *testing.T) {
	api := &fakeQuizAPI{questions: testQuestions(), score: 3}
	svc, _ := newAttemptTestService(t, api)

	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	quiz := testQuiz(now.Add(-time.Minute), now.Add(time.Hour))
	view, err := svc.Begin(context.Background(), "p1", "tok", quiz)
	if err != nil {
		t.Fatalf("begin failed: %v", err)
	}

	att, err := svc.owned(view.ID, "p1")
	if err != nil {
		t.Fatalf("owned failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		if done := svc.countdownTick(att); done {
			t.Fatalf("countdown finished early at tick %d", i)
		}
	}

	after, err := svc.View(view.ID, "p1")
	if err != nil {
		t.Fatalf("view failed: %v", err)
	}
	if after.RemainingSeconds != 597 {
		t.Fatalf("expected 597 seconds after 3 ticks, got %d", after.RemainingSeconds)
	}
}

func TestCountdownReachingZeroAutoSubmits(t *testing.T) {
	api := &fakeQuizAPI{questions: testQuestions(), score: 2}
	svc, _ := newAttemptTestService(t, api)

	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	quiz := testQuiz(now.Add(-time.Minute), now.Add(time.Hour))
	quiz.DurationMinutes = 1 // 60 seconds of countdown
	view, err := svc.Begin(context.Background(), "p1", "tok", quiz)
	if err != nil {
		t.Fatalf("begin failed: %v", err)
	}

	if err := svc.SetAnswer(context.Background(), view.ID, "p1", 1, "A"); err != nil {
		t.Fatalf("set answer failed: %v", err)
	}

	att, _ := svc.owned(view.ID, "p1")
	done := false
	for i := 0; i < 60; i++ {
		if done = svc.countdownTick(att); done {
			break
		}
	}
	if !done {
		t.Fatal("countdown never finished")
	}

	after, err := svc.View(view.ID, "p1")
	if err != nil {
		t.Fatalf("view failed: %v", err)
	}
	if after.State != model.AttemptStateScored {
		t.Fatalf("expected scored state after timeout, got %s", after.State)
	}
	if after.Result == nil || after.Result.Score != 2 {
		t.Fatalf("unexpected result: %+v", after.Result)
	}
	if _, submits := api.counts(); submits != 1 {
		t.Fatalf("expected exactly 1 scoring write, got %d", submits)
	}
}

func TestDoubleSubmitScoresOnce(t *testing.T) {
	api := &fakeQuizAPI{questions: testQuestions(), score: 5}
	svc, _ := newAttemptTestService(t, api)

	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	quiz := testQuiz(now.Add(-time.Minute), now.Add(time.Hour))
	view, err := svc.Begin(context.Background(), "p1", "tok", quiz)
	if err != nil {
		t.Fatalf("begin failed: %v", err)
	}

	first, err := svc.Submit(context.Background(), view.ID, "p1")
	if err != nil {
		t.Fatalf("first submit failed: %v", err)
	}
	second, err := svc.Submit(context.Background(), view.ID, "p1")
	if err != nil {
		t.Fatalf("repeat submit failed: %v", err)
	}

	if first.Score != 5 || second.Score != 5 {
		t.Fatalf("scores diverged: %d vs %d", first.Score, second.Score)
	}
	if _, submits := api.counts(); submits != 1 {
		t.Fatalf("expected exactly 1 scoring write, got %d", submits)
	}
}

func TestSubmitFailurePreservesAnswers(t *testing.T) {
	api := &fakeQuizAPI{questions: testQuestions(), submitErr: errors.New("scoring down")}
	svc, _ := newAttemptTestService(t, api)

	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	quiz := testQuiz(now.Add(-time.Minute), now.Add(time.Hour))
	view, err := svc.Begin(context.Background(), "p1", "tok", quiz)
	if err != nil {
		t.Fatalf("begin failed: %v", err)
	}

	if err := svc.SetAnswer(context.Background(), view.ID, "p1", 1, "A"); err != nil {
		t.Fatalf("set answer failed: %v", err)
	}
	if err := svc.SetAnswer(context.Background(), view.ID, "p1", 2, "B"); err != nil {
		t.Fatalf("set answer failed: %v", err)
	}

	if _, err := svc.Submit(context.Background(), view.ID, "p1"); err == nil {
		t.Fatal("expected submit to fail")
	}

	after, err := svc.View(view.ID, "p1")
	if err != nil {
		t.Fatalf("view failed: %v", err)
	}
	if after.State != model.AttemptStateActive {
		t.Fatalf("expected active state after failed submit, got %s", after.State)
	}
	if after.Answers[1] != "A" || after.Answers[2] != "B" {
		t.Fatalf("answers lost after failed submit: %v", after.Answers)
	}

	// Upstream recovers; the retry succeeds with the same answers.
	api.mu.Lock()
	api.submitErr = nil
	api.score = 2
	api.mu.Unlock()

	result, err := svc.Submit(context.Background(), view.ID, "p1")
	if err != nil {
		t.Fatalf("retry submit failed: %v", err)
	}
	if result.Score != 2 || result.Total != 5 {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestSubmissionPayloadShape(t *testing.T) {
	api := &fakeQuizAPI{questions: testQuestions(), score: 2}
	svc, _ := newAttemptTestService(t, api)

	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	current := start
	svc.now = func() time.Time { return current }

	quiz := testQuiz(start.Add(-time.Minute), start.Add(time.Hour))
	view, err := svc.Begin(context.Background(), "p1", "tok", quiz)
	if err != nil {
		t.Fatalf("begin failed: %v", err)
	}

	// Answer out of id order; the payload must come back sorted.
	if err := svc.SetAnswer(context.Background(), view.ID, "p1", 2, "B"); err != nil {
		t.Fatalf("set answer failed: %v", err)
	}
	if err := svc.SetAnswer(context.Background(), view.ID, "p1", 1, "A"); err != nil {
		t.Fatalf("set answer failed: %v", err)
	}

	// Ten minutes elapse before the submit.
	current = start.Add(10 * time.Minute)

	if _, err := svc.Submit(context.Background(), view.ID, "p1"); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	api.mu.Lock()
	payload := api.lastPayload
	api.mu.Unlock()

	if payload.QuizID != 42 || payload.ParticipantID != "p1" || payload.TrainerID != "trainer-1" {
		t.Fatalf("identity fields wrong: %+v", payload)
	}
	if payload.NumOfQuestions != 5 {
		t.Fatalf("expected 5 questions in payload, got %d", payload.NumOfQuestions)
	}
	if payload.TimeTakenSeconds != 600 {
		t.Fatalf("expected 600 seconds taken, got %d", payload.TimeTakenSeconds)
	}
	if payload.AttemptedAt != "2026-03-01T10:00:00Z" {
		t.Fatalf("unexpected attempted_at: %s", payload.AttemptedAt)
	}
	want := []model.AnswerPair{{QuestionID: 1, Selected: "A"}, {QuestionID: 2, Selected: "B"}}
	if len(payload.OptionsQnA) != len(want) {
		t.Fatalf("expected %d answer pairs, got %d", len(want), len(payload.OptionsQnA))
	}
	for i, pair := range payload.OptionsQnA {
		if pair != want[i] {
			t.Fatalf("pair %d = %+v, want %+v", i, pair, want[i])
		}
	}
}

func TestSetAnswerValidation(t *testing.T) {
	api := &fakeQuizAPI{questions: testQuestions(), score: 1}
	svc, mr := newAttemptTestService(t, api)

	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	quiz := testQuiz(now.Add(-time.Minute), now.Add(time.Hour))
	view, err := svc.Begin(context.Background(), "p1", "tok", quiz)
	if err != nil {
		t.Fatalf("begin failed: %v", err)
	}

	if err := svc.SetAnswer(context.Background(), view.ID, "p1", 99, "A"); !errors.Is(err, ErrUnknownQuestion) {
		t.Fatalf("expected ErrUnknownQuestion, got %v", err)
	}

	// Last write wins.
	if err := svc.SetAnswer(context.Background(), view.ID, "p1", 1, "A"); err != nil {
		t.Fatalf("set answer failed: %v", err)
	}
	if err := svc.SetAnswer(context.Background(), view.ID, "p1", 1, "C"); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}
	after, _ := svc.View(view.ID, "p1")
	if after.Answers[1] != "C" {
		t.Fatalf("expected last write to win, got %s", after.Answers[1])
	}

	// The answer mirror landed in Redis.
	if !mr.Exists(config.CacheKey.AttemptAnswersKey("p1", 42)) {
		t.Fatal("expected answer mirror key in redis")
	}

	// No writes once scored.
	if _, err := svc.Submit(context.Background(), view.ID, "p1"); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if err := svc.SetAnswer(context.Background(), view.ID, "p1", 1, "D"); !errors.Is(err, ErrAttemptFinished) {
		t.Fatalf("expected ErrAttemptFinished, got %v", err)
	}
}

func TestViewRejectsForeignParticipant(t *testing.T) {
	api := &fakeQuizAPI{questions: testQuestions()}
	svc, _ := newAttemptTestService(t, api)

	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	quiz := testQuiz(now.Add(-time.Minute), now.Add(time.Hour))
	view, err := svc.Begin(context.Background(), "p1", "tok", quiz)
	if err != nil {
		t.Fatalf("begin failed: %v", err)
	}

	if _, err := svc.View(view.ID, "p2"); !errors.Is(err, ErrAttemptNotFound) {
		t.Fatalf("expected ErrAttemptNotFound for foreign participant, got %v", err)
	}
}

func TestTerminalAttemptQueuesCleanup(t *testing.T) {
	api := &fakeQuizAPI{questions: testQuestions(), score: 1}
	svc, mr := newAttemptTestService(t, api)

	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	quiz := testQuiz(now.Add(-time.Minute), now.Add(time.Hour))
	view, err := svc.Begin(context.Background(), "p1", "tok", quiz)
	if err != nil {
		t.Fatalf("begin failed: %v", err)
	}
	if _, err := svc.Submit(context.Background(), view.ID, "p1"); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	if !mr.Exists(config.WorkerKey.AttemptCleanupQueue) {
		t.Fatal("expected cleanup queue entry after scoring")
	}
}
