package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/quizgate/quizgate/internal/config"
	"github.com/quizgate/quizgate/internal/model"
	"github.com/quizgate/quizgate/internal/upstream"
)

// Attempt lifecycle errors.
var (
	ErrAttemptNotFound    = errors.New("attempt not found")
	ErrAttemptFinished    = errors.New("attempt already finished")
	ErrAttemptNotActive   = errors.New("attempt is not active")
	ErrSubmissionInFlight = errors.New("submission already in progress")
	ErrUnknownQuestion    = errors.New("question does not belong to this attempt")
)

// QuizAPI is the slice of the upstream client the attempt service consumes.
type QuizAPI interface {
	FetchQuestions(ctx context.Context, token string, quizID int) ([]model.Question, error)
	SubmitAttempt(ctx context.Context, token string, payload interface{}) (*upstream.SubmitResult, error)
}

// attempt is one participant's pass through one quiz. All fields below mu
// are guarded by it; the submitting flag and the state field together
// guarantee at most one scoring write ever leaves this process.
type attempt struct {
	id            uuid.UUID
	quiz          model.QuizSummary
	participantID string
	upstreamToken string

	mu          sync.Mutex
	state       model.AttemptState
	submitting  bool
	questions   []model.Question
	questionIDs map[int]struct{}
	answers     map[int]string
	remaining   int
	startedAt   time.Time
	attemptedAt time.Time
	result      *model.AttemptResult
	cancel      context.CancelFunc
}

// cleanupPayload is pushed to the cleanup queue when an attempt reaches a
// terminal state or is abandoned.
type cleanupPayload struct {
	ParticipantID string `json:"participant_id"`
	QuizID        int    `json:"quiz_id"`
	AttemptID     string `json:"attempt_id"`
}

// AttemptService drives quiz attempts from question load through scored
// submission: window check before any fetch, a one-second countdown while
// active, and exactly-once submission through a single code path shared by
// manual and timeout submits.
type AttemptService struct {
	api  QuizAPI
	rdb  *redis.Client
	log  zerolog.Logger
	now  func() time.Time
	tick time.Duration

	mu       sync.RWMutex
	attempts map[uuid.UUID]*attempt
	active   map[string]uuid.UUID // participant → current attempt
}

// NewAttemptService creates a new AttemptService.
func NewAttemptService(api QuizAPI, rdb *redis.Client, log zerolog.Logger) *AttemptService {
	return &AttemptService{
		api:      api,
		rdb:      rdb,
		log:      log.With().Str("component", "attempt_service").Logger(),
		now:      time.Now,
		tick:     time.Second,
		attempts: make(map[uuid.UUID]*attempt),
		active:   make(map[string]uuid.UUID),
	}
}

// Begin starts an attempt at the participant's selected quiz.
//
// The window check runs before any upstream call: a quiz whose end time has
// passed yields a terminal expired attempt without ever fetching questions.
// Otherwise the question list is fetched; on success the countdown starts
// with duration_minutes×60 seconds remaining. A fetch failure registers
// nothing — the participant may simply try again.
//
// Beginning replaces any previous attempt by the same participant; the old
// attempt's countdown is cancelled so no stale timer keeps driving state.
func (s *AttemptService) Begin(ctx context.Context, participantID, upstreamToken string, quiz model.QuizSummary) (*model.AttemptView, error) {
	now := s.now()

	if !now.Before(quiz.EndTime) {
		att := &attempt{
			id:            uuid.New(),
			quiz:          quiz,
			participantID: participantID,
			state:         model.AttemptStateExpired,
			startedAt:     now,
			answers:       map[int]string{},
		}
		s.register(att)
		s.queueCleanup(context.Background(), att)
		return att.view(), nil
	}

	questions, err := s.api.FetchQuestions(ctx, upstreamToken, quiz.ID)
	if err != nil {
		return nil, fmt.Errorf("fetch questions: %w", err)
	}

	questionIDs := make(map[int]struct{}, len(questions))
	for _, q := range questions {
		questionIDs[q.ID] = struct{}{}
	}

	att := &attempt{
		id:            uuid.New(),
		quiz:          quiz,
		participantID: participantID,
		upstreamToken: upstreamToken,
		state:         model.AttemptStateActive,
		questions:     questions,
		questionIDs:   questionIDs,
		answers:       map[int]string{},
		remaining:     quiz.DurationMinutes * 60,
		startedAt:     now,
		attemptedAt:   now,
	}

	tickCtx, cancel := context.WithCancel(context.Background())
	att.cancel = cancel
	s.register(att)
	go s.runCountdown(tickCtx, att)

	s.log.Info().
		Str("participant_id", participantID).
		Int("quiz_id", quiz.ID).
		Int("questions", len(questions)).
		Int("remaining", att.remaining).
		Msg("Attempt started")

	return att.view(), nil
}

// View returns the attempt as seen by its owner. A mismatched participant
// gets not-found rather than forbidden so attempt IDs cannot be probed.
func (s *AttemptService) View(attemptID uuid.UUID, participantID string) (*model.AttemptView, error) {
	att, err := s.owned(attemptID, participantID)
	if err != nil {
		return nil, err
	}
	return att.view(), nil
}

// SetAnswer records or overwrites the selected option for one question.
// Last write wins per question id. Rejected once submission has begun or a
// score is present — the answer set is immutable from that point.
func (s *AttemptService) SetAnswer(ctx context.Context, attemptID uuid.UUID, participantID string, questionID int, selected string) error {
	att, err := s.owned(attemptID, participantID)
	if err != nil {
		return err
	}

	att.mu.Lock()
	if att.state == model.AttemptStateScored || att.state == model.AttemptStateExpired {
		att.mu.Unlock()
		return ErrAttemptFinished
	}
	if att.state != model.AttemptStateActive || att.submitting {
		att.mu.Unlock()
		return ErrSubmissionInFlight
	}
	if _, ok := att.questionIDs[questionID]; !ok {
		att.mu.Unlock()
		return ErrUnknownQuestion
	}
	att.answers[questionID] = selected
	quizID := att.quiz.ID
	att.mu.Unlock()

	// Best-effort mirror so a reloaded client can resume its answers.
	key := config.CacheKey.AttemptAnswersKey(participantID, quizID)
	if err := s.rdb.HSet(ctx, key, fmt.Sprintf("%d", questionID), selected).Err(); err != nil {
		s.log.Warn().Err(err).Str("participant_id", participantID).Msg("Answer mirror write failed")
	}

	return nil
}

// Submit packages the answer set and posts it for scoring. Manual submits
// and the timeout auto-submit share this path; the submitting flag and the
// scored state make re-entrant calls no-ops, so at most one scoring write
// ever happens. On upstream failure the attempt returns to active with its
// answers intact and a later submit is permitted; the countdown is not
// restarted if it already ran out.
func (s *AttemptService) Submit(ctx context.Context, attemptID uuid.UUID, participantID string) (*model.AttemptResult, error) {
	att, err := s.owned(attemptID, participantID)
	if err != nil {
		return nil, err
	}

	att.mu.Lock()
	switch {
	case att.state == model.AttemptStateScored:
		// Idempotent: the stored result answers a repeated submit.
		result := *att.result
		att.mu.Unlock()
		return &result, nil
	case att.state == model.AttemptStateExpired:
		att.mu.Unlock()
		return nil, ErrAttemptFinished
	case att.submitting:
		att.mu.Unlock()
		return nil, ErrSubmissionInFlight
	}

	att.submitting = true
	att.state = model.AttemptStateSubmitting

	payload := model.SubmissionPayload{
		QuizID:           att.quiz.ID,
		ParticipantID:    att.participantID,
		TrainerID:        att.quiz.TrainerID,
		QuizTitle:        att.quiz.Title,
		NumOfQuestions:   att.quiz.NumQuestions,
		TimeTakenSeconds: int(s.now().Sub(att.startedAt) / time.Second),
		AttemptedAt:      att.attemptedAt.UTC().Format(time.RFC3339),
		OptionsQnA:       orderedPairs(att.answers),
	}
	token := att.upstreamToken
	total := len(att.questions)
	att.mu.Unlock()

	res, err := s.api.SubmitAttempt(ctx, token, payload)

	att.mu.Lock()
	att.submitting = false
	if err != nil {
		att.state = model.AttemptStateActive
		att.mu.Unlock()
		return nil, fmt.Errorf("submit attempt: %w", err)
	}

	att.result = &model.AttemptResult{Score: res.Score, Total: total}
	att.state = model.AttemptStateScored
	cancel := att.cancel
	result := *att.result
	att.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.queueCleanup(context.Background(), att)

	s.log.Info().
		Str("participant_id", att.participantID).
		Int("quiz_id", att.quiz.ID).
		Int("score", result.Score).
		Int("total", result.Total).
		Msg("Attempt scored")

	return &result, nil
}

// Abandon tears an attempt down: the countdown stops, the attempt is
// dropped, and its Redis leftovers are queued for cleanup. Called when the
// participant navigates away for good.
func (s *AttemptService) Abandon(attemptID uuid.UUID, participantID string) error {
	att, err := s.owned(attemptID, participantID)
	if err != nil {
		return err
	}

	att.mu.Lock()
	cancel := att.cancel
	att.cancel = nil
	att.mu.Unlock()
	if cancel != nil {
		cancel()
	}

	s.mu.Lock()
	delete(s.attempts, att.id)
	if s.active[participantID] == att.id {
		delete(s.active, participantID)
	}
	s.mu.Unlock()

	s.queueCleanup(context.Background(), att)
	return nil
}

// Shutdown cancels every running countdown. Used on process exit.
func (s *AttemptService) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, att := range s.attempts {
		att.mu.Lock()
		cancel := att.cancel
		att.cancel = nil
		att.mu.Unlock()
		if cancel != nil {
			cancel()
		}
	}
}

// ────────────────────────────────────────────────────────────────────────────
// Countdown
// ────────────────────────────────────────────────────────────────────────────

// runCountdown decrements the attempt's remaining time once per second
// until it hits zero, the attempt leaves the active state, or the context
// is cancelled. Reaching zero fires the auto-submit through the same path
// as a manual submit.
func (s *AttemptService) runCountdown(ctx context.Context, att *attempt) {
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.countdownTick(att) {
				return
			}
		}
	}
}

// countdownTick applies one second of countdown. Returns true when the
// countdown is finished and the ticker goroutine should exit.
func (s *AttemptService) countdownTick(att *attempt) bool {
	att.mu.Lock()
	if att.state != model.AttemptStateActive || att.submitting {
		// Submitting pauses the countdown; terminal states end it.
		done := att.state == model.AttemptStateScored || att.state == model.AttemptStateExpired
		att.mu.Unlock()
		return done
	}
	if att.remaining > 0 {
		att.remaining--
	}
	timedOut := att.remaining == 0
	att.mu.Unlock()

	if !timedOut {
		return false
	}

	// Auto-submit on timeout. The guards in Submit make a race with a
	// manual submit harmless: only one write reaches the scoring endpoint.
	if _, err := s.Submit(context.Background(), att.id, att.participantID); err != nil &&
		!errors.Is(err, ErrSubmissionInFlight) {
		s.log.Error().Err(err).
			Str("participant_id", att.participantID).
			Int("quiz_id", att.quiz.ID).
			Msg("Auto-submit failed; attempt stays open for a manual retry")
	}
	return true
}

// ────────────────────────────────────────────────────────────────────────────
// Internal helpers
// ────────────────────────────────────────────────────────────────────────────

// register installs the attempt, cancelling and replacing any previous
// attempt by the same participant.
func (s *AttemptService) register(att *attempt) {
	s.mu.Lock()
	prev, hadPrev := s.attempts[s.active[att.participantID]]
	s.attempts[att.id] = att
	s.active[att.participantID] = att.id
	if hadPrev {
		delete(s.attempts, prev.id)
	}
	s.mu.Unlock()

	if hadPrev {
		prev.mu.Lock()
		cancel := prev.cancel
		prev.cancel = nil
		prev.mu.Unlock()
		if cancel != nil {
			cancel()
		}
	}
}

// owned looks an attempt up and verifies ownership.
func (s *AttemptService) owned(attemptID uuid.UUID, participantID string) (*attempt, error) {
	s.mu.RLock()
	att, ok := s.attempts[attemptID]
	s.mu.RUnlock()
	if !ok || att.participantID != participantID {
		return nil, ErrAttemptNotFound
	}
	return att, nil
}

// queueCleanup pushes a terminal attempt's identifiers onto the cleanup
// queue; the worker deletes the answer mirror and the quiz context.
func (s *AttemptService) queueCleanup(ctx context.Context, att *attempt) {
	payload, _ := json.Marshal(cleanupPayload{
		ParticipantID: att.participantID,
		QuizID:        att.quiz.ID,
		AttemptID:     att.id.String(),
	})
	if err := s.rdb.RPush(ctx, config.WorkerKey.AttemptCleanupQueue, payload).Err(); err != nil {
		s.log.Warn().Err(err).Str("participant_id", att.participantID).Msg("Cleanup enqueue failed")
	}
}

// view renders the attempt for its owner.
func (a *attempt) view() *model.AttemptView {
	a.mu.Lock()
	defer a.mu.Unlock()

	answers := make(map[int]string, len(a.answers))
	for qid, sel := range a.answers {
		answers[qid] = sel
	}

	view := &model.AttemptView{
		ID:               a.id,
		QuizID:           a.quiz.ID,
		QuizTitle:        a.quiz.Title,
		State:            a.state,
		RemainingSeconds: a.remaining,
		Answers:          answers,
		StartedAt:        a.startedAt,
	}
	if a.state != model.AttemptStateExpired {
		view.Questions = a.questions
	}
	if a.result != nil {
		result := *a.result
		view.Result = &result
	}
	return view
}

// orderedPairs flattens the answer map into the submission sequence,
// ascending by question id.
func orderedPairs(answers map[int]string) []model.AnswerPair {
	ids := make([]int, 0, len(answers))
	for qid := range answers {
		ids = append(ids, qid)
	}
	sort.Ints(ids)

	pairs := make([]model.AnswerPair, 0, len(ids))
	for _, qid := range ids {
		pairs = append(pairs, model.AnswerPair{QuestionID: qid, Selected: answers[qid]})
	}
	return pairs
}
