package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/quizgate/quizgate/internal/model"
	"github.com/quizgate/quizgate/internal/upstream"
)

// ErrBadScheduleWindow is returned for a malformed quiz schedule.
var ErrBadScheduleWindow = errors.New("schedule window is malformed")

// DashboardAPI is the slice of the upstream client the dashboards consume.
type DashboardAPI interface {
	ListTrainerQuizzes(ctx context.Context, token, trainerID string) ([]model.QuizSummary, error)
	ListOpenQuizzes(ctx context.Context, token string) ([]model.QuizSummary, error)
	CreateQuiz(ctx context.Context, token string, form upstream.CreateQuizForm, filename string, file io.Reader) (*upstream.CreateQuizResult, error)
	StartQuiz(ctx context.Context, token string, quizID int) error
	EndQuiz(ctx context.Context, token string, quizID int) error
}

// DashboardService lists quizzes for either role and performs the trainer's
// state-changing actions. It holds no state of its own: listings are thin
// reads over the upstream API with the role-appropriate action derived per
// quiz at render time.
type DashboardService struct {
	api DashboardAPI
	log zerolog.Logger
	now func() time.Time
}

// NewDashboardService creates a new DashboardService.
func NewDashboardService(api DashboardAPI, log zerolog.Logger) *DashboardService {
	return &DashboardService{
		api: api,
		log: log.With().Str("component", "dashboard_service").Logger(),
		now: time.Now,
	}
}

// ListForTrainer returns the trainer's quizzes with derived actions.
func (s *DashboardService) ListForTrainer(ctx context.Context, token, trainerID string) ([]model.DashboardQuiz, error) {
	quizzes, err := s.api.ListTrainerQuizzes(ctx, token, trainerID)
	if err != nil {
		return nil, fmt.Errorf("list trainer quizzes: %w", err)
	}
	return s.annotate(quizzes, model.RoleTrainer), nil
}

// ListForParticipant returns the quizzes open to participants with derived
// actions.
func (s *DashboardService) ListForParticipant(ctx context.Context, token string) ([]model.DashboardQuiz, error) {
	quizzes, err := s.api.ListOpenQuizzes(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("list open quizzes: %w", err)
	}
	return s.annotate(quizzes, model.RoleParticipant), nil
}

// Create validates the schedule window and forwards the new quiz upstream,
// streaming the question source file through. Returns the created quiz as
// an optimistic summary (scheduled, not yet listed upstream).
func (s *DashboardService) Create(ctx context.Context, token, trainerID string, req model.CreateQuizRequest, filename string, file io.Reader) (*model.QuizSummary, error) {
	now := s.now()
	if req.StartTime.Before(now) || !req.EndTime.After(req.StartTime) {
		return nil, ErrBadScheduleWindow
	}

	result, err := s.api.CreateQuiz(ctx, token, upstream.CreateQuizForm{
		Title:           req.Title,
		StartTime:       req.StartTime.UTC().Format(time.RFC3339),
		EndTime:         req.EndTime.UTC().Format(time.RFC3339),
		NumQuestions:    req.NumQuestions,
		DurationMinutes: req.DurationMinutes,
		TrainerID:       trainerID,
	}, filename, file)
	if err != nil {
		return nil, fmt.Errorf("create quiz: %w", err)
	}

	s.log.Info().
		Int("quiz_id", result.QuizID).
		Str("trainer_id", trainerID).
		Str("title", req.Title).
		Msg("Quiz created")

	return &model.QuizSummary{
		ID:              result.QuizID,
		Title:           req.Title,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		NumQuestions:    req.NumQuestions,
		DurationMinutes: req.DurationMinutes,
		Status:          model.QuizStatusScheduled,
		TrainerID:       trainerID,
	}, nil
}

// Start transitions a quiz to started. The returned status is the
// optimistic local view; the upstream remains the source of truth on the
// next listing.
func (s *DashboardService) Start(ctx context.Context, token string, quizID int) (model.QuizStatus, error) {
	if err := s.api.StartQuiz(ctx, token, quizID); err != nil {
		return "", fmt.Errorf("start quiz: %w", err)
	}
	return model.QuizStatusStarted, nil
}

// End transitions a quiz to completed.
func (s *DashboardService) End(ctx context.Context, token string, quizID int) (model.QuizStatus, error) {
	if err := s.api.EndQuiz(ctx, token, quizID); err != nil {
		return "", fmt.Errorf("end quiz: %w", err)
	}
	return model.QuizStatusCompleted, nil
}

func (s *DashboardService) annotate(quizzes []model.QuizSummary, role model.Role) []model.DashboardQuiz {
	now := s.now()
	annotated := make([]model.DashboardQuiz, 0, len(quizzes))
	for _, q := range quizzes {
		annotated = append(annotated, model.DashboardQuiz{
			QuizSummary:     q,
			AvailableAction: model.ActionFor(q, role, now),
		})
	}
	return annotated
}
