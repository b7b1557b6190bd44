package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/quizgate/quizgate/internal/config"
	"github.com/quizgate/quizgate/internal/model"
)

// ErrNoQuizSelected is returned when a participant has no quiz in context.
var ErrNoQuizSelected = errors.New("no quiz selected")

// QuizContextService holds each participant's currently selected quiz.
// Selecting a quiz overwrites the previous selection; terminal attempt
// states clear it explicitly so a stale selection cannot leak into the
// next attempt.
type QuizContextService struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewQuizContextService creates a new QuizContextService. ttl bounds how
// long an untouched selection survives.
func NewQuizContextService(rdb *redis.Client, ttl time.Duration) *QuizContextService {
	return &QuizContextService{rdb: rdb, ttl: ttl}
}

// Select stores the quiz a participant picked on the dashboard.
func (s *QuizContextService) Select(ctx context.Context, participantID string, quiz model.QuizSummary) error {
	raw, err := json.Marshal(quiz)
	if err != nil {
		return fmt.Errorf("encode quiz context: %w", err)
	}
	key := config.CacheKey.QuizContextKey(participantID)
	if err := s.rdb.Set(ctx, key, raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("store quiz context: %w", err)
	}
	return nil
}

// Get returns the participant's selected quiz.
func (s *QuizContextService) Get(ctx context.Context, participantID string) (*model.QuizSummary, error) {
	raw, err := s.rdb.Get(ctx, config.CacheKey.QuizContextKey(participantID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNoQuizSelected
		}
		return nil, fmt.Errorf("get quiz context: %w", err)
	}

	var quiz model.QuizSummary
	if err := json.Unmarshal([]byte(raw), &quiz); err != nil {
		return nil, fmt.Errorf("decode quiz context: %w", err)
	}
	return &quiz, nil
}

// Clear removes the participant's selection.
func (s *QuizContextService) Clear(ctx context.Context, participantID string) error {
	return s.rdb.Del(ctx, config.CacheKey.QuizContextKey(participantID)).Err()
}
