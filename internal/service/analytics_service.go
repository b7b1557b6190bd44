package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/quizgate/quizgate/internal/config"
	"github.com/quizgate/quizgate/internal/model"
)

// AnalyticsAPI is the slice of the upstream client the results view consumes.
type AnalyticsAPI interface {
	FetchAnalysis(ctx context.Context, token string, quizID int) (*model.QuizAnalysis, error)
}

// AnalyticsService serves the trainer's results view. The aggregated
// statistics are computed upstream; a short-TTL Redis cache absorbs repeat
// views of the same results page.
type AnalyticsService struct {
	api AnalyticsAPI
	rdb *redis.Client
	ttl time.Duration
	log zerolog.Logger
}

// NewAnalyticsService creates a new AnalyticsService.
func NewAnalyticsService(api AnalyticsAPI, rdb *redis.Client, ttl time.Duration, log zerolog.Logger) *AnalyticsService {
	return &AnalyticsService{
		api: api,
		rdb: rdb,
		ttl: ttl,
		log: log.With().Str("component", "analytics_service").Logger(),
	}
}

// QuizAnalysis returns the aggregated statistics for a quiz, from cache
// when fresh.
func (s *AnalyticsService) QuizAnalysis(ctx context.Context, token string, quizID int) (*model.QuizAnalysis, error) {
	key := config.CacheKey.QuizAnalysisKey(quizID)

	cached, err := s.rdb.Get(ctx, key).Result()
	if err == nil {
		var analysis model.QuizAnalysis
		if err := json.Unmarshal([]byte(cached), &analysis); err == nil {
			return &analysis, nil
		}
		// Corrupt cache entry; fall through to a fresh fetch.
		_ = s.rdb.Del(ctx, key).Err()
	} else if !errors.Is(err, redis.Nil) {
		s.log.Warn().Err(err).Int("quiz_id", quizID).Msg("Analysis cache read failed")
	}

	analysis, err := s.api.FetchAnalysis(ctx, token, quizID)
	if err != nil {
		return nil, fmt.Errorf("fetch analysis: %w", err)
	}

	if raw, err := json.Marshal(analysis); err == nil {
		if err := s.rdb.Set(ctx, key, raw, s.ttl).Err(); err != nil {
			s.log.Warn().Err(err).Int("quiz_id", quizID).Msg("Analysis cache write failed")
		}
	}

	return analysis, nil
}
