package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/quizgate/quizgate/internal/config"
)

// CleanupWorker consumes attempt_cleanup_queue and deletes the Redis state
// left behind by a finished or abandoned attempt: the answer mirror and the
// participant's quiz context. Clearing the context keeps a stale selection
// from leaking into the next attempt.
type CleanupWorker struct {
	rdb *redis.Client
	log zerolog.Logger
}

// NewCleanupWorker creates a new CleanupWorker.
func NewCleanupWorker(rdb *redis.Client, log zerolog.Logger) *CleanupWorker {
	return &CleanupWorker{
		rdb: rdb,
		log: log.With().Str("component", "cleanup_worker").Logger(),
	}
}

type cleanupPayload struct {
	ParticipantID string `json:"participant_id"`
	QuizID        int    `json:"quiz_id"`
	AttemptID     string `json:"attempt_id"`
}

// Start begins the infinite worker loop. Call in a goroutine.
func (w *CleanupWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopping...")
			// Drain remaining items before exit.
			w.drain(context.Background())
			w.log.Info().Msg("Worker stopped")
			return
		default:
			w.processNext(ctx)
		}
	}
}

func (w *CleanupWorker) processNext(ctx context.Context) {
	// BLPop blocks until an item is available or timeout (1 second).
	result, err := w.rdb.BLPop(ctx, time.Second, config.WorkerKey.AttemptCleanupQueue).Result()
	if err != nil {
		if err != redis.Nil && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("BLPop error")
		}
		return
	}

	if len(result) < 2 {
		return
	}

	var payload cleanupPayload
	if err := json.Unmarshal([]byte(result[1]), &payload); err != nil {
		w.log.Error().Err(err).Msg("Unmarshal error")
		return
	}

	if err := w.cleanup(ctx, &payload); err != nil {
		w.log.Error().Err(err).
			Str("participant_id", payload.ParticipantID).
			Int("quiz_id", payload.QuizID).
			Msg("Cleanup error, retrying in 5s")
		// Push back to queue for retry.
		w.rdb.RPush(ctx, config.WorkerKey.AttemptCleanupQueue, result[1])
		time.Sleep(5 * time.Second)
	}
}

func (w *CleanupWorker) cleanup(ctx context.Context, p *cleanupPayload) error {
	keys := []string{
		config.CacheKey.AttemptAnswersKey(p.ParticipantID, p.QuizID),
		config.CacheKey.QuizContextKey(p.ParticipantID),
	}
	if err := w.rdb.Del(ctx, keys...).Err(); err != nil {
		return err
	}

	w.log.Debug().
		Str("participant_id", p.ParticipantID).
		Int("quiz_id", p.QuizID).
		Str("attempt_id", p.AttemptID).
		Msg("Attempt state cleaned up")
	return nil
}

// drain processes all remaining items in the queue before shutdown.
func (w *CleanupWorker) drain(ctx context.Context) {
	drained := 0
	for {
		result, err := w.rdb.LPop(ctx, config.WorkerKey.AttemptCleanupQueue).Result()
		if err != nil {
			break
		}

		var payload cleanupPayload
		if err := json.Unmarshal([]byte(result), &payload); err != nil {
			w.log.Error().Err(err).Msg("Drain unmarshal error")
			continue
		}

		if err := w.cleanup(ctx, &payload); err != nil {
			w.log.Error().Err(err).Msg("Drain cleanup error")
			w.rdb.RPush(ctx, config.WorkerKey.AttemptCleanupQueue, result)
			break
		}
		drained++
	}

	if drained > 0 {
		w.log.Info().Int("count", drained).Msg("Drained remaining items")
	}
}
