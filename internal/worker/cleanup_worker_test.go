package worker

import (
	"context"
	"encoding/json"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/quizgate/quizgate/internal/config"
)

func newWorkerTest(t *testing.T) (*CleanupWorker, *miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewCleanupWorker(client, zerolog.Nop()), mr, client
}

func enqueue(t *testing.T, client *redis.Client, participantID string, quizID int) {
	t.Helper()
	raw, _ := json.Marshal(cleanupPayload{
		ParticipantID: participantID,
		QuizID:        quizID,
		AttemptID:     "a1",
	})
	if err := client.RPush(context.Background(), config.WorkerKey.AttemptCleanupQueue, raw).Err(); err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}
}

func TestProcessNextDeletesAttemptState(t *testing.T) {
	w, mr, client := newWorkerTest(t)
	ctx := context.Background()

	answersKey := config.CacheKey.AttemptAnswersKey("p1", 42)
	contextKey := config.CacheKey.QuizContextKey("p1")
	mr.HSet(answersKey, "1", "A")
	mr.Set(contextKey, `{"id":42}`)

	enqueue(t, client, "p1", 42)
	w.processNext(ctx)

	if mr.Exists(answersKey) {
		t.Fatal("expected answer mirror to be deleted")
	}
	if mr.Exists(contextKey) {
		t.Fatal("expected quiz context to be deleted")
	}
	if mr.Exists(config.WorkerKey.AttemptCleanupQueue) {
		t.Fatal("expected queue to be empty")
	}
}

func TestDrainEmptiesQueue(t *testing.T) {
	w, mr, client := newWorkerTest(t)

	mr.Set(config.CacheKey.QuizContextKey("p1"), `{"id":1}`)
	mr.Set(config.CacheKey.QuizContextKey("p2"), `{"id":2}`)
	enqueue(t, client, "p1", 1)
	enqueue(t, client, "p2", 2)

	w.drain(context.Background())

	if mr.Exists(config.CacheKey.QuizContextKey("p1")) || mr.Exists(config.CacheKey.QuizContextKey("p2")) {
		t.Fatal("expected both contexts to be cleaned up")
	}
	if mr.Exists(config.WorkerKey.AttemptCleanupQueue) {
		t.Fatal("expected queue to be drained")
	}
}

func TestMalformedPayloadIsDropped(t *testing.T) {
	w, mr, client := newWorkerTest(t)
	ctx := context.Background()

	if err := client.RPush(ctx, config.WorkerKey.AttemptCleanupQueue, "not json").Err(); err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}

	w.processNext(ctx)
	if mr.Exists(config.WorkerKey.AttemptCleanupQueue) {
		t.Fatal("malformed payload should be dropped, not requeued")
	}
}
