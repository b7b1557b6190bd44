package service

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/quizgate/quizgate/internal/config"
	"github.com/quizgate/quizgate/internal/model"
)

type fakeAnalyticsAPI struct {
	calls    int
	analysis model.QuizAnalysis
}

func (f *fakeAnalyticsAPI) FetchAnalysis(ctx context.Context, token string, quizID int) (*model.QuizAnalysis, error) {
	f.calls++
	analysis := f.analysis
	return &analysis, nil
}

func TestQuizAnalysisCachesResult(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	api := &fakeAnalyticsAPI{analysis: model.QuizAnalysis{
		QuizID:          42,
		NumParticipants: 12,
		AverageScore:    3.5,
	}}
	svc := NewAnalyticsService(api, client, 5*time.Minute, zerolog.Nop())
	ctx := context.Background()

	first, err := svc.QuizAnalysis(ctx, "tok", 42)
	if err != nil {
		t.Fatalf("first fetch failed: %v", err)
	}
	second, err := svc.QuizAnalysis(ctx, "tok", 42)
	if err != nil {
		t.Fatalf("second fetch failed: %v", err)
	}

	if first.NumParticipants != 12 || second.AverageScore != 3.5 {
		t.Fatalf("analysis payload wrong: %+v / %+v", first, second)
	}
	if api.calls != 1 {
		t.Fatalf("expected a single upstream fetch, got %d", api.calls)
	}
	if !mr.Exists(config.CacheKey.QuizAnalysisKey(42)) {
		t.Fatal("expected cache key in redis")
	}
}

func TestQuizAnalysisRecoversFromCorruptCache(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	mr.Set(config.CacheKey.QuizAnalysisKey(42), "not json")

	api := &fakeAnalyticsAPI{analysis: model.QuizAnalysis{QuizID: 42}}
	svc := NewAnalyticsService(api, client, 5*time.Minute, zerolog.Nop())

	analysis, err := svc.QuizAnalysis(context.Background(), "tok", 42)
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if analysis.QuizID != 42 {
		t.Fatalf("unexpected analysis: %+v", analysis)
	}
	if api.calls != 1 {
		t.Fatalf("expected a fresh fetch past the corrupt entry, got %d calls", api.calls)
	}
}
