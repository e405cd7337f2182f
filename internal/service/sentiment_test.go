package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
)

func scoreAll(score int) func(ctx context.Context, requests []ScoreRequest) ([]ScoreResult, error) {
	return func(_ context.Context, requests []ScoreRequest) ([]ScoreResult, error) {
		results := make([]ScoreResult, 0, len(requests))
		for _, req := range requests {
			results = append(results, ScoreResult{TicketID: req.TicketID, Score: score})
		}
		return results, nil
	}
}

func TestAnalyzeBatchCachesByContent(t *testing.T) {
	scorer := &fakeScorer{ScoreBatchFunc: scoreAll(40)}
	cache := NewSentimentCache(scorer, nil, newTestMetrics(), zap.NewNop())

	request := ScoreRequest{WorkspaceID: "ws-1", TicketID: "int-1:KEY-1", Comments: []string{"this is terrible"}}

	first := cache.AnalyzeBatch(context.Background(), []ScoreRequest{request})
	if first[0].Score != 40 {
		t.Fatalf("expected scored result, got %d", first[0].Score)
	}
	if scorer.calls != 1 {
		t.Fatalf("expected one scorer call, got %d", scorer.calls)
	}

	second := cache.AnalyzeBatch(context.Background(), []ScoreRequest{request})
	if second[0].Score != 40 {
		t.Fatalf("cached score wrong: %d", second[0].Score)
	}
	if scorer.calls != 1 {
		t.Fatalf("identical thread must be a cache hit, scorer called %d times", scorer.calls)
	}

	// Any comment change produces a different content hash.
	changed := request
	changed.Comments = []string{"this is terrible", "nevermind, fixed"}
	cache.AnalyzeBatch(context.Background(), []ScoreRequest{changed})
	if scorer.calls != 2 {
		t.Fatalf("changed thread must miss the cache, scorer called %d times", scorer.calls)
	}
}

func TestAnalyzeBatchSingleScorerCallForAllMisses(t *testing.T) {
	var batchSizes []int
	scorer := &fakeScorer{
		ScoreBatchFunc: func(_ context.Context, requests []ScoreRequest) ([]ScoreResult, error) {
			batchSizes = append(batchSizes, len(requests))
			return scoreAll(70)(context.Background(), requests)
		},
	}
	cache := NewSentimentCache(scorer, nil, newTestMetrics(), zap.NewNop())

	requests := []ScoreRequest{
		{WorkspaceID: "ws-1", TicketID: "a", Comments: []string{"x"}},
		{WorkspaceID: "ws-1", TicketID: "b", Comments: []string{"y"}},
		{WorkspaceID: "ws-1", TicketID: "c", Comments: []string{"z"}},
	}
	cache.AnalyzeBatch(context.Background(), requests)
	if len(batchSizes) != 1 || batchSizes[0] != 3 {
		t.Fatalf("all misses must go out in one batch, got %v", batchSizes)
	}

	// One entry cached, two fresh: the next batch carries only the misses.
	more := []ScoreRequest{
		requests[0],
		{WorkspaceID: "ws-1", TicketID: "d", Comments: []string{"w"}},
	}
	cache.AnalyzeBatch(context.Background(), more)
	if len(batchSizes) != 2 || batchSizes[1] != 1 {
		t.Fatalf("cached entries must not be re-sent, got %v", batchSizes)
	}
}

func TestAnalyzeBatchScorerFailureDefaultsAndRetries(t *testing.T) {
	failing := true
	scorer := &fakeScorer{
		ScoreBatchFunc: func(ctx context.Context, requests []ScoreRequest) ([]ScoreResult, error) {
			if failing {
				return nil, errors.New("model unavailable")
			}
			return scoreAll(25)(ctx, requests)
		},
	}
	cache := NewSentimentCache(scorer, nil, newTestMetrics(), zap.NewNop())
	request := ScoreRequest{WorkspaceID: "ws-1", TicketID: "t", Comments: []string{"angry"}}

	results := cache.AnalyzeBatch(context.Background(), []ScoreRequest{request})
	if results[0].Score != DefaultSatisfactionScore {
		t.Fatalf("scorer failure must default to %d, got %d", DefaultSatisfactionScore, results[0].Score)
	}

	// Defaults from a failure are not cached, so recovery is picked up.
	failing = false
	results = cache.AnalyzeBatch(context.Background(), []ScoreRequest{request})
	if results[0].Score != 25 {
		t.Fatalf("recovered scorer result expected, got %d", results[0].Score)
	}
	if scorer.calls != 2 {
		t.Fatalf("expected retry after failure, scorer called %d times", scorer.calls)
	}
}

func TestAnalyzeBatchClampsScores(t *testing.T) {
	scores := map[string]int{"hot": 150, "cold": -10}
	scorer := &fakeScorer{
		ScoreBatchFunc: func(_ context.Context, requests []ScoreRequest) ([]ScoreResult, error) {
			results := make([]ScoreResult, 0, len(requests))
			for _, req := range requests {
				results = append(results, ScoreResult{TicketID: req.TicketID, Score: scores[req.TicketID]})
			}
			return results, nil
		},
	}
	cache := NewSentimentCache(scorer, nil, newTestMetrics(), zap.NewNop())

	results := cache.AnalyzeBatch(context.Background(), []ScoreRequest{
		{WorkspaceID: "ws-1", TicketID: "hot", Comments: []string{"a"}},
		{WorkspaceID: "ws-1", TicketID: "cold", Comments: []string{"b"}},
	})
	byID := map[string]int{}
	for _, result := range results {
		byID[result.TicketID] = result.Score
	}
	if byID["hot"] != 100 || byID["cold"] != 0 {
		t.Fatalf("scores not clamped to [0,100]: %v", byID)
	}
}
