package service

import (
	"context"
	"encoding/hex"
	"strconv"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/zeebo/blake3"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-hub/internal/observability"
)

// DefaultSatisfactionScore is the neutral score assigned when analysis is
// unavailable or unnecessary.
const DefaultSatisfactionScore = 100

// ScoreRequest asks for one ticket's satisfaction score.
type ScoreRequest struct {
	WorkspaceID string
	TicketID    string
	Comments    []string
}

// ScoreResult is one scored ticket.
type ScoreResult struct {
	TicketID string
	Score    int
}

// SentimentScorer is the black-box batched scoring service.
type SentimentScorer interface {
	ScoreBatch(ctx context.Context, requests []ScoreRequest) ([]ScoreResult, error)
}

// SentimentCache scores ticket satisfaction from comment text, cached by
// content hash so any comment change naturally invalidates the entry. The
// in-process map lives for the process lifetime; an optional Redis level
// shares entries across instances (keys are content-addressed, so there is
// no staleness to manage).
type SentimentCache struct {
	scorer  SentimentScorer
	redis   *redis.Client
	metrics *observability.Metrics
	logger  *zap.Logger

	mu     sync.RWMutex
	scores map[string]int
}

// NewSentimentCache constructs the cache. redisClient may be nil.
func NewSentimentCache(scorer SentimentScorer, redisClient *redis.Client, metrics *observability.Metrics, logger *zap.Logger) *SentimentCache {
	return &SentimentCache{
		scorer:  scorer,
		redis:   redisClient,
		metrics: metrics,
		logger:  logger,
		scores:  make(map[string]int),
	}
}

// AnalyzeBatch returns a score for every request. Hits are served from the
// cache; all misses go to the scorer in exactly one batched call. A scorer
// failure defaults every miss to the neutral score and is never surfaced.
func (c *SentimentCache) AnalyzeBatch(ctx context.Context, requests []ScoreRequest) []ScoreResult {
	results := make([]ScoreResult, len(requests))
	keys := make([]string, len(requests))

	var misses []ScoreRequest
	missIndex := make(map[string]int)

	for i, req := range requests {
		keys[i] = sentimentCacheKey(req.WorkspaceID, req.TicketID, req.Comments)
		results[i] = ScoreResult{TicketID: req.TicketID, Score: DefaultSatisfactionScore}

		if score, ok := c.lookup(ctx, keys[i]); ok {
			results[i].Score = score
			c.metrics.RecordSentimentCacheHit()
			continue
		}
		c.metrics.RecordSentimentCacheMiss()
		missIndex[req.TicketID] = i
		misses = append(misses, req)
	}

	if len(misses) == 0 {
		return results
	}

	scored, err := c.scorer.ScoreBatch(ctx, misses)
	if err != nil {
		// Misses keep the neutral default and stay uncached so a later
		// request can retry the scorer.
		c.logger.Error("sentiment scoring batch failed, defaulting scores", zap.Error(err))
		c.metrics.RecordScorerBatch("error")
		return results
	}
	c.metrics.RecordScorerBatch("ok")

	for _, result := range scored {
		i, ok := missIndex[result.TicketID]
		if !ok {
			continue
		}
		score := clampScore(result.Score)
		results[i].Score = score
		c.store(ctx, keys[i], score)
	}
	return results
}

func (c *SentimentCache) lookup(ctx context.Context, key string) (int, bool) {
	c.mu.RLock()
	score, ok := c.scores[key]
	c.mu.RUnlock()
	if ok {
		return score, true
	}

	if c.redis == nil {
		return 0, false
	}
	raw, err := c.redis.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.Debug("sentiment cache redis read failed", zap.Error(err))
		}
		return 0, false
	}
	score, err = strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	c.mu.Lock()
	c.scores[key] = score
	c.mu.Unlock()
	return score, true
}

func (c *SentimentCache) store(ctx context.Context, key string, score int) {
	c.mu.Lock()
	c.scores[key] = score
	c.mu.Unlock()

	if c.redis == nil {
		return
	}
	if err := c.redis.Set(ctx, key, strconv.Itoa(score), 0).Err(); err != nil {
		c.logger.Debug("sentiment cache redis write failed", zap.Error(err))
	}
}

func sentimentCacheKey(workspaceID, ticketID string, comments []string) string {
	hasher := blake3.New()
	_, _ = hasher.WriteString(workspaceID)
	_, _ = hasher.WriteString("\x00")
	_, _ = hasher.WriteString(ticketID)
	_, _ = hasher.WriteString("\x00")
	_, _ = hasher.WriteString(strings.Join(comments, "\n"))
	return "sentiment:" + hex.EncodeToString(hasher.Sum(nil))
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
