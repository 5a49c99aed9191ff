package topics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Redis key prefix for cached question sets.
const questionSetPrefix = "drillz:topic:"

// DefaultCacheTTL bounds how stale a cached question set can be when an
// import happens in another process.
const DefaultCacheTTL = 10 * time.Minute

type cachedSet struct {
	TopicID   string     `json:"topicId"`
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
}

// CachedSource caches question sets in Redis in front of another Source.
// Redis failures are logged and fall through to the inner source.
type CachedSource struct {
	inner  Source
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedSource wraps inner with a Redis cache.
func NewCachedSource(inner Source, rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedSource {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedSource{inner: inner, rdb: rdb, ttl: ttl, logger: logger}
}

func questionSetKey(topicID string) string {
	return questionSetPrefix + topicID + ":questions"
}

func (c *CachedSource) QuestionSet(ctx context.Context, topicID string) (*QuestionSet, error) {
	key := questionSetKey(topicID)

	data, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var cached cachedSet
		if err := json.Unmarshal(data, &cached); err == nil {
			return NewQuestionSet(cached.TopicID, cached.Title, cached.Questions), nil
		}
		c.logger.Warn("discarding corrupt cached question set", zap.String("key", key))
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("question set cache read failed", zap.String("key", key), zap.Error(err))
	}

	qs, err := c.inner.QuestionSet(ctx, topicID)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(cachedSet{TopicID: qs.TopicID, Title: qs.Title, Questions: qs.Questions})
	if err != nil {
		return qs, nil
	}
	if err := c.rdb.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.logger.Warn("question set cache write failed", zap.String("key", key), zap.Error(err))
	}
	return qs, nil
}

// Invalidate drops the cached question set of a topic.
func (c *CachedSource) Invalidate(ctx context.Context, topicID string) error {
	if err := c.rdb.Del(ctx, questionSetKey(topicID)).Err(); err != nil {
		return fmt.Errorf("invalidate %s: %w", topicID, err)
	}
	return nil
}
