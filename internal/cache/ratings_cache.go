package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/cleantrack/cleantrack-api/internal/domain"
)

const (
	ratingAggregatesKey = "cleantrack:ratings:aggregates"
	ratingGenerationKey = "cleantrack:ratings:generation"
)

var (
	// ErrMiss is returned when no aggregates are cached.
	ErrMiss = errors.New("cache: miss")
	// ErrStale is returned by Set when the ratings changed after the
	// generation was read.
	ErrStale = errors.New("cache: stale generation")
)

// RatingsCache stores the per-floor rating aggregates in Redis. Entries are
// keyed by a generation counter that Invalidate bumps, so a reader that
// queried before a write can never overwrite the newer state.
type RatingsCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRatingsCache returns nil when client is nil; all methods tolerate a nil cache.
func NewRatingsCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RatingsCache {
	if client == nil {
		return nil
	}
	return &RatingsCache{client: client, ttl: ttl, logger: logger}
}

func aggregatesKey(generation int64) string {
	return fmt.Sprintf("%s:%d", ratingAggregatesKey, generation)
}

// Generation returns the current ratings generation. Read it before querying
// the database and pass it to Get and Set.
func (c *RatingsCache) Generation(ctx context.Context) (int64, error) {
	if c == nil {
		return 0, nil
	}
	return readGeneration(ctx, c.client)
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func readGeneration(ctx context.Context, cmd getter) (int64, error) {
	generation, err := cmd.Get(ctx, ratingGenerationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get rating generation: %w", err)
	}
	return generation, nil
}

// Get returns the aggregates cached for generation or ErrMiss.
func (c *RatingsCache) Get(ctx context.Context, generation int64) ([]domain.RatingAggregate, error) {
	if c == nil {
		return nil, ErrMiss
	}
	data, err := c.client.Get(ctx, aggregatesKey(generation)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("get rating aggregates: %w", err)
	}

	var aggregates []domain.RatingAggregate
	if err := json.Unmarshal(data, &aggregates); err != nil {
		return nil, fmt.Errorf("decode rating aggregates: %w", err)
	}
	return aggregates, nil
}

// Set caches aggregates for generation. Nothing is written and ErrStale is
// returned when the generation has moved on.
func (c *RatingsCache) Set(ctx context.Context, generation int64, aggregates []domain.RatingAggregate) error {
	if c == nil {
		return nil
	}
	if aggregates == nil {
		aggregates = []domain.RatingAggregate{}
	}
	data, err := json.Marshal(aggregates)
	if err != nil {
		return fmt.Errorf("encode rating aggregates: %w", err)
	}

	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := readGeneration(ctx, tx)
		if err != nil {
			return err
		}
		if current != generation {
			return ErrStale
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, aggregatesKey(generation), data, c.ttl)
			return nil
		})
		return err
	}, ratingGenerationKey)
	if errors.Is(err, redis.TxFailedErr) {
		return ErrStale
	}
	if err != nil && !errors.Is(err, ErrStale) {
		return fmt.Errorf("set rating aggregates: %w", err)
	}
	return err
}

// Invalidate moves to a new generation, orphaning the cached aggregates until
// their TTL expires. Failures are logged; the TTL bounds staleness.
func (c *RatingsCache) Invalidate(ctx context.Context) {
	if c == nil {
		return
	}
	if err := c.client.Incr(ctx, ratingGenerationKey).Err(); err != nil {
		c.logger.Warn("failed to invalidate rating cache", zap.Error(err))
	}
}
