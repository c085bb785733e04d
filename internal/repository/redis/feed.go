package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/inkshelf/inkshelf/internal/domain"
)

const (
	feedKey = "reviews:recent"

	// defaultFeedSize caps how many recent reviews the feed retains.
	defaultFeedSize = 50
)

// FeedRepository maintains a capped list of recently approved reviews in
// Redis, serving the recent-activity feed without touching Postgres.
type FeedRepository struct {
	client  *redis.Client
	maxSize int64
	ttl     time.Duration
}

// NewFeedRepository creates a new Redis-backed feed repository. A maxSize of
// zero falls back to the default cap.
func NewFeedRepository(client *redis.Client, maxSize int, ttl time.Duration) *FeedRepository {
	size := int64(maxSize)
	if size <= 0 {
		size = defaultFeedSize
	}
	return &FeedRepository{
		client:  client,
		maxSize: size,
		ttl:     ttl,
	}
}

// Push prepends a review to the feed and trims it to the configured cap.
// The push and trim run in a single pipeline round trip.
func (r *FeedRepository) Push(ctx context.Context, review *domain.Review) error {
	data, err := json.Marshal(review)
	if err != nil {
		return fmt.Errorf("marshal feed entry: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.LPush(ctx, feedKey, data)
	pipe.LTrim(ctx, feedKey, 0, r.maxSize-1)
	if r.ttl > 0 {
		pipe.Expire(ctx, feedKey, r.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis push feed entry: %w", err)
	}

	return nil
}

// Recent returns up to limit of the most recently pushed reviews, newest
// first. Entries that no longer unmarshal are skipped.
func (r *FeedRepository) Recent(ctx context.Context, limit int) ([]domain.Review, error) {
	if limit <= 0 || int64(limit) > r.maxSize {
		limit = int(r.maxSize)
	}

	entries, err := r.client.LRange(ctx, feedKey, 0, int64(limit)-1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis read feed: %w", err)
	}

	reviews := make([]domain.Review, 0, len(entries))
	for _, entry := range entries {
		var rv domain.Review
		if err := json.Unmarshal([]byte(entry), &rv); err != nil {
			continue
		}
		reviews = append(reviews, rv)
	}

	return reviews, nil
}

// Remove deletes a review from the feed by ID, if present. Used when a
// previously approved review is rejected or deleted.
func (r *FeedRepository) Remove(ctx context.Context, reviewID string) error {
	entries, err := r.client.LRange(ctx, feedKey, 0, r.maxSize-1).Result()
	if err != nil {
		return fmt.Errorf("redis read feed: %w", err)
	}

	for _, entry := range entries {
		var rv domain.Review
		if err := json.Unmarshal([]byte(entry), &rv); err != nil {
			continue
		}
		if rv.ID == reviewID {
			if err := r.client.LRem(ctx, feedKey, 1, entry).Err(); err != nil {
				return fmt.Errorf("redis remove feed entry: %w", err)
			}
			return nil
		}
	}

	return nil
}

// Clear empties the feed. Used by tests and operational tooling.
func (r *FeedRepository) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, feedKey).Err(); err != nil {
		return fmt.Errorf("redis clear feed: %w", err)
	}
	return nil
}
