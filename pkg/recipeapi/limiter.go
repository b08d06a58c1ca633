package recipeapi

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// RateLimiter enforces a requests-per-minute ceiling on outbound recipe API
// calls using a fixed window counter in Redis, so the limit holds across
// multiple server instances sharing the same key pool.
type RateLimiter struct {
	client  *redis.Client
	limit   int
	window  time.Duration
	baseKey string
}

// NewRateLimiter creates a RateLimiter backed by the Redis at redisURL.
func NewRateLimiter(redisURL string, limit int, baseKey string) (*RateLimiter, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RateLimiter{
		client:  client,
		limit:   limit,
		window:  60 * time.Second,
		baseKey: baseKey,
	}, nil
}

// WaitForTicket blocks until a request is allowed within the current window
// or the context is cancelled.
func (r *RateLimiter) WaitForTicket(ctx context.Context) error {
	now := time.Now()
	minuteKey := fmt.Sprintf("%s:%d", r.baseKey, now.Unix()/60)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		count, err := r.client.Incr(ctx, minuteKey).Result()
		if err != nil {
			log.Error().Err(err).Msg("RateLimiter: Redis error")
			// Back off rather than hammer a broken Redis
			time.Sleep(1 * time.Second)
			continue
		}

		if count == 1 {
			r.client.Expire(ctx, minuteKey, 2*time.Minute)
		}

		if count <= int64(r.limit) {
			return nil
		}

		log.Warn().
			Int64("count", count).
			Int("limit", r.limit).
			Msg("Recipe API rate limit reached, waiting for next window")

		nextMinute := now.Truncate(time.Minute).Add(time.Minute).Add(100 * time.Millisecond)
		waitDuration := time.Until(nextMinute)
		if waitDuration < 0 {
			waitDuration = 1 * time.Second
		}

		timer := time.NewTimer(waitDuration)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
			now = time.Now()
			minuteKey = fmt.Sprintf("%s:%d", r.baseKey, now.Unix()/60)
		}
	}
}

// Close closes the Redis client.
func (r *RateLimiter) Close() error {
	return r.client.Close()
}
