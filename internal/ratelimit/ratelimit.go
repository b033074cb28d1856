package ratelimit

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"recommendation-service/internal/shared/httpx"
)

// Limiter is a redis-backed fixed-window rate limiter shared across
// service instances.
type Limiter struct {
	rdb *redis.Client
	log zerolog.Logger
}

func New(rdb *redis.Client, log zerolog.Logger) *Limiter {
	return &Limiter{rdb: rdb, log: log.With().Str("component", "ratelimit").Logger()}
}

// Allow counts one request against the key's current window. Fails
// open on redis errors: throttling is protection, not correctness.
func (l *Limiter) Allow(ctx context.Context, key string, limit int, window time.Duration) bool {
	rkey := fmt.Sprintf("ratelimit:%s", key)
	n, err := l.rdb.Incr(ctx, rkey).Result()
	if err != nil {
		l.log.Warn().Err(err).Str("key", key).Msg("rate limit check failed, allowing")
		return true
	}
	if n == 1 {
		l.rdb.Expire(ctx, rkey, window)
	}
	return n <= int64(limit)
}

// LimitHTTP wraps a handler with a per-key limit.
func (l *Limiter) LimitHTTP(limit int, window time.Duration, keyFn func(*http.Request) (string, error), next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key, err := keyFn(r)
		if err != nil {
			httpx.WriteError(w, http.StatusUnauthorized, err, "")
			return
		}
		if !l.Allow(r.Context(), key, limit, window) {
			httpx.WriteError(w, http.StatusTooManyRequests, nil, "rate_limited")
			return
		}
		next.ServeHTTP(w, r)
	})
}
