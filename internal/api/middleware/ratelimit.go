package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/petshop-plataforma/sales-service/internal/config"
	appErrors "github.com/petshop-plataforma/sales-service/internal/errors"
	"github.com/petshop-plataforma/sales-service/internal/utils/response"
)

// RateLimiter bounds cart mutations per client with a redis-backed sliding
// window (sorted set of request timestamps).
type RateLimiter struct {
	client *redis.Client
	cfg    *config.RateConfig
	now    func() time.Time
}

func NewRateLimiter(client *redis.Client, cfg *config.RateConfig) *RateLimiter {
	return &RateLimiter{
		client: client,
		cfg:    cfg,
		now:    time.Now,
	}
}

func (rl *RateLimiter) Limit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		allowed, err := rl.allow(r.Context(), clientKey(r))
		if err != nil {
			// fail open: an unreachable limiter must not take the API down
			slog.Warn("Rate limiter unavailable", slog.String("error", err.Error()))
			next(w, r)
			return
		}

		if !allowed {
			response.Error(w, appErrors.TooManyRequestsError("Too many requests"))
			return
		}

		next(w, r)
	}
}

func (rl *RateLimiter) allow(ctx context.Context, key string) (bool, error) {

	now := rl.now().Unix()
	windowStart := now - int64(rl.cfg.WindowSize.Seconds())

	pipe := rl.client.Pipeline()

	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(windowStart, 10))
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(now), Member: now})
	count := pipe.ZCard(ctx, key)
	pipe.Expire(ctx, key, rl.cfg.WindowSize)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}

	return count.Val() <= rl.cfg.MaxAttempts, nil
}

func clientKey(r *http.Request) string {

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}

	return fmt.Sprintf("ratelimit:%s", host)
}
