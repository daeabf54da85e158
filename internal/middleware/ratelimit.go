package middleware

import (
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	internal_errors "github.com/authgate-dev/authgate/internal/errors"
	"github.com/authgate-dev/authgate/internal/logger"
	"github.com/authgate-dev/authgate/internal/reqctx"
	"github.com/authgate-dev/authgate/internal/response"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RateLimitConfig bounds how many requests one identity may make inside a
// sliding window.
type RateLimitConfig struct {
	KeyPrefix   string
	MaxAttempts int
	Window      time.Duration
}

// RateLimit enforces a per-identity sliding window backed by a Redis sorted
// set. Authenticated requests are keyed by user id, anonymous ones by client
// IP. Redis outages fail open so the store never takes the API down with it.
func RateLimit(rdb redis.Cmdable, cfg RateLimitConfig, writer *response.Writer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := identify(r)
			if err != nil {
				logger.Log.Warn("rate limit identity unavailable", "error", err)
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			key := cfg.KeyPrefix + ":" + identity
			now := time.Now()
			windowStart := now.Add(-cfg.Window)

			if err := rdb.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(windowStart.UnixMilli(), 10)).Err(); err != nil {
				logger.Log.Warn("rate limit store unavailable", "error", err)
				next.ServeHTTP(w, r)
				return
			}

			count, err := rdb.ZCard(ctx, key).Result()
			if err != nil {
				logger.Log.Warn("rate limit store unavailable", "error", err)
				next.ServeHTTP(w, r)
				return
			}

			limit := int64(cfg.MaxAttempts)
			w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(limit, 10))
			if count >= limit {
				w.Header().Set("X-RateLimit-Remaining", "0")
				w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(now.Add(cfg.Window).Unix(), 10))
				writer.Error(w, r, internal_errors.
					NewBusiness("RATE_LIMIT_EXCEEDED", fmt.Sprintf("identity %s exceeded %d requests", identity, limit)).
					WithStatus(http.StatusTooManyRequests))
				return
			}

			member := redis.Z{Score: float64(now.UnixMilli()), Member: uuid.NewString()}
			if err := rdb.ZAdd(ctx, key, member).Err(); err != nil {
				logger.Log.Warn("rate limit store unavailable", "error", err)
			}
			rdb.Expire(ctx, key, cfg.Window)

			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(limit-count-1, 10))
			next.ServeHTTP(w, r)
		})
	}
}

func identify(r *http.Request) (string, error) {
	if rc := reqctx.From(r); rc != nil && rc.ActiveUser != nil {
		return fmt.Sprintf("user_%d", rc.ActiveUser.Id), nil
	}
	return GetIP(r)
}

// GetIP extracts the client IP from RemoteAddr. Forwarding headers are not
// trusted, they are trivially spoofed without a reverse proxy in front.
func GetIP(r *http.Request) (string, error) {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}
	if net.ParseIP(ip) == nil {
		return "", fmt.Errorf("invalid remote address: %s", r.RemoteAddr)
	}
	return ip, nil
}
