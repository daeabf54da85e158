package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	internal_errors "github.com/authgate-dev/authgate/internal/errors"
	"github.com/authgate-dev/authgate/internal/logger"
	"github.com/authgate-dev/authgate/internal/reqctx"
	"github.com/authgate-dev/authgate/internal/response"
	"github.com/authgate-dev/authgate/internal/service"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// LockoutConfig bounds how many bad-password attempts one account may make
// before logins are refused outright for LockDuration.
type LockoutConfig struct {
	MaxAttempts   int
	LockDuration  time.Duration
	AttemptWindow time.Duration
}

// Lockout wraps the login route. It refuses locked accounts up front, counts
// bad-password failures reported by the handler and clears the counter on a
// successful login. Only wrong-password failures count, unknown usernames do
// not, so the counter cannot be used to probe account existence faster than
// the login route itself allows.
func Lockout(rdb redis.Cmdable, cfg LockoutConfig, writer *response.Writer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := loginIdentity(r)
			if err != nil {
				// Malformed bodies are the validation stage's problem.
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			lockKey := "lockout:lock:" + identity
			attemptsKey := "lockout:attempts:" + identity

			locked, err := rdb.Exists(ctx, lockKey).Result()
			if err != nil {
				logger.Log.Warn("lockout store unavailable", "error", err)
				next.ServeHTTP(w, r)
				return
			}
			if locked > 0 {
				writer.Error(w, r, internal_errors.
					NewAuth("ACCOUNT_LOCKED", "too many failed login attempts").
					WithStatus(http.StatusLocked))
				return
			}

			next.ServeHTTP(w, r)

			rc := reqctx.From(r)
			if rc == nil {
				return
			}
			if rc.LoginError == nil {
				rdb.Del(ctx, attemptsKey)
				return
			}
			if rc.LoginError.Detail != service.DetailBadPassword {
				return
			}

			now := time.Now()
			rdb.ZRemRangeByScore(ctx, attemptsKey, "0", strconv.FormatInt(now.Add(-cfg.AttemptWindow).UnixMilli(), 10))
			rdb.ZAdd(ctx, attemptsKey, redis.Z{Score: float64(now.UnixMilli()), Member: uuid.NewString()})
			rdb.Expire(ctx, attemptsKey, cfg.AttemptWindow)

			count, err := rdb.ZCard(ctx, attemptsKey).Result()
			if err != nil {
				logger.Log.Warn("lockout store unavailable", "error", err)
				return
			}
			if count >= int64(cfg.MaxAttempts) {
				rdb.Set(ctx, lockKey, now.Unix(), cfg.LockDuration)
				rdb.Del(ctx, attemptsKey)
				logger.Log.Info("account locked after repeated bad passwords", "identity", identity)
			}
		})
	}
}

// loginIdentity hashes the credentials' username so attempt counters never
// store it verbatim. The body is restored for the stages behind.
func loginIdentity(r *http.Request) (string, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return "", fmt.Errorf("reading login body: %w", err)
	}
	r.Body = io.NopCloser(bytes.NewReader(body))

	var creds struct {
		Username string `json:"username"`
	}
	if err := json.Unmarshal(body, &creds); err != nil {
		return "", fmt.Errorf("decoding login body: %w", err)
	}
	if creds.Username == "" {
		return "", fmt.Errorf("login body has no username")
	}

	sum := sha256.Sum256([]byte(strings.ToLower(creds.Username)))
	return hex.EncodeToString(sum[:]), nil
}
