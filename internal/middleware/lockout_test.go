package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internal_errors "github.com/authgate-dev/authgate/internal/errors"
	"github.com/authgate-dev/authgate/internal/reqctx"
	"github.com/authgate-dev/authgate/internal/response"
	"github.com/authgate-dev/authgate/internal/service"
)

// loginStub simulates the login handler: it reports the given failure on the
// request context the way the real handler does.
func loginStub(writer *response.Writer, loginErr *internal_errors.Error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if loginErr != nil {
			reqctx.From(r).LoginError = loginErr
			writer.Error(w, r, loginErr)
			return
		}
		writer.Success(w, nil)
	}
}

func lockoutChain(t *testing.T, cfg LockoutConfig, loginErr *internal_errors.Error) http.Handler {
	t.Helper()
	writer := &response.Writer{}
	return Client(&MockClientStorage{}, writer)(
		Lockout(newTestRedis(t), cfg, writer)(loginStub(writer, loginErr)))
}

func postLogin(h http.Handler, username string) *httptest.ResponseRecorder {
	body := strings.NewReader(`{"username": "` + username + `", "password": "pw"}`)
	req := httptest.NewRequest("POST", "/guest/login", body)
	req.RemoteAddr = "10.0.0.1:1234"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestLockout(t *testing.T) {
	cfg := LockoutConfig{MaxAttempts: 3, LockDuration: 15 * time.Minute, AttemptWindow: 15 * time.Minute}
	badPassword := internal_errors.NewAuth("BAD_CREDENTIALS", service.DetailBadPassword)
	unknownUser := internal_errors.NewAuth("BAD_CREDENTIALS", service.DetailUnknownUser)

	t.Run("locks after repeated bad passwords", func(t *testing.T) {
		h := lockoutChain(t, cfg, badPassword)

		for i := 0; i < 3; i++ {
			rec := postLogin(h, "alice")
			require.Equal(t, http.StatusUnauthorized, rec.Code, "attempt %d", i)
		}

		rec := postLogin(h, "alice")
		assert.Equal(t, http.StatusLocked, rec.Code)
		assert.Equal(t, "ACCOUNT_LOCKED", decodeEnvelope(t, rec).Error.Code)
	})

	t.Run("unknown usernames never count", func(t *testing.T) {
		h := lockoutChain(t, cfg, unknownUser)

		for i := 0; i < 5; i++ {
			rec := postLogin(h, "ghost")
			require.Equal(t, http.StatusUnauthorized, rec.Code)
		}
	})

	t.Run("success clears the counter", func(t *testing.T) {
		writer := &response.Writer{}
		rdb := newTestRedis(t)

		fail := Client(&MockClientStorage{}, writer)(
			Lockout(rdb, cfg, writer)(loginStub(writer, badPassword)))
		succeed := Client(&MockClientStorage{}, writer)(
			Lockout(rdb, cfg, writer)(loginStub(writer, nil)))

		postLogin(fail, "alice")
		postLogin(fail, "alice")
		require.Equal(t, http.StatusOK, postLogin(succeed, "alice").Code)

		// The two earlier failures are gone: two more still stay below the
		// threshold.
		postLogin(fail, "alice")
		postLogin(fail, "alice")
		assert.Equal(t, http.StatusUnauthorized, postLogin(fail, "alice").Code)
	})

	t.Run("lock is per username", func(t *testing.T) {
		writer := &response.Writer{}
		rdb := newTestRedis(t)
		h := Client(&MockClientStorage{}, writer)(
			Lockout(rdb, cfg, writer)(loginStub(writer, badPassword)))

		for i := 0; i < 3; i++ {
			postLogin(h, "alice")
		}
		require.Equal(t, http.StatusLocked, postLogin(h, "alice").Code)
		assert.Equal(t, http.StatusUnauthorized, postLogin(h, "bob").Code)
	})

	t.Run("body passes through to the handler", func(t *testing.T) {
		writer := &response.Writer{}
		var seen string
		inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var creds struct {
				Username string `json:"username"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
			seen = creds.Username
			writer.Success(w, nil)
		})
		h := Client(&MockClientStorage{}, writer)(Lockout(newTestRedis(t), cfg, writer)(inner))

		postLogin(h, "alice")
		assert.Equal(t, "alice", seen)
	})
}
