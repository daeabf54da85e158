package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/authgate-dev/authgate/internal/domain"
	"github.com/authgate-dev/authgate/internal/dto"
	internal_errors "github.com/authgate-dev/authgate/internal/errors"
	"github.com/authgate-dev/authgate/internal/reqctx"
)

func TestLoginHandler(t *testing.T) {
	body := func(rc *reqctx.Context) {
		rc.Body = &dto.Login{Username: "alice", Password: "password"}
	}

	t.Run("success returns token and user", func(t *testing.T) {
		user := &domain.User{Id: 7, Username: "alice"}
		h := newTestHandler(&MockUserService{
			MockLogin: func(client domain.Client, username, password string) (string, *domain.User, error) {
				assert.Equal(t, testClient.Id, client.Id)
				assert.Equal(t, "alice", username)
				return "signed-jwt", user, nil
			},
		})

		req := prepared("POST", "/guest/login", body)
		rec := httptest.NewRecorder()
		h.Login(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		env := decodeEnvelope(t, rec)
		assert.True(t, env.Success)
		data := env.Data.(map[string]interface{})
		assert.Equal(t, "signed-jwt", data["token"])
	})

	t.Run("failure is recorded for the lockout stage", func(t *testing.T) {
		loginErr := internal_errors.NewAuth("BAD_CREDENTIALS", "BAD_PASSWORD")
		h := newTestHandler(&MockUserService{
			MockLogin: func(domain.Client, string, string) (string, *domain.User, error) {
				return "", nil, loginErr
			},
		})

		req := prepared("POST", "/guest/login", body)
		rec := httptest.NewRecorder()
		h.Login(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "BAD_CREDENTIALS", decodeEnvelope(t, rec).Error.Code)
		assert.Equal(t, loginErr, reqctx.From(req).LoginError)
	})

	t.Run("password never echoes in the response", func(t *testing.T) {
		user := &domain.User{Id: 7, Username: "alice", Password: "$2a$10$hash"}
		h := newTestHandler(&MockUserService{
			MockLogin: func(domain.Client, string, string) (string, *domain.User, error) {
				return "signed-jwt", user, nil
			},
		})

		req := prepared("POST", "/guest/login", body)
		rec := httptest.NewRecorder()
		h.Login(rec, req)

		assert.NotContains(t, rec.Body.String(), "$2a$10$hash")
	})
}

func TestRegisterHandler(t *testing.T) {
	body := func(rc *reqctx.Context) {
		rc.Body = &dto.UserCreate{Username: "bob", Email: "bob@example.com", Password: "secret"}
	}

	t.Run("success", func(t *testing.T) {
		h := newTestHandler(&MockUserService{
			MockCreate: func(client domain.Client, username, email, password string) (*domain.User, error) {
				return &domain.User{Id: 2, Username: username, Status: domain.StatusPending}, nil
			},
		})

		req := prepared("POST", "/guest/register", body)
		rec := httptest.NewRecorder()
		h.Register(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		data := decodeEnvelope(t, rec).Data.(map[string]interface{})
		assert.Equal(t, "pending", data["status"])
	})

	t.Run("duplicate", func(t *testing.T) {
		h := newTestHandler(&MockUserService{
			MockCreate: func(domain.Client, string, string, string) (*domain.User, error) {
				return nil, internal_errors.NewBusiness("UNIQUE_CONSTRAINT", "dup").WithStatus(http.StatusConflict)
			},
		})

		req := prepared("POST", "/guest/register", body)
		rec := httptest.NewRecorder()
		h.Register(rec, req)

		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestForgotPasswordHandler(t *testing.T) {
	// The envelope must be byte-identical for known and unknown emails.
	responseFor := func(t *testing.T, email string, svc *MockUserService) string {
		h := newTestHandler(svc)
		req := prepared("POST", "/guest/forgot-password", func(rc *reqctx.Context) {
			rc.Body = &dto.ForgotPassword{Email: email}
		})
		rec := httptest.NewRecorder()
		h.ForgotPassword(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		return rec.Body.String()
	}

	known := responseFor(t, "alice@example.com", &MockUserService{})
	unknown := responseFor(t, "ghost@example.com", &MockUserService{})
	assert.Equal(t, known, unknown)
}

func TestResetPasswordHandler(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		var gotToken string
		h := newTestHandler(&MockUserService{
			MockResetPassword: func(fullToken, newPassword string) error {
				gotToken = fullToken
				return nil
			},
		})

		req := prepared("POST", "/guest/reset-password", func(rc *reqctx.Context) {
			rc.Body = &dto.ResetPassword{Token: "id.secret", Password: "newpass"}
		})
		rec := httptest.NewRecorder()
		h.ResetPassword(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "id.secret", gotToken)
	})

	t.Run("invalid token", func(t *testing.T) {
		h := newTestHandler(&MockUserService{
			MockResetPassword: func(string, string) error {
				return internal_errors.NewBusiness("TOKEN_INVALID", "NOT_FOUND")
			},
		})

		req := prepared("POST", "/guest/reset-password", func(rc *reqctx.Context) {
			rc.Body = &dto.ResetPassword{Token: "bad", Password: "newpass"}
		})
		rec := httptest.NewRecorder()
		h.ResetPassword(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "TOKEN_INVALID", decodeEnvelope(t, rec).Error.Code)
	})
}

func TestActivateAccountHandler(t *testing.T) {
	h := newTestHandler(&MockUserService{})
	req := prepared("POST", "/guest/activate-account", func(rc *reqctx.Context) {
		rc.Body = &dto.ActivateAccount{Token: "id.secret"}
	})
	rec := httptest.NewRecorder()
	h.ActivateAccount(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeEnvelope(t, rec).Success)
}
