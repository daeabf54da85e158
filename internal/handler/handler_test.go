package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/authgate-dev/authgate/internal/domain"
	"github.com/authgate-dev/authgate/internal/reqctx"
	"github.com/authgate-dev/authgate/internal/response"
)

// --- Mocks ---

type MockUserService struct {
	MockLogin            func(client domain.Client, username, password string) (string, *domain.User, error)
	MockCreate           func(client domain.Client, username, email, password string) (*domain.User, error)
	MockPatch            func(user domain.User, property, value string) (*domain.User, error)
	MockDelete           func(user domain.User) (*domain.User, error)
	MockForgotPassword   func(client domain.Client, email string)
	MockResendActivation func(client domain.Client, email string)
	MockResetPassword    func(fullToken, newPassword string) error
	MockActivateAccount  func(fullToken string) error
	MockList             func(filters domain.UserFilters) ([]domain.User, error)
}

func (m *MockUserService) Login(client domain.Client, username, password string) (string, *domain.User, error) {
	if m.MockLogin != nil {
		return m.MockLogin(client, username, password)
	}
	return "", nil, nil
}

func (m *MockUserService) Create(client domain.Client, username, email, password string) (*domain.User, error) {
	if m.MockCreate != nil {
		return m.MockCreate(client, username, email, password)
	}
	return &domain.User{}, nil
}

func (m *MockUserService) Patch(user domain.User, property, value string) (*domain.User, error) {
	if m.MockPatch != nil {
		return m.MockPatch(user, property, value)
	}
	return &user, nil
}

func (m *MockUserService) Delete(user domain.User) (*domain.User, error) {
	if m.MockDelete != nil {
		return m.MockDelete(user)
	}
	return &user, nil
}

func (m *MockUserService) ForgotPassword(client domain.Client, email string) {
	if m.MockForgotPassword != nil {
		m.MockForgotPassword(client, email)
	}
}

func (m *MockUserService) ResendActivation(client domain.Client, email string) {
	if m.MockResendActivation != nil {
		m.MockResendActivation(client, email)
	}
}

func (m *MockUserService) ResetPassword(fullToken, newPassword string) error {
	if m.MockResetPassword != nil {
		return m.MockResetPassword(fullToken, newPassword)
	}
	return nil
}

func (m *MockUserService) ActivateAccount(fullToken string) error {
	if m.MockActivateAccount != nil {
		return m.MockActivateAccount(fullToken)
	}
	return nil
}

func (m *MockUserService) List(filters domain.UserFilters) ([]domain.User, error) {
	if m.MockList != nil {
		return m.MockList(filters)
	}
	return nil, nil
}

var testClient = domain.Client{Id: 1, Name: "Default", Domain: "localhost"}

func newTestHandler(users *MockUserService) *Handler {
	return New(users, &response.Writer{})
}

// prepared builds a request as the pipeline would hand it to the handler:
// context attached, tenant resolved and validated body in place.
func prepared(method, target string, mutate func(rc *reqctx.Context)) *http.Request {
	req := reqctx.Attach(httptest.NewRequest(method, target, nil))
	rc := reqctx.From(req)
	rc.Client = &testClient
	if mutate != nil {
		mutate(rc)
	}
	return req
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) response.Envelope {
	t.Helper()
	var env response.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}
