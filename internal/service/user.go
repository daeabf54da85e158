package service

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/authgate-dev/authgate/internal/domain"
	internal_errors "github.com/authgate-dev/authgate/internal/errors"
	"github.com/authgate-dev/authgate/internal/logger"
)

// UserStorage is the persistence contract for user accounts. Lookups are
// tenant-scoped; SaveUser surfaces duplicate (username, client) or
// (email, client) pairs as a business UNIQUE_CONSTRAINT error.
type UserStorage interface {
	SaveUser(user domain.User) (domain.User, error)
	UpdateUser(user domain.User) error
	DeleteUser(id domain.UserId) error
	UserByUsername(username string, clientId int64) (domain.User, error)
	UserByEmail(email string, clientId int64) (domain.User, error)
	UserByFilters(filters domain.UserFilters) (domain.User, error)
	UsersByFilters(filters domain.UserFilters) ([]domain.User, error)
}

// Notifier is the outbound email sink. Dispatch is synchronous and
// fire-and-forget from the account lifecycle's point of view.
type Notifier interface {
	SendWelcome(email, username, token string) error
	SendPasswordReset(email, username, token string) error
}

// Tokens is the slice of the token service the user service needs.
type Tokens interface {
	CreateSessionJwt(user domain.User, ttl time.Duration) (string, error)
	CreateToken(tokenType string, user domain.User, ttl time.Duration) (string, error)
	VerifyToken(fullToken, tokenType string) (*domain.User, error)
}

// User orchestrates the account lifecycle: login, registration, activation
// and the password reset flow.
type User struct {
	storage    UserStorage
	tokens     Tokens
	notifier   Notifier
	sessionTTL time.Duration
	tokenTTL   time.Duration
	bcryptCost int
}

func NewUser(storage UserStorage, tokens Tokens, notifier Notifier, sessionTTL, tokenTTL time.Duration, bcryptCost int) *User {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &User{
		storage:    storage,
		tokens:     tokens,
		notifier:   notifier,
		sessionTTL: sessionTTL,
		tokenTTL:   tokenTTL,
		bcryptCost: bcryptCost,
	}
}

// AccessControl rejects accounts that must not authenticate: anything not
// active, and accounts with a pending forced password reset. Shared by login
// and the authentication middleware so both enforce the same policy.
func AccessControl(user *domain.User) error {
	if user.Status != domain.StatusActive {
		return internal_errors.NewAuth("AUTHENTICATION_FAILED", "NOT_ACTIVE")
	}
	if user.ResetPassword {
		return internal_errors.NewAuth("AUTHENTICATION_FAILED", "RESET_PASSWORD")
	}
	return nil
}

// Login verifies credentials within the tenant and issues a session JWT.
// Unknown username and wrong password both surface as BAD_CREDENTIALS; the
// detail distinguishes them internally so the lockout middleware counts only
// password failures, not username probes.
func (s *User) Login(client domain.Client, username, password string) (string, *domain.User, error) {
	user, err := s.storage.UserByUsername(username, client.Id)
	if err != nil {
		if internal_errors.IsNotFound(err) {
			return "", nil, internal_errors.NewAuth("BAD_CREDENTIALS", DetailUnknownUser)
		}
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", nil, internal_errors.NewAuth("BAD_CREDENTIALS", DetailBadPassword)
	}

	if err := AccessControl(&user); err != nil {
		return "", nil, err
	}

	token, err := s.tokens.CreateSessionJwt(user, s.sessionTTL)
	if err != nil {
		return "", nil, err
	}
	return token, &user, nil
}

// Create registers a new pending account and kicks off activation: a
// single-use activate-account token is minted and mailed. Mail failures do
// not roll the account back; a queue would decouple this in production.
func (s *User) Create(client domain.Client, username, email, password string) (*domain.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		logger.Log.Error("failed to hash password", "error", err)
		return nil, err
	}

	user, err := s.storage.SaveUser(domain.User{
		ClientId: client.Id,
		Username: username,
		Email:    email,
		Role:     domain.RoleUser,
		Password: string(hash),
		Status:   domain.StatusPending,
	})
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.CreateToken(domain.TokenTypeActivateAccount, user, s.tokenTTL)
	if err != nil {
		return nil, err
	}
	if err := s.notifier.SendWelcome(user.Email, user.Username, token); err != nil {
		logger.Log.Error("failed to send welcome email", "user_id", user.Id, "error", err)
	}
	return &user, nil
}

// PatchProperty is the closed set of mutable user properties.
const (
	PatchPassword = "password"
	PatchEmail    = "email"
)

// Internal details behind the conflated BAD_CREDENTIALS login failure.
const (
	DetailUnknownUser = "UNKNOWN_USER"
	DetailBadPassword = "BAD_PASSWORD"
)

// Patch mutates a single property. Anything outside the closed set fails
// with a validation error rather than being silently ignored.
func (s *User) Patch(user domain.User, property, value string) (*domain.User, error) {
	switch property {
	case PatchPassword:
		hash, err := bcrypt.GenerateFromPassword([]byte(value), s.bcryptCost)
		if err != nil {
			logger.Log.Error("failed to hash password", "user_id", user.Id, "error", err)
			return nil, err
		}
		user.CompletePasswordReset(string(hash))
	case PatchEmail:
		user.Email = value
	default:
		return nil, internal_errors.NewValidation([]internal_errors.FieldError{
			{Field: "property", Message: "must be one of: password, email"},
		})
	}

	if err := s.storage.UpdateUser(user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *User) Delete(user domain.User) (*domain.User, error) {
	if err := s.storage.DeleteUser(user.Id); err != nil {
		return nil, err
	}
	return &user, nil
}

// ForgotPassword starts the reset flow for active accounts. It never reports
// whether the email existed or whether dispatch happened; the uniform outcome
// is the anti-enumeration contract the controller must preserve.
func (s *User) ForgotPassword(client domain.Client, email string) {
	user, err := s.storage.UserByEmail(email, client.Id)
	if err != nil {
		if !internal_errors.IsNotFound(err) {
			logger.Log.Error("forgot password lookup failed", "error", err)
		}
		return
	}
	if user.Status != domain.StatusActive {
		return
	}

	token, err := s.tokens.CreateToken(domain.TokenTypeForgotPassword, user, s.tokenTTL)
	if err != nil {
		logger.Log.Error("failed to create reset token", "user_id", user.Id, "error", err)
		return
	}
	if err := s.notifier.SendPasswordReset(user.Email, user.Username, token); err != nil {
		logger.Log.Error("failed to send reset email", "user_id", user.Id, "error", err)
	}
}

// ResendActivation mirrors ForgotPassword for accounts still pending
// activation.
func (s *User) ResendActivation(client domain.Client, email string) {
	user, err := s.storage.UserByEmail(email, client.Id)
	if err != nil {
		if !internal_errors.IsNotFound(err) {
			logger.Log.Error("resend activation lookup failed", "error", err)
		}
		return
	}
	if user.Status != domain.StatusPending {
		return
	}

	token, err := s.tokens.CreateToken(domain.TokenTypeActivateAccount, user, s.tokenTTL)
	if err != nil {
		logger.Log.Error("failed to create activation token", "user_id", user.Id, "error", err)
		return
	}
	if err := s.notifier.SendWelcome(user.Email, user.Username, token); err != nil {
		logger.Log.Error("failed to send activation email", "user_id", user.Id, "error", err)
	}
}

// ResetPassword redeems a forgot-password token and installs the new
// password, clearing any pending reset flag.
func (s *User) ResetPassword(fullToken, newPassword string) error {
	user, err := s.tokens.VerifyToken(fullToken, domain.TokenTypeForgotPassword)
	if err != nil {
		return err
	}
	_, err = s.Patch(*user, PatchPassword, newPassword)
	return err
}

// ActivateAccount redeems an activate-account token and transitions the user
// pending -> active. Already-active users are a no-op.
func (s *User) ActivateAccount(fullToken string) error {
	user, err := s.tokens.VerifyToken(fullToken, domain.TokenTypeActivateAccount)
	if err != nil {
		return err
	}
	user.Activate()
	return s.storage.UpdateUser(*user)
}

// List returns users matching the filters. Forced filters must already be
// merged in by the authorization stage.
func (s *User) List(filters domain.UserFilters) ([]domain.User, error) {
	return s.storage.UsersByFilters(filters)
}
