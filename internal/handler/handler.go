// Package handler implements the HTTP endpoints. Handlers run behind the
// pipeline stages, so by the time one executes the tenant is resolved, the
// body is validated and authorization has already been decided.
package handler

import (
	"github.com/authgate-dev/authgate/internal/domain"
	"github.com/authgate-dev/authgate/internal/response"
)

// UserService is the slice of the account lifecycle the handlers call.
type UserService interface {
	Login(client domain.Client, username, password string) (string, *domain.User, error)
	Create(client domain.Client, username, email, password string) (*domain.User, error)
	Patch(user domain.User, property, value string) (*domain.User, error)
	Delete(user domain.User) (*domain.User, error)
	ForgotPassword(client domain.Client, email string)
	ResendActivation(client domain.Client, email string)
	ResetPassword(fullToken, newPassword string) error
	ActivateAccount(fullToken string) error
	List(filters domain.UserFilters) ([]domain.User, error)
}

type Handler struct {
	users  UserService
	writer *response.Writer
}

func New(users UserService, writer *response.Writer) *Handler {
	return &Handler{users: users, writer: writer}
}
