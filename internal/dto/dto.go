// Package dto holds the typed request objects the validation stage maps
// incoming bodies and query parameters onto.
package dto

import (
	"net/http"
	"strconv"

	"github.com/authgate-dev/authgate/internal/domain"
	internal_errors "github.com/authgate-dev/authgate/internal/errors"
)

type Login struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type UserCreate struct {
	Username string `json:"username" validate:"required,min=3,max=50,username"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=4,max=128"`
}

type UserPatch struct {
	Property string `json:"property" validate:"required,oneof=password email"`
	Value    string `json:"value" validate:"required"`
}

type ForgotPassword struct {
	Email string `json:"email" validate:"required,email,max=255"`
}

type ResetPassword struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=4,max=128"`
}

type ActivateAccount struct {
	Token string `json:"token" validate:"required"`
}

type ResendActivation struct {
	Email string `json:"email" validate:"required,email,max=255"`
}

// UserQuery is the listing filter DTO, mapped from query parameters.
type UserQuery struct {
	Id       int64  `json:"id" validate:"omitempty,gt=0"`
	Role     string `json:"role" validate:"omitempty,oneof=admin moderator user"`
	ClientId int64  `json:"client_id" validate:"omitempty,gt=0"`
	Limit    int    `json:"limit" validate:"omitempty,gte=0"`
	Offset   int    `json:"offset" validate:"omitempty,gte=0"`
	OrderBy  string `json:"order_by" validate:"omitempty,oneof=id username email role created"`
	Order    string `json:"order" validate:"omitempty,oneof=ASC DESC"`
}

// UserQueryFromRequest maps query parameters onto the DTO by name.
// Non-numeric values for numeric fields surface as field errors before
// declarative validation even runs.
func UserQueryFromRequest(r *http.Request) (*UserQuery, error) {
	q := r.URL.Query()
	query := &UserQuery{
		Role:    q.Get("role"),
		OrderBy: q.Get("order_by"),
		Order:   q.Get("order"),
	}

	var fields []internal_errors.FieldError
	parseInt64 := func(name string, target *int64) {
		raw := q.Get(name)
		if raw == "" {
			return
		}
		val, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			fields = append(fields, internal_errors.FieldError{Field: name, Message: "must be an integer"})
			return
		}
		*target = val
	}
	parseInt := func(name string, target *int) {
		raw := q.Get(name)
		if raw == "" {
			return
		}
		val, err := strconv.Atoi(raw)
		if err != nil {
			fields = append(fields, internal_errors.FieldError{Field: name, Message: "must be an integer"})
			return
		}
		*target = val
	}

	parseInt64("id", &query.Id)
	parseInt64("client_id", &query.ClientId)
	parseInt("limit", &query.Limit)
	parseInt("offset", &query.Offset)

	if len(fields) > 0 {
		return nil, internal_errors.NewValidation(fields)
	}
	return query, nil
}

// ToFilters converts the DTO into storage filters. Forced filters are merged
// on top by the caller.
func (q *UserQuery) ToFilters() domain.UserFilters {
	return domain.UserFilters{
		Id:       q.Id,
		Role:     domain.Role(q.Role),
		ClientId: q.ClientId,
		Limit:    q.Limit,
		Offset:   q.Offset,
		OrderBy:  q.OrderBy,
		Order:    q.Order,
	}
}
