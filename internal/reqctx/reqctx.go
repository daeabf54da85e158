// Package reqctx carries request-scoped state between pipeline stages through
// a single typed struct instead of loose string-keyed attributes. The client
// middleware attaches it; later stages fill fields in order.
package reqctx

import (
	"context"
	"net/http"

	"github.com/authgate-dev/authgate/internal/domain"
	"github.com/authgate-dev/authgate/internal/errors"
)

type key int

const ctxKey key = 0

type Context struct {
	Client        *domain.Client
	ActiveUser    *domain.User
	TargetUser    *domain.User
	ForcedFilters domain.UserFilters
	Body          interface{} // validated DTO, set by the validation stage

	// LoginError records a failed login so the lockout stage can count
	// bad-password attempts without parsing the response body.
	LoginError *errors.Error
}

// Attach stores a fresh Context on the request. Called once, by the first
// pipeline stage.
func Attach(r *http.Request) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), ctxKey, &Context{}))
}

// From returns the request's Context, or nil if no pipeline stage ran.
func From(r *http.Request) *Context {
	rc, _ := r.Context().Value(ctxKey).(*Context)
	return rc
}

func Client(r *http.Request) (*domain.Client, error) {
	rc := From(r)
	if rc == nil || rc.Client == nil {
		return nil, errors.NewNotFound("NOT_FOUND", "request context client not set")
	}
	return rc.Client, nil
}

func ActiveUser(r *http.Request) (*domain.User, error) {
	rc := From(r)
	if rc == nil || rc.ActiveUser == nil {
		return nil, errors.NewAuth("AUTHENTICATION_FAILED", "request context active user not set")
	}
	return rc.ActiveUser, nil
}

func TargetUser(r *http.Request) (*domain.User, error) {
	rc := From(r)
	if rc == nil || rc.TargetUser == nil {
		return nil, errors.NewNotFound("NOT_FOUND", "request context target user not set")
	}
	return rc.TargetUser, nil
}

// Body returns the validated DTO stored by the validation stage.
func Body[T any](r *http.Request) (*T, error) {
	rc := From(r)
	if rc != nil {
		if dto, ok := rc.Body.(*T); ok {
			return dto, nil
		}
	}
	return nil, errors.NewBusiness("BAD_REQUEST", "request context body not set")
}
