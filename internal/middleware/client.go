// Package middleware contains the request pipeline stages wired in front of
// the handlers: tenant resolution, authentication, authorization, validation,
// rate limiting and account lockout.
package middleware

import (
	"net/http"

	"github.com/authgate-dev/authgate/internal/domain"
	"github.com/authgate-dev/authgate/internal/reqctx"
	"github.com/authgate-dev/authgate/internal/response"
)

// ClientStorage resolves the tenant every request runs under.
type ClientStorage interface {
	EnsureDefault() (domain.Client, error)
}

// Client attaches the request context and resolves the tenant into it.
// Every protected and guest route runs behind this stage.
func Client(storage ClientStorage, writer *response.Writer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r = reqctx.Attach(r)

			client, err := storage.EnsureDefault()
			if err != nil {
				writer.Error(w, r, err)
				return
			}

			reqctx.From(r).Client = &client

			next.ServeHTTP(w, r)
		})
	}
}
