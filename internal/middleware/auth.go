package middleware

import (
	"net/http"
	"strings"

	"github.com/authgate-dev/authgate/internal/domain"
	internal_errors "github.com/authgate-dev/authgate/internal/errors"
	"github.com/authgate-dev/authgate/internal/logger"
	"github.com/authgate-dev/authgate/internal/reqctx"
	"github.com/authgate-dev/authgate/internal/response"
	"github.com/authgate-dev/authgate/internal/service"
)

// SessionDecoder validates a session JWT and returns its claims.
type SessionDecoder interface {
	DecodeSessionJwt(tokenStr string) (*service.SessionClaims, error)
}

// UserResolver loads the account a session belongs to, scoped to the tenant.
type UserResolver interface {
	UserByFilters(filters domain.UserFilters) (domain.User, error)
}

func authFailed(detail string) *internal_errors.Error {
	return internal_errors.NewAuth("AUTHENTICATION_FAILED", detail)
}

// Auth authenticates the request from its Bearer session token and stores the
// resolved account as the active user. Every failure collapses into the same
// outer error so callers cannot probe token state or account existence.
func Auth(decoder SessionDecoder, users UserResolver, writer *response.Writer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			client, err := reqctx.Client(r)
			if err != nil {
				writer.Error(w, r, err)
				return
			}

			header := r.Header.Get("Authorization")
			if header == "" {
				writer.Error(w, r, authFailed("missing Authorization header"))
				return
			}
			tokenStr, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || tokenStr == "" {
				writer.Error(w, r, authFailed("Authorization header is not a Bearer token"))
				return
			}

			claims, err := decoder.DecodeSessionJwt(tokenStr)
			if err != nil {
				writer.Error(w, r, conflate(err))
				return
			}

			if claims.ClientId != client.Id {
				writer.Error(w, r, authFailed("session issued for another client"))
				return
			}

			user, err := users.UserByFilters(domain.UserFilters{Id: int64(claims.Sub), ClientId: client.Id})
			if err != nil {
				logger.Log.Debug("session subject not found", "user_id", claims.Sub, "client_id", client.Id)
				writer.Error(w, r, authFailed("session subject not found"))
				return
			}

			if err := service.AccessControl(&user); err != nil {
				writer.Error(w, r, err)
				return
			}

			reqctx.From(r).ActiveUser = &user
			next.ServeHTTP(w, r)
		})
	}
}

// conflate rewraps any decode failure as the uniform authentication error
// while keeping the inner detail for internal logs.
func conflate(err error) *internal_errors.Error {
	if e, ok := internal_errors.As(err); ok {
		detail := e.Code
		if e.Detail != "" {
			detail = e.Code + ": " + e.Detail
		}
		return authFailed(detail)
	}
	return authFailed(err.Error())
}
