package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/authgate-dev/authgate/internal/dto"
	internal_errors "github.com/authgate-dev/authgate/internal/errors"
	"github.com/authgate-dev/authgate/internal/reqctx"
	"github.com/authgate-dev/authgate/internal/response"
	"github.com/authgate-dev/authgate/internal/validate"
	"github.com/go-playground/validator/v10"
)

// ValidateBody decodes the JSON body into T, runs declarative validation and
// stores the DTO on the request context. Handlers behind this stage read the
// body with reqctx.Body.
func ValidateBody[T any](v *validator.Validate, writer *response.Writer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body := new(T)
			if err := json.NewDecoder(r.Body).Decode(body); err != nil {
				writer.Error(w, r, internal_errors.NewValidation([]internal_errors.FieldError{
					{Field: "body", Message: "must be valid JSON"},
				}))
				return
			}

			if err := validate.Struct(v, body); err != nil {
				writer.Error(w, r, err)
				return
			}

			reqctx.From(r).Body = body
			next.ServeHTTP(w, r)
		})
	}
}

// ValidateUserQuery maps listing query parameters onto the filter DTO and
// validates it.
func ValidateUserQuery(v *validator.Validate, writer *response.Writer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			query, err := dto.UserQueryFromRequest(r)
			if err != nil {
				writer.Error(w, r, err)
				return
			}

			if err := validate.Struct(v, query); err != nil {
				writer.Error(w, r, err)
				return
			}

			reqctx.From(r).Body = query
			next.ServeHTTP(w, r)
		})
	}
}
