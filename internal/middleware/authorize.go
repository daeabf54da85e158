package middleware

import (
	"net/http"
	"strconv"

	internal_errors "github.com/authgate-dev/authgate/internal/errors"
	"github.com/authgate-dev/authgate/internal/permission"
	"github.com/authgate-dev/authgate/internal/reqctx"
	"github.com/authgate-dev/authgate/internal/response"
	"github.com/gorilla/mux"
)

// Authorize decides whether the active user may perform action, resolving the
// {id} route target when present. The target lookup always runs under the
// actor's forced filters, so records outside the actor's visibility read as
// absent rather than forbidden.
func Authorize(action permission.Action, users UserResolver, writer *response.Writer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			client, err := reqctx.Client(r)
			if err != nil {
				writer.Error(w, r, err)
				return
			}
			actor, err := reqctx.ActiveUser(r)
			if err != nil {
				writer.Error(w, r, err)
				return
			}

			rc := reqctx.From(r)
			rc.ForcedFilters = permission.ForcedFilters(actor)

			if rawId, hasTarget := mux.Vars(r)["id"]; hasTarget {
				id, err := strconv.ParseInt(rawId, 10, 64)
				if err != nil || id <= 0 {
					writer.Error(w, r, internal_errors.NewNotFound("NOT_FOUND", "target id is not a positive integer"))
					return
				}

				filters := rc.ForcedFilters
				filters.Id = id
				filters.ClientId = client.Id
				target, err := users.UserByFilters(filters)
				if err != nil {
					writer.Error(w, r, err)
					return
				}

				if !permission.CanManage(actor, &target) {
					writer.Error(w, r, internal_errors.NewAuthorization("WRONG_USER", "actor role cannot manage target role"))
					return
				}
				if !permission.Can(action, actor, &target) {
					writer.Error(w, r, internal_errors.NewAuthorization("WRONG_METHOD", "action not allowed for actor"))
					return
				}
				rc.TargetUser = &target
			} else {
				if !permission.Can(action, actor, nil) {
					writer.Error(w, r, internal_errors.NewAuthorization("WRONG_METHOD", "action not allowed for actor"))
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}
