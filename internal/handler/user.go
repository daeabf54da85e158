package handler

import (
	"net/http"

	"github.com/authgate-dev/authgate/internal/dto"
	"github.com/authgate-dev/authgate/internal/reqctx"
)

// Index lists users. Query filters are merged under the forced filters set by
// the authorization stage, so a user actor can never widen visibility past
// their own role.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	client, err := reqctx.Client(r)
	if err != nil {
		h.writer.Error(w, r, err)
		return
	}
	query, err := reqctx.Body[dto.UserQuery](r)
	if err != nil {
		h.writer.Error(w, r, err)
		return
	}

	rc := reqctx.From(r)
	filters := query.ToFilters()
	filters.ClientId = client.Id
	if rc.ForcedFilters.Role != "" {
		filters.Role = rc.ForcedFilters.Role
	}

	users, err := h.users.List(filters)
	if err != nil {
		h.writer.Error(w, r, err)
		return
	}
	h.writer.Success(w, users)
}

// Get returns the target resolved by the authorization stage.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	target, err := reqctx.TargetUser(r)
	if err != nil {
		h.writer.Error(w, r, err)
		return
	}
	h.writer.Success(w, target)
}

// Create registers an account on behalf of an admin. Same flow as guest
// registration, including the activation email.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	client, err := reqctx.Client(r)
	if err != nil {
		h.writer.Error(w, r, err)
		return
	}
	body, err := reqctx.Body[dto.UserCreate](r)
	if err != nil {
		h.writer.Error(w, r, err)
		return
	}

	user, err := h.users.Create(*client, body.Username, body.Email, body.Password)
	if err != nil {
		h.writer.Error(w, r, err)
		return
	}
	h.writer.Success(w, user)
}

// Patch mutates one property of the target user.
func (h *Handler) Patch(w http.ResponseWriter, r *http.Request) {
	target, err := reqctx.TargetUser(r)
	if err != nil {
		h.writer.Error(w, r, err)
		return
	}
	body, err := reqctx.Body[dto.UserPatch](r)
	if err != nil {
		h.writer.Error(w, r, err)
		return
	}

	user, err := h.users.Patch(*target, body.Property, body.Value)
	if err != nil {
		h.writer.Error(w, r, err)
		return
	}
	h.writer.Success(w, user)
}

// Delete removes the target user and echoes its last state.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	target, err := reqctx.TargetUser(r)
	if err != nil {
		h.writer.Error(w, r, err)
		return
	}

	user, err := h.users.Delete(*target)
	if err != nil {
		h.writer.Error(w, r, err)
		return
	}
	h.writer.Success(w, user)
}
