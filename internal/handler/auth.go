package handler

import (
	"net/http"

	"github.com/authgate-dev/authgate/internal/dto"
	internal_errors "github.com/authgate-dev/authgate/internal/errors"
	"github.com/authgate-dev/authgate/internal/reqctx"
)

// Login exchanges credentials for a session JWT. Failed attempts are recorded
// on the request context so the lockout stage can see which ones were
// password failures.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	client, err := reqctx.Client(r)
	if err != nil {
		h.writer.Error(w, r, err)
		return
	}
	body, err := reqctx.Body[dto.Login](r)
	if err != nil {
		h.writer.Error(w, r, err)
		return
	}

	token, user, err := h.users.Login(*client, body.Username, body.Password)
	if err != nil {
		if e, ok := internal_errors.As(err); ok {
			reqctx.From(r).LoginError = e
		}
		h.writer.Error(w, r, err)
		return
	}

	h.writer.Success(w, map[string]interface{}{
		"token": token,
		"user":  user,
	})
}

// Register creates a pending account and mails its activation link.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
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

// ForgotPassword always reports success so the route cannot be used to test
// which emails have accounts.
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	client, err := reqctx.Client(r)
	if err != nil {
		h.writer.Error(w, r, err)
		return
	}
	body, err := reqctx.Body[dto.ForgotPassword](r)
	if err != nil {
		h.writer.Error(w, r, err)
		return
	}

	h.users.ForgotPassword(*client, body.Email)
	h.writer.Success(w, nil)
}

// ResendActivation mirrors ForgotPassword for accounts still pending.
func (h *Handler) ResendActivation(w http.ResponseWriter, r *http.Request) {
	client, err := reqctx.Client(r)
	if err != nil {
		h.writer.Error(w, r, err)
		return
	}
	body, err := reqctx.Body[dto.ResendActivation](r)
	if err != nil {
		h.writer.Error(w, r, err)
		return
	}

	h.users.ResendActivation(*client, body.Email)
	h.writer.Success(w, nil)
}

// ResetPassword redeems a forgot-password token and sets the new password.
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	body, err := reqctx.Body[dto.ResetPassword](r)
	if err != nil {
		h.writer.Error(w, r, err)
		return
	}

	if err := h.users.ResetPassword(body.Token, body.Password); err != nil {
		h.writer.Error(w, r, err)
		return
	}
	h.writer.Success(w, nil)
}

// ActivateAccount redeems an activate-account token.
func (h *Handler) ActivateAccount(w http.ResponseWriter, r *http.Request) {
	body, err := reqctx.Body[dto.ActivateAccount](r)
	if err != nil {
		h.writer.Error(w, r, err)
		return
	}

	if err := h.users.ActivateAccount(body.Token); err != nil {
		h.writer.Error(w, r, err)
		return
	}
	h.writer.Success(w, nil)
}
