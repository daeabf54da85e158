package domain

import "time"

// Token purposes. Session tokens are stateless JWTs and are never persisted;
// any other type is a single-use opaque token stored by id.
const (
	TokenTypeSession         = "session"
	TokenTypeActivateAccount = "activate-account"
	TokenTypeForgotPassword  = "forgot-password"
)

// Token is a persisted one-time token. The externally visible string is
// "id.secret"; only the bcrypt hash of the secret is stored.
type Token struct {
	Id        string    `json:"id"` // 32 hex chars, lookup key, not the secret
	UserId    UserId    `json:"user_id"`
	Type      string    `json:"type"`
	TokenHash string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
	Used      bool      `json:"used"`
	Created   time.Time `json:"created"`
}

func (t *Token) IsExpired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// UserFilters narrows user listings and lookups. Zero values mean "no
// constraint". Forced filters injected by the permission engine are merged
// into the caller-supplied set before it reaches storage.
type UserFilters struct {
	Id       UserId
	Role     Role
	ClientId int64
	Limit    int
	Offset   int
	OrderBy  string
	Order    string
}
