package domain

import "time"

type UserId = int64

// Role hierarchy, most privileged first: admin > moderator > user.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleModerator Role = "moderator"
	RoleUser      Role = "user"
)

type Status string

const (
	StatusPending Status = "pending"
	StatusActive  Status = "active"
	StatusBlocked Status = "blocked"
)

// User account. Password always holds a bcrypt hash, never plaintext,
// and is never serialized.
type User struct {
	Id            UserId    `json:"id"`
	ClientId      int64     `json:"client_id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	Role          Role      `json:"role"`
	Password      string    `json:"-"`
	Status        Status    `json:"status"`
	ResetPassword bool      `json:"reset_password"`
	Created       time.Time `json:"created"`
}

// Activate transitions pending -> active. No-op for any other status.
func (u *User) Activate() {
	if u.Status == StatusPending {
		u.Status = StatusActive
	}
}

func (u *User) Block() {
	if u.Status != StatusBlocked {
		u.Status = StatusBlocked
	}
}

func (u *User) Unblock() {
	if u.Status == StatusBlocked {
		u.Status = StatusActive
	}
}

// RequirePasswordReset blocks authenticated access until the reset flow
// completes.
func (u *User) RequirePasswordReset() {
	u.ResetPassword = true
}

// CompletePasswordReset installs a new password hash and clears the flag.
func (u *User) CompletePasswordReset(passwordHash string) {
	u.Password = passwordHash
	u.ResetPassword = false
}
