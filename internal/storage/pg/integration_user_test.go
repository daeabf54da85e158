package pg

import (
	"fmt"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/authgate-dev/authgate/internal/domain"
	internal_errors "github.com/authgate-dev/authgate/internal/errors"
)

var userSeq atomic.Int64

// createTestUser inserts a user under the default client with a unique
// username and email.
func createTestUser(t *testing.T, role domain.Role) domain.User {
	t.Helper()
	client, err := storage.EnsureDefault()
	require.NoError(t, err)

	n := userSeq.Add(1)
	user, err := storage.SaveUser(domain.User{
		ClientId: client.Id,
		Username: fmt.Sprintf("user%d", n),
		Email:    fmt.Sprintf("user%d@example.com", n),
		Role:     role,
		Password: "$2a$04$fakehashfakehashfakehashfakehash",
		Status:   domain.StatusActive,
	})
	require.NoError(t, err)
	return user
}

func TestEnsureDefault(t *testing.T) {
	first, err := storage.EnsureDefault()
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultClientDomain, first.Domain)
	assert.NotZero(t, first.Id)

	second, err := storage.EnsureDefault()
	require.NoError(t, err)
	assert.Equal(t, first.Id, second.Id)
}

func TestSaveUser(t *testing.T) {
	t.Run("returns generated fields", func(t *testing.T) {
		user := createTestUser(t, domain.RoleUser)
		assert.NotZero(t, user.Id)
		assert.False(t, user.Created.IsZero())
	})

	t.Run("duplicate username in same client", func(t *testing.T) {
		user := createTestUser(t, domain.RoleUser)
		_, err := storage.SaveUser(domain.User{
			ClientId: user.ClientId,
			Username: user.Username,
			Email:    "unique-" + user.Email,
			Role:     domain.RoleUser,
			Password: user.Password,
			Status:   domain.StatusPending,
		})
		e, ok := internal_errors.As(err)
		require.True(t, ok)
		assert.Equal(t, "UNIQUE_CONSTRAINT", e.Code)
		assert.Equal(t, http.StatusConflict, e.StatusCode)
	})

	t.Run("duplicate email in same client", func(t *testing.T) {
		user := createTestUser(t, domain.RoleUser)
		_, err := storage.SaveUser(domain.User{
			ClientId: user.ClientId,
			Username: "unique-" + user.Username,
			Email:    user.Email,
			Role:     domain.RoleUser,
			Password: user.Password,
			Status:   domain.StatusPending,
		})
		e, ok := internal_errors.As(err)
		require.True(t, ok)
		assert.Equal(t, "UNIQUE_CONSTRAINT", e.Code)
	})
}

func TestUserLookups(t *testing.T) {
	user := createTestUser(t, domain.RoleUser)

	t.Run("by id", func(t *testing.T) {
		got, err := storage.UserById(user.Id)
		require.NoError(t, err)
		assert.Equal(t, user.Username, got.Username)
	})

	t.Run("by username scoped to client", func(t *testing.T) {
		got, err := storage.UserByUsername(user.Username, user.ClientId)
		require.NoError(t, err)
		assert.Equal(t, user.Id, got.Id)

		_, err = storage.UserByUsername(user.Username, user.ClientId+1)
		assert.True(t, internal_errors.IsNotFound(err))
	})

	t.Run("by email", func(t *testing.T) {
		got, err := storage.UserByEmail(user.Email, user.ClientId)
		require.NoError(t, err)
		assert.Equal(t, user.Id, got.Id)
	})

	t.Run("by filters with role constraint", func(t *testing.T) {
		got, err := storage.UserByFilters(domain.UserFilters{Id: user.Id, Role: domain.RoleUser})
		require.NoError(t, err)
		assert.Equal(t, user.Id, got.Id)

		// Same id but wrong role reads as absent.
		_, err = storage.UserByFilters(domain.UserFilters{Id: user.Id, Role: domain.RoleAdmin})
		assert.True(t, internal_errors.IsNotFound(err))
	})
}

func TestUpdateUser(t *testing.T) {
	t.Run("persists mutations", func(t *testing.T) {
		user := createTestUser(t, domain.RoleUser)
		user.Email = "changed-" + user.Email
		user.ResetPassword = true
		require.NoError(t, storage.UpdateUser(user))

		got, err := storage.UserById(user.Id)
		require.NoError(t, err)
		assert.Equal(t, user.Email, got.Email)
		assert.True(t, got.ResetPassword)
	})

	t.Run("unknown id", func(t *testing.T) {
		err := storage.UpdateUser(domain.User{Id: 999999, Email: "x@example.com"})
		assert.True(t, internal_errors.IsNotFound(err))
	})
}

func TestDeleteUser(t *testing.T) {
	user := createTestUser(t, domain.RoleUser)
	require.NoError(t, storage.DeleteUser(user.Id))

	_, err := storage.UserById(user.Id)
	assert.True(t, internal_errors.IsNotFound(err))

	assert.True(t, internal_errors.IsNotFound(storage.DeleteUser(user.Id)))
}

func TestUsersByFilters(t *testing.T) {
	admin := createTestUser(t, domain.RoleAdmin)
	createTestUser(t, domain.RoleUser)

	t.Run("role filter", func(t *testing.T) {
		users, err := storage.UsersByFilters(domain.UserFilters{Role: domain.RoleAdmin, ClientId: admin.ClientId})
		require.NoError(t, err)
		require.NotEmpty(t, users)
		for _, u := range users {
			assert.Equal(t, domain.RoleAdmin, u.Role)
		}
	})

	t.Run("limit and order", func(t *testing.T) {
		users, err := storage.UsersByFilters(domain.UserFilters{
			ClientId: admin.ClientId,
			OrderBy:  "id",
			Order:    "DESC",
			Limit:    2,
		})
		require.NoError(t, err)
		require.Len(t, users, 2)
		assert.Greater(t, users[0].Id, users[1].Id)
	})

	t.Run("unknown order column falls back to id", func(t *testing.T) {
		_, err := storage.UsersByFilters(domain.UserFilters{
			ClientId: admin.ClientId,
			OrderBy:  "password_hash; DROP TABLE users",
		})
		assert.NoError(t, err)
	})

	t.Run("password hash never leaves the row unread", func(t *testing.T) {
		users, err := storage.UsersByFilters(domain.UserFilters{Id: admin.Id})
		require.NoError(t, err)
		require.Len(t, users, 1)
		assert.NotEmpty(t, users[0].Password) // storage returns it; serialization strips it
	})
}
