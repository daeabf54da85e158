package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/authgate-dev/authgate/internal/dto"
	"github.com/authgate-dev/authgate/internal/reqctx"
	"github.com/authgate-dev/authgate/internal/response"
	"github.com/authgate-dev/authgate/internal/validate"
)

func runValidateBody[T any](t *testing.T, body string) (*httptest.ResponseRecorder, *T) {
	t.Helper()
	writer := &response.Writer{}
	var got *T
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = reqctx.Body[T](r)
		writer.Success(w, nil)
	})
	chain := Client(&MockClientStorage{}, writer)(
		ValidateBody[T](validate.New(), writer)(next))

	req := httptest.NewRequest("POST", "/guest/register", strings.NewReader(body))
	rec := httptest.NewRecorder()
	chain.ServeHTTP(rec, req)
	return rec, got
}

func TestValidateBody(t *testing.T) {
	t.Run("valid body reaches the handler", func(t *testing.T) {
		rec, got := runValidateBody[dto.UserCreate](t, `{"username": "alice_1", "email": "a@example.com", "password": "secret"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, got)
		assert.Equal(t, "alice_1", got.Username)
	})

	t.Run("missing fields report per field errors", func(t *testing.T) {
		rec, _ := runValidateBody[dto.UserCreate](t, `{"username": "alice"}`)
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

		env := decodeEnvelope(t, rec)
		assert.Equal(t, "VALIDATION_FAILED", env.Error.Code)
		names := make([]string, 0, len(env.Error.Fields))
		for _, f := range env.Error.Fields {
			names = append(names, f.Field)
		}
		assert.ElementsMatch(t, []string{"email", "password"}, names)
	})

	t.Run("username charset", func(t *testing.T) {
		rec, _ := runValidateBody[dto.UserCreate](t, `{"username": "bad name!", "email": "a@example.com", "password": "secret"}`)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("malformed JSON", func(t *testing.T) {
		rec, _ := runValidateBody[dto.UserCreate](t, `{"username":`)
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, "VALIDATION_FAILED", decodeEnvelope(t, rec).Error.Code)
	})

	t.Run("patch property closed set", func(t *testing.T) {
		rec, _ := runValidateBody[dto.UserPatch](t, `{"property": "role", "value": "admin"}`)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})
}

func TestValidateUserQuery(t *testing.T) {
	run := func(t *testing.T, query string) (*httptest.ResponseRecorder, *dto.UserQuery) {
		t.Helper()
		writer := &response.Writer{}
		var got *dto.UserQuery
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, _ = reqctx.Body[dto.UserQuery](r)
			writer.Success(w, nil)
		})
		chain := Client(&MockClientStorage{}, writer)(
			ValidateUserQuery(validate.New(), writer)(next))

		req := httptest.NewRequest("GET", "/users"+query, nil)
		rec := httptest.NewRecorder()
		chain.ServeHTTP(rec, req)
		return rec, got
	}

	t.Run("parses filters", func(t *testing.T) {
		rec, got := run(t, "?role=user&limit=10&offset=20&order_by=created&order=DESC")
		require.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, got)
		assert.Equal(t, "user", got.Role)
		assert.Equal(t, 10, got.Limit)
		assert.Equal(t, 20, got.Offset)
		assert.Equal(t, "created", got.OrderBy)
		assert.Equal(t, "DESC", got.Order)
	})

	t.Run("non numeric id", func(t *testing.T) {
		rec, _ := run(t, "?id=abc")
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("unknown order column", func(t *testing.T) {
		rec, _ := run(t, "?order_by=password_hash")
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("empty query is fine", func(t *testing.T) {
		rec, _ := run(t, "")
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
