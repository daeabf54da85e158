package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/authgate-dev/authgate/internal/domain"
	internal_errors "github.com/authgate-dev/authgate/internal/errors"
)

const uniqueViolation = "23505"

const userColumns = "id, client_id, username, email, role, password_hash, status, reset_password, created"

// orderableColumns whitelists order_by targets; anything else falls back to
// id so caller input never reaches the SQL text.
var orderableColumns = map[string]string{
	"id":       "id",
	"username": "username",
	"email":    "email",
	"role":     "role",
	"created":  "created",
}

// =========================================================================
// Public methods (satisfy service.UserStorage and service.TokenStorage's
// user lookup)
// =========================================================================

func (s *Storage) SaveUser(user domain.User) (domain.User, error) {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	var saved domain.User
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		saved, err = s.saveUser(tx, user)
		return err
	})
	return saved, err
}

func (s *Storage) UpdateUser(user domain.User) error {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		return s.updateUser(tx, user)
	})
}

func (s *Storage) DeleteUser(id domain.UserId) error {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		return s.deleteUser(tx, id)
	})
}

func (s *Storage) UserById(id domain.UserId) (domain.User, error) {
	return s.oneUser(s.db, "id = $1", id)
}

func (s *Storage) UserByUsername(username string, clientId int64) (domain.User, error) {
	return s.oneUser(s.db, "username = $1 AND client_id = $2", username, clientId)
}

func (s *Storage) UserByEmail(email string, clientId int64) (domain.User, error) {
	return s.oneUser(s.db, "email = $1 AND client_id = $2", email, clientId)
}

func (s *Storage) UserByFilters(filters domain.UserFilters) (domain.User, error) {
	where, args := buildFilters(filters)
	return s.oneUser(s.db, where, args...)
}

func (s *Storage) UsersByFilters(filters domain.UserFilters) ([]domain.User, error) {
	where, args := buildFilters(filters)

	query := fmt.Sprintf("SELECT %s FROM users", userColumns)
	if where != "" {
		query += " WHERE " + where
	}

	orderBy, ok := orderableColumns[filters.OrderBy]
	if !ok {
		orderBy = "id"
	}
	direction := "ASC"
	if strings.EqualFold(filters.Order, "DESC") {
		direction = "DESC"
	}
	query += fmt.Sprintf(" ORDER BY %s %s", pq.QuoteIdentifier(orderBy), direction)

	if filters.Limit > 0 {
		args = append(args, filters.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filters.Offset > 0 {
		args = append(args, filters.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var user domain.User
		if err := scanUser(rows.Scan, &user); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}
	return users, nil
}

// =========================================================================
// Internal methods (core database logic, transaction-agnostic)
// =========================================================================

func (s *Storage) saveUser(q Querier, user domain.User) (domain.User, error) {
	err := q.QueryRow(`
		INSERT INTO users(client_id, username, email, role, password_hash, status, reset_password)
		VALUES($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+userColumns,
		user.ClientId, user.Username, user.Email, user.Role, user.Password, user.Status, user.ResetPassword,
	).Scan(scanTargets(&user)...)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.User{}, internal_errors.NewBusiness("UNIQUE_CONSTRAINT", "username or email already taken").WithStatus(409)
		}
		return domain.User{}, fmt.Errorf("failed to insert user: %w", err)
	}
	return user, nil
}

func (s *Storage) updateUser(q Querier, user domain.User) error {
	result, err := q.Exec(`
		UPDATE users SET email = $1, role = $2, password_hash = $3, status = $4, reset_password = $5
		WHERE id = $6`,
		user.Email, user.Role, user.Password, user.Status, user.ResetPassword, user.Id,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return internal_errors.NewBusiness("UNIQUE_CONSTRAINT", "email already taken").WithStatus(409)
		}
		return fmt.Errorf("failed to update user: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows for user update: %w", err)
	}
	if rowsAffected == 0 {
		return internal_errors.NewNotFound("NOT_FOUND", "user not found for update")
	}
	return nil
}

func (s *Storage) deleteUser(q Querier, id domain.UserId) error {
	result, err := q.Exec("DELETE FROM users WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	rowsDeleted, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows for user deletion: %w", err)
	}
	if rowsDeleted == 0 {
		return internal_errors.NewNotFound("NOT_FOUND", "user not found for deletion")
	}
	return nil
}

func (s *Storage) oneUser(q Querier, where string, args ...interface{}) (domain.User, error) {
	query := fmt.Sprintf("SELECT %s FROM users", userColumns)
	if where != "" {
		query += " WHERE " + where
	}
	query += " LIMIT 1"

	var user domain.User
	err := scanUser(q.QueryRow(query, args...).Scan, &user)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, internal_errors.NewNotFound("NOT_FOUND", "user not found")
		}
		return domain.User{}, fmt.Errorf("failed to query user: %w", err)
	}
	return user, nil
}

func buildFilters(filters domain.UserFilters) (string, []interface{}) {
	var clauses []string
	var args []interface{}

	add := func(column string, value interface{}) {
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if filters.Id != 0 {
		add("id", filters.Id)
	}
	if filters.Role != "" {
		add("role", filters.Role)
	}
	if filters.ClientId != 0 {
		add("client_id", filters.ClientId)
	}

	return strings.Join(clauses, " AND "), args
}

func scanTargets(user *domain.User) []interface{} {
	return []interface{}{
		&user.Id, &user.ClientId, &user.Username, &user.Email,
		&user.Role, &user.Password, &user.Status, &user.ResetPassword, &user.Created,
	}
}

func scanUser(scan func(...interface{}) error, user *domain.User) error {
	return scan(scanTargets(user)...)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation
}
