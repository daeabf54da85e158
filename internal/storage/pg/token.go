package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/authgate-dev/authgate/internal/domain"
	internal_errors "github.com/authgate-dev/authgate/internal/errors"
)

func (s *Storage) SaveToken(token domain.Token) error {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO tokens(id, user_id, token_hash, type, expires_at, used, created)
			VALUES($1, $2, $3, $4, $5, FALSE, $6)`,
			token.Id, token.UserId, token.TokenHash, token.Type, token.ExpiresAt, token.Created,
		)
		if err != nil {
			return fmt.Errorf("failed to insert token: %w", err)
		}
		return nil
	})
}

// LiveToken fetches a redeemable token. Missing, expired and already-used
// rows are deliberately indistinguishable to the caller.
func (s *Storage) LiveToken(id, tokenType string, now time.Time) (domain.Token, error) {
	var token domain.Token
	err := s.db.QueryRow(`
		SELECT id, user_id, token_hash, type, expires_at, used, created
		FROM tokens
		WHERE id = $1 AND type = $2 AND expires_at > $3 AND used = FALSE`,
		id, tokenType, now,
	).Scan(&token.Id, &token.UserId, &token.TokenHash, &token.Type, &token.ExpiresAt, &token.Used, &token.Created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Token{}, internal_errors.NewNotFound("NOT_FOUND", "no live token")
		}
		return domain.Token{}, fmt.Errorf("failed to query token: %w", err)
	}
	return token, nil
}

// ClaimToken marks the token used. The used=FALSE predicate makes the claim
// atomic: of two concurrent redemptions exactly one sees an affected row.
func (s *Storage) ClaimToken(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.Exec("UPDATE tokens SET used = TRUE WHERE id = $1 AND used = FALSE", id)
		if err != nil {
			return fmt.Errorf("failed to claim token: %w", err)
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to check affected rows for token claim: %w", err)
		}
		if rowsAffected == 0 {
			return internal_errors.NewNotFound("NOT_FOUND", "token already claimed")
		}
		return nil
	})
}

// DeleteExpiredTokens removes spent and expired rows. Meant for an external
// retention job; nothing in the request path depends on it.
func (s *Storage) DeleteExpiredTokens(now time.Time) (int64, error) {
	result, err := s.db.Exec("DELETE FROM tokens WHERE used = TRUE OR expires_at <= $1", now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired tokens: %w", err)
	}
	return result.RowsAffected()
}
