package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/authgate-dev/authgate/internal/domain"
	internal_errors "github.com/authgate-dev/authgate/internal/errors"
)

// EnsureDefault resolves the default tenant, lazily seeding it on first use.
// The insert is conflict-safe so concurrent first requests cannot double-seed.
func (s *Storage) EnsureDefault() (domain.Client, error) {
	client, err := s.clientByDomain(s.db, domain.DefaultClientDomain)
	if err == nil {
		return client, nil
	}
	if !internal_errors.IsNotFound(err) {
		return domain.Client{}, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	err = s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.Exec(
			"INSERT INTO clients(name, domain) VALUES($1, $2) ON CONFLICT (domain) DO NOTHING",
			"authgate", domain.DefaultClientDomain,
		)
		if err != nil {
			return fmt.Errorf("failed to seed default client: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.Client{}, err
	}

	return s.clientByDomain(s.db, domain.DefaultClientDomain)
}

func (s *Storage) clientByDomain(q Querier, clientDomain string) (domain.Client, error) {
	var client domain.Client
	err := q.QueryRow(
		"SELECT id, name, domain, created FROM clients WHERE domain = $1",
		clientDomain,
	).Scan(&client.Id, &client.Name, &client.Domain, &client.Created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Client{}, internal_errors.NewNotFound("NOT_FOUND", "client not found")
		}
		return domain.Client{}, fmt.Errorf("failed to query client: %w", err)
	}
	return client, nil
}
