package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"sentinelguard/pkg/domain"
	txcontext "sentinelguard/pkg/platform/tx"
)

// Store persists role grants in PostgreSQL. Grant and revoke are idempotent
// at the SQL level (ON CONFLICT DO NOTHING / plain DELETE).
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *Store) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// EnsureSchema creates the grants table if it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS role_grants (
			role    TEXT NOT NULL,
			account TEXT NOT NULL,
			PRIMARY KEY (role, account)
		)
	`)
	if err != nil {
		return fmt.Errorf("ensure roles schema: %w", err)
	}
	return nil
}

func (s *Store) Add(ctx context.Context, role domain.RoleID, account domain.Address) error {
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO role_grants (role, account) VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, string(role), string(account))
	if err != nil {
		return fmt.Errorf("insert role grant: %w", err)
	}
	return nil
}

func (s *Store) Remove(ctx context.Context, role domain.RoleID, account domain.Address) error {
	_, err := s.execer(ctx).ExecContext(ctx, `
		DELETE FROM role_grants WHERE role = $1 AND account = $2
	`, string(role), string(account))
	if err != nil {
		return fmt.Errorf("delete role grant: %w", err)
	}
	return nil
}

func (s *Store) Has(ctx context.Context, role domain.RoleID, account domain.Address) (bool, error) {
	var exists bool
	err := s.execer(ctx).QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM role_grants WHERE role = $1 AND account = $2)
	`, string(role), string(account)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check role grant: %w", err)
	}
	return exists, nil
}

func (s *Store) List(ctx context.Context) (map[domain.RoleID][]domain.Address, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, `
		SELECT role, account FROM role_grants ORDER BY role, account
	`)
	if err != nil {
		return nil, fmt.Errorf("list role grants: %w", err)
	}
	defer rows.Close()

	out := make(map[domain.RoleID][]domain.Address)
	for rows.Next() {
		var role, account string
		if err := rows.Scan(&role, &account); err != nil {
			return nil, fmt.Errorf("scan role grant: %w", err)
		}
		out[domain.RoleID(role)] = append(out[domain.RoleID(role)], domain.Address(account))
	}
	return out, rows.Err()
}
