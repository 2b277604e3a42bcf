// Package postgres persists account balances in PostgreSQL. Amounts are
// stored as NUMERIC(78,0), wide enough for any 256-bit value, and travel as
// decimal strings.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"sentinelguard/pkg/domain"
	txcontext "sentinelguard/pkg/platform/tx"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// EnsureSchema creates the balances table if it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS balances (
			account TEXT PRIMARY KEY,
			balance NUMERIC(78,0) NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("ensure balances schema: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, account domain.Address) (domain.Amount, error) {
	var raw string
	row := s.queryRow(ctx, `SELECT balance::TEXT FROM balances WHERE account = $1`, string(account))
	err := row.Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Amount{}, nil
	}
	if err != nil {
		return domain.Amount{}, fmt.Errorf("select balance: %w", err)
	}
	amount, err := domain.ParseAmount(raw)
	if err != nil {
		return domain.Amount{}, fmt.Errorf("decode balance for %s: %w", account, err)
	}
	return amount, nil
}

// Apply upserts every entry inside one transaction. When the caller already
// carries a transaction in context, Apply joins it instead of opening its own.
func (s *Store) Apply(ctx context.Context, balances map[domain.Address]domain.Amount) error {
	if dbTx, ok := txcontext.From(ctx); ok {
		return s.applyIn(ctx, dbTx, balances)
	}

	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin balance tx: %w", err)
	}
	if err := s.applyIn(ctx, dbTx, balances); err != nil {
		_ = dbTx.Rollback()
		return err
	}
	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("commit balance tx: %w", err)
	}
	return nil
}

func (s *Store) applyIn(ctx context.Context, dbTx *sql.Tx, balances map[domain.Address]domain.Amount) error {
	for account, balance := range balances {
		if balance.IsZero() {
			if _, err := dbTx.ExecContext(ctx,
				`DELETE FROM balances WHERE account = $1`, string(account)); err != nil {
				return fmt.Errorf("delete zero balance: %w", err)
			}
			continue
		}
		_, err := dbTx.ExecContext(ctx, `
			INSERT INTO balances (account, balance) VALUES ($1, $2::NUMERIC)
			ON CONFLICT (account) DO UPDATE SET balance = EXCLUDED.balance
		`, string(account), balance.String())
		if err != nil {
			return fmt.Errorf("upsert balance: %w", err)
		}
	}
	return nil
}

func (s *Store) All(ctx context.Context) (map[domain.Address]domain.Amount, error) {
	rows, err := s.query(ctx, `SELECT account, balance::TEXT FROM balances`)
	if err != nil {
		return nil, fmt.Errorf("list balances: %w", err)
	}
	defer rows.Close()

	out := make(map[domain.Address]domain.Amount)
	for rows.Next() {
		var account, raw string
		if err := rows.Scan(&account, &raw); err != nil {
			return nil, fmt.Errorf("scan balance: %w", err)
		}
		amount, err := domain.ParseAmount(raw)
		if err != nil {
			return nil, fmt.Errorf("decode balance for %s: %w", account, err)
		}
		out[domain.Address(account)] = amount
	}
	return out, rows.Err()
}

func (s *Store) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	if dbTx, ok := txcontext.From(ctx); ok {
		return dbTx.QueryRowContext(ctx, query, args...)
	}
	return s.db.QueryRowContext(ctx, query, args...)
}

func (s *Store) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	if dbTx, ok := txcontext.From(ctx); ok {
		return dbTx.QueryContext(ctx, query, args...)
	}
	return s.db.QueryContext(ctx, query, args...)
}
