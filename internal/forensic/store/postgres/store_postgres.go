package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"sentinelguard/internal/forensic"
	"sentinelguard/pkg/domain"
	"sentinelguard/pkg/platform/sentinel"
	txcontext "sentinelguard/pkg/platform/tx"
)

// Store persists forensic records in PostgreSQL. Records are append-only at
// the schema level: the table has no UPDATE or DELETE path in this codebase
// and sequence_id is the primary key.
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

// EnsureSchema creates the records table if it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS forensic_records (
			sequence_id  BIGINT PRIMARY KEY,
			id           UUID NOT NULL,
			source       TEXT NOT NULL,
			actor        TEXT NOT NULL,
			severity     TEXT NOT NULL,
			category     TEXT NOT NULL,
			details      TEXT NOT NULL,
			risk_score   SMALLINT NOT NULL,
			ts           TIMESTAMPTZ NOT NULL,
			block_height BIGINT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("ensure forensic schema: %w", err)
	}
	return nil
}

func (s *Store) Append(ctx context.Context, record forensic.Record) error {
	query := `
		INSERT INTO forensic_records
			(sequence_id, id, source, actor, severity, category, details, risk_score, ts, block_height)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		int64(record.SequenceID),
		record.ID,
		string(record.Source),
		string(record.Actor),
		string(record.Severity),
		record.Category,
		record.Details,
		int16(record.RiskScore),
		record.Timestamp,
		int64(record.BlockHeight),
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert forensic record: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, sequenceID uint64) (*forensic.Record, error) {
	query := `
		SELECT sequence_id, id, source, actor, severity, category, details, risk_score, ts, block_height
		FROM forensic_records WHERE sequence_id = $1
	`
	row := s.execer(ctx).QueryRowContext(ctx, query, int64(sequenceID))
	record, err := scanRecord(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select forensic record: %w", err)
	}
	return record, nil
}

func (s *Store) Count(ctx context.Context) (uint64, error) {
	var count int64
	row := s.execer(ctx).QueryRowContext(ctx, `SELECT COUNT(*) FROM forensic_records`)
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count forensic records: %w", err)
	}
	return uint64(count), nil
}

func (s *Store) ListRecent(ctx context.Context, limit int) ([]forensic.Record, error) {
	query := `
		SELECT sequence_id, id, source, actor, severity, category, details, risk_score, ts, block_height
		FROM forensic_records ORDER BY sequence_id DESC LIMIT $1
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list forensic records: %w", err)
	}
	defer rows.Close()

	var out []forensic.Record
	for rows.Next() {
		record, err := scanRecord(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan forensic record: %w", err)
		}
		out = append(out, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Oldest-first, matching the in-memory store.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func scanRecord(scan func(dest ...any) error) (*forensic.Record, error) {
	var (
		seq         int64
		id          uuid.UUID
		source      string
		actor       string
		severity    string
		category    string
		details     string
		riskScore   int16
		ts          sql.NullTime
		blockHeight int64
	)
	if err := scan(&seq, &id, &source, &actor, &severity, &category, &details, &riskScore, &ts, &blockHeight); err != nil {
		return nil, err
	}
	return &forensic.Record{
		ID:          id,
		SequenceID:  uint64(seq),
		Source:      domain.Address(source),
		Actor:       domain.Address(actor),
		Severity:    forensic.Severity(severity),
		Category:    category,
		Details:     details,
		RiskScore:   uint16(riskScore),
		Timestamp:   ts.Time,
		BlockHeight: uint64(blockHeight),
	}, nil
}
