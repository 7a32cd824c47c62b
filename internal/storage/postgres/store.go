package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"uniExchange/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS receipts (
	id          BIGSERIAL PRIMARY KEY,
	kind        TEXT NOT NULL,
	caller      TEXT NOT NULL,
	custody     TEXT NOT NULL,
	pool        TEXT,
	token_in    TEXT,
	token_out   TEXT,
	amount_in   NUMERIC(78, 0),
	amount_out  NUMERIC(78, 0),
	recipient   TEXT,
	executed_at TIMESTAMPTZ NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// Store provides Postgres persistence for receipts.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the receipts table if it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schema)
	return err
}

// PutReceipts inserts a batch of receipts.
func (s *Store) PutReceipts(ctx context.Context, receipts []model.Receipt) error {
	if len(receipts) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, r := range receipts {
		executedAt, err := time.Parse(time.RFC3339Nano, r.Timestamp)
		if err != nil {
			return fmt.Errorf("receipt timestamp %q: %w", r.Timestamp, err)
		}
		batch.Queue(`
			INSERT INTO receipts (
				kind, caller, custody, pool, token_in, token_out, amount_in, amount_out, recipient, executed_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7::numeric, $8::numeric, $9, $10)
		`,
			r.Kind,
			r.Caller,
			r.Custody,
			nullable(r.Pool),
			nullable(r.TokenIn),
			nullable(r.TokenOut),
			nullable(r.AmountIn),
			nullable(r.AmountOut),
			nullable(r.Recipient),
			executedAt,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range receipts {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// RecentReceipts returns up to limit receipts, newest first.
func (s *Store) RecentReceipts(ctx context.Context, limit int) ([]model.Receipt, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive")
	}
	rows, err := s.pool.Query(ctx, `
		SELECT kind, caller, custody,
			COALESCE(pool, ''), COALESCE(token_in, ''), COALESCE(token_out, ''),
			COALESCE(amount_in::text, ''), COALESCE(amount_out::text, ''),
			COALESCE(recipient, ''), executed_at
		FROM receipts
		ORDER BY id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Receipt
	for rows.Next() {
		var (
			r          model.Receipt
			executedAt time.Time
		)
		if err := rows.Scan(&r.Kind, &r.Caller, &r.Custody, &r.Pool, &r.TokenIn, &r.TokenOut,
			&r.AmountIn, &r.AmountOut, &r.Recipient, &executedAt); err != nil {
			return nil, err
		}
		r.Timestamp = executedAt.UTC().Format(time.RFC3339Nano)
		out = append(out, r)
	}
	return out, rows.Err()
}

func nullable(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
