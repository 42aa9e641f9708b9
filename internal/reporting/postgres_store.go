package reporting

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Schema creates the table PostgresStore writes to.
const Schema = `
CREATE TABLE IF NOT EXISTS gateway_transactions (
	id             UUID PRIMARY KEY,
	recorded_at    TIMESTAMPTZ NOT NULL,
	request_id     TEXT NOT NULL,
	merchant_id    TEXT NOT NULL,
	gateway        TEXT NOT NULL,
	status         TEXT NOT NULL,
	amount         NUMERIC(12,2) NOT NULL,
	currency       TEXT NOT NULL,
	transaction_id TEXT NOT NULL,
	reason         TEXT NOT NULL,
	detail         TEXT NOT NULL,
	test_mode      BOOLEAN NOT NULL
)`

// PostgresStore persists entries with database/sql and lib/pq.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	if db == nil {
		panic("db cannot be nil")
	}
	return &PostgresStore{db: db}
}

// OpenPostgresStore connects to dsn and ensures the table exists.
func OpenPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("reporting: open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("reporting: ping database: %w", err)
	}
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("reporting: create schema: %w", err)
	}
	return NewPostgresStore(db), nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) Record(ctx context.Context, e Entry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO gateway_transactions (id, recorded_at, request_id, merchant_id, gateway,
			status, amount, currency, transaction_id, reason, detail, test_mode)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`,
		e.ID, e.Timestamp, e.RequestID, e.MerchantID, e.Gateway,
		e.Status, e.Amount.StringFixed(2), e.Currency, e.TransactionID, e.Reason, e.Detail, e.TestMode,
	)
	if err != nil {
		return fmt.Errorf("reporting: insert entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, from, to time.Time) ([]Entry, error) {
	if to.IsZero() {
		to = time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, recorded_at, request_id, merchant_id, gateway, status,
			amount, currency, transaction_id, reason, detail, test_mode
		FROM gateway_transactions
		WHERE recorded_at >= $1 AND recorded_at < $2
		ORDER BY recorded_at
	`, from, to)
	if err != nil {
		return nil, fmt.Errorf("reporting: query entries: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e      Entry
			amount string
		)
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.RequestID, &e.MerchantID, &e.Gateway, &e.Status,
			&amount, &e.Currency, &e.TransactionID, &e.Reason, &e.Detail, &e.TestMode); err != nil {
			return nil, fmt.Errorf("reporting: scan entry: %w", err)
		}
		if e.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("reporting: entry %s has bad amount %q: %w", e.ID, amount, err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reporting: iterate entries: %w", err)
	}
	return out, nil
}
