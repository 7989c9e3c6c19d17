package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"quotefeed/internal/domain/model"
	"quotefeed/internal/domain/port"
)

var _ port.StoragePort = (*PostgresAdapter)(nil)

type PostgresAdapter struct {
	db *sql.DB
}

func NewPostgresAdapter(connStr string) (*PostgresAdapter, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresAdapter{db: db}, nil
}

// SetPool applies connection pool limits. Zero values leave the driver
// defaults in place.
func (a *PostgresAdapter) SetPool(maxOpen, maxIdle int, maxLifetime time.Duration) {
	if maxOpen > 0 {
		a.db.SetMaxOpenConns(maxOpen)
	}
	if maxIdle > 0 {
		a.db.SetMaxIdleConns(maxIdle)
	}
	if maxLifetime > 0 {
		a.db.SetConnMaxLifetime(maxLifetime)
	}
}

// NewPostgresAdapterFromDB wraps an already opened handle.
func NewPostgresAdapterFromDB(db *sql.DB) *PostgresAdapter {
	return &PostgresAdapter{db: db}
}

const schema = `
CREATE TABLE IF NOT EXISTS aggregated_quotes (
	id SERIAL PRIMARY KEY,
	symbol VARCHAR(20) NOT NULL,
	source VARCHAR(50) NOT NULL,
	timestamp TIMESTAMPTZ NOT NULL,
	average_price DOUBLE PRECISION NOT NULL,
	min_price DOUBLE PRECISION NOT NULL,
	max_price DOUBLE PRECISION NOT NULL,
	created_at TIMESTAMPTZ DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_symbol_timestamp ON aggregated_quotes(symbol, timestamp);
`

func (a *PostgresAdapter) InitSchema(ctx context.Context) error {
	if _, err := a.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to init schema: %w", err)
	}
	return nil
}

const insertQuote = `INSERT INTO aggregated_quotes (symbol, source, timestamp, average_price, min_price, max_price) VALUES ($1, $2, $3, $4, $5, $6)`

// SaveAggregatedQuotes writes the batch in one transaction.
func (a *PostgresAdapter) SaveAggregatedQuotes(ctx context.Context, quotes []model.AggregatedQuote) error {
	if len(quotes) == 0 {
		return nil
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, insertQuote)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, q := range quotes {
		if _, err := stmt.ExecContext(ctx, q.Symbol, q.Source, q.Timestamp, q.AveragePrice, q.MinPrice, q.MaxPrice); err != nil {
			return fmt.Errorf("failed to insert aggregate for %s: %w", q.Symbol, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit aggregates: %w", err)
	}
	return nil
}

const (
	selectHighest = `SELECT symbol, source, timestamp, average_price, min_price, max_price FROM aggregated_quotes WHERE symbol = $1 AND timestamp >= $2 ORDER BY max_price DESC, timestamp DESC LIMIT 1`
	selectLowest  = `SELECT symbol, source, timestamp, average_price, min_price, max_price FROM aggregated_quotes WHERE symbol = $1 AND timestamp >= $2 ORDER BY min_price ASC, timestamp DESC LIMIT 1`
	selectAverage = `SELECT AVG(average_price) FROM aggregated_quotes WHERE symbol = $1 AND timestamp >= $2`
)

// GetHighestPrice returns nil, nil when the symbol has no rows in the period.
// A non-positive period covers the whole history.
func (a *PostgresAdapter) GetHighestPrice(ctx context.Context, symbol string, period time.Duration) (*model.AggregatedQuote, error) {
	return a.queryOne(ctx, selectHighest, symbol, period)
}

func (a *PostgresAdapter) GetLowestPrice(ctx context.Context, symbol string, period time.Duration) (*model.AggregatedQuote, error) {
	return a.queryOne(ctx, selectLowest, symbol, period)
}

func (a *PostgresAdapter) GetAveragePrice(ctx context.Context, symbol string, period time.Duration) (float64, error) {
	var avg sql.NullFloat64
	if err := a.db.QueryRowContext(ctx, selectAverage, symbol, since(period)).Scan(&avg); err != nil {
		return 0, fmt.Errorf("failed to query average price for %s: %w", symbol, err)
	}
	return avg.Float64, nil
}

func (a *PostgresAdapter) queryOne(ctx context.Context, query, symbol string, period time.Duration) (*model.AggregatedQuote, error) {
	var q model.AggregatedQuote
	err := a.db.QueryRowContext(ctx, query, symbol, since(period)).
		Scan(&q.Symbol, &q.Source, &q.Timestamp, &q.AveragePrice, &q.MinPrice, &q.MaxPrice)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query price for %s: %w", symbol, err)
	}
	return &q, nil
}

func since(period time.Duration) time.Time {
	if period <= 0 {
		return time.Unix(0, 0).UTC()
	}
	return time.Now().Add(-period).UTC()
}

func (a *PostgresAdapter) Ping(ctx context.Context) error {
	return a.db.PingContext(ctx)
}

func (a *PostgresAdapter) Close() error {
	return a.db.Close()
}
