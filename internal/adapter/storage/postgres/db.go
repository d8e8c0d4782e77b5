package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"systempay-gateway/config"
)

// Pool is the subset of pgxpool.Pool the ledger needs. pgxmock
// implements it for repository tests.
type Pool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// NewPool creates a PostgreSQL connection pool using pgx.
func NewPool(ctx context.Context, cfg config.DatabaseConfig, log zerolog.Logger) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	if cfg.ConnMaxLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	// Verify connectivity
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	log.Info().
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Str("dbname", cfg.DBName).
		Int32("max_conns", cfg.MaxConns).
		Msg("PostgreSQL connection pool established")

	return pool, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS transactions (
	id UUID PRIMARY KEY,
	mode TEXT NOT NULL,
	operation_type TEXT NOT NULL DEFAULT '',
	trans_id TEXT NOT NULL,
	trans_date TEXT NOT NULL,
	order_reference TEXT NOT NULL,
	amount BIGINT NOT NULL,
	currency_code TEXT NOT NULL DEFAULT '',
	auth_result TEXT NOT NULL DEFAULT '',
	result_code TEXT NOT NULL DEFAULT '',
	error_message TEXT NOT NULL DEFAULT '',
	raw_payload TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_transactions_duplicate
	ON transactions (order_reference, trans_id, trans_date, operation_type)
	WHERE mode = 'NOTIFICATION';

CREATE INDEX IF NOT EXISTS idx_transactions_order
	ON transactions (order_reference, created_at DESC);

CREATE INDEX IF NOT EXISTS idx_transactions_created
	ON transactions (created_at DESC);
`

// InitSchema creates the ledger table and indexes if they do not exist.
func InitSchema(ctx context.Context, pool Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("initializing ledger schema: %w", err)
	}
	return nil
}
