package loader

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"gamecat/pkg/logger"
	"gamecat/pkg/retry"
)

// PostgresConfig holds database connection settings
type PostgresConfig struct {
	URI             string
	MinConns        int32
	MaxConns        int32
	MaxConnLifetime time.Duration
	ConnectAttempts int
}

// PGStore implements Store on a pgx connection pool
type PGStore struct {
	pool   *pgxpool.Pool
	logger *logger.Logger
}

// NewPGStore connects and pings the database, retrying while it is unreachable
func NewPGStore(ctx context.Context, cfg PostgresConfig, l *logger.Logger) (*PGStore, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URI)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConns = cfg.MaxConns
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	opts := retry.DefaultOptions()
	if cfg.ConnectAttempts > 0 {
		opts.MaxAttempts = cfg.ConnectAttempts
	}
	opts.OnRetry = func(attempt int, wait time.Duration, err error) {
		l.Warn("database not reachable, retrying",
			zap.Int("attempt", attempt), zap.Duration("wait", wait), zap.Error(err))
	}
	if err := retry.Do(ctx, opts, pool.Ping); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PGStore{pool: pool, logger: l}, nil
}

// Replace creates the schema if needed, truncates every table and copies
// the batches in order, all inside one transaction.
func (s *PGStore) Replace(ctx context.Context, batches []Batch) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, ddl := range schema {
		if _, err := tx.Exec(ctx, ddl); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	if _, err := tx.Exec(ctx, truncateAll); err != nil {
		return fmt.Errorf("failed to truncate tables: %w", err)
	}

	for _, b := range batches {
		if len(b.Rows) == 0 {
			continue
		}
		n, err := tx.CopyFrom(ctx, pgx.Identifier{b.Table}, b.Columns, pgx.CopyFromRows(b.Rows))
		if err != nil {
			return fmt.Errorf("copy into %s failed: %w", b.Table, err)
		}
		s.logger.Debug("copy complete", zap.String("table", b.Table), zap.Int64("rows", n))
	}

	return tx.Commit(ctx)
}

// Close closes the pool
func (s *PGStore) Close() error {
	s.pool.Close()
	return nil
}
