// Package store owns the connections to the relational providers backing the
// catalog: a pgx pool for Postgres and a database/sql handle for SQLite.
package store

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Driver names accepted by configuration.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Options tunes the Postgres pool. Zero values keep the pgxpool defaults.
type Options struct {
	MaxConns               int32
	MinConns               int32
	MaxConnIdleTime        time.Duration
	MaxConnLifetime        time.Duration
	ConnTimeout            time.Duration
	StatementCacheCapacity int
	Logger                 *log.Logger
}

// Postgres is the pool-backed provider. Catalog sessions acquire one
// connection each from it.
type Postgres struct {
	pool   *pgxpool.Pool
	logger *log.Logger
	opts   Options
}

// NewPostgres connects to dbURL and refuses to start when the catalog
// migrations have not been applied.
func NewPostgres(ctx context.Context, dbURL string, opts Options) (*Postgres, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	cfg, err := poolConfig(dbURL, opts)
	if err != nil {
		return nil, err
	}
	logger.Printf("store: opening postgres catalog (max=%d, min=%d, stmt_cache=%d)",
		cfg.MaxConns, cfg.MinConns, opts.StatementCacheCapacity)

	connCtx, cancel := withTimeout(ctx, opts.ConnTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connCtx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(connCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := verifyTables(connCtx, pgTableExists(pool)); err != nil {
		pool.Close()
		return nil, err
	}

	logger.Println("store: postgres catalog ready")
	return &Postgres{pool: pool, logger: logger, opts: opts}, nil
}

func poolConfig(dbURL string, opts Options) (*pgxpool.Config, error) {
	cfg, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, fmt.Errorf("parse db url: %w", err)
	}
	if opts.MaxConns > 0 {
		cfg.MaxConns = opts.MaxConns
	}
	if opts.MinConns > 0 {
		cfg.MinConns = opts.MinConns
	}
	if opts.MaxConnIdleTime > 0 {
		cfg.MaxConnIdleTime = opts.MaxConnIdleTime
	}
	if opts.MaxConnLifetime > 0 {
		cfg.MaxConnLifetime = opts.MaxConnLifetime
	}
	if opts.StatementCacheCapacity > 0 {
		cfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeCacheStatement
		cfg.ConnConfig.StatementCacheCapacity = opts.StatementCacheCapacity
	}
	return cfg, nil
}

func pgTableExists(pool *pgxpool.Pool) tableProbe {
	return func(ctx context.Context, table string) (bool, error) {
		var ok bool
		err := pool.QueryRow(ctx, `SELECT to_regclass($1::text) IS NOT NULL`, table).Scan(&ok)
		return ok, err
	}
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}

// Driver names the provider.
func (p *Postgres) Driver() string {
	return DriverPostgres
}

// Close drains the pool.
func (p *Postgres) Close() {
	if p == nil || p.pool == nil {
		return
	}
	p.logger.Println("store: closing postgres catalog")
	p.pool.Close()
}

// HealthCheck pings the pool within the configured connect timeout.
func (p *Postgres) HealthCheck(ctx context.Context) error {
	if p == nil || p.pool == nil {
		return fmt.Errorf("store not initialized")
	}
	checkCtx, cancel := withTimeout(ctx, p.opts.ConnTimeout)
	defer cancel()
	return p.pool.Ping(checkCtx)
}

// Pool is used by the Postgres session factory.
func (p *Postgres) Pool() *pgxpool.Pool {
	return p.pool
}

// Stats feeds the pool gauges; nil once the store is closed or unset.
func (p *Postgres) Stats() *pgxpool.Stat {
	if p == nil || p.pool == nil {
		return nil
	}
	return p.pool.Stat()
}
