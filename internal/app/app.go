// Package app assembles the store, session factory and facade selected by
// configuration. Both binaries share it.
package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/Clark-Hu/movie-catalog/internal/catalog"
	"github.com/Clark-Hu/movie-catalog/internal/config"
	"github.com/Clark-Hu/movie-catalog/internal/metrics"
	"github.com/Clark-Hu/movie-catalog/internal/repository"
	"github.com/Clark-Hu/movie-catalog/internal/store"
)

// Deps holds the process-wide collaborators. Close releases the store.
type Deps struct {
	Store  store.Provider
	Movies *catalog.Facade
}

// Close releases the underlying store.
func (d *Deps) Close() {
	if d != nil && d.Store != nil {
		d.Store.Close()
	}
}

// Open connects to the configured provider and builds the facade on top of it.
// When m is non-nil the Postgres pool statistics are registered with it.
func Open(ctx context.Context, cfg config.Config, m *metrics.Metrics, logger *log.Logger) (*Deps, error) {
	switch cfg.DBDriver {
	case store.DriverPostgres:
		opts := store.Options{
			MaxConns:               int32(cfg.DBMaxConns),
			MinConns:               int32(cfg.DBMinConns),
			MaxConnIdleTime:        time.Duration(cfg.DBMaxIdleSecs) * time.Second,
			MaxConnLifetime:        time.Duration(cfg.DBMaxLifeSecs) * time.Second,
			ConnTimeout:            time.Duration(cfg.DBConnTimeoutSecs) * time.Second,
			StatementCacheCapacity: cfg.DBStatementCache,
			Logger:                 logger,
		}
		pg, err := store.NewPostgres(ctx, cfg.DBURL, opts)
		if err != nil {
			return nil, err
		}
		if m != nil {
			m.RegisterPoolStats(pg.Stats)
		}
		return newDeps(pg, repository.NewPostgres(pg), logger), nil
	case store.DriverSQLite:
		lite, err := store.OpenSQLite(ctx, cfg.SQLitePath, logger)
		if err != nil {
			return nil, err
		}
		return newDeps(lite, repository.NewSQLite(lite), logger), nil
	default:
		return nil, fmt.Errorf("unsupported db driver %q", cfg.DBDriver)
	}
}

func newDeps(p store.Provider, sessions repository.SessionFactory, logger *log.Logger) *Deps {
	if logger == nil {
		logger = log.Default()
	}
	logger.Printf("app: catalog backed by %s", p.Driver())
	return &Deps{Store: p, Movies: catalog.New(sessions, logger)}
}
