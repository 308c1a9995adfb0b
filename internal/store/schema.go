package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// CatalogTables are the tables a provider must expose before it can serve.
var CatalogTables = []string{"movies", "movie_actors"}

// ErrSchemaMissing is returned when a provider opens without the catalog tables.
var ErrSchemaMissing = errors.New("store: catalog schema missing")

// Provider is what the process keeps of a store once sessions are wired.
type Provider interface {
	Driver() string
	HealthCheck(ctx context.Context) error
	Close()
}

var (
	_ Provider = (*Postgres)(nil)
	_ Provider = (*SQLite)(nil)
)

// tableProbe reports whether a table exists in the provider.
type tableProbe func(ctx context.Context, table string) (bool, error)

func verifyTables(ctx context.Context, exists tableProbe) error {
	var missing []string
	for _, table := range CatalogTables {
		ok, err := exists(ctx, table)
		if err != nil {
			return fmt.Errorf("inspect table %s: %w", table, err)
		}
		if !ok {
			missing = append(missing, table)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrSchemaMissing, strings.Join(missing, ", "))
	}
	return nil
}
