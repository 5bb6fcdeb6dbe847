package repository

import (
	"context"
	"fmt"
)

// Driver names accepted by Open.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

// Config selects and configures a Store implementation.
type Config struct {
	Driver         string
	DSN            string
	PoolSize       int
	InitSchema     bool
	MemoryCapacity int
}

type schemaIniter interface {
	InitSchema(ctx context.Context) error
}

// Open creates the store named by cfg.Driver and, when cfg.InitSchema is
// set, creates its table.
func Open(ctx context.Context, cfg Config) (Store, error) {
	var (
		store Store
		err   error
	)
	switch cfg.Driver {
	case DriverMemory:
		return NewMemoryStore(WithCapacity(cfg.MemoryCapacity)), nil
	case DriverSQLite:
		store, err = NewSQLiteStore(ctx, cfg.DSN)
	case DriverMySQL:
		store, err = NewMySQLStore(ctx, cfg.DSN, cfg.PoolSize)
	case DriverPostgres:
		store, err = NewPostgresStore(ctx, cfg.DSN, cfg.PoolSize)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	if cfg.InitSchema {
		if si, ok := store.(schemaIniter); ok {
			if err := si.InitSchema(ctx); err != nil {
				_ = store.Close()
				return nil, err
			}
		}
	}
	return store, nil
}
