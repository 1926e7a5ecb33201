package storage

import (
	"context"
	"fmt"

	"SignalsDigest/internal/config"
	"SignalsDigest/internal/ports"
)

const defaultSQLitePath = "state/seen_urls.db"

// Open builds the seen-URL store selected by cfg.Backend.
func Open(ctx context.Context, cfg config.StateConfig) (ports.SeenStore, error) {
	switch cfg.Backend {
	case config.BackendFile, "":
		return NewFileStore(cfg.Path), nil
	case config.BackendSQLite:
		dsn := cfg.DSN
		if dsn == "" {
			dsn = defaultSQLitePath
		}
		return OpenSQLStore(ctx, DialectSQLite, dsn)
	case config.BackendPostgres:
		return OpenSQLStore(ctx, DialectPostgres, cfg.DSN)
	case config.BackendRedis:
		return OpenRedisStore(ctx, cfg.RedisURL, cfg.RedisKey)
	default:
		return nil, fmt.Errorf("unknown state backend %q", cfg.Backend)
	}
}
