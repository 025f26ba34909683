package prefs

import (
	"context"

	"github.com/rouletteai/roulette-client/internal/errors"
	"github.com/rouletteai/roulette-client/internal/logger"
)

// Supported backends.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Options selects and configures a store backend.
type Options struct {
	Backend    string
	SQLitePath string
	Redis      RedisOptions
	Debug      bool
	Logger     logger.Logger
}

// Open returns the store selected by opts.Backend.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case "", BackendSQLite:
		return NewSQLiteStore(opts.SQLitePath, opts.Debug, opts.Logger)
	case BackendRedis:
		return NewRedisStore(ctx, opts.Redis)
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, errors.Newf("unknown preference backend %q", opts.Backend).
			Component("preferences").
			Category(errors.CategoryConfiguration).
			Build()
	}
}
