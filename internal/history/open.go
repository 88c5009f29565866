package history

import (
	"context"
	"fmt"

	"github.com/raysh454/crumb/internal/logging"
)

// Open builds the store cfg.Driver names.
func Open(ctx context.Context, cfg Config, logger logging.Logger) (Store, error) {
	switch cfg.Driver {
	case "", "sqlite":
		path := cfg.Path
		if path == "" {
			path = DefaultConfig().Path
		}
		return NewSQLiteStore(path, cfg.Cap, logger)
	case "postgres":
		return NewPostgresStore(ctx, cfg.DSN, cfg.Cap, logger)
	case "memory":
		return NewMemoryStore(cfg.Cap, logger), nil
	default:
		return nil, fmt.Errorf("history: unknown driver %q", cfg.Driver)
	}
}
