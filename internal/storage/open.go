package storage

import (
	"context"
	"fmt"
	"strings"

	"pagenine/pkg/logx"
)

// Store is the history API used by the recorder, the status server and the CLI.
type Store interface {
	Append(ctx context.Context, e Entry) error
	// Recent returns matching entries, newest first.
	Recent(ctx context.Context, q Query) ([]Entry, error)
	Close() error
}

// Open initializes the configured store. It returns ErrDisabled when the
// driver is empty or "none".
func Open(ctx context.Context, cfg Config, log logx.Logger) (Store, error) {
	driver := Driver(cfg.Driver)
	if driver == "none" {
		return nil, ErrDisabled
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	switch driver {
	case "sqlite":
		return openSQLite(ctx, cfg, log)
	case "postgres":
		return openPostgres(ctx, cfg, log)
	default:
		return nil, fmt.Errorf("unknown storage driver: %s", cfg.Driver)
	}
}

// Driver normalizes a configured driver name.
func Driver(s string) string {
	switch d := strings.ToLower(strings.TrimSpace(s)); d {
	case "", "none":
		return "none"
	case "sqlite", "sqlite3":
		return "sqlite"
	case "postgres", "postgresql", "pg":
		return "postgres"
	default:
		return d
	}
}
