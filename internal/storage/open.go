package storage

import (
	"context"
	"fmt"
	"strings"

	logx "cronrunner/pkg/logx"
)

// Store is the persistence API used by the scheduler and the CLI.
type Store interface {
	AppendRun(ctx context.Context, r RunRecord) error
	// Recent returns up to limit records, newest first.
	Recent(ctx context.Context, limit int) ([]RunRecord, error)
	Close() error
}

// Driver normalizes a configured driver name: "" for disabled, "file" or
// "sqlite" for known backends. Unknown names yield ErrUnknownDriver.
func Driver(name string) (string, error) {
	switch d := strings.ToLower(strings.TrimSpace(name)); d {
	case "", "none":
		return "", nil
	case "file":
		return d, nil
	case "sqlite", "sqlite3":
		return "sqlite", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownDriver, name)
	}
}

// Open returns (nil, nil) when storage is disabled.
func Open(cfg Config, log logx.Logger) (Store, error) {
	driver, err := Driver(cfg.Driver)
	if err != nil || driver == "" {
		return nil, err
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	log = log.With(logx.String("comp", "storage"), logx.String("driver", driver))

	if driver == "file" {
		return openFile(cfg, log)
	}
	return openSQLite(cfg, log)
}
