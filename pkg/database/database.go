package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	"mercator-hq/parley/pkg/config"

	_ "modernc.org/sqlite" // SQLite driver
)

// Open opens and pings the configured database, then runs the init script
// if one is configured. It returns (nil, nil) when no DSN is configured.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	if cfg.DSN == "" {
		return nil, nil
	}
	if cfg.Driver != "" && cfg.Driver != "sqlite" {
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := sql.Open("sqlite", withPragmas(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if IsMemory(cfg.DSN) {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	} else if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.InitScript != "" {
		script, err := os.ReadFile(cfg.InitScript)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to read init script: %w", err)
		}
		if err := Exec(ctx, db, string(script)); err != nil {
			db.Close()
			return nil, fmt.Errorf("init script %s: %w", cfg.InitScript, err)
		}
	}

	return db, nil
}

// Exec runs a multi-statement SQL script.
func Exec(ctx context.Context, db *sql.DB, script string) error {
	if strings.TrimSpace(script) == "" {
		return nil
	}
	if _, err := db.ExecContext(ctx, script); err != nil {
		return err
	}
	return nil
}

func withPragmas(cfg config.DatabaseConfig) string {
	if cfg.BusyTimeout <= 0 {
		return cfg.DSN
	}
	sep := "?"
	if strings.Contains(cfg.DSN, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%s_pragma=busy_timeout(%d)", cfg.DSN, sep, cfg.BusyTimeout.Milliseconds())
}

// IsMemory reports whether dsn names an in-memory SQLite database.
func IsMemory(dsn string) bool {
	return strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}
