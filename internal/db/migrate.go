package db

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"

	"infinite-experiment/hangar/internal/logging"

	"github.com/jmoiron/sqlx"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migrate applies every embedded migration in name order. The scripts are
// idempotent, so running them on each boot is safe.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	names, err := fs.Glob(migrationFiles, "migrations/*.sql")
	if err != nil {
		return fmt.Errorf("failed to list migrations: %w", err)
	}
	sort.Strings(names)

	for _, name := range names {
		script, err := migrationFiles.ReadFile(name)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", name, err)
		}
		if _, err := db.ExecContext(ctx, string(script)); err != nil {
			return fmt.Errorf("migration %s failed: %w", name, err)
		}
		logging.Info("Applied migration", "file", name)
	}
	return nil
}
