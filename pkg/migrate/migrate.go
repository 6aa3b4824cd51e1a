package migrate

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strconv"
	"strings"

	"github.com/pressly/goose/v3"

	"github.com/angelmondragon/storefront-backend/pkg/config"
)

const (
	DefaultDir       = "pkg/migrate/migrations"
	DefaultSQLiteDir = "pkg/migrate/migrations_sqlite"
)

// sqlite keeps its own copy of the schema: the driver only scans columns
// declared date, datetime or timestamp into time.Time.
//
//go:embed migrations/*.sql migrations_sqlite/*.sql
var embedded embed.FS

func embeddedDir(dialect string) string {
	if dialect == "sqlite3" {
		return "migrations_sqlite"
	}
	return "migrations"
}

// Dialect maps the configured DB driver to its goose dialect.
func Dialect(driver string) string {
	if strings.EqualFold(driver, config.DriverSQLite) {
		return "sqlite3"
	}
	return "postgres"
}

// Run executes a standard goose command that requires a DB connection.
func Run(ctx context.Context, db *sql.DB, dialect, dir string, command string, args ...string) error {
	if db == nil {
		return fmt.Errorf("db is required")
	}
	if dir == "" {
		return fmt.Errorf("dir is required")
	}

	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	// RunContext prints status output to stdout (goose internal)
	if err := goose.RunContext(ctx, command, db, dir, args...); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}

// RunEmbedded executes a goose command against the migrations compiled into
// the binary, so services can migrate without the source tree on disk.
func RunEmbedded(ctx context.Context, db *sql.DB, dialect, command string, args ...string) error {
	goose.SetBaseFS(embedded)
	defer goose.SetBaseFS(nil)
	return Run(ctx, db, dialect, embeddedDir(dialect), command, args...)
}

// MigrateEmbeddedToVersion is MigrateToVersion over the bundled migrations.
func MigrateEmbeddedToVersion(ctx context.Context, db *sql.DB, dialect, targetVersion string) error {
	goose.SetBaseFS(embedded)
	defer goose.SetBaseFS(nil)
	return MigrateToVersion(ctx, db, dialect, embeddedDir(dialect), targetVersion)
}

// MigrateToVersion migrates up/down to the requested version by comparing current DB version.
func MigrateToVersion(ctx context.Context, db *sql.DB, dialect, dir string, targetVersion string) error {
	if targetVersion == "" {
		return fmt.Errorf("targetVersion is required")
	}

	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	target, err := strconv.ParseInt(targetVersion, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid version %q (expected YYYYMMDDHHMMSS): %w", targetVersion, err)
	}

	current, err := goose.GetDBVersion(db)
	if err != nil {
		return fmt.Errorf("get db version: %w", err)
	}

	switch {
	case current == target:
		return nil

	case current < target:
		// migrate up to target
		if err := goose.UpToContext(ctx, db, dir, target); err != nil {
			return fmt.Errorf("goose up-to %d: %w", target, err)
		}
		return nil

	default:
		// migrate down to target
		if err := goose.DownToContext(ctx, db, dir, target); err != nil {
			return fmt.Errorf("goose down-to %d: %w", target, err)
		}
		return nil
	}
}
