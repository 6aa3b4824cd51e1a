package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/migrate"
)

func main() {
	cmd := flag.String("cmd", "up", "migration command: up|down|status|version|create|validate")
	dir := flag.String("dir", "", "migrations directory; empty uses the migrations built into the binary (create/validate default to both source sets)")
	name := flag.String("name", "", "migration name (for create)")
	version := flag.String("version", "", "target version (YYYYMMDDHHMMSS) for -cmd=version")
	flag.Parse()

	switch *cmd {
	case "create":
		if *name == "" {
			exitf("missing -name for create")
		}
		paths, err := migrate.CreateSQLMigrations(dirsOrDefault(*dir), *name)
		for _, path := range paths {
			fmt.Println("created migration:", path)
		}
		if err != nil {
			exitf("failed to create migration: %v", err)
		}
		return
	case "validate":
		for _, d := range dirsOrDefault(*dir) {
			if err := migrate.ValidateDir(d); err != nil {
				exitf("migration validation failed for %s:\n%v", d, err)
			}
		}
		fmt.Println("migration validation passed")
		return
	}

	logg := logger.New(logger.Options{ServiceName: "migrate"})
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	logg = logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dialect := migrate.Dialect(cfg.DB.Driver)
	source := *dir
	if source == "" {
		source = "embedded"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":     cfg.App.Env,
		"cmd":     *cmd,
		"source":  source,
		"dialect": dialect,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer dbClient.Close()

	sqlDB, err := dbClient.DB().DB()
	if err != nil {
		logg.Error(ctx, "failed to extract sql database", err)
		os.Exit(1)
	}
	logg.Info(ctx, "migrate ready")

	if err := execute(ctx, sqlDB, dialect, *dir, *cmd, *version); err != nil {
		logg.Error(ctx, "migration command failed", err)
		os.Exit(1)
	}
}

func execute(ctx context.Context, sqlDB *sql.DB, dialect, dir, cmd, version string) error {
	run := func(command string, args ...string) error {
		if dir == "" {
			return migrate.RunEmbedded(ctx, sqlDB, dialect, command, args...)
		}
		return migrate.Run(ctx, sqlDB, dialect, dir, command, args...)
	}

	switch cmd {
	case "up", "down", "status":
		return run(cmd)
	case "version":
		if version == "" {
			return fmt.Errorf("missing -version for version command")
		}
		if dir == "" {
			return migrate.MigrateEmbeddedToVersion(ctx, sqlDB, dialect, version)
		}
		return migrate.MigrateToVersion(ctx, sqlDB, dialect, dir, version)
	default:
		return fmt.Errorf("unknown -cmd value %q", cmd)
	}
}

func dirsOrDefault(dir string) []string {
	if dir == "" {
		return []string{migrate.DefaultDir, migrate.DefaultSQLiteDir}
	}
	return []string{dir}
}

func exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
