package main

import (
	"context"
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
	logg := logger.New(logger.Options{ServiceName: "migrate"})
	_ = godotenv.Load()

	cmd := flag.String("cmd", "up", "up|down|status|version|create|validate")
	dir := flag.String("dir", migrate.DefaultDir, "migrations directory (the default is embedded in the binary)")
	name := flag.String("name", "", "migration name for -cmd=create")
	version := flag.String("version", "", "target version (YYYYMMDDHHMMSS) for -cmd=version")
	flag.Parse()

	// create and validate work on files only.
	switch *cmd {
	case "create":
		if *name == "" {
			fail("missing -name for create")
		}
		path, err := migrate.CreateSQLMigration(*dir, *name)
		if err != nil {
			fail("create migration: %v", err)
		}
		fmt.Println("created migration:", path)
		return
	case "validate":
		if err := migrate.ValidateDir(*dir); err != nil {
			fail("migration validation failed: %v", err)
		}
		fmt.Println("migration validation passed")
		return
	}

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
	ctx := logg.WithFields(context.Background(), map[string]any{"env": cfg.App.Env, "cmd": *cmd})

	if cfg.DB.Driver == db.DriverSQLite {
		fail("sql migrations target postgres; sqlite schemas come from the dev auto-migrate")
	}

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer dbClient.Close()

	runner, err := newRunner(dbClient, *dir)
	if err != nil {
		logg.Error(ctx, "failed to prepare migrations", err)
		os.Exit(1)
	}

	var steps []migrate.Step
	switch *cmd {
	case "up":
		steps, err = runner.Up(ctx)
	case "down":
		var step migrate.Step
		step, err = runner.Down(ctx)
		steps = []migrate.Step{step}
	case "status":
		steps, err = runner.Status(ctx)
	case "version":
		if *version == "" {
			fail("missing -version for version command")
		}
		steps, err = runner.MigrateTo(ctx, *version)
	default:
		fail("unknown -cmd value: %s", *cmd)
	}
	if err != nil {
		logg.Error(ctx, "migration command failed", err)
		os.Exit(1)
	}

	for _, s := range steps {
		fmt.Printf("%-14d %-12s %s\n", s.Version, s.State, s.Path)
	}
	logg.Info(logg.WithField(ctx, "steps", len(steps)), "migration command finished")
}

func newRunner(client *db.Client, dir string) (*migrate.Runner, error) {
	sqlDB, err := client.DB().DB()
	if err != nil {
		return nil, err
	}
	source, err := migrate.Source(dir)
	if err != nil {
		return nil, err
	}
	return migrate.NewRunner(sqlDB, source)
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
