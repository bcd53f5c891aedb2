// Package main applies or rolls back the database schema.
//
// Usage:
//
//	migrate [--config stockbalance.toml] up|down|version
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"stockbalance/internal/app"
	"stockbalance/internal/infrastructure/config"
	"stockbalance/internal/infrastructure/storage/postgres/migration"
	"stockbalance/pkg/logger"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flags := pflag.NewFlagSet("migrate", pflag.ContinueOnError)
	flags.String("config", "", "path to config file (toml)")
	flags.String("database.dsn", "", "PostgreSQL connection string")
	if err := flags.Parse(args); err != nil {
		return err
	}

	command, err := parseCommand(flags.Args())
	if err != nil {
		return err
	}

	cfg, err := config.Load(flags)
	if err != nil {
		return err
	}

	log, err := app.NewLogger(cfg)
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer func() { _ = log.Sync() }()
	ctx := logger.WithLogger(context.Background(), log.WithComponent("migrate"))

	m, err := migration.New(cfg.Database.DSN)
	if err != nil {
		return err
	}
	defer func() { _ = m.Close() }()

	switch command {
	case "up":
		return m.Up(ctx)
	case "down":
		return m.Down(ctx)
	default:
		version, dirty, err := m.Version()
		if err != nil {
			return err
		}
		fmt.Printf("version %d (dirty: %t)\n", version, dirty)
		return nil
	}
}

func parseCommand(args []string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("expected one command (up, down, version), got %d arguments", len(args))
	}
	switch args[0] {
	case "up", "down", "version":
		return args[0], nil
	default:
		return "", fmt.Errorf("unknown command %q", args[0])
	}
}
