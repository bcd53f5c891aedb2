// Package main creates a closing stock balance snapshot from the command line.
//
// Usage:
//
//	closing --company ACME --from 2024-01-01 --to 2024-01-31 [--warehouse Stores]
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"stockbalance/internal/app"
	"stockbalance/internal/domain/reports"
	"stockbalance/internal/infrastructure/config"
	"stockbalance/pkg/logger"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "closing: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flags := pflag.NewFlagSet("closing", pflag.ContinueOnError)
	flags.String("config", "", "path to config file (toml)")
	flags.String("database.dsn", "", "PostgreSQL connection string")
	flags.String("log.level", "", "log level")

	company := flags.String("company", "", "company (required)")
	from := flags.String("from", "", "period start, YYYY-MM-DD (required)")
	to := flags.String("to", "", "period end, YYYY-MM-DD (required)")
	warehouses := flags.StringSlice("warehouse", nil, "warehouses to include")
	items := flags.StringSlice("item", nil, "item codes to include")
	itemGroup := flags.String("item-group", "", "item group to include")
	brand := flags.String("brand", "", "brand to include")
	warehouseType := flags.String("warehouse-type", "", "warehouse type to include")

	if err := flags.Parse(args); err != nil {
		return err
	}

	req, err := closingRequest(*company, *from, *to)
	if err != nil {
		return err
	}
	req.Warehouses = *warehouses
	req.ItemCodes = *items
	req.ItemGroup = *itemGroup
	req.Brand = *brand
	req.WarehouseType = *warehouseType

	cfg, err := config.Load(flags)
	if err != nil {
		return err
	}

	log, err := app.NewLogger(cfg)
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithLogger(ctx, log.WithComponent("closing"))

	application, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer application.Close()

	result, err := application.Closing.CreateSnapshot(ctx, req)
	if err != nil {
		return err
	}

	logger.Info(ctx, "closing snapshot created",
		"id", result.ID,
		"rows", result.RowCount,
		"diagnostics", len(result.Diagnostics),
	)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func closingRequest(company, from, to string) (reports.ClosingRequest, error) {
	if company == "" || from == "" || to == "" {
		return reports.ClosingRequest{}, fmt.Errorf("--company, --from and --to are required")
	}
	fromDate, err := time.Parse(time.DateOnly, from)
	if err != nil {
		return reports.ClosingRequest{}, fmt.Errorf("invalid --from: %w", err)
	}
	toDate, err := time.Parse(time.DateOnly, to)
	if err != nil {
		return reports.ClosingRequest{}, fmt.Errorf("invalid --to: %w", err)
	}
	return reports.ClosingRequest{Company: company, FromDate: fromDate, ToDate: toDate}, nil
}
