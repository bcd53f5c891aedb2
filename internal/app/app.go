// Package app wires configuration, storage and services into a runnable
// application shared by the server and the closing command.
package app

import (
	"context"
	"fmt"

	"stockbalance/internal/domain/reports"
	"stockbalance/internal/infrastructure/config"
	"stockbalance/internal/infrastructure/storage/postgres"
	"stockbalance/internal/infrastructure/storage/postgres/migration"
	"stockbalance/internal/infrastructure/storage/postgres/report_repo"
	"stockbalance/pkg/logger"
)

// App holds the long-lived dependencies.
type App struct {
	Config  *config.Config
	Pool    *postgres.Pool
	Tx      *postgres.TxManager
	Reports *reports.Service
	Closing *reports.ClosingService

	codec *postgres.PayloadCodec
}

// NewLogger builds the logger described by cfg.
func NewLogger(cfg *config.Config) (*logger.Logger, error) {
	log, err := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.App.IsDevelopment(),
		OutputPaths: cfg.Log.OutputPaths,
	})
	if err != nil {
		return nil, err
	}
	return log.With("service", cfg.Telemetry.ServiceName), nil
}

// Migrate applies the embedded schema migrations to the configured database.
func Migrate(ctx context.Context, cfg *config.Config) (err error) {
	m, err := migration.New(cfg.Database.DSN)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := m.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	return m.Up(ctx)
}

// New connects to the database and builds the report services.
// With database.migrate_on_start the schema is migrated first.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	if cfg.Database.MigrateOnStart {
		if err := Migrate(ctx, cfg); err != nil {
			return nil, fmt.Errorf("migrate database: %w", err)
		}
	}

	poolCfg := postgres.DefaultPoolConfig(cfg.Database.DSN)
	poolCfg.ApplicationName = cfg.App.Name
	poolCfg.MaxConns = cfg.Database.MaxConns
	poolCfg.MinConns = cfg.Database.MinConns
	poolCfg.MaxConnLifetime = cfg.Database.MaxConnLifetime
	poolCfg.MaxConnIdleTime = cfg.Database.MaxConnIdleTime
	poolCfg.HealthCheckPeriod = cfg.Database.HealthCheckPeriod

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	codec, err := postgres.NewPayloadCodec(cfg.Report.CompressThreshold)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("create payload codec: %w", err)
	}

	txm := postgres.NewTxManager(pool, cfg.Report.StatementTimeout)
	repo := report_repo.NewReportRepo(txm, codec)

	reportService := reports.NewService(repo, repo, txm, reports.Config{
		Precision:       cfg.Report.Precision,
		DimensionFields: cfg.Report.DimensionFields,
		DefaultCurrency: cfg.Report.DefaultCurrency,
	})

	return &App{
		Config:  cfg,
		Pool:    pool,
		Tx:      txm,
		Reports: reportService,
		Closing: reports.NewClosingService(reportService, repo, txm),
		codec:   codec,
	}, nil
}

// Close releases the codec and the pool.
func (a *App) Close() {
	a.codec.Close()
	a.Pool.Close()
}
