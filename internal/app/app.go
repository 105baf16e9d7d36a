// Package app wires the report service to its PostgreSQL sources.
// Shared by the API server and the CLI.
package app

import (
	"context"
	"fmt"

	"stockledger/internal/domain/auth"
	"stockledger/internal/domain/reports"
	"stockledger/internal/infrastructure/storage/postgres"
	"stockledger/internal/infrastructure/storage/postgres/report_repo"
	"stockledger/pkg/config"
)

// App holds the long-lived dependencies.
type App struct {
	Config  *config.Config
	Pool    *postgres.Pool
	Reports *reports.Service
	JWT     *auth.JWTService
}

// New connects to the database and builds the services.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	poolCfg := postgres.DefaultPoolConfig(cfg.DB.ConnectionString())
	poolCfg.MaxConns = cfg.DB.MaxConns
	poolCfg.ApplicationName = cfg.App.Name

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	txm := postgres.NewTxManager(pool, cfg.Report.StatementTimeout)

	service := reports.NewService(
		txm,
		report_repo.NewMovementRepo(txm),
		report_repo.NewCatalogRepo(txm),
		report_repo.NewJournalRepo(txm),
	)

	jwtCfg := auth.DefaultJWTConfig(cfg.JWT.Secret)
	if cfg.JWT.Issuer != "" {
		jwtCfg.Issuer = cfg.JWT.Issuer
	}
	if cfg.JWT.TTL > 0 {
		jwtCfg.AccessTokenTTL = cfg.JWT.TTL
	}

	return &App{
		Config:  cfg,
		Pool:    pool,
		Reports: service,
		JWT:     auth.NewJWTService(jwtCfg),
	}, nil
}

// Close releases the connection pool.
func (a *App) Close() {
	a.Pool.Close()
}
