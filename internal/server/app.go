// Package server wires configuration, storage and the gRPC endpoint into a
// runnable application.
package server

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/remindsync/internal/logging"
	"github.com/dmitrijs2005/remindsync/internal/server/archive"
	"github.com/dmitrijs2005/remindsync/internal/server/config"
	gs "github.com/dmitrijs2005/remindsync/internal/server/grpc"
	"github.com/dmitrijs2005/remindsync/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/remindsync/internal/server/services"
)

// seams for tests
var (
	openDB = func(dsn string) (*sql.DB, error) {
		return sql.Open("pgx", dsn)
	}
	newRepoManager = func() repomanager.RepositoryManager {
		return repomanager.NewPostgresRepositoryManager()
	}
	newArchiver = func(ctx context.Context, c *config.Config) (archive.Archiver, error) {
		if !c.ArchiveEnabled() {
			return archive.NopArchiver{}, nil
		}
		return archive.NewS3Archiver(ctx, archive.S3Config{
			AccessKey:    c.S3RootUser,
			SecretKey:    c.S3RootPassword,
			Bucket:       c.S3Bucket,
			Region:       c.S3Region,
			BaseEndpoint: c.S3BaseEndpoint,
		})
	}
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	server *gs.GRPCServer
}

// NewApp connects to the database, applies migrations and builds the
// services. The caller must Close the App.
func NewApp(ctx context.Context, cfg *config.Config, logger logging.Logger) (*App, error) {
	db, err := openDB(cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}

	rm := newRepoManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	arch, err := newArchiver(ctx, cfg)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("archive init: %w", err)
	}
	if cfg.ArchiveEnabled() {
		logger.Info(ctx, "reset archive enabled", "bucket", cfg.S3Bucket)
	}

	us := services.NewUserService(db, rm, cfg, logger)
	rs := services.NewReminderService(db, rm, arch, logger)

	return &App{
		config: cfg,
		logger: logger,
		db:     db,
		server: gs.NewGRPCServer(cfg.EndpointAddrGRPC, logger, us, rs, cfg.SecretKey),
	}, nil
}

// Run serves until ctx is cancelled.
func (app *App) Run(ctx context.Context) error {
	app.logger.Info(ctx, "Starting app...")
	if err := app.server.Run(ctx); err != nil {
		return fmt.Errorf("grpc server: %w", err)
	}
	app.logger.Info(ctx, "App stopped")
	return nil
}

func (app *App) Close() error {
	return app.db.Close()
}
