package server

import (
	"context"

	"kisanrakshak/internal/config"
	"kisanrakshak/internal/container"
	"kisanrakshak/internal/errors"
	"kisanrakshak/internal/migration"
	"kisanrakshak/ui"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// OpenDatabase connects to PostgreSQL and applies pool limits
func OpenDatabase(ctx context.Context, cfg config.DatabaseConfig) (*sqlx.DB, error) {
	if cfg.URL == "" {
		return nil, errors.ConfigInvalid("DATABASE_URL is required")
	}

	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.URL)
	if err != nil {
		return nil, errors.WithCode(errors.CodeDatabaseError, errors.Wrap(err, "failed to connect to database"))
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	return db, nil
}

// Migrate opens the database and applies pending schema migrations
func Migrate(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	db, err := OpenDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := migration.NewRunner(logger).Run(ctx, db); err != nil {
		return errors.Wrap(err, "database migration failed")
	}
	return nil
}

// Run wires the application and serves the API until ctx is cancelled
func Run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	db, err := OpenDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}

	if err := migration.NewRunner(logger).Run(ctx, db); err != nil {
		db.Close()
		return errors.Wrap(err, "database migration failed")
	}

	c, err := container.New(cfg, logger)
	if err != nil {
		db.Close()
		return errors.Wrap(err, "failed to create application container")
	}
	defer func() {
		if err := c.Shutdown(context.Background()); err != nil {
			logger.Warn("shutdown finished with error", zap.Error(err))
		}
	}()

	// the container owns db from here on
	c.DB = db
	if err := c.InitLLM(ctx); err != nil {
		return err
	}
	if err := c.InitWithDatabase(db); err != nil {
		return errors.Wrap(err, "failed to initialize container")
	}

	if c.Scheduler != nil {
		c.Scheduler.Start()
	}

	api := ui.NewApp(ui.Config{
		Port:           cfg.Server.Port,
		RequestTimeout: cfg.Server.RequestTimeout,
		MaxUploadBytes: cfg.Storage.MaxBytes,
	}, ui.Deps{
		Users:     c.Users,
		Flows:     c.Flows,
		Community: c.Community,
		Insurance: c.Insurance,
		Crops:     c.Crops,
		Blobs:     c.Blobs,
		Usage:     c.Usage,
		Events:    c.Events,
		Health:    db.PingContext,
		Logger:    logger,
	})
	return api.Start(ctx)
}
