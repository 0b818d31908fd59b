package application

import (
	"context"
	"database/sql"
	"fmt"

	"hr-ingest/internal/api"
	"hr-ingest/internal/backup"
	"hr-ingest/internal/database"
	appErrors "hr-ingest/internal/errors"
	"hr-ingest/internal/ingest"
	"hr-ingest/internal/logging"
	"hr-ingest/internal/report"
	"hr-ingest/internal/secrets"
)

// Config holds the full application configuration.
type Config struct {
	Database database.DatabaseConfig `mapstructure:"database" yaml:"database"`
	Secrets  secrets.Config          `mapstructure:"secrets" yaml:"secrets"`
	Backup   backup.Config           `mapstructure:"backup" yaml:"backup"`

	Port      int    `mapstructure:"port" yaml:"port"`
	Verbose   bool   `mapstructure:"verbose" yaml:"verbose"`
	Quiet     bool   `mapstructure:"quiet" yaml:"quiet"`
	LogFile   string `mapstructure:"log_file" yaml:"log_file"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`
}

// LogLevel derives the logger level from the verbosity flags.
func (c *Config) LogLevel() logging.LogLevel {
	switch {
	case c.Quiet:
		return logging.LogLevelQuiet
	case c.Verbose:
		return logging.LogLevelVerbose
	default:
		return logging.LogLevelNormal
	}
}

// Application owns the wired service graph: one database pool, one storage
// provider, and the ingestion, backup, restore, and reporting services on
// top of them.
type Application struct {
	config Config

	db        *sql.DB
	dbService *database.Service
	storage   backup.StorageProvider

	Processor *ingest.BatchProcessor
	Backup    *backup.Engine
	Restore   *backup.Restorer
	Reports   *report.Service

	logger          *logging.Logger
	shutdownHandler *appErrors.GracefulShutdownHandler
}

// NewApplication connects the database, builds the storage provider, and
// wires the services. The caller owns Close.
func NewApplication(ctx context.Context, config Config) (*Application, error) {
	logger, err := logging.NewLogger(logging.Config{
		Level:   config.LogLevel(),
		Format:  config.LogFormat,
		LogFile: config.LogFile,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	if err := resolvePassword(&config); err != nil {
		return nil, err
	}

	config.Database.SetDefaults()
	if err := config.Database.Validate(); err != nil {
		return nil, err
	}

	config.Backup.SetDefaults()
	config.Backup.LoadFromEnvironment()
	if err := config.Backup.Validate(); err != nil {
		return nil, err
	}

	dbService := database.NewServiceWithLogger(logger)
	db, err := dbService.Connect(config.Database)
	if err != nil {
		return nil, err
	}

	storage, err := backup.NewStorageProviderFactory().CreateStorageProvider(ctx, config.Backup.Storage)
	if err != nil {
		dbService.Close(db)
		return nil, err
	}

	app := &Application{
		config:          config,
		db:              db,
		dbService:       dbService,
		storage:         storage,
		Processor:       ingest.NewBatchProcessor(db, dbService, logger),
		Backup:          backup.NewEngine(db, dbService, storage, &config.Backup, logger),
		Restore:         backup.NewRestorer(db, dbService, storage, &config.Backup, logger),
		Reports:         report.NewService(db, logger),
		logger:          logger,
		shutdownHandler: appErrors.NewGracefulShutdownHandler(),
	}

	return app, nil
}

// resolvePassword fills the database password from the configured secret
// source when the config itself carries none.
func resolvePassword(config *Config) error {
	if config.Database.Password != "" {
		return nil
	}

	source, err := secrets.NewSource(config.Secrets)
	if err != nil {
		return err
	}

	password, err := source.Resolve("DB_PASSWORD")
	if err != nil {
		return fmt.Errorf("failed to resolve database password: %w", err)
	}

	config.Database.Password = password
	return nil
}

// Logger returns the application logger.
func (app *Application) Logger() *logging.Logger {
	return app.logger
}

// DB returns the shared connection pool.
func (app *Application) DB() *sql.DB {
	return app.db
}

// Serve runs the HTTP front door until a shutdown signal or a server fault.
func (app *Application) Serve(ctx context.Context) error {
	server := api.NewService(api.ServiceDeps{
		Port:      app.config.Port,
		DB:        app.db,
		Processor: app.Processor,
		Backup:    app.Backup,
		Restore:   app.Restore,
		Reports:   app.Reports,
		Logger:    app.logger,
	})

	serveCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	app.shutdownHandler.RegisterShutdownFunc(func() error {
		app.logger.Info("Received shutdown signal, stopping HTTP server")
		cancel()
		return nil
	})
	app.shutdownHandler.Start()

	err := server.Start(serveCtx)
	app.logger.Info("HTTP server stopped")
	return err
}

// Close releases the database pool and any storage handles.
func (app *Application) Close() error {
	var firstErr error

	if closer, ok := app.storage.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			firstErr = err
		}
	}

	if app.db != nil {
		if err := app.dbService.Close(app.db); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}
