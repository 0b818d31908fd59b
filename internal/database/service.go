package database

import (
	"context"
	"database/sql"
	"time"

	"hr-ingest/internal/errors"
	"hr-ingest/internal/logging"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
)

// DatabaseService defines the interface for database connection handling.
// The rest of the system obtains sessions through this interface; failure to
// provide one is fatal to the surrounding request.
type DatabaseService interface {
	Connect(config DatabaseConfig) (*sql.DB, error)
	TestConnection(db *sql.DB) error
	Close(db *sql.DB) error
	GetVersion(db *sql.DB) (string, error)
	Session(ctx context.Context, db *sql.DB) (*sql.Conn, error)
}

// Service implements the DatabaseService interface
type Service struct {
	connectionTimeout time.Duration
	maxRetries        int
	retryDelay        time.Duration
	logger            *logging.Logger
	retryHandler      *errors.RetryHandler
}

// NewService creates a new database service with default settings
func NewService() *Service {
	return &Service{
		connectionTimeout: 30 * time.Second,
		maxRetries:        3,
		retryDelay:        2 * time.Second,
		logger:            logging.NewDefaultLogger(),
		retryHandler:      errors.NewDefaultRetryHandler(),
	}
}

// NewServiceWithOptions creates a new database service with custom options
func NewServiceWithOptions(timeout time.Duration, maxRetries int, retryDelay time.Duration) *Service {
	retryConfig := errors.RetryConfig{
		MaxAttempts: maxRetries,
		BaseDelay:   retryDelay,
		MaxDelay:    30 * time.Second,
		Multiplier:  2.0,
	}

	return &Service{
		connectionTimeout: timeout,
		maxRetries:        maxRetries,
		retryDelay:        retryDelay,
		logger:            logging.NewDefaultLogger(),
		retryHandler:      errors.NewRetryHandler(retryConfig),
	}
}

// NewServiceWithLogger creates a new database service with a custom logger
func NewServiceWithLogger(logger *logging.Logger) *Service {
	return &Service{
		connectionTimeout: 30 * time.Second,
		maxRetries:        3,
		retryDelay:        2 * time.Second,
		logger:            logger,
		retryHandler:      errors.NewDefaultRetryHandler(),
	}
}

// Connect establishes a connection to the MySQL database with retry logic
func (s *Service) Connect(config DatabaseConfig) (*sql.DB, error) {
	startTime := time.Now()

	s.logger.WithFields(map[string]interface{}{
		"host":     config.Host,
		"database": config.Database,
		"port":     config.Port,
	}).Info("Attempting database connection")

	ctx, cancel := errors.CreateContextWithTimeout(s.connectionTimeout)
	defer cancel()

	var db *sql.DB
	err := s.retryHandler.Retry(ctx, func() error {
		var connectErr error

		dsn := config.DSN()
		db, connectErr = sql.Open("mysql", dsn)
		if connectErr != nil {
			return errors.WrapError(connectErr, "failed to open database connection")
		}

		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)

		if testErr := s.TestConnection(db); testErr != nil {
			db.Close()
			return testErr
		}

		return nil
	})

	duration := time.Since(startTime)
	success := err == nil

	s.logger.LogDatabaseConnection(config.Host, config.Database, success, duration, err)

	if err != nil {
		return nil, err
	}

	return db, nil
}

// TestConnection verifies that the database connection is working
func (s *Service) TestConnection(db *sql.DB) error {
	if db == nil {
		return errors.NewAppError(errors.ErrorTypeValidation, "database connection is nil", nil)
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.connectionTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return errors.WrapError(err, "failed to ping database")
	}

	s.logger.Debug("Database connection test successful")
	return nil
}

// Close gracefully closes the database connection
func (s *Service) Close(db *sql.DB) error {
	if db == nil {
		s.logger.Debug("Database connection is nil, nothing to close")
		return nil
	}

	s.logger.Debug("Closing database connection")
	if err := db.Close(); err != nil {
		s.logger.WithField("error", err.Error()).Error("Failed to close database connection")
		return errors.WrapError(err, "failed to close database connection")
	}

	s.logger.Debug("Database connection closed successfully")
	return nil
}

// GetVersion retrieves the MySQL server version
func (s *Service) GetVersion(db *sql.DB) (string, error) {
	if db == nil {
		return "", errors.NewAppError(errors.ErrorTypeValidation, "database connection is nil", nil)
	}

	var version string
	query := "SELECT VERSION()"
	startTime := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), s.connectionTimeout)
	defer cancel()

	err := db.QueryRowContext(ctx, query).Scan(&version)
	duration := time.Since(startTime)

	s.logger.LogSQLExecution(query, duration, 1, err)

	if err != nil {
		return "", errors.WrapError(err, "failed to get database version")
	}

	s.logger.WithField("version", version).Debug("Retrieved database version")
	return version, nil
}

// Session pins one connection from the pool for exclusive use by a batch or
// table operation. The caller owns it for the full operation lifetime and must
// release it with Close on every exit path.
func (s *Service) Session(ctx context.Context, db *sql.DB) (*sql.Conn, error) {
	if db == nil {
		return nil, errors.NewAppError(errors.ErrorTypeValidation, "database connection is nil", nil)
	}

	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, errors.WrapError(err, "failed to acquire database session")
	}

	return conn, nil
}
