package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	"hr-ingest/internal/backup"
	"hr-ingest/internal/ingest"
	"hr-ingest/internal/logging"
	"hr-ingest/internal/report"
)

// BatchProcessor ingests one declared-kind batch.
type BatchProcessor interface {
	ProcessBatch(ctx context.Context, kind string, transactions []json.RawMessage) (*ingest.BatchResult, error)
}

// BackupEngine snapshots tables into blob storage.
type BackupEngine interface {
	BackupTable(ctx context.Context, tableName string) (*backup.TableBackupResult, error)
	BackupAll(ctx context.Context) []*backup.TableBackupResult
}

// RestoreEngine replays table snapshots from blob storage.
type RestoreEngine interface {
	RestoreTable(ctx context.Context, tableName string) (*backup.TableRestoreResult, error)
	RestoreAll(ctx context.Context) []*backup.TableRestoreResult
}

// Reporter runs the read-only reporting queries.
type Reporter interface {
	HiresByQuarter(ctx context.Context) ([]report.QuarterlyHires, error)
	DepartmentsAboveAverage(ctx context.Context) ([]report.DepartmentHires, error)
}

// ServiceDeps carries everything the HTTP front door needs.
type ServiceDeps struct {
	Port int

	DB        *sql.DB
	Processor BatchProcessor
	Backup    BackupEngine
	Restore   RestoreEngine
	Reports   Reporter
	Logger    *logging.Logger
}

// Service is the fasthttp front door for ingestion, backup/restore, and
// reporting.
type Service struct {
	r      *router.Router
	server *fasthttp.Server
	port   int

	db        *sql.DB
	processor BatchProcessor
	backup    BackupEngine
	restore   RestoreEngine
	reports   Reporter
	logger    *logging.Logger
}

// NewService wires the routes and middleware chain.
func NewService(d ServiceDeps) *Service {
	logger := d.Logger
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}

	s := &Service{
		r:         router.New(),
		port:      d.Port,
		db:        d.DB,
		processor: d.Processor,
		backup:    d.Backup,
		restore:   d.Restore,
		reports:   d.Reports,
		logger:    logger,
	}

	s.mountRoutes()

	s.server = &fasthttp.Server{
		Handler:            RecoveryMiddleware(logger, RequestIDMiddleware(LoggingMiddleware(logger, s.r.Handler))),
		Name:               "hr-ingest-api",
		ReadTimeout:        10 * time.Second,
		WriteTimeout:       60 * time.Second,
		MaxRequestBodySize: 16 << 20,
	}

	return s
}

// Handler exposes the full middleware chain, mainly for tests.
func (s *Service) Handler() fasthttp.RequestHandler {
	return s.server.Handler
}

// Start serves until the context is canceled.
func (s *Service) Start(ctx context.Context) error {
	s.logger.WithField("port", s.port).Info("Starting HR ingestion API")

	emergencyShutdown := make(chan error, 1)
	go func() {
		emergencyShutdown <- s.server.ListenAndServe(fmt.Sprintf(":%d", s.port))
	}()

	select {
	case <-ctx.Done():
		return s.server.Shutdown()
	case err := <-emergencyShutdown:
		return err
	}
}

func (s *Service) mountRoutes() {
	s.r.POST("/InsertData", s.insertData)
	s.r.POST("/Backup", s.backupTables)
	s.r.POST("/Restore", s.restoreTables)

	s.r.GET("/reports/hires-by-quarter", s.hiresByQuarter)
	s.r.GET("/reports/departments-above-average", s.departmentsAboveAverage)

	s.r.GET("/health", s.health)
}
