package ingest

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"time"

	"hr-ingest/internal/database"
	apperrors "hr-ingest/internal/errors"
	"hr-ingest/internal/logging"
	"hr-ingest/internal/schema"
)

// RecordError pairs one failed transaction with its reason. Transaction is
// echoed back verbatim so the caller can identify and resubmit it.
type RecordError struct {
	Transaction json.RawMessage `json:"transaction"`
	Error       string          `json:"error"`
}

// BatchResult aggregates one batch outcome. Errors preserves input order and
// SuccessCount+FailureCount always equals the number of submitted
// transactions.
type BatchResult struct {
	SuccessCount int           `json:"successCount"`
	FailureCount int           `json:"failureCount"`
	Errors       []RecordError `json:"errors"`
}

// BatchProcessor drives validate, insert and audit-log over one ordered batch
// of a single declared kind. Each batch pins one store connection for its
// whole lifetime and commits per record, so reported successes are durable
// even if a later record fails or the process dies mid-batch.
type BatchProcessor struct {
	db         *sql.DB
	sessions   database.DatabaseService
	logger     *logging.Logger
	classifier *apperrors.ErrorClassifier
}

// NewBatchProcessor creates a processor over an established connection pool.
func NewBatchProcessor(db *sql.DB, sessions database.DatabaseService, logger *logging.Logger) *BatchProcessor {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &BatchProcessor{
		db:         db,
		sessions:   sessions,
		logger:     logger,
		classifier: apperrors.NewErrorClassifier(),
	}
}

// ProcessBatch runs one batch of transactions of the declared kind.
//
// An unknown kind fails every transaction up front with no store work. A
// known kind acquires one connection, then processes transactions in input
// order: decode, validate, insert, and on any per-record failure append the
// (transaction, reason) pair and write the audit row. Record-level failures
// never abort the batch, only a failure to acquire the connection does.
func (p *BatchProcessor) ProcessBatch(ctx context.Context, kind string, transactions []json.RawMessage) (*BatchResult, error) {
	start := time.Now()
	result := &BatchResult{Errors: []RecordError{}}

	table, ok := schema.Lookup(kind)
	if !ok {
		for _, raw := range transactions {
			result.FailureCount++
			result.Errors = append(result.Errors, RecordError{Transaction: raw, Error: "Invalid transaction type."})
		}
		p.logger.LogBatchProcessed(kind, len(transactions), 0, result.FailureCount, time.Since(start))
		return result, nil
	}

	conn, err := p.sessions.Session(ctx, p.db)
	if err != nil {
		return nil, apperrors.WrapError(err, "failed to acquire batch connection")
	}
	defer conn.Close()

	validator := NewValidator(conn)
	auditLog := NewTransactionLogger(conn, p.logger)

	for _, raw := range transactions {
		if reason, ok := p.processRecord(ctx, conn, validator, table.Kind, raw); !ok {
			result.FailureCount++
			result.Errors = append(result.Errors, RecordError{Transaction: raw, Error: reason})
			auditLog.LogFailure(ctx, table.Kind, raw, reason)
			p.logger.LogRecordFailure(string(table.Kind), reason)
			continue
		}
		result.SuccessCount++
	}

	p.logger.LogBatchProcessed(kind, len(transactions), result.SuccessCount, result.FailureCount, time.Since(start))
	return result, nil
}

// processRecord runs one transaction through decode, validate and insert. It
// returns (reason, false) on failure. Store faults during validation or
// insert are per-record failures too, a connectivity blip on one record must
// not sink the rest of the batch.
func (p *BatchProcessor) processRecord(ctx context.Context, conn Querier, validator *Validator, kind schema.Kind, raw json.RawMessage) (string, bool) {
	record, err := schema.DecodeRecord(kind, raw)
	if err != nil {
		return err.Error(), false
	}

	if err := validator.Validate(ctx, record); err != nil {
		var validationErr *ValidationError
		if stderrors.As(err, &validationErr) {
			return validationErr.Message, false
		}
		return p.classifier.ClassifyError(err).GetUserMessage(), false
	}

	if err := InsertRecord(ctx, conn, record); err != nil {
		return p.classifier.ClassifyError(err).GetUserMessage(), false
	}

	return "", true
}
