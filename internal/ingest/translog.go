package ingest

import (
	"context"
	"encoding/json"

	"hr-ingest/internal/logging"
	"hr-ingest/internal/schema"
)

const transactionLogInsert = "INSERT INTO " + schema.TransactionLogTable +
	" (TransactionType, TransactionData, ErrorMessage) VALUES (?, ?, ?)"

// TransactionLogger appends failed transactions to the audit table. The trail
// is write-only, nothing in the core reads it back.
type TransactionLogger struct {
	db     Querier
	logger *logging.Logger
}

// NewTransactionLogger creates an audit logger bound to one store connection.
func NewTransactionLogger(db Querier, logger *logging.Logger) *TransactionLogger {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &TransactionLogger{db: db, logger: logger}
}

// LogFailure records one failed transaction with its kind, raw payload and
// reason. Audit writes are best-effort: a failure here is logged and
// swallowed, it never fails the batch.
func (t *TransactionLogger) LogFailure(ctx context.Context, kind schema.Kind, raw json.RawMessage, reason string) {
	if _, err := t.db.ExecContext(ctx, transactionLogInsert, string(kind), string(raw), reason); err != nil {
		t.logger.WithFields(map[string]interface{}{
			"transaction_type": string(kind),
			"error":            err.Error(),
		}).Warn("Failed to write transaction audit record")
	}
}
