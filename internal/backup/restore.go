package backup

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"hr-ingest/internal/database"
	"hr-ingest/internal/ingest"
	"hr-ingest/internal/logging"
	"hr-ingest/internal/schema"
)

// Restorer is the inverse of Engine: it downloads a table snapshot, decodes
// it against the table's schema, and replays the rows as one transaction with
// identity values preserved.
type Restorer struct {
	db          *sql.DB
	sessions    database.DatabaseService
	storage     StorageProvider
	codec       *Codec
	compression *CompressionManager
	encryption  *EncryptionManager
	config      *Config
	logger      *logging.Logger

	// identityMu serializes identity-preserving replays. The toggle is
	// session state, one table owns it at a time.
	identityMu sync.Mutex
}

// NewRestorer creates a restore engine over an established connection pool.
func NewRestorer(db *sql.DB, sessions database.DatabaseService, storage StorageProvider, config *Config, logger *logging.Logger) *Restorer {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &Restorer{
		db:          db,
		sessions:    sessions,
		storage:     storage,
		codec:       NewCodec(),
		compression: NewCompressionManager(),
		encryption:  NewEncryptionManager(&config.Encryption),
		config:      config,
		logger:      logger,
	}
}

// RestoreTable replays one table snapshot. The replay is transactional and
// fail-fast: the first bad row rolls back the whole table and nothing is
// partially applied.
func (r *Restorer) RestoreTable(ctx context.Context, tableName string) (*TableRestoreResult, error) {
	start := time.Now()
	algorithm := r.config.Compression.EffectiveAlgorithm()

	result := &TableRestoreResult{
		Table:    tableName,
		BlobName: SnapshotBlobName(tableName, algorithm),
	}

	table, ok := schema.Lookup(tableName)
	if !ok {
		err := NewValidationError(fmt.Sprintf("unknown table: %s", tableName), nil)
		return r.failRestore(result, start, err)
	}

	blob, err := r.storage.Retrieve(ctx, result.BlobName)
	if err != nil {
		return r.failRestore(result, start, err)
	}

	blob, err = r.encryption.Decrypt(blob)
	if err != nil {
		return r.failRestore(result, start, err)
	}

	blob, err = r.compression.Decompress(blob, algorithm)
	if err != nil {
		return r.failRestore(result, start, err)
	}

	rows, err := r.codec.Decode(table, blob)
	if err != nil {
		return r.failRestore(result, start, err)
	}

	if err := r.replayRows(ctx, table, rows); err != nil {
		return r.failRestore(result, start, err)
	}

	result.RowCount = len(rows)
	result.Duration = time.Since(start)
	result.Succeeded = true
	r.logger.LogTableRestore(tableName, result.RowCount, result.Duration, nil)

	return result, nil
}

// RestoreAll replays every table snapshot in canonical order: Departments and
// Jobs before HiredEmployees, so foreign keys resolve. One table's failure
// rolls back that table only; the remaining tables still run.
func (r *Restorer) RestoreAll(ctx context.Context) []*TableRestoreResult {
	tables := schema.CanonicalOrder()
	results := make([]*TableRestoreResult, 0, len(tables))

	for _, table := range tables {
		result, _ := r.RestoreTable(ctx, table.Name)
		results = append(results, result)
	}

	return results
}

func (r *Restorer) failRestore(result *TableRestoreResult, start time.Time, err error) (*TableRestoreResult, error) {
	result.Duration = time.Since(start)
	result.Error = err.Error()
	r.logger.LogTableRestore(result.Table, result.RowCount, result.Duration, err)
	return result, err
}

// replayRows inserts all snapshot rows in serialized order inside one
// transaction on one pinned connection.
func (r *Restorer) replayRows(ctx context.Context, table *schema.Table, rows []map[string]interface{}) error {
	conn, err := r.sessions.Session(ctx, r.db)
	if err != nil {
		return NewDatabaseError(fmt.Sprintf("failed to acquire connection for table %s", table.Name), err)
	}
	defer conn.Close()

	return r.withIdentityInsert(ctx, conn, table, func() error {
		tx, err := conn.BeginTx(ctx, nil)
		if err != nil {
			return NewDatabaseError(fmt.Sprintf("failed to begin transaction for table %s", table.Name), err)
		}

		for i, row := range rows {
			if err := ingest.InsertRow(ctx, tx, table, row); err != nil {
				tx.Rollback()
				return NewDatabaseError(fmt.Sprintf("failed to replay row %d into table %s", i, table.Name), err)
			}
		}

		if err := tx.Commit(); err != nil {
			return NewDatabaseError(fmt.Sprintf("failed to commit restore of table %s", table.Name), err)
		}
		return nil
	})
}

const (
	enableIdentityInsertSQL  = "SET SESSION sql_mode = CONCAT(@@SESSION.sql_mode, ',NO_AUTO_VALUE_ON_ZERO')"
	disableIdentityInsertSQL = "SET SESSION sql_mode = REPLACE(@@SESSION.sql_mode, ',NO_AUTO_VALUE_ON_ZERO', '')"
)

// withIdentityInsert runs fn with explicit identity inserts armed on the
// pinned session. The toggle is released on every exit path, success or
// failure, so the session never leaks the mode back to the pool.
func (r *Restorer) withIdentityInsert(ctx context.Context, conn *sql.Conn, table *schema.Table, fn func() error) error {
	if table.IdentityColumn == "" {
		return fn()
	}

	r.identityMu.Lock()
	defer r.identityMu.Unlock()

	if _, err := conn.ExecContext(ctx, enableIdentityInsertSQL); err != nil {
		return NewDatabaseError(fmt.Sprintf("failed to enable identity inserts for table %s", table.Name), err)
	}
	defer func() {
		if _, err := conn.ExecContext(ctx, disableIdentityInsertSQL); err != nil {
			r.logger.WithFields(map[string]interface{}{
				"table": table.Name,
				"error": err.Error(),
			}).Warn("Failed to disable identity inserts")
		}
	}()

	return fn()
}
