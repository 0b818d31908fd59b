package backup

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"hr-ingest/internal/database"
	"hr-ingest/internal/logging"
	"hr-ingest/internal/schema"
)

// SnapshotBlobName returns the deterministic blob name for a table snapshot.
// Restore recomputes the same name, no catalog lookup is needed.
func SnapshotBlobName(table string, algorithm CompressionType) string {
	return table + "_backup.avro" + BlobSuffix(algorithm)
}

// Engine takes table snapshots: it reads every row of a table, serializes
// them against the table's fixed schema, and uploads the resulting blob
// through the compression and encryption pipeline.
type Engine struct {
	db          *sql.DB
	sessions    database.DatabaseService
	storage     StorageProvider
	codec       *Codec
	compression *CompressionManager
	encryption  *EncryptionManager
	config      *Config
	logger      *logging.Logger
}

// NewEngine creates a backup engine over an established connection pool.
func NewEngine(db *sql.DB, sessions database.DatabaseService, storage StorageProvider, config *Config, logger *logging.Logger) *Engine {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &Engine{
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

// BackupTable snapshots one table. The result carries the per-table status;
// the returned error mirrors result.Error for callers that propagate.
func (e *Engine) BackupTable(ctx context.Context, tableName string) (*TableBackupResult, error) {
	start := time.Now()
	algorithm := e.config.Compression.EffectiveAlgorithm()

	result := &TableBackupResult{
		Table:    tableName,
		BlobName: SnapshotBlobName(tableName, algorithm),
	}

	table, ok := schema.Lookup(tableName)
	if !ok {
		err := NewValidationError(fmt.Sprintf("unknown table: %s", tableName), nil)
		return e.failBackup(result, start, err)
	}

	rows, err := e.readRows(ctx, table)
	if err != nil {
		return e.failBackup(result, start, err)
	}
	result.RowCount = len(rows)

	blob, err := e.codec.Encode(table, rows)
	if err != nil {
		return e.failBackup(result, start, err)
	}

	blob, err = e.compression.Compress(blob, algorithm, e.config.Compression.Level)
	if err != nil {
		return e.failBackup(result, start, err)
	}

	blob, err = e.encryption.Encrypt(blob)
	if err != nil {
		return e.failBackup(result, start, err)
	}

	if err := e.storage.Store(ctx, result.BlobName, blob); err != nil {
		return e.failBackup(result, start, err)
	}

	result.BlobSize = int64(len(blob))
	result.Location = e.storage.Location(result.BlobName)
	result.Duration = time.Since(start)
	result.Succeeded = true
	e.logger.LogTableBackup(tableName, result.RowCount, result.BlobSize, result.Duration, nil)

	return result, nil
}

// BackupAll snapshots every table in canonical order. Tables share no mutable
// state, so one table's failure never stops the others.
func (e *Engine) BackupAll(ctx context.Context) []*TableBackupResult {
	tables := schema.CanonicalOrder()
	results := make([]*TableBackupResult, 0, len(tables))

	for _, table := range tables {
		result, _ := e.BackupTable(ctx, table.Name)
		results = append(results, result)
	}

	return results
}

func (e *Engine) failBackup(result *TableBackupResult, start time.Time, err error) (*TableBackupResult, error) {
	result.Duration = time.Since(start)
	result.Error = err.Error()
	e.logger.LogTableBackup(result.Table, result.RowCount, result.BlobSize, result.Duration, err)
	return result, err
}

// readRows loads every row of the table on one pinned connection, in the
// store's natural order.
func (e *Engine) readRows(ctx context.Context, table *schema.Table) ([]map[string]interface{}, error) {
	conn, err := e.sessions.Session(ctx, e.db)
	if err != nil {
		return nil, NewDatabaseError(fmt.Sprintf("failed to acquire connection for table %s", table.Name), err)
	}
	defer conn.Close()

	names := make([]string, 0, len(table.Columns))
	for _, c := range table.Columns {
		names = append(names, c.Name)
	}
	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(names, ", "), table.Name)

	rows, err := conn.QueryContext(ctx, query)
	if err != nil {
		return nil, NewDatabaseError(fmt.Sprintf("failed to read table %s", table.Name), err)
	}
	defer rows.Close()

	var result []map[string]interface{}
	for rows.Next() {
		dest := make([]interface{}, len(table.Columns))
		for i := range dest {
			dest[i] = new(interface{})
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, NewDatabaseError(fmt.Sprintf("failed to scan row from table %s", table.Name), err)
		}

		row := make(map[string]interface{}, len(table.Columns))
		for i, c := range table.Columns {
			row[c.Name] = *(dest[i].(*interface{}))
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, NewDatabaseError(fmt.Sprintf("failed to iterate table %s", table.Name), err)
	}

	return result, nil
}
