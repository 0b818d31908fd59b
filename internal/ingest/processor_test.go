package ingest

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"

	"hr-ingest/internal/database"
	"hr-ingest/internal/logging"
	"hr-ingest/internal/schema"
)

func newTestProcessor(t *testing.T) (*BatchProcessor, sqlmock.Sqlmock, func()) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock database: %v", err)
	}

	logger, err := logging.NewLogger(logging.Config{Level: logging.LogLevelQuiet})
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	processor := NewBatchProcessor(db, database.NewService(), logger)
	return processor, mock, func() { db.Close() }
}

func TestProcessBatchPartialFailure(t *testing.T) {
	processor, mock, cleanup := newTestProcessor(t)
	defer cleanup()

	// First record validates against existing references and inserts.
	mock.ExpectQuery("SELECT 1 FROM Departments").WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectQuery("SELECT 1 FROM Jobs").WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectExec("INSERT INTO HiredEmployees").
		WithArgs("A", "B", "2024-01-01", 1, 1).
		WillReturnResult(sqlmock.NewResult(1, 1))

	// Second record fails validation before any lookup, only the audit row
	// hits the store.
	mock.ExpectExec("INSERT INTO TransactionLogs").
		WithArgs("HiredEmployees", `{"FirstName":"C"}`, "LastName is missing or null.").
		WillReturnResult(sqlmock.NewResult(1, 1))

	batch := []json.RawMessage{
		json.RawMessage(`{"FirstName":"A","LastName":"B","HireDate":"2024-01-01","JobID":1,"DepartmentID":1}`),
		json.RawMessage(`{"FirstName":"C"}`),
	}

	result, err := processor.ProcessBatch(context.Background(), "HiredEmployees", batch)
	if err != nil {
		t.Fatalf("unexpected batch error: %v", err)
	}

	if result.SuccessCount != 1 || result.FailureCount != 1 {
		t.Errorf("counts = %d/%d, want 1/1", result.SuccessCount, result.FailureCount)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("expected 1 record error, got %d", len(result.Errors))
	}
	if result.Errors[0].Error != "LastName is missing or null." {
		t.Errorf("unexpected reason: %q", result.Errors[0].Error)
	}
	if string(result.Errors[0].Transaction) != `{"FirstName":"C"}` {
		t.Errorf("transaction not echoed verbatim: %s", result.Errors[0].Transaction)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestProcessBatchInvalidKind(t *testing.T) {
	processor, mock, cleanup := newTestProcessor(t)
	defer cleanup()

	batch := []json.RawMessage{
		json.RawMessage(`{"PayrollID":1}`),
		json.RawMessage(`{"PayrollID":2}`),
	}

	result, err := processor.ProcessBatch(context.Background(), "Payrolls", batch)
	if err != nil {
		t.Fatalf("unexpected batch error: %v", err)
	}

	if result.SuccessCount != 0 || result.FailureCount != 2 {
		t.Errorf("counts = %d/%d, want 0/2", result.SuccessCount, result.FailureCount)
	}
	for i, recordErr := range result.Errors {
		if recordErr.Error != "Invalid transaction type." {
			t.Errorf("record %d reason = %q", i, recordErr.Error)
		}
	}

	// No connection is pinned and nothing touches the store.
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("store should be untouched: %v", err)
	}
}

func TestProcessBatchCountsAlwaysAddUp(t *testing.T) {
	processor, mock, cleanup := newTestProcessor(t)
	defer cleanup()

	mock.ExpectExec("INSERT INTO Departments").WithArgs("Supply Chain").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO TransactionLogs").
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectExec("INSERT INTO Departments").WithArgs("Maintenance").
		WillReturnResult(sqlmock.NewResult(2, 1))

	batch := []json.RawMessage{
		json.RawMessage(`{"DepartmentName":"Supply Chain"}`),
		json.RawMessage(`{}`),
		json.RawMessage(`{"DepartmentName":"Maintenance"}`),
	}

	result, err := processor.ProcessBatch(context.Background(), "Departments", batch)
	if err != nil {
		t.Fatalf("unexpected batch error: %v", err)
	}

	if result.SuccessCount+result.FailureCount != len(batch) {
		t.Errorf("counts %d+%d do not cover %d transactions", result.SuccessCount, result.FailureCount, len(batch))
	}
	if result.SuccessCount != 2 || result.FailureCount != 1 {
		t.Errorf("counts = %d/%d, want 2/1", result.SuccessCount, result.FailureCount)
	}
}

func TestProcessBatchInsertFailureDoesNotAbort(t *testing.T) {
	processor, mock, cleanup := newTestProcessor(t)
	defer cleanup()

	mock.ExpectExec("INSERT INTO Jobs").WithArgs("Engineer").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'Engineer'"})
	mock.ExpectExec("INSERT INTO TransactionLogs").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO Jobs").WithArgs("Analyst").
		WillReturnResult(sqlmock.NewResult(1, 1))

	batch := []json.RawMessage{
		json.RawMessage(`{"JobTitle":"Engineer"}`),
		json.RawMessage(`{"JobTitle":"Analyst"}`),
	}

	result, err := processor.ProcessBatch(context.Background(), "Jobs", batch)
	if err != nil {
		t.Fatalf("unexpected batch error: %v", err)
	}

	if result.SuccessCount != 1 || result.FailureCount != 1 {
		t.Errorf("counts = %d/%d, want 1/1", result.SuccessCount, result.FailureCount)
	}
	if len(result.Errors) != 1 || result.Errors[0].Error == "" {
		t.Errorf("expected a classified insert failure, got %+v", result.Errors)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestProcessBatchAuditFailureIsSwallowed(t *testing.T) {
	processor, mock, cleanup := newTestProcessor(t)
	defer cleanup()

	mock.ExpectExec("INSERT INTO TransactionLogs").
		WillReturnError(&mysql.MySQLError{Number: 1146, Message: "Table 'TransactionLogs' doesn't exist"})

	batch := []json.RawMessage{json.RawMessage(`{}`)}

	result, err := processor.ProcessBatch(context.Background(), "Jobs", batch)
	if err != nil {
		t.Fatalf("audit failure must not fail the batch: %v", err)
	}
	if result.FailureCount != 1 {
		t.Errorf("failure count = %d, want 1", result.FailureCount)
	}
	if result.Errors[0].Error != "JobTitle is missing or null." {
		t.Errorf("unexpected reason: %q", result.Errors[0].Error)
	}
}

func TestInsertStatementModes(t *testing.T) {
	tests := []struct {
		kind string
		mode InsertMode
		want string
	}{
		{"Departments", GenerateIdentity, "INSERT INTO Departments (DepartmentName) VALUES (?)"},
		{"Departments", PreserveIdentity, "INSERT INTO Departments (DepartmentID, DepartmentName) VALUES (?, ?)"},
		{"Jobs", PreserveIdentity, "INSERT INTO Jobs (JobID, JobTitle) VALUES (?, ?)"},
		{"HiredEmployees", GenerateIdentity, "INSERT INTO HiredEmployees (FirstName, LastName, HireDate, JobID, DepartmentID) VALUES (?, ?, ?, ?, ?)"},
	}

	for _, tt := range tests {
		table, ok := schema.Lookup(tt.kind)
		if !ok {
			t.Fatalf("unknown table %s", tt.kind)
		}
		if got := InsertStatement(table, tt.mode); got != tt.want {
			t.Errorf("InsertStatement(%s, %v) = %q, want %q", tt.kind, tt.mode, got, tt.want)
		}
	}
}
