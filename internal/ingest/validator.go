package ingest

import (
	"context"
	"database/sql"
	"fmt"

	"hr-ingest/internal/schema"
)

// Querier is the read/write surface validators and inserters need. It is
// satisfied by *sql.DB, *sql.Conn and *sql.Tx, so a batch can pin one
// connection and hand it to every collaborator.
type Querier interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// ValidationError is a per-record rule failure. It is a value, not a fault:
// the batch collects it and keeps going.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func missingField(field string) *ValidationError {
	return &ValidationError{Message: field + " is missing or null."}
}

// Validator applies the per-kind rule set: required fields first, then
// referential existence for hiring records. Existence lookups always hit the
// store, no caching, so a row inserted earlier in the same batch is visible
// to later records.
type Validator struct {
	db Querier
}

// NewValidator creates a validator bound to one store connection.
func NewValidator(db Querier) *Validator {
	return &Validator{db: db}
}

// Validate checks one decoded record. It returns a *ValidationError for rule
// failures and a plain error for store faults during existence lookups.
func (v *Validator) Validate(ctx context.Context, record schema.Record) error {
	switch r := record.(type) {
	case *schema.HiredEmployee:
		return v.validateHiredEmployee(ctx, r)
	case *schema.Department:
		if r.DepartmentName == nil {
			return missingField("DepartmentName")
		}
		return nil
	case *schema.Job:
		if r.JobTitle == nil {
			return missingField("JobTitle")
		}
		return nil
	default:
		return fmt.Errorf("unsupported record type %T", record)
	}
}

func (v *Validator) validateHiredEmployee(ctx context.Context, r *schema.HiredEmployee) error {
	// First missing field short-circuits, in declaration order.
	switch {
	case r.FirstName == nil:
		return missingField("FirstName")
	case r.LastName == nil:
		return missingField("LastName")
	case r.HireDate == nil:
		return missingField("HireDate")
	case r.JobID == nil:
		return missingField("JobID")
	case r.DepartmentID == nil:
		return missingField("DepartmentID")
	}

	exists, err := v.rowExists(ctx, "SELECT 1 FROM Departments WHERE DepartmentID = ?", *r.DepartmentID)
	if err != nil {
		return fmt.Errorf("failed to check department existence: %w", err)
	}
	if !exists {
		return &ValidationError{Message: "DepartmentID does not exist in Departments."}
	}

	exists, err = v.rowExists(ctx, "SELECT 1 FROM Jobs WHERE JobID = ?", *r.JobID)
	if err != nil {
		return fmt.Errorf("failed to check job existence: %w", err)
	}
	if !exists {
		return &ValidationError{Message: "JobID does not exist in Jobs."}
	}

	return nil
}

func (v *Validator) rowExists(ctx context.Context, query string, id int) (bool, error) {
	var one int
	err := v.db.QueryRowContext(ctx, query, id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
