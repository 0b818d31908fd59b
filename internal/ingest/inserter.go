package ingest

import (
	"context"
	"fmt"
	"strings"

	"hr-ingest/internal/schema"
)

// InsertMode selects how identity columns are handled on insert.
type InsertMode int

const (
	// GenerateIdentity omits the identity column and lets the store assign
	// it. This is the ingestion path.
	GenerateIdentity InsertMode = iota
	// PreserveIdentity writes the identity column explicitly. This is the
	// restore path and requires the session identity toggle to be enabled.
	PreserveIdentity
)

// InsertStatement builds the parameterized INSERT for a table in the given
// mode.
func InsertStatement(table *schema.Table, mode InsertMode) string {
	columns := table.Columns
	if mode == GenerateIdentity {
		columns = table.InsertColumns()
	}

	names := make([]string, 0, len(columns))
	for _, c := range columns {
		names = append(names, c.Name)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")

	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table.Name, strings.Join(names, ", "), placeholders)
}

// InsertRecord persists one validated record, one round trip, store-generated
// identity. Failures are returned to the caller and never abort sibling
// records.
func InsertRecord(ctx context.Context, db Querier, record schema.Record) error {
	table := schema.MustLookup(record.RecordKind())

	var values []interface{}
	switch r := record.(type) {
	case *schema.HiredEmployee:
		values = []interface{}{*r.FirstName, *r.LastName, *r.HireDate, *r.JobID, *r.DepartmentID}
	case *schema.Department:
		values = []interface{}{*r.DepartmentName}
	case *schema.Job:
		values = []interface{}{*r.JobTitle}
	default:
		return fmt.Errorf("unsupported record type %T", record)
	}

	_, err := db.ExecContext(ctx, InsertStatement(table, GenerateIdentity), values...)
	return err
}

// InsertRow replays one snapshot row with its identity value intact. Values
// are bound in the table's column order.
func InsertRow(ctx context.Context, db Querier, table *schema.Table, row map[string]interface{}) error {
	values := make([]interface{}, 0, len(table.Columns))
	for _, c := range table.Columns {
		value, ok := row[c.Name]
		if !ok {
			return fmt.Errorf("snapshot row is missing column %s", c.Name)
		}
		values = append(values, value)
	}

	_, err := db.ExecContext(ctx, InsertStatement(table, PreserveIdentity), values...)
	return err
}
