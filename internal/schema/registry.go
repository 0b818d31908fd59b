package schema

import (
	"fmt"
)

// Kind identifies one ingestible entity kind. Kind values double as table
// names: the transaction type of the ingestion API and the table name of the
// backup API are the same string.
type Kind string

const (
	KindHiredEmployees Kind = "HiredEmployees"
	KindDepartments    Kind = "Departments"
	KindJobs           Kind = "Jobs"
)

// TransactionLogTable is the audit table for failed transactions. It is
// write-only and excluded from backup.
const TransactionLogTable = "TransactionLogs"

// ColumnType enumerates the column types carried by the snapshot schema.
type ColumnType string

const (
	ColumnTypeString ColumnType = "string"
	ColumnTypeInt    ColumnType = "int"
)

// Column describes one persisted column of a table.
type Column struct {
	Name string
	Type ColumnType
	// Temporal marks columns whose database representation is a timestamp
	// that must be rendered as canonical text in snapshots.
	Temporal bool
}

// Table is the fixed persisted shape for one kind: its SQL table, its column
// set, its identity column, and its snapshot serialization schema.
type Table struct {
	Kind Kind
	// Name is the SQL table name.
	Name string
	// Columns is the full column set bound to the snapshot schema, in
	// serialization order.
	Columns []Column
	// IdentityColumn is the store-generated key, empty when the table has
	// none in scope. It is omitted on normal insert and written explicitly
	// on restore.
	IdentityColumn string
	// RequiredFields are the fields a transaction must carry to be
	// insertable, in validation order.
	RequiredFields []string
	// AvroSchema is the Avro record schema the table's backup blob is bound
	// to.
	AvroSchema string
}

// InsertColumns returns the columns written on normal (generate-identity)
// insert: every column except the identity column.
func (t *Table) InsertColumns() []Column {
	if t.IdentityColumn == "" {
		return t.Columns
	}

	columns := make([]Column, 0, len(t.Columns)-1)
	for _, c := range t.Columns {
		if c.Name != t.IdentityColumn {
			columns = append(columns, c)
		}
	}
	return columns
}

// Column returns the named column definition.
func (t *Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

const hiredEmployeesAvroSchema = `{
	"name": "HiredEmployee",
	"type": "record",
	"fields": [
		{"name": "FirstName", "type": "string"},
		{"name": "LastName", "type": "string"},
		{"name": "HireDate", "type": "string"},
		{"name": "JobID", "type": "int"},
		{"name": "DepartmentID", "type": "int"}
	]
}`

const departmentsAvroSchema = `{
	"name": "Department",
	"type": "record",
	"fields": [
		{"name": "DepartmentID", "type": "int"},
		{"name": "DepartmentName", "type": "string"}
	]
}`

const jobsAvroSchema = `{
	"name": "Job",
	"type": "record",
	"fields": [
		{"name": "JobID", "type": "int"},
		{"name": "JobTitle", "type": "string"}
	]
}`

var hiredEmployees = Table{
	Kind: KindHiredEmployees,
	Name: "HiredEmployees",
	Columns: []Column{
		{Name: "FirstName", Type: ColumnTypeString},
		{Name: "LastName", Type: ColumnTypeString},
		{Name: "HireDate", Type: ColumnTypeString, Temporal: true},
		{Name: "JobID", Type: ColumnTypeInt},
		{Name: "DepartmentID", Type: ColumnTypeInt},
	},
	RequiredFields: []string{"FirstName", "LastName", "HireDate", "JobID", "DepartmentID"},
	AvroSchema:     hiredEmployeesAvroSchema,
}

var departments = Table{
	Kind: KindDepartments,
	Name: "Departments",
	Columns: []Column{
		{Name: "DepartmentID", Type: ColumnTypeInt},
		{Name: "DepartmentName", Type: ColumnTypeString},
	},
	IdentityColumn: "DepartmentID",
	RequiredFields: []string{"DepartmentName"},
	AvroSchema:     departmentsAvroSchema,
}

var jobs = Table{
	Kind: KindJobs,
	Name: "Jobs",
	Columns: []Column{
		{Name: "JobID", Type: ColumnTypeInt},
		{Name: "JobTitle", Type: ColumnTypeString},
	},
	IdentityColumn: "JobID",
	RequiredFields: []string{"JobTitle"},
	AvroSchema:     jobsAvroSchema,
}

// canonicalOrder is the fixed multi-table order for backupAll/restoreAll.
// Departments and Jobs precede HiredEmployees so restore satisfies foreign-key
// dependencies.
var canonicalOrder = []*Table{&departments, &jobs, &hiredEmployees}

// Lookup returns the table definition for a kind or table name.
func Lookup(name string) (*Table, bool) {
	switch Kind(name) {
	case KindHiredEmployees:
		return &hiredEmployees, true
	case KindDepartments:
		return &departments, true
	case KindJobs:
		return &jobs, true
	default:
		return nil, false
	}
}

// MustLookup returns the table definition for a kind and panics on unknown
// kinds. Reserved for wiring code with compile-time constant kinds.
func MustLookup(kind Kind) *Table {
	table, ok := Lookup(string(kind))
	if !ok {
		panic(fmt.Sprintf("unknown kind %q", kind))
	}
	return table
}

// CanonicalOrder returns the fixed table order for whole-store operations.
func CanonicalOrder() []*Table {
	order := make([]*Table, len(canonicalOrder))
	copy(order, canonicalOrder)
	return order
}

// TableNames returns the canonical table names.
func TableNames() []string {
	names := make([]string, 0, len(canonicalOrder))
	for _, t := range canonicalOrder {
		names = append(names, t.Name)
	}
	return names
}
