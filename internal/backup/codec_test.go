package backup

import (
	"testing"
	"time"

	"hr-ingest/internal/schema"
)

func TestCodecRoundTrip(t *testing.T) {
	codec := NewCodec()
	table := schema.MustLookup(schema.KindJobs)

	rows := []map[string]interface{}{
		{"JobID": 1, "JobTitle": "Engineer"},
		{"JobID": 2, "JobTitle": "Analyst"},
	}

	blob, err := codec.Encode(table, rows)
	if err != nil {
		t.Fatalf("unexpected encode error: %v", err)
	}
	if len(blob) == 0 {
		t.Fatal("expected non-empty blob")
	}

	decoded, err := codec.Decode(table, blob)
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}

	if len(decoded) != len(rows) {
		t.Fatalf("expected %d rows, got %d", len(rows), len(decoded))
	}
	if decoded[0]["JobID"] != 1 || decoded[0]["JobTitle"] != "Engineer" {
		t.Errorf("unexpected first row: %+v", decoded[0])
	}
	if decoded[1]["JobID"] != 2 || decoded[1]["JobTitle"] != "Analyst" {
		t.Errorf("unexpected second row: %+v", decoded[1])
	}
}

func TestCodecPreservesRowOrder(t *testing.T) {
	codec := NewCodec()
	table := schema.MustLookup(schema.KindDepartments)

	rows := make([]map[string]interface{}, 50)
	for i := range rows {
		rows[i] = map[string]interface{}{"DepartmentID": i + 1, "DepartmentName": "Department"}
	}

	blob, err := codec.Encode(table, rows)
	if err != nil {
		t.Fatalf("unexpected encode error: %v", err)
	}

	decoded, err := codec.Decode(table, blob)
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}

	for i, row := range decoded {
		if row["DepartmentID"] != i+1 {
			t.Fatalf("row %d out of order: %+v", i, row)
		}
	}
}

func TestCodecNormalizesTimestamps(t *testing.T) {
	codec := NewCodec()
	table := schema.MustLookup(schema.KindHiredEmployees)

	hired := time.Date(2021, 7, 27, 16, 2, 8, 0, time.UTC)
	rows := []map[string]interface{}{
		{
			"FirstName":    []byte("Maria"),
			"LastName":     "Lopez",
			"HireDate":     hired,
			"JobID":        int64(4),
			"DepartmentID": 2,
		},
	}

	blob, err := codec.Encode(table, rows)
	if err != nil {
		t.Fatalf("unexpected encode error: %v", err)
	}

	decoded, err := codec.Decode(table, blob)
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}

	row := decoded[0]
	if row["HireDate"] != "2021-07-27 16:02:08" {
		t.Errorf("HireDate = %v, want canonical text", row["HireDate"])
	}
	if row["FirstName"] != "Maria" {
		t.Errorf("FirstName = %v, want Maria", row["FirstName"])
	}
	if row["JobID"] != 4 {
		t.Errorf("JobID = %v, want 4", row["JobID"])
	}
}

func TestCodecEmptyTableRoundTrip(t *testing.T) {
	codec := NewCodec()
	table := schema.MustLookup(schema.KindJobs)

	blob, err := codec.Encode(table, nil)
	if err != nil {
		t.Fatalf("unexpected encode error: %v", err)
	}
	if len(blob) == 0 {
		t.Fatal("empty table should still produce a valid blob")
	}

	decoded, err := codec.Decode(table, blob)
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if len(decoded) != 0 {
		t.Errorf("expected 0 rows, got %d", len(decoded))
	}
}

func TestCodecMissingColumn(t *testing.T) {
	codec := NewCodec()
	table := schema.MustLookup(schema.KindJobs)

	_, err := codec.Encode(table, []map[string]interface{}{{"JobID": 1}})
	if err == nil {
		t.Fatal("expected error for missing column")
	}
	if backupErr, ok := err.(*BackupError); !ok || backupErr.Type != BackupErrorTypeSerialization {
		t.Errorf("expected serialization error, got %v", err)
	}
}

func TestCodecRejectsGarbageBlob(t *testing.T) {
	codec := NewCodec()
	table := schema.MustLookup(schema.KindJobs)

	_, err := codec.Decode(table, []byte("not an avro container"))
	if err == nil {
		t.Fatal("expected error for garbage blob")
	}
	if backupErr, ok := err.(*BackupError); !ok || backupErr.Type != BackupErrorTypeCorruption {
		t.Errorf("expected corruption error, got %v", err)
	}
}
