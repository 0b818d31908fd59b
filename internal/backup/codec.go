package backup

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"github.com/linkedin/goavro/v2"

	"hr-ingest/internal/schema"
)

// Codec serializes table rows to Avro object container files and back. Each
// blob is bound to its table's fixed record schema, so a blob can only be
// replayed against the table it was taken from.
type Codec struct{}

// NewCodec creates a new snapshot codec
func NewCodec() *Codec {
	return &Codec{}
}

// Encode serializes rows against the table's schema into one binary blob.
// Rows are written in input order and replayed in the same order on decode.
func (c *Codec) Encode(table *schema.Table, rows []map[string]interface{}) ([]byte, error) {
	var buf bytes.Buffer

	writer, err := goavro.NewOCFWriter(goavro.OCFConfig{
		W:      &buf,
		Schema: table.AvroSchema,
	})
	if err != nil {
		return nil, NewSerializationError(fmt.Sprintf("failed to create writer for table %s", table.Name), err)
	}

	records := make([]interface{}, 0, len(rows))
	for i, row := range rows {
		normalized, err := c.normalizeRow(table, row)
		if err != nil {
			return nil, NewSerializationError(fmt.Sprintf("failed to normalize row %d of table %s", i, table.Name), err)
		}
		records = append(records, normalized)
	}

	if len(records) > 0 {
		if err := writer.Append(records); err != nil {
			return nil, NewSerializationError(fmt.Sprintf("failed to serialize rows for table %s", table.Name), err)
		}
	}

	return buf.Bytes(), nil
}

// Decode deserializes a blob back into rows bound to the table's schema.
func (c *Codec) Decode(table *schema.Table, blob []byte) ([]map[string]interface{}, error) {
	reader, err := goavro.NewOCFReader(bytes.NewReader(blob))
	if err != nil {
		return nil, NewCorruptionError(fmt.Sprintf("blob for table %s is not a valid container file", table.Name), err)
	}

	var rows []map[string]interface{}
	for reader.Scan() {
		datum, err := reader.Read()
		if err != nil {
			return nil, NewCorruptionError(fmt.Sprintf("failed to read row %d from blob for table %s", len(rows), table.Name), err)
		}

		native, ok := datum.(map[string]interface{})
		if !ok {
			return nil, NewCorruptionError(fmt.Sprintf("unexpected datum type %T in blob for table %s", datum, table.Name), nil)
		}

		row, err := c.denormalizeRow(table, native)
		if err != nil {
			return nil, NewCorruptionError(fmt.Sprintf("row %d in blob for table %s does not match schema", len(rows), table.Name), err)
		}
		rows = append(rows, row)
	}
	if err := reader.Err(); err != nil {
		return nil, NewCorruptionError(fmt.Sprintf("failed to scan blob for table %s", table.Name), err)
	}

	return rows, nil
}

// normalizeRow coerces database values to the snapshot schema's field types.
// Timestamps become canonical text, numeric widths collapse to 32-bit ints.
func (c *Codec) normalizeRow(table *schema.Table, row map[string]interface{}) (map[string]interface{}, error) {
	normalized := make(map[string]interface{}, len(table.Columns))
	for _, column := range table.Columns {
		value, ok := row[column.Name]
		if !ok {
			return nil, fmt.Errorf("row is missing column %s", column.Name)
		}

		coerced, err := normalizeValue(column, value)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", column.Name, err)
		}
		normalized[column.Name] = coerced
	}
	return normalized, nil
}

// denormalizeRow converts decoded Avro values back to the representation the
// insert path expects.
func (c *Codec) denormalizeRow(table *schema.Table, native map[string]interface{}) (map[string]interface{}, error) {
	row := make(map[string]interface{}, len(table.Columns))
	for _, column := range table.Columns {
		value, ok := native[column.Name]
		if !ok {
			return nil, fmt.Errorf("blob row is missing field %s", column.Name)
		}

		switch column.Type {
		case schema.ColumnTypeInt:
			n, ok := value.(int32)
			if !ok {
				return nil, fmt.Errorf("field %s has type %T, want int", column.Name, value)
			}
			row[column.Name] = int(n)
		case schema.ColumnTypeString:
			s, ok := value.(string)
			if !ok {
				return nil, fmt.Errorf("field %s has type %T, want string", column.Name, value)
			}
			row[column.Name] = s
		default:
			return nil, fmt.Errorf("field %s has unsupported column type %s", column.Name, column.Type)
		}
	}
	return row, nil
}

// timestampLayout is the canonical text form for temporal columns in
// snapshots.
const timestampLayout = "2006-01-02 15:04:05"

func normalizeValue(column schema.Column, value interface{}) (interface{}, error) {
	switch column.Type {
	case schema.ColumnTypeInt:
		switch n := value.(type) {
		case int:
			return int32(n), nil
		case int32:
			return n, nil
		case int64:
			return int32(n), nil
		case []byte:
			parsed, err := strconv.Atoi(string(n))
			if err != nil {
				return nil, fmt.Errorf("value %q is not an integer", n)
			}
			return int32(parsed), nil
		default:
			return nil, fmt.Errorf("value of type %T cannot be coerced to int", value)
		}
	case schema.ColumnTypeString:
		switch s := value.(type) {
		case string:
			return s, nil
		case []byte:
			return string(s), nil
		case time.Time:
			return s.Format(timestampLayout), nil
		default:
			return nil, fmt.Errorf("value of type %T cannot be coerced to string", value)
		}
	default:
		return nil, fmt.Errorf("unsupported column type %s", column.Type)
	}
}
