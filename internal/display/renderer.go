package display

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"hr-ingest/internal/backup"
	"hr-ingest/internal/ingest"
	"hr-ingest/internal/report"
)

// OutputFormat selects how command results are rendered.
type OutputFormat string

const (
	FormatTable OutputFormat = "table"
	FormatJSON  OutputFormat = "json"
	FormatYAML  OutputFormat = "yaml"
)

// ParseOutputFormat maps a flag value to an OutputFormat.
func ParseOutputFormat(value string) (OutputFormat, error) {
	switch strings.ToLower(value) {
	case "", string(FormatTable):
		return FormatTable, nil
	case string(FormatJSON):
		return FormatJSON, nil
	case string(FormatYAML):
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported output format '%s', must be one of: table, json, yaml", value)
	}
}

// Renderer writes command results in the configured format. Table output is
// colorized when the terminal supports it; json and yaml stay plain so they
// remain machine-readable.
type Renderer struct {
	colors ColorSystem
	format OutputFormat
	writer io.Writer
}

// NewRenderer creates a renderer over the given writer.
func NewRenderer(format OutputFormat, theme ColorTheme, writer io.Writer) *Renderer {
	return &Renderer{
		colors: NewColorSystem(theme),
		format: format,
		writer: writer,
	}
}

// RenderBatchResult writes an ingestion batch summary.
func (r *Renderer) RenderBatchResult(kind string, result *ingest.BatchResult) error {
	if r.format != FormatTable {
		return r.renderStructured(result)
	}

	fmt.Fprintf(r.writer, "%s: %s succeeded, %s failed\n",
		kind,
		r.colors.Success(strconv.Itoa(result.SuccessCount)),
		r.colors.Failure(strconv.Itoa(result.FailureCount)))

	if len(result.Errors) == 0 {
		return nil
	}

	rows := make([][]string, 0, len(result.Errors))
	for _, recordErr := range result.Errors {
		rows = append(rows, []string{string(recordErr.Transaction), recordErr.Error})
	}
	return r.renderTable([]string{"Transaction", "Error"}, rows)
}

// RenderBackupResults writes one row per table backup.
func (r *Renderer) RenderBackupResults(results []*backup.TableBackupResult) error {
	if r.format != FormatTable {
		return r.renderStructured(results)
	}

	rows := make([][]string, 0, len(results))
	for _, result := range results {
		rows = append(rows, []string{
			result.Table,
			r.statusCell(result.Succeeded, result.Error),
			strconv.Itoa(result.RowCount),
			formatBytes(result.BlobSize),
			result.Location,
		})
	}
	return r.renderTable([]string{"Table", "Status", "Rows", "Size", "Location"}, rows)
}

// RenderRestoreResults writes one row per table restore.
func (r *Renderer) RenderRestoreResults(results []*backup.TableRestoreResult) error {
	if r.format != FormatTable {
		return r.renderStructured(results)
	}

	rows := make([][]string, 0, len(results))
	for _, result := range results {
		rows = append(rows, []string{
			result.Table,
			r.statusCell(result.Succeeded, result.Error),
			strconv.Itoa(result.RowCount),
			result.Duration.Round(time.Millisecond).String(),
		})
	}
	return r.renderTable([]string{"Table", "Status", "Rows", "Duration"}, rows)
}

// RenderQuarterlyHires writes the hires-by-quarter report.
func (r *Renderer) RenderQuarterlyHires(rows []report.QuarterlyHires) error {
	if r.format != FormatTable {
		return r.renderStructured(rows)
	}

	tableRows := make([][]string, 0, len(rows))
	for _, row := range rows {
		tableRows = append(tableRows, []string{
			row.Department,
			row.Job,
			strconv.Itoa(row.Q1),
			strconv.Itoa(row.Q2),
			strconv.Itoa(row.Q3),
			strconv.Itoa(row.Q4),
		})
	}
	return r.renderTable([]string{"Department", "Job", "Q1", "Q2", "Q3", "Q4"}, tableRows)
}

// RenderDepartmentHires writes the above-average departments report.
func (r *Renderer) RenderDepartmentHires(rows []report.DepartmentHires) error {
	if r.format != FormatTable {
		return r.renderStructured(rows)
	}

	tableRows := make([][]string, 0, len(rows))
	for _, row := range rows {
		tableRows = append(tableRows, []string{
			strconv.Itoa(row.DepartmentID),
			row.Department,
			strconv.Itoa(row.Hired),
		})
	}
	return r.renderTable([]string{"ID", "Department", "Hired"}, tableRows)
}

// RenderError writes a command failure message.
func (r *Renderer) RenderError(message string) {
	fmt.Fprintln(r.writer, r.colors.Failure(message))
}

func (r *Renderer) statusCell(succeeded bool, errMessage string) string {
	if succeeded {
		return r.colors.Success("OK")
	}
	return r.colors.Failure("FAILED: " + errMessage)
}

func (r *Renderer) renderStructured(data interface{}) error {
	switch r.format {
	case FormatJSON:
		encoded, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal result to JSON: %w", err)
		}
		_, err = fmt.Fprintln(r.writer, string(encoded))
		return err
	case FormatYAML:
		encoded, err := yaml.Marshal(data)
		if err != nil {
			return fmt.Errorf("failed to marshal result to YAML: %w", err)
		}
		_, err = fmt.Fprint(r.writer, string(encoded))
		return err
	default:
		return fmt.Errorf("unsupported output format: %s", r.format)
	}
}

// renderTable writes a padded plain-text table. Column widths follow the
// widest cell; colored cells pad by their visible width, not the escape
// sequence length.
func (r *Renderer) renderTable(headers []string, rows [][]string) error {
	widths := make([]int, len(headers))
	for i, header := range headers {
		widths[i] = len(header)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && visibleWidth(cell) > widths[i] {
				widths[i] = visibleWidth(cell)
			}
		}
	}

	writeRow := func(cells []string) {
		parts := make([]string, len(cells))
		for i, cell := range cells {
			padding := widths[i] - visibleWidth(cell)
			if padding < 0 {
				padding = 0
			}
			parts[i] = cell + strings.Repeat(" ", padding)
		}
		fmt.Fprintln(r.writer, strings.TrimRight(strings.Join(parts, "  "), " "))
	}

	writeRow(headers)

	separators := make([]string, len(headers))
	for i, width := range widths {
		separators[i] = strings.Repeat("-", width)
	}
	writeRow(separators)

	for _, row := range rows {
		writeRow(row)
	}
	return nil
}

// visibleWidth measures a cell ignoring ANSI escape sequences.
func visibleWidth(cell string) int {
	width := 0
	inEscape := false
	for _, r := range cell {
		switch {
		case inEscape:
			if r == 'm' {
				inEscape = false
			}
		case r == '\x1b':
			inEscape = true
		default:
			width++
		}
	}
	return width
}

// formatBytes renders a blob size in human units.
func formatBytes(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
