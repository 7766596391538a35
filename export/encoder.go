package export

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"querybench/bench"
)

// RowEncoder writes materialized rows in one output format.
type RowEncoder interface {
	// WriteHeader must be called once before any rows.
	WriteHeader(columns []string) error

	WriteRow(values []bench.Value) error

	// Flush writes anything still buffered to the underlying writer.
	Flush() error

	io.Closer
}

// Format names accepted by NewEncoder.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
	FormatXLSX = "xlsx"
	FormatPDF  = "pdf"
)

// NewEncoder returns the encoder for format writing to w.
func NewEncoder(format string, w io.Writer) (RowEncoder, error) {
	switch strings.ToLower(format) {
	case FormatCSV:
		return NewCSVEncoder(w), nil
	case FormatJSON, "jsonl":
		return NewJSONEncoder(w), nil
	case FormatXLSX, "excel":
		enc, err := NewExcelEncoder(w)
		if err != nil {
			return nil, err
		}
		return enc, nil
	case FormatPDF:
		return NewPDFEncoder(w), nil
	default:
		return nil, &bench.ConfigError{Op: "export", Cause: fmt.Errorf("unknown export format %q", format)}
	}
}

// FormatFromPath guesses the format from a file extension, defaulting to csv.
func FormatFromPath(path string) string {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")) {
	case "json", "jsonl":
		return FormatJSON
	case "xlsx":
		return FormatXLSX
	case "pdf":
		return FormatPDF
	default:
		return FormatCSV
	}
}

// WriteRows streams rows through enc and closes it. Column names come from
// the first row; an empty result still gets a header when columns is set.
func WriteRows(enc RowEncoder, columns []string, rows []bench.Row) error {
	if columns == nil && len(rows) > 0 {
		columns = rows[0].Columns
	}
	if err := enc.WriteHeader(columns); err != nil {
		enc.Close()
		return err
	}
	for i, r := range rows {
		if err := enc.WriteRow(r.Values); err != nil {
			enc.Close()
			return fmt.Errorf("row %d: %w", i+1, err)
		}
	}
	if err := enc.Flush(); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

// cellText renders a value for text formats. Leading formula characters are
// quoted so spreadsheets do not evaluate them.
func cellText(v bench.Value) string {
	s := v.String()
	if len(s) > 0 {
		switch s[0] {
		case '=', '+', '-', '@':
			if v.Kind == bench.KindText || v.Kind == bench.KindBytes {
				s = "'" + s
			}
		}
	}
	return s
}
