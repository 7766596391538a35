package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"querybench/bench"
	"querybench/session"
)

// ReportDoc is the on-disk shape of a run report. Times are milliseconds.
type ReportDoc struct {
	RunID       string    `json:"run_id" yaml:"run_id"`
	Driver      string    `json:"driver" yaml:"driver"`
	StartedAt   time.Time `json:"started_at" yaml:"started_at"`
	ElapsedMS   float64   `json:"elapsed_ms" yaml:"elapsed_ms"`
	Repetitions int       `json:"repetitions" yaml:"repetitions"`
	DryRunRows  int       `json:"dry_run_rows" yaml:"dry_run_rows"`
	Columns     []string  `json:"columns,omitempty" yaml:"columns,omitempty"`
	Query       PhaseDoc  `json:"query" yaml:"query"`
	Fetch       PhaseDoc  `json:"fetch" yaml:"fetch"`
}

type PhaseDoc struct {
	SamplesMS []float64           `json:"samples_ms" yaml:"samples_ms"`
	Stats     bench.RunStatistics `json:"stats" yaml:"stats"`
}

// NewReportDoc flattens r for serialization.
func NewReportDoc(r *session.Report) ReportDoc {
	doc := ReportDoc{
		RunID:       r.RunID,
		Driver:      r.Driver,
		StartedAt:   r.StartedAt,
		ElapsedMS:   bench.Millis(r.Elapsed),
		Repetitions: r.Repetitions,
		DryRunRows:  len(r.DryRun),
		Query:       PhaseDoc{SamplesMS: millis(r.QueryTimes), Stats: r.QueryStats},
		Fetch:       PhaseDoc{SamplesMS: millis(r.FetchTimes), Stats: r.FetchStats},
	}
	if len(r.DryRun) > 0 {
		doc.Columns = r.DryRun[0].Columns
	}
	return doc
}

func millis(ds []time.Duration) []float64 {
	out := make([]float64, len(ds))
	for i, d := range ds {
		out[i] = bench.Millis(d)
	}
	return out
}

// WriteReport encodes r as yaml or json.
func WriteReport(w io.Writer, format string, r *session.Report) error {
	doc := NewReportDoc(r)
	switch strings.ToLower(format) {
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	default:
		return &bench.ConfigError{Op: "report", Cause: fmt.Errorf("unknown report format %q", format)}
	}
}

// WriteReportFile writes r to path; the extension picks yaml or json.
func WriteReportFile(path string, r *session.Report) error {
	format := "yaml"
	if strings.EqualFold(filepath.Ext(path), ".json") {
		format = "json"
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	if err := WriteReport(f, format, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteRowsFile exports rows to path in format, or the format implied by the extension.
func WriteRowsFile(path, format string, rows []bench.Row) error {
	if format == "" {
		format = FormatFromPath(path)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export: %w", err)
	}
	enc, err := NewEncoder(format, f)
	if err != nil {
		f.Close()
		return err
	}
	if err := WriteRows(enc, nil, rows); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
