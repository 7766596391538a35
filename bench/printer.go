package bench

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

func PrintStats(w io.Writer, label string, s RunStatistics) {
	fmt.Fprintf(w, "\n┌─────────────────────────────────────────┐\n")
	fmt.Fprintf(w, "│  %-39s│\n", label)
	fmt.Fprintf(w, "├─────────────────────────────────────────┤\n")
	fmt.Fprintf(w, "│  Samples:      %-24d│\n", s.Count)
	fmt.Fprintf(w, "│  Total:        %-24s│\n", FmtMillis(s.Sum))
	fmt.Fprintf(w, "├─────────────────────────────────────────┤\n")
	fmt.Fprintf(w, "│  Mean:         %-24s│\n", FmtMillis(s.Mean))
	fmt.Fprintf(w, "│  Std dev:      %-24s│\n", FmtMillis(s.StdDev))
	fmt.Fprintf(w, "│  Min:          %-24s│\n", FmtMillis(s.Min))
	fmt.Fprintf(w, "│  Max:          %-24s│\n", FmtMillis(s.Max))
	fmt.Fprintf(w, "│  p50:          %-24s│\n", FmtMillis(s.P50))
	fmt.Fprintf(w, "│  p90:          %-24s│\n", FmtMillis(s.P90))
	fmt.Fprintf(w, "│  p95:          %-24s│\n", FmtMillis(s.P95))
	fmt.Fprintf(w, "│  p99:          %-24s│\n", FmtMillis(s.P99))
	fmt.Fprintf(w, "└─────────────────────────────────────────┘\n")
}

// PrintPhases puts the query and fetch phases side by side.
func PrintPhases(w io.Writer, query, fetch RunStatistics) {
	fmt.Fprintf(w, "\n╔═════════════════════════════════════════════════════════════╗\n")
	fmt.Fprintf(w, "║  QUERY vs FETCH                                             ║\n")
	fmt.Fprintf(w, "╠═══════════════════╦════════════════╦════════════════════════╣\n")
	fmt.Fprintf(w, "║  Metric           ║  Query         ║  Fetch                 ║\n")
	fmt.Fprintf(w, "╠═══════════════════╬════════════════╬════════════════════════╣\n")
	fmt.Fprintf(w, "║  Mean             ║  %-13s ║  %-21s ║\n", FmtMillis(query.Mean), FmtMillis(fetch.Mean))
	fmt.Fprintf(w, "║  Std dev          ║  %-13s ║  %-21s ║\n", FmtMillis(query.StdDev), FmtMillis(fetch.StdDev))
	fmt.Fprintf(w, "║  p50              ║  %-13s ║  %-21s ║\n", FmtMillis(query.P50), FmtMillis(fetch.P50))
	fmt.Fprintf(w, "║  p95              ║  %-13s ║  %-21s ║\n", FmtMillis(query.P95), FmtMillis(fetch.P95))
	fmt.Fprintf(w, "║  Max              ║  %-13s ║  %-21s ║\n", FmtMillis(query.Max), FmtMillis(fetch.Max))
	fmt.Fprintf(w, "╚═══════════════════╩════════════════╩════════════════════════╝\n")
}

// PrintSamples lists the raw per-repetition timings.
func PrintSamples(w io.Writer, query, fetch []time.Duration) {
	fmt.Fprintf(w, "Query Times (ms): %s\n", joinMillis(query))
	fmt.Fprintf(w, "Fetch Times (ms): %s\n", joinMillis(fetch))
}

// PrintSteadyState reports whether the query phase stayed within tolerance.
func PrintSteadyState(w io.Writer, samples []time.Duration, tolerance float64) {
	steady, maxDev := SteadyState(samples, tolerance)
	fmt.Fprintf(w, "\n── Steady-State Check ──\n")
	fmt.Fprintf(w, "  Max query deviation: %.1f%%\n", maxDev*100)
	if steady {
		fmt.Fprintf(w, "  ✅ PASSED (within ±%.0f%%)\n", tolerance*100)
	} else {
		fmt.Fprintf(w, "  ⚠️  FAILED (%.1f%% > %.0f%%)\n", maxDev*100, tolerance*100)
	}
}

// PrintRows renders the dry-run rows as a table. limit <= 0 prints all rows.
func PrintRows(w io.Writer, rows []Row, limit int) {
	fmt.Fprintf(w, "Record Count: %d\n", len(rows))
	if len(rows) == 0 {
		return
	}

	shown := rows
	if limit > 0 && len(rows) > limit {
		shown = rows[:limit]
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(rows[0].Columns...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	for _, r := range shown {
		cells := make([]string, len(r.Values))
		for i, v := range r.Values {
			cells[i] = v.String()
		}
		t.Row(cells...)
	}
	fmt.Fprintln(w, t.String())
	if len(shown) < len(rows) {
		fmt.Fprintf(w, "  ... %d more rows\n", len(rows)-len(shown))
	}
}

// PrintQuery echoes the query and its fetch controls.
func PrintQuery(w io.Writer, q QuerySpec) {
	fmt.Fprintf(w, "Executing Query: %s\n", strings.TrimSpace(q.Text))
	if len(q.Params) > 0 {
		parts := make([]string, len(q.Params))
		for i, p := range q.Params {
			parts[i] = p.String()
		}
		fmt.Fprintf(w, "  Parameters: %s\n", strings.Join(parts, ", "))
	}
	fmt.Fprintf(w, "  Fetch size: %s | Row index: %s | Max rows: %s\n",
		fmtOptInt(q.FetchSize), fmtOptInt(q.RowIndex), fmtOptInt(q.MaxRows))
}

func FmtMillis(ms float64) string {
	if ms < 1 {
		return fmt.Sprintf("%.0fµs", ms*1000)
	}
	return fmt.Sprintf("%.2fms", ms)
}

func joinMillis(samples []time.Duration) string {
	parts := make([]string, len(samples))
	for i, d := range samples {
		parts[i] = fmt.Sprintf("%.3f", Millis(d))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
