package bench

import (
	"log/slog"
	"strconv"
	"time"
)

// ConnConfig describes the target database. URL wins when set; otherwise the
// builtin driver packages build one from Host/Port/Database.
type ConnConfig struct {
	URL      string
	Host     string
	Port     int
	Database string
	SSLMode  string
	User     string
	Password string
}

// LogValue keeps the password out of every log line.
func (c ConnConfig) LogValue() slog.Value {
	attrs := []slog.Attr{slog.String("user", c.User)}
	if c.URL != "" {
		attrs = append(attrs, slog.String("url", c.URL))
	} else {
		attrs = append(attrs, slog.String("host", c.Host), slog.Int("port", c.Port), slog.String("database", c.Database))
	}
	if c.Password != "" {
		attrs = append(attrs, slog.String("password", "****"))
	}
	return slog.GroupValue(attrs...)
}

// QuerySpec is one query plus everything needed to prepare and fetch it.
type QuerySpec struct {
	Text      string
	Params    []BindParameter
	FetchSize *int
	RowIndex  *int
	MaxRows   *int
}

// BenchParams controls a single invocation.
type BenchParams struct {
	Repetitions int
	Pause       time.Duration // sleep between timed repetitions
}

// RunStatistics summarizes one phase's samples, in milliseconds.
type RunStatistics struct {
	Count    int     `json:"count" yaml:"count"`
	Min      float64 `json:"min_ms" yaml:"min_ms"`
	Max      float64 `json:"max_ms" yaml:"max_ms"`
	Sum      float64 `json:"sum_ms" yaml:"sum_ms"`
	Mean     float64 `json:"mean_ms" yaml:"mean_ms"`
	Variance float64 `json:"variance" yaml:"variance"`
	StdDev   float64 `json:"stddev_ms" yaml:"stddev_ms"`
	P50      float64 `json:"p50_ms" yaml:"p50_ms"`
	P90      float64 `json:"p90_ms" yaml:"p90_ms"`
	P95      float64 `json:"p95_ms" yaml:"p95_ms"`
	P99      float64 `json:"p99_ms" yaml:"p99_ms"`
}

// Millis converts a duration to fractional milliseconds.
func Millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// IntPtr is a small helper for the optional QuerySpec fields.
func IntPtr(v int) *int {
	return &v
}

func fmtOptInt(p *int) string {
	if p == nil {
		return "-"
	}
	return strconv.Itoa(*p)
}
