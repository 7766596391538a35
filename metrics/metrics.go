package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"querybench/session"
)

// Recorder holds the benchmark metrics on a private registry so a run can
// be dumped to a node-exporter textfile without touching global state.
type Recorder struct {
	reg *prometheus.Registry

	// phaseDuration observes every timed sample.
	// Labels: driver, phase (query, fetch)
	phaseDuration *prometheus.HistogramVec

	// phaseMean is the mean of the last completed run.
	// Labels: driver, phase
	phaseMean *prometheus.GaugeVec

	// runs counts finished runs.
	// Labels: driver, status (ok, error)
	runs *prometheus.CounterVec

	// dryRunRows is the row count of the last dry run.
	// Labels: driver
	dryRunRows *prometheus.GaugeVec
}

func New() *Recorder {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Recorder{
		reg: reg,
		phaseDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "querybench",
			Name:      "phase_duration_seconds",
			Help:      "Duration of each timed query or fetch phase",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 18),
		}, []string{"driver", "phase"}),
		phaseMean: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "querybench",
			Name:      "phase_mean_seconds",
			Help:      "Mean phase duration of the last run",
		}, []string{"driver", "phase"}),
		runs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "querybench",
			Name:      "runs_total",
			Help:      "Benchmark runs by outcome",
		}, []string{"driver", "status"}),
		dryRunRows: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "querybench",
			Name:      "dry_run_rows",
			Help:      "Rows returned by the last dry run",
		}, []string{"driver"}),
	}
}

func (r *Recorder) Registry() *prometheus.Registry { return r.reg }

// Observer returns a sample hook for session.WithObserver.
func (r *Recorder) Observer(driver string) func(phase string, d time.Duration) {
	return func(phase string, d time.Duration) {
		r.phaseDuration.WithLabelValues(driver, phase).Observe(d.Seconds())
	}
}

// RecordRun stores the outcome of one run. rep may be nil when err is set.
func (r *Recorder) RecordRun(driver string, rep *session.Report, err error) {
	if err != nil || rep == nil {
		r.runs.WithLabelValues(driver, "error").Inc()
		return
	}
	r.runs.WithLabelValues(driver, "ok").Inc()
	r.phaseMean.WithLabelValues(driver, session.PhaseQuery).Set(rep.QueryStats.Mean / 1000)
	r.phaseMean.WithLabelValues(driver, session.PhaseFetch).Set(rep.FetchStats.Mean / 1000)
	r.dryRunRows.WithLabelValues(driver).Set(float64(len(rep.DryRun)))
}

// WriteTextfile writes the registry in text exposition format to path.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.reg)
}
