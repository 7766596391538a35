package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"querybench/bench"
	"querybench/config"
	"querybench/duck"
	"querybench/export"
	"querybench/metrics"
	"querybench/my"
	"querybench/pg"
	"querybench/resolver"
	"querybench/session"
)

type runOptions struct {
	configPath string
	logLevel   string
	logFormat  string

	exportPath   string
	exportFormat string
	reportPath   string
	metricsFile  string
	outputFile   string
	rowLimit     int
	tolerance    float64

	force bool
}

func runBenchmark(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	if err := config.ResolvePassword(&cfg.Conn, os.Stdin, os.Stderr); err != nil {
		return err
	}

	out := io.Writer(os.Stdout)
	if opts.outputFile != "" {
		f, err := os.Create(opts.outputFile)
		if err != nil {
			return fmt.Errorf("create %s: %w", opts.outputFile, err)
		}
		defer f.Close()
		out = io.MultiWriter(os.Stdout, f)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rec := metrics.New()
	rep, runErr := execute(ctx, out, cfg, rec)
	rec.RecordRun(cfg.Driver, rep, runErr)
	if opts.metricsFile != "" {
		if err := rec.WriteTextfile(opts.metricsFile); err != nil {
			slog.Warn("metrics textfile not written", "path", opts.metricsFile, "error", err)
		}
	}
	if runErr != nil {
		return runErr
	}

	if opts.exportPath != "" {
		if err := export.WriteRowsFile(opts.exportPath, opts.exportFormat, rep.DryRun); err != nil {
			return err
		}
		fmt.Fprintf(out, "\nRows written to %s\n", opts.exportPath)
	}
	if opts.reportPath != "" {
		if err := export.WriteReportFile(opts.reportPath, rep); err != nil {
			return err
		}
		fmt.Fprintf(out, "Report written to %s\n", opts.reportPath)
	}
	return nil
}

// newRegistry returns a registry holding every builtin driver.
func newRegistry() (*resolver.Registry, error) {
	reg := resolver.NewRegistry()
	for _, register := range []func(*resolver.Registry) error{pg.Register, my.Register, duck.Register} {
		if err := register(reg); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// execute drives one session from driver load to close and prints the report to w.
func execute(ctx context.Context, w io.Writer, cfg *config.Config, rec *metrics.Recorder) (rep *session.Report, err error) {
	reg, err := newRegistry()
	if err != nil {
		return nil, err
	}
	log := slog.Default()
	s := session.New(
		resolver.New(reg, resolver.WithLogger(log)),
		session.WithLogger(log),
		session.WithCredentials(pg.PgxDriver, pg.WithCredentials),
		session.WithCredentials(pg.PqDriver, pg.WithCredentials),
		session.WithCredentials(my.DriverName, my.WithCredentials),
		session.WithCredentials(duck.DriverName, duck.WithCredentials),
		session.WithRepetitionBounds(session.DefaultMinRepetitions, cfg.MaxRepetitions),
		session.WithPause(cfg.Bench.Pause),
		session.WithObserver(rec.Observer(cfg.Driver)),
	)
	defer func() {
		if cerr := s.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	reps := s.ClampRepetitions(cfg.Bench.Repetitions)
	bench.PrintBanner(w, cfg.Driver, reps)
	log.Debug("connection", "conn", cfg.Conn)

	fmt.Fprintf(w, "\n[1/3] Loading driver %s...\n", cfg.Driver)
	if err := s.LoadDriver(ctx, cfg.Driver, cfg.Location); err != nil {
		fmt.Fprintf(w, "  ✗ Driver load failed: %v\n", err)
		return nil, err
	}
	fmt.Fprintln(w, "  ✓ Loaded")

	fmt.Fprintln(w, "\n[2/3] Connecting...")
	if err := s.Connect(ctx, cfg.Conn); err != nil {
		fmt.Fprintf(w, "  ✗ Connection failed: %v\n", err)
		return nil, err
	}
	fmt.Fprintln(w, "  ✓ Connected")

	fmt.Fprintf(w, "\n[3/3] Running warm-up, dry run and %d repetitions...\n", reps)
	bench.PrintQuery(w, cfg.Query)
	rep, err = s.Run(ctx, cfg.Query, reps)
	if err != nil {
		fmt.Fprintf(w, "  ✗ Benchmark failed: %v\n", err)
		return nil, err
	}
	fmt.Fprintln(w, "  ✓ Done")

	fmt.Fprintln(w, "\n── Dry Run ──")
	bench.PrintRows(w, rep.DryRun, opts.rowLimit)

	fmt.Fprintln(w)
	bench.PrintSamples(w, rep.QueryTimes, rep.FetchTimes)
	bench.PrintRepetitions(w, rep.QueryTimes, rep.FetchTimes)
	bench.PrintStats(w, "Query", rep.QueryStats)
	bench.PrintStats(w, "Fetch", rep.FetchStats)
	bench.PrintPhases(w, rep.QueryStats, rep.FetchStats)
	bench.PrintSteadyState(w, rep.QueryTimes, opts.tolerance)
	fmt.Fprintf(w, "\nRun %s finished in %s\n", rep.RunID, rep.Elapsed.Round(time.Microsecond))
	return rep, nil
}
