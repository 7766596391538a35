package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"querybench/bench"
)

// Phase names passed to the observer.
const (
	PhaseQuery = "query"
	PhaseFetch = "fetch"
)

// Report is everything one Run produces.
type Report struct {
	RunID       string              `json:"run_id" yaml:"run_id"`
	Driver      string              `json:"driver" yaml:"driver"`
	Repetitions int                 `json:"repetitions" yaml:"repetitions"`
	DryRun      []bench.Row         `json:"-" yaml:"-"`
	QueryTimes  []time.Duration     `json:"query_times" yaml:"query_times"`
	FetchTimes  []time.Duration     `json:"fetch_times" yaml:"fetch_times"`
	QueryStats  bench.RunStatistics `json:"query_stats" yaml:"query_stats"`
	FetchStats  bench.RunStatistics `json:"fetch_stats" yaml:"fetch_stats"`
	StartedAt   time.Time           `json:"started_at" yaml:"started_at"`
	Elapsed     time.Duration       `json:"elapsed" yaml:"elapsed"`
}

// ClampRepetitions forces n into the session's repetition band.
func (s *Session) ClampRepetitions(n int) int {
	switch {
	case n < s.minReps:
		return s.minReps
	case n > s.maxReps:
		return s.maxReps
	}
	return n
}

// Benchmark runs the clamped number of execute+fetch cycles and returns the
// two index-aligned sample sequences. Any failure aborts the run and no
// samples are returned.
func (s *Session) Benchmark(ctx context.Context, repetitions int, rowIndex *int) (query, fetch []time.Duration, err error) {
	n := s.ClampRepetitions(repetitions)
	if n != repetitions {
		s.log.Debug("repetitions clamped", "requested", repetitions, "used", n)
	}

	query = make([]time.Duration, 0, n)
	fetch = make([]time.Duration, 0, n)
	for i := 0; i < n; i++ {
		if i > 0 && s.pause > 0 {
			if err := sleep(ctx, s.pause); err != nil {
				return nil, nil, &bench.ExecutionError{Cause: err}
			}
		}

		start := s.now()
		if err := s.Execute(ctx); err != nil {
			return nil, nil, fmt.Errorf("repetition %d: %w", i+1, err)
		}
		q := s.now().Sub(start)

		start = s.now()
		if _, err := s.FetchAll(ctx, rowIndex); err != nil {
			return nil, nil, fmt.Errorf("repetition %d: %w", i+1, err)
		}
		f := s.now().Sub(start)

		query = append(query, q)
		fetch = append(fetch, f)
		if s.observe != nil {
			s.observe(PhaseQuery, q)
			s.observe(PhaseFetch, f)
		}
	}
	return query, fetch, nil
}

// Run prepares q, performs the warm-up execution and the dry-run fetch, then
// the timed repetitions. The warm-up and dry run always happen once,
// whatever the repetition count.
func (s *Session) Run(ctx context.Context, q bench.QuerySpec, repetitions int) (*Report, error) {
	started := s.now()
	if err := s.Prepare(ctx, q); err != nil {
		return nil, err
	}
	if err := s.Execute(ctx); err != nil {
		return nil, fmt.Errorf("warm-up: %w", err)
	}
	rows, err := s.FetchAll(ctx, q.RowIndex)
	if err != nil {
		return nil, fmt.Errorf("dry run: %w", err)
	}

	qt, ft, err := s.Benchmark(ctx, repetitions, q.RowIndex)
	if err != nil {
		return nil, err
	}

	return &Report{
		RunID:       uuid.NewString(),
		Driver:      s.driver,
		Repetitions: len(qt),
		DryRun:      rows,
		QueryTimes:  qt,
		FetchTimes:  ft,
		QueryStats:  bench.Summarize(qt),
		FetchStats:  bench.Summarize(ft),
		StartedAt:   started,
		Elapsed:     s.now().Sub(started),
	}, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
