package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"querybench/bench"
	"querybench/duck"
	"querybench/resolver"
)

func duckSession(t *testing.T) *Session {
	t.Helper()
	reg := resolver.NewRegistry()
	require.NoError(t, duck.Register(reg))

	s := New(resolver.New(reg, resolver.WithLogger(quiet())),
		WithLogger(quiet()),
		WithCredentials(duck.DriverName, duck.WithCredentials))
	t.Cleanup(func() { s.Close() })

	ctx := context.Background()
	require.NoError(t, s.LoadDriver(ctx, duck.DriverName, ""))
	require.NoError(t, s.Connect(ctx, bench.ConnConfig{URL: duck.DSN(bench.ConnConfig{}), User: "ignored"}))
	return s
}

func TestDuckDB_SelectOne(t *testing.T) {
	s := duckSession(t)

	report, err := s.Run(context.Background(), bench.QuerySpec{Text: "SELECT 1"}, 3)
	require.NoError(t, err)

	assert.Len(t, report.QueryTimes, 3)
	assert.Len(t, report.FetchTimes, 3)
	require.Len(t, report.DryRun, 1)
	assert.Equal(t, []string{"1"}, report.DryRun[0].Columns)
	assert.Equal(t, bench.KindInt, report.DryRun[0].Values[0].Kind)
	assert.Equal(t, int64(1), report.DryRun[0].Values[0].Int)
}

func TestDuckDB_RowWindow(t *testing.T) {
	s := duckSession(t)

	report, err := s.Run(context.Background(), bench.QuerySpec{
		Text:     "SELECT range AS n FROM range(10)",
		RowIndex: bench.IntPtr(2),
		MaxRows:  bench.IntPtr(5),
	}, 2)
	require.NoError(t, err)

	var got []int64
	for _, r := range report.DryRun {
		v, ok := r.Get("n")
		require.True(t, ok)
		got = append(got, v.Int)
	}
	assert.Equal(t, []int64{2, 3, 4, 5, 6}, got)
}

func TestDuckDB_Parameters(t *testing.T) {
	s := duckSession(t)
	params, err := bench.ParseParamList("41:int,bench")
	require.NoError(t, err)

	report, err := s.Run(context.Background(), bench.QuerySpec{
		Text:   "SELECT ?::INTEGER + 1 AS answer, ?::VARCHAR AS label",
		Params: params,
	}, 1)
	require.NoError(t, err)

	require.Len(t, report.DryRun, 1)
	answer, _ := report.DryRun[0].Get("answer")
	label, _ := report.DryRun[0].Get("label")
	assert.Equal(t, int64(42), answer.Int)
	assert.Equal(t, "bench", label.Text)
}
