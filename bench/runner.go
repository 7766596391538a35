package bench

import (
	"fmt"
	"io"
	"sort"
	"time"
)

// PrintBanner announces a run before the warm-up starts.
func PrintBanner(w io.Writer, driver string, repetitions int) {
	fmt.Fprintf(w, "\n╔═══════════════════════════════════════════════════════════╗\n")
	fmt.Fprintf(w, "║  %d-REPETITION BENCHMARK: %-31s║\n", repetitions, driver)
	fmt.Fprintf(w, "║  Methodology: 1 warm-up + dry run, then timed repetitions ║\n")
	fmt.Fprintf(w, "╚═══════════════════════════════════════════════════════════╝\n")
}

// PrintRepetitions lists every repetition's query and fetch time and marks
// the one closest to the median query time.
func PrintRepetitions(w io.Writer, query, fetch []time.Duration) {
	if len(query) == 0 {
		return
	}
	median := medianIndex(query)

	fmt.Fprintf(w, "\n╔═══════════════════════════════════════════════════════════╗\n")
	fmt.Fprintf(w, "║  ALL REPETITIONS                                          ║\n")
	fmt.Fprintf(w, "╠═══════╦════════════════╦════════════════╦═════════════════╣\n")
	fmt.Fprintf(w, "║  Rep  ║  Query         ║  Fetch         ║  Total          ║\n")
	fmt.Fprintf(w, "╠═══════╬════════════════╬════════════════╬═════════════════╣\n")
	for i := range query {
		marker := "  "
		if i == median {
			marker = "→ "
		}
		q, f := Millis(query[i]), Millis(fetch[i])
		fmt.Fprintf(w, "║ %s%-4d║  %-13s ║  %-13s ║  %-14s ║\n",
			marker, i+1, FmtMillis(q), FmtMillis(f), FmtMillis(q+f))
	}
	fmt.Fprintf(w, "╚═══════╩════════════════╩════════════════╩═════════════════╝\n")
	fmt.Fprintln(w, "  → = median query time")
}

// medianIndex returns the index of the lower-median sample.
func medianIndex(samples []time.Duration) int {
	idx := make([]int, len(samples))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return samples[idx[a]] < samples[idx[b]] })
	return idx[(len(idx)-1)/2]
}
