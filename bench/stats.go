package bench

import (
	"math"
	"sort"
	"time"
)

// Accumulator is a streaming mean/variance over float64 samples. It keeps a
// Kahan-compensated sum and sum of squares next to the plain ones; the plain
// ones are only used when the compensated path overflows to NaN/Inf. A
// Welford running mean and M2 back both up when the sums themselves overflow.
type Accumulator struct {
	n int

	sum, sumC     float64 // compensated running sum and its error term
	sumSq, sumSqC float64 // compensated running sum of squares and its error term

	plainSum, plainSumSq float64

	mean, m2 float64 // Welford

	min, max float64
}

// Add records one sample.
func (a *Accumulator) Add(x float64) {
	if a.n == 0 || x < a.min {
		a.min = x
	}
	if a.n == 0 || x > a.max {
		a.max = x
	}
	a.n++
	delta := x - a.mean
	a.mean += delta / float64(a.n)
	a.m2 += delta * (x - a.mean)
	a.sum, a.sumC = kahanAdd(a.sum, a.sumC, x)
	a.sumSq, a.sumSqC = kahanAdd(a.sumSq, a.sumSqC, x*x)
	a.plainSum += x
	a.plainSumSq += x * x
}

// AddAll records samples in order.
func (a *Accumulator) AddAll(xs ...float64) {
	for _, x := range xs {
		a.Add(x)
	}
}

// Merge folds other into a. The result describes the union of both sample sets.
func (a *Accumulator) Merge(other *Accumulator) {
	if other == nil || other.n == 0 {
		return
	}
	if a.n == 0 || other.min < a.min {
		a.min = other.min
	}
	if a.n == 0 || other.max > a.max {
		a.max = other.max
	}
	n1, n2 := float64(a.n), float64(other.n)
	delta := other.mean - a.mean
	a.mean += delta * n2 / (n1 + n2)
	a.m2 += other.m2 + delta*delta*n1*n2/(n1+n2)
	a.n += other.n
	a.sum, a.sumC = kahanAdd(a.sum, a.sumC, other.sum)
	a.sum, a.sumC = kahanAdd(a.sum, a.sumC, -other.sumC)
	a.sumSq, a.sumSqC = kahanAdd(a.sumSq, a.sumSqC, other.sumSq)
	a.sumSq, a.sumSqC = kahanAdd(a.sumSq, a.sumSqC, -other.sumSqC)
	a.plainSum += other.plainSum
	a.plainSumSq += other.plainSumSq
}

// kahanAdd returns the new sum and compensation after adding x.
func kahanAdd(sum, c, x float64) (float64, float64) {
	y := x - c
	t := sum + y
	c = (t - sum) - y
	return t, c
}

func (a *Accumulator) Count() int { return a.n }

func (a *Accumulator) Min() float64 { return a.min }

func (a *Accumulator) Max() float64 { return a.max }

// Sum returns the compensated sum, falling back to the plain sum if it is not finite.
func (a *Accumulator) Sum() float64 {
	if !finite(a.sum) && finite(a.plainSum) {
		return a.plainSum
	}
	return a.sum
}

// Mean is 0 for an empty accumulator. When the sum is not representable the
// running mean is returned instead.
func (a *Accumulator) Mean() float64 {
	if a.n == 0 {
		return 0
	}
	if m := a.Sum() / float64(a.n); finite(m) {
		return m
	}
	return a.mean
}

// Variance is the sample variance (n-1 denominator); 0 when n <= 1.
func (a *Accumulator) Variance() float64 {
	if a.n <= 1 {
		return 0
	}
	v := variance(a.n, a.sum, a.sumSq)
	if !finite(v) {
		v = variance(a.n, a.plainSum, a.plainSumSq)
	}
	if !finite(v) {
		v = a.m2 / float64(a.n-1)
	}
	if v < 0 {
		v = 0
	}
	return v
}

// StdDev is the sample standard deviation; 0 when n <= 1.
func (a *Accumulator) StdDev() float64 {
	return math.Sqrt(a.Variance())
}

func variance(n int, sum, sumSq float64) float64 {
	fn := float64(n)
	return (sumSq - sum*sum/fn) / (fn - 1)
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Summarize builds RunStatistics (in milliseconds) from raw samples.
func Summarize(samples []time.Duration) RunStatistics {
	stats := RunStatistics{Count: len(samples)}
	if len(samples) == 0 {
		return stats
	}

	var acc Accumulator
	ms := make([]float64, len(samples))
	for i, d := range samples {
		ms[i] = Millis(d)
		acc.Add(ms[i])
	}
	sort.Float64s(ms)

	stats.Min = acc.Min()
	stats.Max = acc.Max()
	stats.Sum = acc.Sum()
	stats.Mean = acc.Mean()
	stats.Variance = acc.Variance()
	stats.StdDev = acc.StdDev()
	stats.P50 = pct(ms, 50)
	stats.P90 = pct(ms, 90)
	stats.P95 = pct(ms, 95)
	stats.P99 = pct(ms, 99)
	return stats
}

// SteadyState reports the largest relative deviation of any sample from the
// mean and whether it stays within tolerance.
func SteadyState(samples []time.Duration, tolerance float64) (bool, float64) {
	if len(samples) < 2 {
		return true, 0
	}
	var acc Accumulator
	for _, d := range samples {
		acc.Add(Millis(d))
	}
	mean := acc.Mean()
	if mean == 0 {
		return true, 0
	}

	var maxDev float64
	for _, d := range samples {
		dev := math.Abs(Millis(d)-mean) / mean
		if dev > maxDev {
			maxDev = dev
		}
	}
	return maxDev <= tolerance, maxDev
}

// pct is nearest-rank on an ascending slice.
func pct(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Ceil(p/100*float64(len(sorted)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
