// Package stats computes the channel statistics the window search ranks by:
// arithmetic mean and sample (N-1) standard deviation, with missing samples
// (NaN) excluded.
package stats

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Mean returns the mean of the finite values in xs, NaN if there are none.
func Mean(xs []float64) float64 {
	m, _ := MeanStdDev(xs)
	return m
}

// StdDev returns the sample standard deviation of the finite values in xs.
// Fewer than two finite values yield NaN.
func StdDev(xs []float64) float64 {
	_, s := MeanStdDev(xs)
	return s
}

// MeanStdDev returns both at once.
func MeanStdDev(xs []float64) (mean, std float64) {
	finite := make([]float64, 0, len(xs))
	for _, v := range xs {
		if !math.IsNaN(v) {
			finite = append(finite, v)
		}
	}
	switch len(finite) {
	case 0:
		return math.NaN(), math.NaN()
	case 1:
		return finite[0], math.NaN()
	}
	return stat.MeanStdDev(finite, nil)
}

// Accumulator holds prefix sums over one channel so that count, mean and
// sample standard deviation of any index window come out in O(1). NaN
// samples are excluded from the sums and the count.
type Accumulator struct {
	count []int
	sum   []float64
	sumsq []float64
}

func NewAccumulator(values []float64) *Accumulator {
	n := len(values)
	a := &Accumulator{
		count: make([]int, n+1),
		sum:   make([]float64, n+1),
		sumsq: make([]float64, n+1),
	}
	for i, v := range values {
		a.count[i+1] = a.count[i]
		a.sum[i+1] = a.sum[i]
		a.sumsq[i+1] = a.sumsq[i]
		if !math.IsNaN(v) {
			a.count[i+1]++
			a.sum[i+1] += v
			a.sumsq[i+1] += v * v
		}
	}
	return a
}

// Window reports the finite-sample count, mean and sample standard deviation
// over the closed index range [i, j]. Std is NaN when fewer than two finite
// samples fall in the range.
func (a *Accumulator) Window(i, j int) (n int, mean, std float64) {
	n = a.count[j+1] - a.count[i]
	if n == 0 {
		return 0, math.NaN(), math.NaN()
	}
	sum := a.sum[j+1] - a.sum[i]
	mean = sum / float64(n)
	if n < 2 {
		return n, mean, math.NaN()
	}
	sumsq := a.sumsq[j+1] - a.sumsq[i]
	variance := (sumsq - sum*sum/float64(n)) / float64(n-1)
	if variance < 0 {
		// Cancellation can push an all-equal window fractionally below zero.
		variance = 0
	}
	return n, mean, math.Sqrt(variance)
}
