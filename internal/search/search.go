// Package search locates the contiguous time window minimizing the sample
// standard deviation of one channel. The scan is exhaustive and
// deterministic: candidate lengths ascending, start indices ascending, and a
// new best is taken only on a strictly smaller standard deviation, so ties
// keep the first window found.
package search

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"stablewin/internal/model"
	"stablewin/internal/series"
	"stablewin/internal/stats"
)

var (
	ErrUnknownChannel = errors.New("unknown channel")
	ErrInvalidRange   = errors.New("invalid window range")
	ErrNoValidWindow  = errors.New("no valid window")
)

// Options are the tunable constants of the scan. The defaults reproduce the
// established analysis behaviour; tests may tighten or loosen them.
type Options struct {
	// Tolerance is the allowed relative deviation of a window's realized
	// duration from its target length.
	Tolerance float64
	// MinPoints is the minimum index span of a candidate window
	// (end - start must be at least MinPoints).
	MinPoints int
	// Step separates consecutive candidate lengths, in seconds.
	Step float64
	// Workers parallelizes the scan across candidate lengths when above 1.
	// Results are merged deterministically and match the sequential scan
	// exactly.
	Workers int
}

func DefaultOptions() Options {
	return Options{
		Tolerance: 0.01,
		MinPoints: 2,
		Step:      1.0,
		Workers:   1,
	}
}

type candidate struct {
	start  int
	end    int // inclusive
	std    float64
	length float64
	ok     bool
}

// Find scans every candidate window of s and returns the one minimizing the
// sample standard deviation of the named channel.
func Find(s *series.Series, channel string, spec model.WindowSpec, opts Options) (model.WindowResult, error) {
	ch, ok := s.ChannelIndex(channel)
	if !ok {
		return model.WindowResult{}, fmt.Errorf("%w: %q", ErrUnknownChannel, channel)
	}
	if spec.MinLength > spec.MaxLength {
		return model.WindowResult{}, fmt.Errorf("%w: min %g > max %g", ErrInvalidRange, spec.MinLength, spec.MaxLength)
	}
	if opts.Tolerance <= 0 {
		opts.Tolerance = 0.01
	}
	if opts.MinPoints <= 0 {
		opts.MinPoints = 2
	}
	if opts.Step <= 0 {
		opts.Step = 1.0
	}

	lengths := candidateLengths(spec, opts.Step)
	acc := stats.NewAccumulator(s.Column(ch))

	results := make([]candidate, len(lengths))
	if opts.Workers > 1 && len(lengths) > 1 {
		var wg sync.WaitGroup
		workers := opts.Workers
		if workers > len(lengths) {
			workers = len(lengths)
		}
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func(w int) {
				defer wg.Done()
				for li := w; li < len(lengths); li += workers {
					results[li] = scanLength(s.Time, acc, lengths[li], opts)
				}
			}(w)
		}
		wg.Wait()
	} else {
		for li, length := range lengths {
			results[li] = scanLength(s.Time, acc, length, opts)
		}
	}

	// Merge in ascending length order with a strict comparison so the
	// first-found tie-break of the sequential scan is preserved.
	best := candidate{std: math.Inf(1)}
	for _, c := range results {
		if c.ok && c.std < best.std {
			best = c
		}
	}
	if !best.ok {
		return model.WindowResult{}, fmt.Errorf("%w: no window between %g s and %g s satisfies the duration tolerance",
			ErrNoValidWindow, spec.MinLength, spec.MaxLength)
	}
	return model.WindowResult{
		Start:  best.start,
		End:    best.end + 1,
		StdDev: best.std,
		Length: best.length,
	}, nil
}

// candidateLengths expands a spec into the targets to evaluate: the single
// fixed value when min == max, otherwise min, min+step, ... up to max
// inclusive.
func candidateLengths(spec model.WindowSpec, step float64) []float64 {
	if spec.Fixed() {
		return []float64{spec.MinLength}
	}
	var out []float64
	eps := step * 1e-9
	for l := spec.MinLength; l <= spec.MaxLength+eps; l += step {
		out = append(out, l)
	}
	return out
}

// scanLength slides a window of target length over every start index and
// keeps the first window with the strictly smallest standard deviation. The
// end index advances with the start index, never backwards.
func scanLength(times []float64, acc *stats.Accumulator, length float64, opts Options) candidate {
	n := len(times)
	best := candidate{std: math.Inf(1), length: length}
	j := 0
	for i := 0; i < n; i++ {
		if j < i {
			j = i
		}
		endTime := times[i] + length
		for j+1 < n && times[j+1] <= endTime {
			j++
		}
		if j-i < opts.MinPoints {
			continue
		}
		achieved := times[j] - times[i]
		if math.Abs(achieved-length) > opts.Tolerance*length {
			continue
		}
		_, _, std := acc.Window(i, j)
		if math.IsNaN(std) {
			continue
		}
		if std < best.std {
			best.start = i
			best.end = j
			best.std = std
			best.ok = true
		}
	}
	return best
}
