// Package report renders a found window into the text artifact that sits
// next to the source file: an analysis header, then the raw rows of the
// selected window.
package report

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"stablewin/internal/model"
	"stablewin/internal/series"
)

type Options struct {
	// Suffix is appended to the source base name, e.g. "run01_window.txt".
	Suffix string
	// Precision is the number of decimals for the window rows.
	Precision int
}

func DefaultOptions() Options {
	return Options{Suffix: "_window", Precision: 6}
}

// OutputPath derives the artifact path from the source file path.
func OutputPath(sourcePath string, opts Options) string {
	dir := filepath.Dir(sourcePath)
	base := strings.TrimSuffix(filepath.Base(sourcePath), filepath.Ext(sourcePath))
	return filepath.Join(dir, base+opts.Suffix+".txt")
}

// Write persists the analysis next to the source file and returns the path
// written.
func Write(s *series.Series, run model.Run, opts Options) (string, error) {
	if opts.Suffix == "" {
		opts.Suffix = "_window"
	}
	if opts.Precision <= 0 {
		opts.Precision = 6
	}
	path := OutputPath(run.SourcePath, opts)

	testDate := run.TestDate
	if testDate == "" {
		testDate = "not found"
	}

	var b strings.Builder
	header := []string{
		"***Analysis Results***",
		"Test date: " + testDate,
		"Processed: " + time.Now().Format("02/01/2006"),
		"Source file: " + run.SourcePath,
		"Criterion channel: " + run.Channel,
		fmt.Sprintf("Minimum window length: %.1f s", run.Spec.MinLength),
		fmt.Sprintf("Maximum window length: %.1f s", run.Spec.MaxLength),
		fmt.Sprintf("Optimal window length: %.1f s", run.Result.Length),
		fmt.Sprintf("Window mean: %.4f", run.Mean),
		fmt.Sprintf("Standard deviation: %.4f", run.Result.StdDev),
		fmt.Sprintf("Start time: %.2f s", run.StartTime),
		fmt.Sprintf("End time: %.2f s", run.EndTime),
		fmt.Sprintf("Points: %d", run.Result.Points()),
		"***Window Data***",
		"***End_of_Header***",
	}
	b.WriteString(strings.Join(header, "\n"))
	b.WriteByte('\n')
	b.WriteString(strings.Join(s.Columns, "\t"))
	b.WriteByte('\n')

	for i := run.Result.Start; i < run.Result.End; i++ {
		for c := range s.Columns {
			if c > 0 {
				b.WriteByte('\t')
			}
			v := s.Data[c][i]
			if math.IsNaN(v) {
				continue
			}
			b.WriteString(strconv.FormatFloat(v, 'f', opts.Precision, 64))
		}
		b.WriteByte('\n')
	}

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", err
	}
	return path, nil
}
