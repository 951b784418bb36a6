package report

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"stablewin/internal/model"
	"stablewin/internal/series"
)

func testRun(t *testing.T) (*series.Series, model.Run) {
	t.Helper()
	s, err := series.New("X_Value",
		[]float64{0, 1, 2, 3, 4},
		[]string{"pressure", "density"},
		[][]float64{
			{1.25, 1.30, 1.30, 1.30, 1.40},
			{998.2, math.NaN(), 997.9, 998.0, 998.1},
		},
	)
	if err != nil {
		t.Fatalf("series: %v", err)
	}
	s.Date = "15/03/2024"
	s.SourcePath = filepath.Join(t.TempDir(), "run01.lvm")
	run := model.Run{
		Timestamp:  time.Now().UTC(),
		SourcePath: s.SourcePath,
		TestDate:   s.Date,
		Channel:    "pressure",
		Spec:       model.WindowSpec{MinLength: 2, MaxLength: 2},
		Result:     model.WindowResult{Start: 1, End: 4, StdDev: 0, Length: 2},
		Mean:       1.30,
		StartTime:  1,
		EndTime:    3,
	}
	return s, run
}

func TestWriteArtifact(t *testing.T) {
	s, run := testRun(t)
	path, err := Write(s, run, DefaultOptions())
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if filepath.Base(path) != "run01_window.txt" {
		t.Fatalf("derived name %q", filepath.Base(path))
	}
	if filepath.Dir(path) != filepath.Dir(run.SourcePath) {
		t.Fatalf("artifact not next to source: %q", path)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	content := string(raw)
	for _, want := range []string{
		"***Analysis Results***",
		"Test date: 15/03/2024",
		"Criterion channel: pressure",
		"Optimal window length: 2.0 s",
		"Window mean: 1.3000",
		"Standard deviation: 0.0000",
		"Start time: 1.00 s",
		"End time: 3.00 s",
		"Points: 3",
		"***Window Data***",
		"***End_of_Header***",
		"X_Value\tpressure\tdensity",
	} {
		if !strings.Contains(content, want) {
			t.Fatalf("artifact missing %q:\n%s", want, content)
		}
	}

	lines := strings.Split(strings.TrimRight(content, "\n"), "\n")
	rows := lines[len(lines)-3:]
	if rows[0] != "1.000000\t1.300000\t" {
		t.Fatalf("first window row %q; missing value should be an empty cell", rows[0])
	}
	if rows[2] != "3.000000\t1.300000\t998.000000" {
		t.Fatalf("last window row %q", rows[2])
	}
}

func TestWriteUnknownTestDate(t *testing.T) {
	s, run := testRun(t)
	run.TestDate = ""
	path, err := Write(s, run, DefaultOptions())
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	raw, _ := os.ReadFile(path)
	if !strings.Contains(string(raw), "Test date: not found") {
		t.Fatalf("missing test-date fallback:\n%s", raw)
	}
}

func TestOutputPathSuffix(t *testing.T) {
	opts := Options{Suffix: "_treated", Precision: 4}
	got := OutputPath("/data/exp/ID4.txt", opts)
	if got != filepath.Join("/data/exp", "ID4_treated.txt") {
		t.Fatalf("path %q", got)
	}
	// Extensionless sources keep the bare base name.
	got = OutputPath("/data/exp/ID4", opts)
	if got != filepath.Join("/data/exp", "ID4_treated.txt") {
		t.Fatalf("path %q", got)
	}
}
