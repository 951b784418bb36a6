package session

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"stablewin/internal/config"
	"stablewin/internal/logging"
	"stablewin/internal/search"
)

func writeMeasurement(t *testing.T) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("LabVIEW Measurement\n")
	b.WriteString("Date\t15/03/2024\n")
	b.WriteString("***End_of_Header***\n")
	b.WriteString("Channels\t1\n")
	b.WriteString("***End_of_Header***\n")
	b.WriteString("X_Value\tflow\n")
	for i := 0; i < 20; i++ {
		v := 5.0 + float64(i%4)
		if i >= 10 && i < 16 {
			v = 5.0
		}
		fmt.Fprintf(&b, "%d,000000\t%f\n", i, v)
	}
	path := filepath.Join(t.TempDir(), "run01.lvm")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("write measurement: %v", err)
	}
	return path
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Plots.Enabled = false
	return cfg
}

func newTestSession(cfg *config.Config, input string, out *bytes.Buffer) *Session {
	logger := logging.NewLoggerTo(out, "quiet")
	return New(cfg, logger, nil, strings.NewReader(input), out)
}

func TestRunNonInteractive(t *testing.T) {
	path := writeMeasurement(t)
	var out bytes.Buffer
	sess := newTestSession(testConfig(), "", &out)
	err := sess.Run(context.Background(), Params{File: path, Channel: "flow", Min: 3, Max: 3})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	text := out.String()
	for _, want := range []string{
		"Test date: 15/03/2024",
		"Results for channel \"flow\":",
		"Fixed window length: 3.0 s",
		"Smallest standard deviation: 0.0000",
		"Points in window: 4",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("output missing %q:\n%s", want, text)
		}
	}

	reportPath := filepath.Join(filepath.Dir(path), "run01_window.txt")
	if _, err := os.Stat(reportPath); err != nil {
		t.Fatalf("report not written: %v", err)
	}
}

func TestRunInteractivePrompts(t *testing.T) {
	path := writeMeasurement(t)
	var out bytes.Buffer
	// Wrong channel, bad number, min below zero, max below min, then valid
	// entries.
	input := "bogus\nflow\nabc\n-1\n3\n2\n3\n"
	sess := newTestSession(testConfig(), input, &out)
	err := sess.Run(context.Background(), Params{File: path})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	text := out.String()
	if !strings.Contains(text, "Channel not found") {
		t.Fatalf("missing channel retry prompt:\n%s", text)
	}
	if !strings.Contains(text, "Invalid input") {
		t.Fatalf("missing number retry prompt:\n%s", text)
	}
	if !strings.Contains(text, "minimum window length must be above zero") {
		t.Fatalf("missing min validation:\n%s", text)
	}
	if !strings.Contains(text, "maximum window length must be at least the minimum") {
		t.Fatalf("missing max validation:\n%s", text)
	}
	if !strings.Contains(text, "Results for channel \"flow\"") {
		t.Fatalf("missing results:\n%s", text)
	}
}

func TestRunUnknownChannelNonInteractive(t *testing.T) {
	path := writeMeasurement(t)
	var out bytes.Buffer
	sess := newTestSession(testConfig(), "", &out)
	err := sess.Run(context.Background(), Params{File: path, Channel: "nope", Min: 3, Max: 3})
	if !errors.Is(err, search.ErrUnknownChannel) {
		t.Fatalf("err = %v, want ErrUnknownChannel", err)
	}
}

func TestRunNoValidWindowReprompts(t *testing.T) {
	path := writeMeasurement(t)
	var out bytes.Buffer
	// A 100 s target cannot fit a 19 s series; the session must present the
	// failure and accept corrected parameters.
	input := "flow\n100\n100\nflow\n3\n3\n"
	sess := newTestSession(testConfig(), input, &out)
	err := sess.Run(context.Background(), Params{File: path})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	text := out.String()
	if !strings.Contains(text, "no valid window") {
		t.Fatalf("missing search failure presentation:\n%s", text)
	}
	if !strings.Contains(text, "Fixed window length: 3.0 s") {
		t.Fatalf("missing recovered result:\n%s", text)
	}
}

func TestRunPromptsForMissingFile(t *testing.T) {
	path := writeMeasurement(t)
	var out bytes.Buffer
	input := filepath.Join(filepath.Dir(path), "absent.lvm") + "\n" + path + "\nflow\n3\n3\n"
	sess := newTestSession(testConfig(), input, &out)
	if err := sess.Run(context.Background(), Params{}); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out.String(), "Could not read file") {
		t.Fatalf("missing file retry prompt:\n%s", out.String())
	}
}

func TestRunNoReportFlag(t *testing.T) {
	path := writeMeasurement(t)
	var out bytes.Buffer
	sess := newTestSession(testConfig(), "", &out)
	err := sess.Run(context.Background(), Params{File: path, Channel: "flow", Min: 3, Max: 3, NoReport: true})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	reportPath := filepath.Join(filepath.Dir(path), "run01_window.txt")
	if _, err := os.Stat(reportPath); !os.IsNotExist(err) {
		t.Fatalf("report written despite NoReport")
	}
}
