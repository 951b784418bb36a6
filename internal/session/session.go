// Package session drives one analysis: collect input, run the window
// search, then dispatch the result to the report writer, the run store and
// the plot renderers. Validation failures from the search are presented to
// the user and the parameters re-prompted; the search itself is never
// retried with unchanged input.
package session

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"stablewin/internal/config"
	"stablewin/internal/model"
	"stablewin/internal/plotting"
	"stablewin/internal/report"
	"stablewin/internal/search"
	"stablewin/internal/series"
	"stablewin/internal/stats"
	"stablewin/internal/storage"
)

type Session struct {
	cfg    *config.Config
	logger *slog.Logger
	store  storage.Store
	in     *bufio.Scanner
	out    io.Writer
}

// Params are the command-line inputs. Zero fields are prompted for
// interactively.
type Params struct {
	File     string
	Channel  string
	Min      float64
	Max      float64
	NoPlots  bool
	NoReport bool
}

func New(cfg *config.Config, logger *slog.Logger, store storage.Store, in io.Reader, out io.Writer) *Session {
	return &Session{
		cfg:    cfg,
		logger: logger,
		store:  store,
		in:     bufio.NewScanner(in),
		out:    out,
	}
}

func (s *Session) Run(ctx context.Context, p Params) error {
	ser, err := s.loadSeries(p.File)
	if err != nil {
		return err
	}

	channels := ser.ChannelNames()
	fmt.Fprintf(s.out, "Loaded %s: %d rows, %d channels\n", ser.SourcePath, ser.Len(), len(channels))
	if ser.Date != "" {
		fmt.Fprintf(s.out, "Test date: %s\n", ser.Date)
	}
	fmt.Fprintln(s.out, "\nChannels available for analysis:")
	for i, name := range channels {
		fmt.Fprintf(s.out, "%d. %s\n", i+1, name)
	}

	renderer := plotting.New(s.cfg.Plots)
	plotsOn := s.cfg.Plots.Enabled && !p.NoPlots
	if plotsOn {
		files, err := renderer.RenderSeries(ser)
		if err != nil {
			return fmt.Errorf("series plots: %w", err)
		}
		s.logger.Info("series plots written", "count", len(files))
	}

	interactive := p.Channel == "" || p.Min <= 0 || p.Max <= 0
	channel, spec, err := s.collectParams(ser, p)
	if err != nil {
		return err
	}

	opts := searchOptions(s.cfg.Search)
	var result model.WindowResult
	for {
		result, err = search.Find(ser, channel, spec, opts)
		if err == nil {
			break
		}
		if !interactive || !isParameterError(err) {
			return err
		}
		// Corrected re-entry: the computation is deterministic, so only new
		// parameters can change the outcome.
		fmt.Fprintf(s.out, "\nError: %v\n", err)
		channel, spec, err = s.collectParams(ser, Params{File: p.File})
		if err != nil {
			return err
		}
	}

	window := ser.Column(mustChannel(ser, channel))[result.Start:result.End]
	mean := stats.Mean(window)
	run := model.Run{
		Timestamp:  time.Now().UTC(),
		SourcePath: ser.SourcePath,
		TestDate:   ser.Date,
		Channel:    channel,
		Spec:       spec,
		Result:     result,
		Mean:       mean,
		StartTime:  ser.Time[result.Start],
		EndTime:    ser.Time[result.End-1],
	}
	s.printSummary(ser, run)

	if s.cfg.Report.Enabled && !p.NoReport {
		path, err := report.Write(ser, run, report.Options{
			Suffix:    s.cfg.Report.Suffix,
			Precision: s.cfg.Report.Precision,
		})
		if err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		fmt.Fprintf(s.out, "\nResults saved to %s\n", path)
	}

	if s.store != nil {
		if err := s.store.SaveRun(ctx, run); err != nil {
			s.logger.Warn("run not persisted", "err", err)
		}
	}

	if plotsOn {
		files, err := renderer.RenderWindow(ser, result)
		if err != nil {
			return fmt.Errorf("window plots: %w", err)
		}
		s.logger.Info("window plots written", "count", len(files))
	}
	return nil
}

func (s *Session) loadSeries(path string) (*series.Series, error) {
	opts := seriesOptions(s.cfg.Input)
	if path != "" {
		return series.Read(path, opts)
	}
	for {
		line, err := s.promptLine("Measurement file path: ")
		if err != nil {
			return nil, err
		}
		ser, err := series.Read(line, opts)
		if err == nil {
			return ser, nil
		}
		fmt.Fprintf(s.out, "Could not read file: %v\n", err)
	}
}

func (s *Session) collectParams(ser *series.Series, p Params) (string, model.WindowSpec, error) {
	channel := p.Channel
	if channel == "" {
		for {
			line, err := s.promptLine("\nChannel name for analysis: ")
			if err != nil {
				return "", model.WindowSpec{}, err
			}
			if _, ok := ser.ChannelIndex(line); ok {
				channel = line
				break
			}
			fmt.Fprintln(s.out, "Channel not found. Enter the exact channel name.")
		}
	}

	min := p.Min
	if min <= 0 {
		v, err := s.promptFloat("\nMinimum window length in seconds: ", func(v float64) error {
			if v <= 0 {
				return errors.New("minimum window length must be above zero")
			}
			return nil
		})
		if err != nil {
			return "", model.WindowSpec{}, err
		}
		min = v
	}

	max := p.Max
	if max <= 0 {
		v, err := s.promptFloat("\nMaximum window length in seconds: ", func(v float64) error {
			if v < min {
				return errors.New("maximum window length must be at least the minimum")
			}
			return nil
		})
		if err != nil {
			return "", model.WindowSpec{}, err
		}
		max = v
	}
	return channel, model.WindowSpec{MinLength: min, MaxLength: max}, nil
}

func (s *Session) printSummary(ser *series.Series, run model.Run) {
	fmt.Fprintf(s.out, "\nResults for channel %q:\n", run.Channel)
	if run.Spec.Fixed() {
		fmt.Fprintf(s.out, "Fixed window length: %.1f s\n", run.Result.Length)
	} else {
		fmt.Fprintf(s.out, "Optimal window length found: %.1f s\n", run.Result.Length)
	}
	fmt.Fprintf(s.out, "Window mean: %.4f\n", run.Mean)
	fmt.Fprintf(s.out, "Smallest standard deviation: %.4f\n", run.Result.StdDev)
	fmt.Fprintf(s.out, "Window start time: %.2f s\n", run.StartTime)
	fmt.Fprintf(s.out, "Window end time: %.2f s\n", run.EndTime)
	fmt.Fprintf(s.out, "Points in window: %d\n", run.Result.Points())

	ch := mustChannel(ser, run.Channel)
	values := ser.Column(ch)
	fmt.Fprintf(s.out, "\nWindow data (%s, %s):\n", ser.TimeColumn(), run.Channel)
	const headTail = 5
	for i := run.Result.Start; i < run.Result.End; i++ {
		if run.Result.Points() > 2*headTail &&
			i == run.Result.Start+headTail {
			fmt.Fprintln(s.out, "...")
			i = run.Result.End - headTail - 1
			continue
		}
		fmt.Fprintf(s.out, "%.2f\t%.4f\n", ser.Time[i], values[i])
	}
}

func (s *Session) promptLine(msg string) (string, error) {
	for {
		fmt.Fprint(s.out, msg)
		if !s.in.Scan() {
			if err := s.in.Err(); err != nil {
				return "", err
			}
			return "", errors.New("input closed")
		}
		line := strings.TrimSpace(s.in.Text())
		if line != "" {
			return line, nil
		}
	}
}

func (s *Session) promptFloat(msg string, validate func(float64) error) (float64, error) {
	for {
		line, err := s.promptLine(msg)
		if err != nil {
			return 0, err
		}
		v, err := strconv.ParseFloat(strings.Replace(line, ",", ".", 1), 64)
		if err != nil {
			fmt.Fprintln(s.out, "Invalid input. Enter a number.")
			continue
		}
		if err := validate(v); err != nil {
			fmt.Fprintln(s.out, err.Error()+".")
			continue
		}
		return v, nil
	}
}

func isParameterError(err error) bool {
	return errors.Is(err, search.ErrUnknownChannel) ||
		errors.Is(err, search.ErrInvalidRange) ||
		errors.Is(err, search.ErrNoValidWindow)
}

func mustChannel(ser *series.Series, name string) int {
	ch, _ := ser.ChannelIndex(name)
	return ch
}

func seriesOptions(cfg config.InputConfig) series.Options {
	return series.Options{
		TimeColumn:    cfg.TimeColumn,
		HeaderMarker:  cfg.HeaderMarker,
		HeaderRepeats: cfg.HeaderRepeats,
		DecimalComma:  cfg.DecimalComma,
	}
}

func searchOptions(cfg config.SearchConfig) search.Options {
	return search.Options{
		Tolerance: cfg.Tolerance,
		MinPoints: cfg.MinPoints,
		Step:      cfg.StepSeconds,
		Workers:   cfg.Workers,
	}
}
