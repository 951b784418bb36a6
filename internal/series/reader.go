package series

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// ErrParse marks a malformed or truncated input file.
var ErrParse = errors.New("malformed input file")

// Options control how a measurement file is interpreted.
type Options struct {
	// TimeColumn names the column holding elapsed seconds.
	TimeColumn string
	// HeaderMarker terminates a header block. The table begins after the
	// HeaderRepeats-th occurrence.
	HeaderMarker  string
	HeaderRepeats int
	// DecimalComma accepts "1,25" as 1.25 in data cells.
	DecimalComma bool
}

func DefaultOptions() Options {
	return Options{
		TimeColumn:    "X_Value",
		HeaderMarker:  "***End_of_Header***",
		HeaderRepeats: 2,
		DecimalComma:  true,
	}
}

// Read loads a measurement file from disk.
func Read(path string, opts Options) (*Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	s, err := Parse(f, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	s.SourcePath = path
	return s, nil
}

// Parse reads the header blocks, the column-name line after the last header
// marker, and the tab-delimited rows below it.
func Parse(r io.Reader, opts Options) (*Series, error) {
	if opts.HeaderMarker == "" {
		opts.HeaderMarker = "***End_of_Header***"
	}
	if opts.HeaderRepeats <= 0 {
		opts.HeaderRepeats = 2
	}
	if opts.TimeColumn == "" {
		opts.TimeColumn = "X_Value"
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var lines []string
	for sc.Scan() {
		lines = append(lines, strings.TrimRight(sc.Text(), "\r"))
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	markers := 0
	headerEnd := -1
	date := ""
	for i, line := range lines {
		if strings.Contains(line, opts.HeaderMarker) {
			markers++
			if markers == opts.HeaderRepeats {
				headerEnd = i
				break
			}
			continue
		}
		if markers == 0 && date == "" {
			if d, ok := extractDate(line); ok {
				date = d
			}
		}
	}
	if headerEnd < 0 {
		return nil, fmt.Errorf("%w: header marker %q found %d times, need %d",
			ErrParse, opts.HeaderMarker, markers, opts.HeaderRepeats)
	}
	if headerEnd+1 >= len(lines) {
		return nil, fmt.Errorf("%w: no column-name line after header", ErrParse)
	}

	columns := strings.Split(lines[headerEnd+1], "\t")
	for i := range columns {
		columns[i] = strings.TrimSpace(columns[i])
	}
	timeIdx := -1
	for i, c := range columns {
		if c == opts.TimeColumn {
			timeIdx = i
			break
		}
	}
	if timeIdx < 0 {
		return nil, fmt.Errorf("%w: time column %q not in header %v", ErrParse, opts.TimeColumn, columns)
	}

	data := make([][]float64, len(columns))
	row := 0
	for _, line := range lines[headerEnd+2:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		cells := strings.Split(line, "\t")
		for c := range columns {
			v := math.NaN()
			if c < len(cells) {
				v = parseCell(cells[c], opts.DecimalComma)
			}
			if c == timeIdx && math.IsNaN(v) {
				return nil, fmt.Errorf("%w: row %d has no parsable time value", ErrParse, row)
			}
			data[c] = append(data[c], v)
		}
		row++
	}
	if row == 0 {
		return nil, fmt.Errorf("%w: no data rows below header", ErrParse)
	}

	t := data[timeIdx]
	for i := 1; i < len(t); i++ {
		if t[i] < t[i-1] {
			return nil, fmt.Errorf("%w: time column not sorted at row %d (%g after %g)",
				ErrParse, i, t[i], t[i-1])
		}
	}

	return &Series{
		Columns: columns,
		Data:    data,
		Time:    t,
		timeIdx: timeIdx,
		Date:    date,
	}, nil
}

func parseCell(cell string, decimalComma bool) float64 {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return math.NaN()
	}
	if decimalComma {
		cell = strings.Replace(cell, ",", ".", 1)
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// extractDate pulls the value of a "Date" header field, e.g.
// "Date\t2024/03/15" or "Date 15/03/2024".
func extractDate(line string) (string, bool) {
	idx := strings.Index(line, "Date")
	if idx < 0 {
		return "", false
	}
	val := strings.TrimSpace(line[idx+len("Date"):])
	if val == "" {
		return "", false
	}
	return val, true
}
