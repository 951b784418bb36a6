// Package series holds the parsed measurement table: one time column plus
// named value channels sharing the same index space. A Series is built once
// by the reader and is read-only afterwards.
package series

import (
	"errors"
	"math"
)

// New builds a Series directly from slices. timeName and t become the first
// column; names and channels follow in order. Every channel must match the
// time column in length, and t must be sorted ascending.
func New(timeName string, t []float64, names []string, channels [][]float64) (*Series, error) {
	if len(names) != len(channels) {
		return nil, errors.New("channel names and data differ in count")
	}
	for i := 1; i < len(t); i++ {
		if t[i] < t[i-1] {
			return nil, errors.New("time values not sorted")
		}
	}
	columns := append([]string{timeName}, names...)
	data := make([][]float64, 0, len(columns))
	data = append(data, t)
	for i, ch := range channels {
		if len(ch) != len(t) {
			return nil, errors.New("channel " + names[i] + " length differs from time column")
		}
		data = append(data, ch)
	}
	return &Series{
		Columns: columns,
		Data:    data,
		Time:    t,
		timeIdx: 0,
	}, nil
}

type Series struct {
	// Columns are all column names in file order, time column included.
	Columns []string
	// Data is column-major: Data[c][i] is row i of column c. Missing or
	// unparsable cells are NaN.
	Data [][]float64

	// Time aliases the time column of Data. Monotonically non-decreasing,
	// in seconds.
	Time    []float64
	timeIdx int

	// Date is the test date found in the file header, if any.
	Date       string
	SourcePath string
}

func (s *Series) Len() int {
	return len(s.Time)
}

// TimeColumn returns the name of the time column.
func (s *Series) TimeColumn() string {
	return s.Columns[s.timeIdx]
}

// ColumnIndex resolves a column name to its position in Columns.
func (s *Series) ColumnIndex(name string) (int, bool) {
	for i, c := range s.Columns {
		if c == name {
			return i, true
		}
	}
	return 0, false
}

// ChannelIndex resolves a value-channel name. The time column is not a
// channel.
func (s *Series) ChannelIndex(name string) (int, bool) {
	idx, ok := s.ColumnIndex(name)
	if !ok || idx == s.timeIdx {
		return 0, false
	}
	return idx, true
}

// ChannelNames lists the value channels in file order, time column excluded.
func (s *Series) ChannelNames() []string {
	out := make([]string, 0, len(s.Columns)-1)
	for i, c := range s.Columns {
		if i == s.timeIdx {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Column returns the values of column c. The slice is shared, not copied;
// callers must not mutate it.
func (s *Series) Column(c int) []float64 {
	return s.Data[c]
}

// Bounds returns the min and max finite values of column c, ignoring NaN.
func (s *Series) Bounds(c int) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range s.Data[c] {
		if math.IsNaN(v) {
			continue
		}
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}
