package model

import "time"

// WindowSpec is the user-requested range of window lengths, in seconds.
// MinLength == MaxLength selects a single fixed length; otherwise every
// length from MinLength to MaxLength in 1 s steps is evaluated.
type WindowSpec struct {
	MinLength float64 `json:"min_length"`
	MaxLength float64 `json:"max_length"`
}

func (s WindowSpec) Fixed() bool {
	return s.MinLength == s.MaxLength
}

// WindowResult identifies the window with the smallest sample standard
// deviation. Start is inclusive, End exclusive. Length is the target window
// length that produced the window; the realized span time[End-1]-time[Start]
// is within the duration tolerance of it.
type WindowResult struct {
	Start  int     `json:"start"`
	End    int     `json:"end"`
	StdDev float64 `json:"std_dev"`
	Length float64 `json:"length"`
}

func (r WindowResult) Points() int {
	return r.End - r.Start
}

// Run is one completed analysis, as persisted by the run-history store.
type Run struct {
	Timestamp  time.Time    `json:"timestamp"`
	SourcePath string       `json:"source_path"`
	TestDate   string       `json:"test_date,omitempty"`
	Channel    string       `json:"channel"`
	Spec       WindowSpec   `json:"spec"`
	Result     WindowResult `json:"result"`
	Mean       float64      `json:"mean"`
	StartTime  float64      `json:"start_time"`
	EndTime    float64      `json:"end_time"`
}
