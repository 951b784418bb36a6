package plotting

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"stablewin/internal/model"
	"stablewin/internal/series"
	"stablewin/internal/stats"
)

// renderHTML writes one page of line charts, one per channel. When res is
// non-nil the window rows are drawn as a second series over the full trace.
func renderHTML(s *series.Series, res *model.WindowResult, dir, filename string) (string, error) {
	page := components.NewPage()
	page.PageTitle = baseName(s)

	xs := make([]string, s.Len())
	for i, t := range s.Time {
		xs[i] = fmt.Sprintf("%.2f", t)
	}

	for _, name := range s.ChannelNames() {
		ch, _ := s.ChannelIndex(name)
		values := s.Column(ch)

		line := charts.NewLine()
		subtitle := ""
		if res != nil {
			mean := stats.Mean(values[res.Start:res.End])
			subtitle = fmt.Sprintf("window %.1f s, mean %.4f", res.Length, mean)
		}
		line.SetGlobalOptions(
			charts.WithInitializationOpts(opts.Initialization{Width: "900px", Height: "380px"}),
			charts.WithTitleOpts(opts.Title{Title: name, Subtitle: subtitle}),
			charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
			charts.WithXAxisOpts(opts.XAxis{Name: "Time (s)"}),
		)

		full := make([]opts.LineData, s.Len())
		for i, v := range values {
			full[i] = lineDatum(v)
		}
		line.SetXAxis(xs).AddSeries("full series", full)

		if res != nil {
			win := make([]opts.LineData, s.Len())
			for i := range win {
				win[i] = opts.LineData{Value: "-"}
			}
			for i := res.Start; i < res.End; i++ {
				win[i] = lineDatum(values[i])
			}
			line.AddSeries("window", win)
		}
		page.AddCharts(line)
	}

	out := filepath.Join(dir, filename)
	f, err := os.Create(out)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if err := page.Render(f); err != nil {
		return "", fmt.Errorf("render %s: %w", filename, err)
	}
	return out, nil
}

// lineDatum maps a missing sample to echarts' "-" gap marker.
func lineDatum(v float64) opts.LineData {
	if math.IsNaN(v) {
		return opts.LineData{Value: "-"}
	}
	return opts.LineData{Value: v}
}
