package plotting

import (
	"fmt"
	"image/color"
	"math"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"stablewin/internal/model"
	"stablewin/internal/series"
	"stablewin/internal/stats"
)

var (
	traceColor  = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}
	fadedColor  = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0x50}
	windowColor = color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff}
	meanColor   = color.RGBA{R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff}
)

func renderSeriesPNG(s *series.Series, dir, base string) ([]string, error) {
	var files []string
	for _, name := range s.ChannelNames() {
		ch, _ := s.ChannelIndex(name)
		p := plot.New()
		p.Title.Text = name
		p.X.Label.Text = "Time (s)"
		p.Y.Label.Text = name

		line, err := plotter.NewLine(channelPoints(s, ch, 0, s.Len()))
		if err != nil {
			return files, err
		}
		line.Color = traceColor
		line.Width = vg.Points(1)
		p.Add(line)
		padYAxis(p, s, ch)

		out := filepath.Join(dir, fmt.Sprintf("%s_series_%s.png", base, sanitize(name)))
		if err := p.Save(8*vg.Inch, 4*vg.Inch, out); err != nil {
			return files, fmt.Errorf("save series plot %s: %w", name, err)
		}
		files = append(files, out)
	}
	return files, nil
}

func renderWindowPNG(s *series.Series, res model.WindowResult, dir, base string) ([]string, error) {
	var files []string
	for _, name := range s.ChannelNames() {
		ch, _ := s.ChannelIndex(name)
		p := plot.New()
		p.Title.Text = fmt.Sprintf("%s (window %.1f s)", name, res.Length)
		p.X.Label.Text = "Time (s)"
		p.Y.Label.Text = name

		full, err := plotter.NewLine(channelPoints(s, ch, 0, s.Len()))
		if err != nil {
			return files, err
		}
		full.Color = fadedColor
		full.Width = vg.Points(1)
		p.Add(full)
		p.Legend.Add("full series", full)

		win, err := plotter.NewLine(channelPoints(s, ch, res.Start, res.End))
		if err != nil {
			return files, err
		}
		win.Color = windowColor
		win.Width = vg.Points(1.5)
		p.Add(win)
		p.Legend.Add("window", win)

		mean := stats.Mean(s.Column(ch)[res.Start:res.End])
		if !math.IsNaN(mean) {
			meanLine, err := plotter.NewLine(plotter.XYs{
				{X: s.Time[0], Y: mean},
				{X: s.Time[s.Len()-1], Y: mean},
			})
			if err != nil {
				return files, err
			}
			meanLine.Color = meanColor
			meanLine.Width = vg.Points(1)
			meanLine.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
			p.Add(meanLine)
			p.Legend.Add(fmt.Sprintf("mean %.4f", mean), meanLine)
		}

		p.Legend.Top = true
		p.Legend.Left = false
		padYAxis(p, s, ch)

		out := filepath.Join(dir, fmt.Sprintf("%s_window_%s.png", base, sanitize(name)))
		if err := p.Save(8*vg.Inch, 4*vg.Inch, out); err != nil {
			return files, fmt.Errorf("save window plot %s: %w", name, err)
		}
		files = append(files, out)
	}
	return files, nil
}

// channelPoints collects the (time, value) pairs of rows [start, end),
// dropping missing samples.
func channelPoints(s *series.Series, ch, start, end int) plotter.XYs {
	values := s.Column(ch)
	pts := make(plotter.XYs, 0, end-start)
	for i := start; i < end; i++ {
		if math.IsNaN(values[i]) {
			continue
		}
		pts = append(pts, plotter.XY{X: s.Time[i], Y: values[i]})
	}
	return pts
}

// padYAxis widens the value axis by 1% of the channel range so flat traces
// do not hug the frame.
func padYAxis(p *plot.Plot, s *series.Series, ch int) {
	lo, hi := s.Bounds(ch)
	if math.IsInf(lo, 1) || math.IsInf(hi, -1) {
		return
	}
	pad := (hi - lo) * 0.01
	if pad == 0 {
		pad = 1
	}
	p.Y.Min = lo - pad
	p.Y.Max = hi + pad
}
