// Package plotting renders the full series and the found window. It only
// consumes search output; nothing here feeds back into the scan.
package plotting

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"stablewin/internal/config"
	"stablewin/internal/model"
	"stablewin/internal/series"
)

type Renderer struct {
	format string
	dir    string
}

func New(cfg config.PlotsConfig) *Renderer {
	format := strings.ToLower(cfg.Format)
	if format == "" {
		format = "png"
	}
	return &Renderer{format: format, dir: cfg.Dir}
}

// RenderSeries plots every channel's full trace. Returns the files written.
func (r *Renderer) RenderSeries(s *series.Series) ([]string, error) {
	dir, err := r.outputDir(s)
	if err != nil {
		return nil, err
	}
	var files []string
	if r.format == "png" || r.format == "both" {
		out, err := renderSeriesPNG(s, dir, baseName(s))
		files = append(files, out...)
		if err != nil {
			return files, err
		}
	}
	if r.format == "html" || r.format == "both" {
		out, err := renderHTML(s, nil, dir, baseName(s)+"_series.html")
		if out != "" {
			files = append(files, out)
		}
		if err != nil {
			return files, err
		}
	}
	return files, nil
}

// RenderWindow plots every channel with the found window and its mean
// overlaid on the full trace.
func (r *Renderer) RenderWindow(s *series.Series, res model.WindowResult) ([]string, error) {
	dir, err := r.outputDir(s)
	if err != nil {
		return nil, err
	}
	var files []string
	if r.format == "png" || r.format == "both" {
		out, err := renderWindowPNG(s, res, dir, baseName(s))
		files = append(files, out...)
		if err != nil {
			return files, err
		}
	}
	if r.format == "html" || r.format == "both" {
		out, err := renderHTML(s, &res, dir, baseName(s)+"_window.html")
		if out != "" {
			files = append(files, out)
		}
		if err != nil {
			return files, err
		}
	}
	return files, nil
}

func (r *Renderer) outputDir(s *series.Series) (string, error) {
	dir := r.dir
	if dir == "" {
		dir = filepath.Dir(s.SourcePath)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create plot dir: %w", err)
	}
	return dir, nil
}

func baseName(s *series.Series) string {
	base := filepath.Base(s.SourcePath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// sanitize turns a channel name into a filename fragment.
func sanitize(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
