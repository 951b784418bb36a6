package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	LogLevel string        `json:"log_level" yaml:"log_level"`
	Input    InputConfig   `json:"input" yaml:"input"`
	Search   SearchConfig  `json:"search" yaml:"search"`
	Report   ReportConfig  `json:"report" yaml:"report"`
	Plots    PlotsConfig   `json:"plots" yaml:"plots"`
	Storage  StorageConfig `json:"storage" yaml:"storage"`
}

type InputConfig struct {
	TimeColumn    string `json:"time_column" yaml:"time_column"`
	HeaderMarker  string `json:"header_marker" yaml:"header_marker"`
	HeaderRepeats int    `json:"header_repeats" yaml:"header_repeats"`
	DecimalComma  bool   `json:"decimal_comma" yaml:"decimal_comma"`
}

type SearchConfig struct {
	Tolerance   float64 `json:"tolerance" yaml:"tolerance"`
	MinPoints   int     `json:"min_points" yaml:"min_points"`
	StepSeconds float64 `json:"step_seconds" yaml:"step_seconds"`
	Workers     int     `json:"workers" yaml:"workers"`
}

type ReportConfig struct {
	Enabled   bool   `json:"enabled" yaml:"enabled"`
	Suffix    string `json:"suffix" yaml:"suffix"`
	Precision int    `json:"precision" yaml:"precision"`
}

type PlotsConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Format  string `json:"format" yaml:"format"`
	Dir     string `json:"dir" yaml:"dir"`
}

type StorageConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Driver  string `json:"driver" yaml:"driver"`
	DSN     string `json:"dsn" yaml:"dsn"`
}

func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Input: InputConfig{
			TimeColumn:    "X_Value",
			HeaderMarker:  "***End_of_Header***",
			HeaderRepeats: 2,
			DecimalComma:  true,
		},
		Search: SearchConfig{
			Tolerance:   0.01,
			MinPoints:   2,
			StepSeconds: 1.0,
			Workers:     1,
		},
		Report: ReportConfig{
			Enabled:   true,
			Suffix:    "_window",
			Precision: 6,
		},
		Plots: PlotsConfig{
			Enabled: true,
			Format:  "png",
		},
		Storage: StorageConfig{
			Enabled: false,
			Driver:  "sqlite",
			DSN:     "file:stablewin.db?_pragma=busy_timeout(5000)",
		},
	}
}

func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	content, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()

	trimmed := strings.TrimSpace(string(content))
	if len(trimmed) == 0 {
		return nil, errors.New("config file is empty")
	}
	var decodeErr error
	if looksLikeJSON(trimmed) {
		decodeErr = json.Unmarshal([]byte(trimmed), cfg)
	} else {
		decodeErr = yaml.Unmarshal([]byte(trimmed), cfg)
	}
	if decodeErr != nil {
		return nil, decodeErr
	}
	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	if path == "" || cfg == nil {
		return errors.New("config path or config is empty")
	}
	var data []byte
	var err error
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".json" {
		data, err = json.MarshalIndent(cfg, "", "  ")
	} else {
		data, err = yaml.Marshal(cfg)
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func looksLikeJSON(s string) bool {
	for _, ch := range s {
		if ch == '{' || ch == '[' {
			return true
		}
		if ch > ' ' {
			return false
		}
	}
	return false
}

func applyDefaults(cfg *Config) {
	if cfg.Input.TimeColumn == "" {
		cfg.Input.TimeColumn = "X_Value"
	}
	if cfg.Input.HeaderMarker == "" {
		cfg.Input.HeaderMarker = "***End_of_Header***"
	}
	if cfg.Input.HeaderRepeats <= 0 {
		cfg.Input.HeaderRepeats = 2
	}
	if cfg.Search.Tolerance <= 0 {
		cfg.Search.Tolerance = 0.01
	}
	if cfg.Search.MinPoints <= 0 {
		cfg.Search.MinPoints = 2
	}
	if cfg.Search.StepSeconds <= 0 {
		cfg.Search.StepSeconds = 1.0
	}
	if cfg.Search.Workers <= 0 {
		cfg.Search.Workers = 1
	}
	if cfg.Report.Suffix == "" {
		cfg.Report.Suffix = "_window"
	}
	if cfg.Report.Precision <= 0 {
		cfg.Report.Precision = 6
	}
	if cfg.Plots.Format == "" {
		cfg.Plots.Format = "png"
	}
}

func Validate(cfg *Config) error {
	if cfg.Search.Tolerance >= 1 {
		return fmt.Errorf("search.tolerance must be below 1, got %g", cfg.Search.Tolerance)
	}
	switch strings.ToLower(cfg.Plots.Format) {
	case "png", "html", "both":
	default:
		return fmt.Errorf("plots.format must be png, html or both, got %q", cfg.Plots.Format)
	}
	if cfg.Storage.Enabled {
		switch strings.ToLower(cfg.Storage.Driver) {
		case "sqlite", "postgres", "postgresql":
		default:
			return fmt.Errorf("storage.driver must be sqlite or postgres, got %q", cfg.Storage.Driver)
		}
	}
	return nil
}

func ResolvePath(path string) string {
	if path == "" {
		return path
	}
	if filepath.IsAbs(path) {
		return path
	}
	cwd, err := os.Getwd()
	if err != nil {
		return path
	}
	return filepath.Join(cwd, path)
}
