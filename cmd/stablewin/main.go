package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"stablewin/internal/config"
	"stablewin/internal/logging"
	"stablewin/internal/session"
	"stablewin/internal/storage"
)

func main() {
	var (
		configPath = flag.String("config", "", "yaml or json config file")
		file       = flag.String("file", "", "measurement file to analyze (prompted when empty)")
		channel    = flag.String("channel", "", "criterion channel (prompted when empty)")
		minLen     = flag.Float64("min", 0, "minimum window length in seconds (prompted when 0)")
		maxLen     = flag.Float64("max", 0, "maximum window length in seconds (prompted when 0)")
		noPlots    = flag.Bool("no-plots", false, "skip plot generation")
		noReport   = flag.Bool("no-report", false, "skip writing the report file")
		quiet      = flag.Bool("quiet", false, "suppress log output")
	)
	flag.Parse()

	cfg := config.DefaultConfig()
	if *configPath != "" {
		loaded, err := config.Load(config.ResolvePath(*configPath))
		if err != nil {
			fmt.Fprintf(os.Stderr, "config: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	level := cfg.LogLevel
	if *quiet {
		level = "quiet"
	}
	logger := logging.NewLogger(level)

	ctx := context.Background()
	store, err := storage.NewStore(cfg.Storage)
	if err != nil {
		logger.Error("storage setup failed", "err", err)
		os.Exit(1)
	}
	if store != nil {
		if err := store.Init(ctx); err != nil {
			logger.Error("storage init failed", "err", err)
			os.Exit(1)
		}
		defer store.Close()
	}

	sess := session.New(cfg, logger, store, os.Stdin, os.Stdout)
	err = sess.Run(ctx, session.Params{
		File:     *file,
		Channel:  *channel,
		Min:      *minLen,
		Max:      *maxLen,
		NoPlots:  *noPlots,
		NoReport: *noReport,
	})
	if err != nil {
		logger.Error("analysis failed", "err", err)
		os.Exit(1)
	}
}
