package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/charmbracelet/glamour"
	log "github.com/sirupsen/logrus"

	"TalmudBacktest/internal/backtest"
	"TalmudBacktest/internal/cache"
	"TalmudBacktest/internal/collector"
	"TalmudBacktest/internal/config"
	"TalmudBacktest/internal/logging"
	"TalmudBacktest/internal/monitoring"
	"TalmudBacktest/internal/recorder"
)

var configPath = flag.String("config", defaultConfigPath(), "Path to the YAML config (env CONFIG_PATH)")

func defaultConfigPath() string {
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		return v
	}
	return "configs/config.yaml"
}

// app holds the collaborators shared by every subcommand.
type app struct {
	cfg      *config.Config
	runner   *backtest.Runner
	cache    cache.ResultCache
	recorder recorder.Recorder
	metrics  *monitoring.Metrics
}

// openApp loads the configuration and wires the runner. A cache or
// recorder that can't be opened degrades to its no-op form.
func openApp() (*app, error) {
	cfg, err := config.Load(*configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	if err := logging.Setup(cfg.Logging); err != nil {
		return nil, fmt.Errorf("setup logging: %w", err)
	}

	source, err := collector.FromConfig(cfg)
	if err != nil {
		return nil, err
	}
	log.WithField("source", source.Name()).Debug("price source ready")

	rc, err := cache.FromConfig(cfg)
	if err != nil {
		log.WithError(err).Warn("result cache unavailable, continuing without it")
		rc = cache.Noop{}
	}

	var rec recorder.Recorder = recorder.NewNoopRecorder()
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.WithError(err).Warn("init sqlite recorder failed, using noop")
		} else {
			rec = sr
		}
	}

	metrics := monitoring.NewMetrics()
	runner := backtest.NewRunner(source)
	runner.Cache = rc
	runner.Recorder = rec
	runner.Metrics = metrics
	runner.RiskFreeRate = cfg.Backtest.RiskFree()
	runner.CacheTTL = cfg.Cache.TTL

	return &app{cfg: cfg, runner: runner, cache: rc, recorder: rec, metrics: metrics}, nil
}

func (a *app) Close() {
	if err := a.cache.Close(); err != nil {
		log.WithError(err).Warn("close cache")
	}
	if err := a.recorder.Close(); err != nil {
		log.WithError(err).Warn("close recorder")
	}
}

// printMarkdown renders md for the terminal, falling back to the raw text.
func printMarkdown(md string) {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
	if err == nil {
		var out string
		if out, err = r.Render(md); err == nil {
			fmt.Print(out)
			return
		}
	}
	fmt.Print(md)
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
}
