// Command jobwatch opens job-board pages in Chrome, watches them for
// applications and reports what it finds to a jobtrack daemon.
//
// Usage:
//
//	jobwatch -c jobwatch.yaml
//	jobwatch --tracker http://127.0.0.1:8787 https://www.linkedin.com/jobs/
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/hazyhaar/jobtrack/watcher"
)

func main() {
	_ = godotenv.Load()

	var (
		configPath string
		trackerURL string
		token      string
		remoteURL  string
		headful    bool
		logLevel   string
	)
	flagSet := pflag.NewFlagSet("jobwatch", pflag.ContinueOnError)
	flagSet.StringVarP(&configPath, "config", "c", env("JOBWATCH_CONFIG", ""), "path to jobwatch.yaml")
	flagSet.StringVar(&trackerURL, "tracker", env("JOBTRACK_URL", ""), "jobtrack daemon base URL")
	flagSet.StringVar(&token, "token", env("JOBTRACK_TOKEN", ""), "bearer token for the daemon")
	flagSet.StringVar(&remoteURL, "remote", env("CHROME_WS_URL", ""), "WebSocket URL of a running Chrome")
	flagSet.BoolVar(&headful, "headful", false, "show the browser window")
	flagSet.StringVar(&logLevel, "log-level", env("LOG_LEVEL", "info"), "log level: debug, info, warn, error")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		os.Exit(2)
	}

	var level slog.Level
	switch logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg := &watcher.Config{}
	if configPath != "" {
		c, err := watcher.LoadConfigFile(configPath)
		if err != nil {
			logger.Error("jobwatch: config", "error", err)
			os.Exit(1)
		}
		cfg = c
	}
	if trackerURL != "" {
		cfg.TrackerURL = trackerURL
	}
	if token != "" {
		cfg.Token = token
	}
	if remoteURL != "" {
		cfg.RemoteURL = remoteURL
	}
	if headful {
		cfg.Headful = true
	}
	cfg.StartURLs = append(cfg.StartURLs, flagSet.Args()...)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, cfg); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("jobwatch: fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, cfg *watcher.Config) error {
	if len(cfg.StartURLs) == 0 {
		fmt.Fprintln(os.Stderr, "usage: jobwatch [-c jobwatch.yaml] [--tracker url] <start-url>...")
		return errors.New("no start urls")
	}
	router, err := watcher.NewRouter(cfg, logger)
	if err != nil {
		return err
	}
	defer router.Close()

	w := watcher.New(cfg, watcher.NewDetector(router, logger), watcher.WithLogger(logger))
	logger.Info("jobwatch: starting", "tracker", cfg.TrackerURL, "tabs", len(cfg.StartURLs))
	return w.Run(ctx)
}

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
