// Command jobtrack is the application tracker daemon and its management CLI.
//
// Usage:
//
//	jobtrack [flags]                   # serve the HTTP API (default)
//	jobtrack --mcp                     # serve HTTP and MCP over stdio
//	jobtrack list [-q text] [--status s] [--sort date-desc|date-asc|company|status]
//	jobtrack export [file|-]           # write the JSON archive
//	jobtrack import --yes <file|->     # replace everything from an archive
//	jobtrack clear --yes               # delete every application
//	jobtrack settings [file]           # print, or save from a JSON file
//	jobtrack follow-ups                # applications due for a follow-up
//	jobtrack hash-token <token>        # bcrypt hash for api.token_hash
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/pflag"
	_ "modernc.org/sqlite"

	"github.com/hazyhaar/jobtrack/connectivity"
	"github.com/hazyhaar/jobtrack/tracker"
)

type options struct {
	configPath string
	dbPath     string
	listen     string
	logLevel   string
	mcp        bool
	yes        bool

	query  string
	status string
	sort   string
}

func main() {
	_ = godotenv.Load()

	var opts options
	flagSet := pflag.NewFlagSet("jobtrack", pflag.ContinueOnError)
	flagSet.StringVarP(&opts.configPath, "config", "c", env("JOBTRACK_CONFIG", ""), "path to jobtrack.yaml")
	flagSet.StringVar(&opts.dbPath, "db", env("JOBTRACK_DB", ""), "database path (overrides config)")
	flagSet.StringVar(&opts.listen, "listen", env("JOBTRACK_LISTEN", ""), "HTTP listen address (overrides config)")
	flagSet.StringVar(&opts.logLevel, "log-level", env("LOG_LEVEL", "info"), "log level: debug, info, warn, error")
	flagSet.BoolVar(&opts.mcp, "mcp", false, "also serve MCP over stdio")
	flagSet.BoolVarP(&opts.yes, "yes", "y", false, "confirm import and clear")
	flagSet.StringVarP(&opts.query, "query", "q", "", "list: company, position or notes substring")
	flagSet.StringVar(&opts.status, "status", "", "list: status filter")
	flagSet.StringVar(&opts.sort, "sort", tracker.SortDateDesc, "list: date-desc, date-asc, company or status")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		os.Exit(2)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: parseLevel(opts.logLevel)}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, opts, flagSet.Args()); err != nil {
		logger.Error("jobtrack: fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, opts options, args []string) error {
	cfg := &tracker.Config{}
	if opts.configPath != "" {
		c, err := tracker.LoadConfigFile(opts.configPath)
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		cfg = c
	}
	if opts.dbPath != "" {
		cfg.DBPath = opts.dbPath
	}
	if opts.listen != "" {
		cfg.Listen = opts.listen
	}

	cmd := "serve"
	if len(args) > 0 {
		cmd, args = args[0], args[1:]
	}
	if cmd == "hash-token" {
		return hashToken(args)
	}

	trk, err := tracker.New(cfg, logger)
	if err != nil {
		return err
	}
	defer trk.Close()

	switch cmd {
	case "serve":
		return serve(ctx, logger, trk, cfg, opts.mcp)
	case "list":
		return list(ctx, trk, tracker.Filter{Query: opts.query, Status: opts.status, Sort: opts.sort})
	case "export":
		return export(ctx, trk, args)
	case "import":
		return importArchive(ctx, trk, args, opts.yes)
	case "clear":
		return clearAll(ctx, trk, opts.yes)
	case "settings":
		return settings(ctx, trk, args)
	case "follow-ups":
		return followUps(ctx, trk)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func serve(ctx context.Context, logger *slog.Logger, trk *tracker.Tracker, cfg *tracker.Config, withMCP bool) error {
	router := connectivity.New(
		connectivity.WithLogger(logger),
		connectivity.WithMiddleware(connectivity.Chain(
			connectivity.Recovery(logger),
			connectivity.Logging(logger),
		)),
	)
	defer router.Close()
	trk.RegisterConnectivity(router)
	go trk.WatchStore(ctx, 2*time.Second)

	if withMCP {
		mcpSrv := mcp.NewServer(&mcp.Implementation{Name: "jobtrack", Version: "1.0.0"}, nil)
		trk.RegisterMCP(mcpSrv)
		go func() {
			if err := mcpSrv.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
				logger.Warn("mcp: stdio session ended", "error", err)
			}
		}()
	}

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           trk.Handler(router),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		logger.Info("jobtrack: listening", "addr", cfg.Listen, "db", cfg.DBPath)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("jobtrack: shutdown", "error", err)
	}
	logger.Info("jobtrack: stopped")
	return nil
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
