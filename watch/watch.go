// Package watch polls a SQLite database for a change token and runs an
// action when it moves. The daemon uses it to notice writes made by other
// processes, such as a one-shot `jobtrack import` against the same file.
//
//	w := watch.New(db, watch.Options{Detector: watch.MaxColumnDetector("applications", "id")})
//	go w.OnChange(ctx, reload)
package watch

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/hazyhaar/jobtrack/clock"
)

// ChangeDetector reads a version token. Two different values mean something
// changed.
type ChangeDetector func(ctx context.Context, db *sql.DB) (int64, error)

// Options tunes the watcher.
type Options struct {
	// Interval is the polling frequency. Default: 2s.
	Interval time.Duration
	// Detector is required.
	Detector ChangeDetector
	Clock    clock.Clock
	Logger   *slog.Logger
}

func (o *Options) defaults() {
	if o.Interval <= 0 {
		o.Interval = 2 * time.Second
	}
	if o.Clock == nil {
		o.Clock = clock.Real()
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// Watcher polls one database. Poll and OnChange must not run concurrently.
type Watcher struct {
	db   *sql.DB
	opts Options

	version atomic.Int64
	seeded  atomic.Bool

	checks  atomic.Int64
	changes atomic.Int64
	errors  atomic.Int64
	reloads atomic.Int64
}

// Stats are point-in-time counters.
type Stats struct {
	Checks          int64 `json:"checks"`
	ChangesDetected int64 `json:"changes_detected"`
	Errors          int64 `json:"errors"`
	Reloads         int64 `json:"reloads"`
}

// New creates a Watcher. Call Seed then Poll, or OnChange.
func New(db *sql.DB, opts Options) *Watcher {
	opts.defaults()
	return &Watcher{db: db, opts: opts}
}

// Stats returns the current counters.
func (w *Watcher) Stats() Stats {
	return Stats{
		Checks:          w.checks.Load(),
		ChangesDetected: w.changes.Load(),
		Errors:          w.errors.Load(),
		Reloads:         w.reloads.Load(),
	}
}

// Version returns the last version the action accepted.
func (w *Watcher) Version() int64 { return w.version.Load() }

// Seed records the current version without running the action.
func (w *Watcher) Seed(ctx context.Context) error {
	v, err := w.opts.Detector(ctx, w.db)
	if err != nil {
		return err
	}
	w.version.Store(v)
	w.seeded.Store(true)
	return nil
}

// Poll checks the version once and runs action if it moved. A failed
// action leaves the version unchanged so the next Poll retries.
func (w *Watcher) Poll(ctx context.Context, action func(context.Context) error) (bool, error) {
	w.checks.Add(1)
	cur, err := w.opts.Detector(ctx, w.db)
	if err != nil {
		w.errors.Add(1)
		return false, err
	}
	if w.seeded.Load() && cur == w.version.Load() {
		return false, nil
	}
	w.changes.Add(1)
	if err := action(ctx); err != nil {
		w.errors.Add(1)
		return false, err
	}
	w.reloads.Add(1)
	w.version.Store(cur)
	w.seeded.Store(true)
	return true, nil
}

// OnChange seeds the version, then polls every Interval until ctx is done.
func (w *Watcher) OnChange(ctx context.Context, action func(context.Context) error) {
	log := w.opts.Logger
	if err := w.Seed(ctx); err != nil {
		log.Warn("watch: initial version check failed", "error", err)
	}

	ticker := w.opts.Clock.NewTicker(w.opts.Interval)
	defer ticker.Stop()
	log.Debug("watch: started", "interval", w.opts.Interval)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fired, err := w.Poll(ctx, action)
			if err != nil {
				log.Warn("watch: poll failed", "error", err)
				continue
			}
			if fired {
				log.Info("watch: reloaded", "version", w.version.Load())
			}
		}
	}
}

// MaxColumnDetector polls MAX(column) on table.
func MaxColumnDetector(table, column string) ChangeDetector {
	query := "SELECT COALESCE(MAX(" + quoteIdent(column) + "), 0) FROM " + quoteIdent(table)
	return func(ctx context.Context, db *sql.DB) (int64, error) {
		var v int64
		err := db.QueryRowContext(ctx, query).Scan(&v)
		return v, err
	}
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
