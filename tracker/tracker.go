// Package tracker is the receiving side of the message boundary: it records
// submitted applications with duplicate suppression, holds the pending
// detected job, and exposes the management operations over Go, HTTP,
// MCP and connectivity handlers.
//
// Usage:
//
//	t, err := tracker.New(cfg, logger)
//	defer t.Close()
//	t.RegisterConnectivity(router)
//	t.RegisterMCP(mcpServer)
//	http.ListenAndServe(cfg.Listen, t.Handler(router))
package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hazyhaar/jobtrack/clock"
	"github.com/hazyhaar/jobtrack/domain"
	"github.com/hazyhaar/jobtrack/idgen"
	"github.com/hazyhaar/jobtrack/notify"
	"github.com/hazyhaar/jobtrack/tracker/internal/store"
)

var (
	// ErrNotFound is returned when no application has the requested ID.
	ErrNotFound = errors.New("tracker: application not found")
	// ErrNoPending is returned when the pending slot is empty.
	ErrNoPending = errors.New("tracker: no pending job")
	// ErrInvalid wraps validation failures of caller input.
	ErrInvalid = errors.New("tracker: invalid input")
)

// Tracker owns the application store.
type Tracker struct {
	store    *store.Store
	notifier notify.Notifier
	clock    clock.Clock
	loc      *time.Location
	logger   *slog.Logger
	config   *Config

	// mu serializes ID assignment with the writes that consume the IDs.
	mu  sync.Mutex
	ids idgen.Sequence
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock replaces the wall clock.
func WithClock(c clock.Clock) Option { return func(t *Tracker) { t.clock = c } }

// WithLocation sets the zone in which calendar dates are taken. Default:
// time.Local.
func WithLocation(loc *time.Location) Option { return func(t *Tracker) { t.loc = loc } }

// WithNotifier replaces the notifier built from the config.
func WithNotifier(n notify.Notifier) Option { return func(t *Tracker) { t.notifier = n } }

// New opens the database named in cfg and returns a ready Tracker.
func New(cfg *Config, logger *slog.Logger, opts ...Option) (*Tracker, error) {
	cfg.defaults()
	if logger == nil {
		logger = slog.Default()
	}

	s, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	t := newTracker(s, cfg, logger, opts...)
	if t.notifier == nil {
		n, err := buildNotifier(cfg.Notify, logger)
		if err != nil {
			s.Close()
			return nil, err
		}
		t.notifier = n
	}
	if err := t.observeIDs(context.Background()); err != nil {
		s.Close()
		return nil, err
	}
	return t, nil
}

func newTracker(s *store.Store, cfg *Config, logger *slog.Logger, opts ...Option) *Tracker {
	t := &Tracker{
		store:  s,
		clock:  clock.Real(),
		loc:    time.Local,
		logger: logger,
		config: cfg,
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

func buildNotifier(cfg NotifyConfig, logger *slog.Logger) (notify.Notifier, error) {
	n := notify.Multi{notify.Log{Logger: logger}}
	if cfg.WebhookURL == "" {
		return n, nil
	}
	opts := []notify.WebhookOption{notify.WithWebhookLogger(logger)}
	if cfg.AllowPrivate {
		opts = append(opts, notify.WithAllowPrivate())
	}
	w, err := notify.NewWebhook(cfg.WebhookURL, opts...)
	if err != nil {
		return nil, fmt.Errorf("tracker: notify: %w", err)
	}
	return append(n, w), nil
}

// Close closes the database.
func (t *Tracker) Close() error {
	return t.store.Close()
}

// observeIDs raises the ID floor above every stored application.
func (t *Tracker) observeIDs(ctx context.Context) error {
	maxID, err := t.store.MaxApplicationID(ctx)
	if err != nil {
		return fmt.Errorf("tracker: read max id: %w", err)
	}
	t.ids.Observe(maxID)
	return nil
}

func (t *Tracker) today(now time.Time) string {
	return now.In(t.loc).Format(domain.DateLayout)
}

// notify delivers n when notifications are enabled. Failures are logged.
func (t *Tracker) notify(ctx context.Context, set domain.Settings, n notify.Notification) {
	if !set.NotificationsEnabled || t.notifier == nil {
		return
	}
	if err := t.notifier.Notify(ctx, n); err != nil {
		t.logger.WarnContext(ctx, "tracker: notification failed", "type", n.Kind, "error", err)
	}
}

// translate maps store sentinels onto the tracker's.
func translate(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
