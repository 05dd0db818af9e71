package tracker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hazyhaar/jobtrack/clock"
	"github.com/hazyhaar/jobtrack/dbopen"
	"github.com/hazyhaar/jobtrack/domain"
	"github.com/hazyhaar/jobtrack/notify"
	"github.com/hazyhaar/jobtrack/tracker/internal/store"
)

var base = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

type recordingNotifier struct {
	mu   sync.Mutex
	got  []notify.Notification
	fail error
}

func (r *recordingNotifier) Notify(_ context.Context, n notify.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, n)
	return r.fail
}

func (r *recordingNotifier) kinds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, n := range r.got {
		out = append(out, n.Kind)
	}
	return out
}

type fixture struct {
	t        *Tracker
	clock    *clock.FakeClock
	notifier *recordingNotifier
}

// testTracker creates a Tracker backed by an in-memory SQLite database, a
// fake clock at base and dates taken in UTC.
func testTracker(t *testing.T) *fixture {
	t.Helper()
	db := dbopen.OpenMemory(t)
	if _, err := db.Exec(store.Schema); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
	cfg := &Config{}
	cfg.defaults()
	fc := clock.Fake(base)
	n := &recordingNotifier{}
	trk := newTracker(&store.Store{DB: db}, cfg, slog.New(slog.DiscardHandler),
		WithClock(fc), WithLocation(time.UTC), WithNotifier(n))
	return &fixture{t: trk, clock: fc, notifier: n}
}

func (f *fixture) setSettings(t *testing.T, mutate func(*domain.Settings)) {
	t.Helper()
	set := domain.DefaultSettings()
	mutate(&set)
	if _, err := f.t.SaveSettings(context.Background(), set); err != nil {
		t.Fatalf("save settings: %v", err)
	}
}

func (f *fixture) all(t *testing.T) []domain.Application {
	t.Helper()
	apps, err := f.t.store.ListApplications(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	return apps
}

func TestNewOpensFileDatabase(t *testing.T) {
	dir := t.TempDir()
	cfg := &Config{DBPath: dir + "/sub/jobtrack.db"}
	trk, err := New(cfg, nil, WithNotifier(&recordingNotifier{}))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctx := context.Background()
	first, err := trk.Add(ctx, domain.Application{Company: "Acme", Position: "Dev"})
	if err != nil {
		t.Fatal(err)
	}
	trk.Close()

	// A reopened tracker continues above the stored IDs.
	trk, err = New(cfg, nil, WithNotifier(&recordingNotifier{}), WithClock(clock.Fake(time.UnixMilli(first.ID-1000))))
	if err != nil {
		t.Fatal(err)
	}
	defer trk.Close()
	second, err := trk.Add(ctx, domain.Application{Company: "Globex", Position: "Dev"})
	if err != nil {
		t.Fatal(err)
	}
	if second.ID <= first.ID {
		t.Errorf("id after reopen: got %d, want > %d", second.ID, first.ID)
	}
}

func TestNewRejectsBadWebhook(t *testing.T) {
	cfg := &Config{DBPath: t.TempDir() + "/jobtrack.db", Notify: NotifyConfig{WebhookURL: "ftp://example.com"}}
	if _, err := New(cfg, nil); err == nil {
		t.Error("expected error for ftp webhook")
	}
}

func TestTranslate(t *testing.T) {
	if !errors.Is(translate(store.ErrNotFound), ErrNotFound) {
		t.Error("store.ErrNotFound should map to ErrNotFound")
	}
	other := errors.New("disk full")
	if translate(other) != other {
		t.Error("other errors pass through")
	}
}
