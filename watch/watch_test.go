package watch

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hazyhaar/jobtrack/clock"
	"github.com/hazyhaar/jobtrack/dbopen"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	db := dbopen.OpenMemory(t)
	if _, err := db.Exec(`CREATE TABLE items (id INTEGER PRIMARY KEY)`); err != nil {
		t.Fatal(err)
	}
	return db
}

func insert(t *testing.T, db *sql.DB, id int) {
	t.Helper()
	if _, err := db.Exec(`INSERT INTO items (id) VALUES (?)`, id); err != nil {
		t.Fatal(err)
	}
}

func TestMaxColumnDetector(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	detect := MaxColumnDetector("items", "id")

	v, err := detect(ctx, db)
	if err != nil {
		t.Fatal(err)
	}
	if v != 0 {
		t.Errorf("empty table: got %d, want 0", v)
	}
	insert(t, db, 7)
	insert(t, db, 3)
	if v, _ = detect(ctx, db); v != 7 {
		t.Errorf("got %d, want 7", v)
	}
}

func TestQuoteIdent(t *testing.T) {
	if got := quoteIdent(`odd"name`); got != `"odd""name"` {
		t.Errorf("got %q, want %q", got, `"odd""name"`)
	}
}

func TestPollFiresOnlyOnChange(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	w := New(db, Options{Detector: MaxColumnDetector("items", "id")})
	if err := w.Seed(ctx); err != nil {
		t.Fatal(err)
	}

	var calls int
	action := func(context.Context) error { calls++; return nil }

	if fired, _ := w.Poll(ctx, action); fired {
		t.Error("fired without a change")
	}
	insert(t, db, 5)
	if fired, err := w.Poll(ctx, action); !fired || err != nil {
		t.Errorf("after insert: got fired=%v err=%v", fired, err)
	}
	if fired, _ := w.Poll(ctx, action); fired {
		t.Error("fired twice for one change")
	}
	if calls != 1 {
		t.Errorf("calls: got %d, want 1", calls)
	}
	if w.Version() != 5 {
		t.Errorf("version: got %d, want 5", w.Version())
	}
	s := w.Stats()
	if s.Checks != 3 || s.ChangesDetected != 1 || s.Reloads != 1 {
		t.Errorf("stats: got %+v", s)
	}
}

func TestPollRetriesFailedAction(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	w := New(db, Options{Detector: MaxColumnDetector("items", "id")})
	w.Seed(ctx)
	insert(t, db, 1)

	boom := errors.New("boom")
	if _, err := w.Poll(ctx, func(context.Context) error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("got %v, want boom", err)
	}
	if w.Version() != 0 {
		t.Errorf("version advanced after failure: got %d", w.Version())
	}
	if fired, err := w.Poll(ctx, func(context.Context) error { return nil }); !fired || err != nil {
		t.Errorf("retry: got fired=%v err=%v", fired, err)
	}
}

func TestOnChangeUsesClock(t *testing.T) {
	db := testDB(t)
	fc := clock.Fake(time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC))
	w := New(db, Options{
		Interval: time.Second,
		Detector: MaxColumnDetector("items", "id"),
		Clock:    fc,
		Logger:   slog.New(slog.DiscardHandler),
	})

	ctx, cancel := context.WithCancel(context.Background())
	reloaded := make(chan int64, 1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.OnChange(ctx, func(ctx context.Context) error {
			v, err := MaxColumnDetector("items", "id")(ctx, db)
			reloaded <- v
			return err
		})
	}()

	// Wait for the ticker to be armed before writing.
	deadline := time.Now().Add(2 * time.Second)
	for fc.Pending() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("ticker never armed")
		}
		time.Sleep(time.Millisecond)
	}
	insert(t, db, 9)
	fc.Advance(time.Second)

	select {
	case v := <-reloaded:
		if v != 9 {
			t.Errorf("got %d, want 9", v)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("action not called")
	}
	cancel()
	<-done
}
