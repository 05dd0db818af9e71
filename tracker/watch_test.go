package tracker

import (
	"context"
	"testing"
	"time"

	"github.com/hazyhaar/jobtrack/domain"
)

func TestWatchStoreRaisesIDFloor(t *testing.T) {
	f := testTracker(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		f.t.WatchStore(ctx, time.Second)
	}()
	defer func() { cancel(); <-done }()

	deadline := time.Now().Add(2 * time.Second)
	for f.clock.Pending() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("watcher never started")
		}
		time.Sleep(time.Millisecond)
	}

	// Another process writes an application with an ID ahead of our clock.
	foreign := base.Add(time.Hour).UnixMilli()
	if err := f.t.store.InsertApplication(context.Background(), domain.Application{
		ID: foreign, Company: "Initech", Position: "Dev", Date: "2026-03-14",
		Status: domain.StatusApplied, CreatedAt: base,
	}); err != nil {
		t.Fatal(err)
	}
	f.clock.Advance(time.Second)

	for {
		a, err := f.t.Add(context.Background(), domain.Application{Company: "Acme", Position: "Dev"})
		if err != nil {
			t.Fatal(err)
		}
		if a.ID > foreign {
			return
		}
		if time.Now().After(deadline.Add(2 * time.Second)) {
			t.Fatalf("id %d never rose above %d", a.ID, foreign)
		}
		time.Sleep(5 * time.Millisecond)
	}
}
