package tracker

import (
	"context"
	"errors"
	"testing"

	"github.com/hazyhaar/jobtrack/domain"
	"github.com/hazyhaar/jobtrack/notify"
)

func viewed(company, title string) domain.JobRecord {
	return domain.JobRecord{
		Title:   title,
		Company: company,
		URL:     "https://www.indeed.com/viewjob?jk=abc123",
		SiteID:  "indeed",
		JobID:   "abc123",
		Status:  domain.JobViewed,
	}
}

func TestHoldPendingLastWriteWins(t *testing.T) {
	f := testTracker(t)
	ctx := context.Background()

	if err := f.t.HoldPending(ctx, viewed("Acme", "Dev")); err != nil {
		t.Fatal(err)
	}
	if err := f.t.HoldPending(ctx, viewed("Globex", "SRE")); err != nil {
		t.Fatal(err)
	}
	rec, err := f.t.Pending(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Company != "Globex" {
		t.Errorf("got %q, want %q", rec.Company, "Globex")
	}

	f.notifier.mu.Lock()
	got := f.notifier.got
	f.notifier.mu.Unlock()
	if len(got) != 2 || got[1].Kind != notify.KindPossible {
		t.Fatalf("notifications: got %+v", got)
	}
	if got[1].Actions[0] != notify.ActionTrack || got[1].Actions[1] != notify.ActionIgnore {
		t.Errorf("actions: got %v", got[1].Actions)
	}
	if n := len(f.all(t)); n != 0 {
		t.Errorf("holding must not write applications, got %d", n)
	}
}

func TestHoldPendingQuietWhenNotificationsOff(t *testing.T) {
	f := testTracker(t)
	f.setSettings(t, func(s *domain.Settings) { s.NotificationsEnabled = false })
	if err := f.t.HoldPending(context.Background(), viewed("Acme", "Dev")); err != nil {
		t.Fatal(err)
	}
	if n := len(f.notifier.kinds()); n != 0 {
		t.Errorf("notifications: got %d, want 0", n)
	}
}

func TestAcceptPending(t *testing.T) {
	f := testTracker(t)
	ctx := context.Background()

	// Accepting skips the duplicate window.
	f.t.RecordSubmission(ctx, submission("Acme", "Dev"))
	f.t.HoldPending(ctx, viewed("Acme", "Dev"))

	app, err := f.t.AcceptPending(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := "Tracked from Indeed\nURL: https://www.indeed.com/viewjob?jk=abc123"
	if app.Notes != want {
		t.Errorf("notes: got %q, want %q", app.Notes, want)
	}
	if app.Status != domain.StatusApplied || app.Date != "2026-03-14" {
		t.Errorf("got status %q date %q", app.Status, app.Date)
	}
	if n := len(f.all(t)); n != 2 {
		t.Errorf("applications: got %d, want 2", n)
	}
	if _, err := f.t.Pending(ctx); !errors.Is(err, ErrNoPending) {
		t.Errorf("slot after accept: got %v, want ErrNoPending", err)
	}
	if _, err := f.t.AcceptPending(ctx); !errors.Is(err, ErrNoPending) {
		t.Errorf("accept empty: got %v, want ErrNoPending", err)
	}
}

func TestDismissPending(t *testing.T) {
	f := testTracker(t)
	ctx := context.Background()

	f.t.HoldPending(ctx, viewed("Acme", "Dev"))
	if err := f.t.DismissPending(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := f.t.Pending(ctx); !errors.Is(err, ErrNoPending) {
		t.Errorf("got %v, want ErrNoPending", err)
	}
	if err := f.t.DismissPending(ctx); err != nil {
		t.Errorf("dismissing an empty slot: %v", err)
	}
}

func TestDraftFromPending(t *testing.T) {
	f := testTracker(t)
	ctx := context.Background()

	f.t.HoldPending(ctx, viewed("Acme", "Dev"))
	draft, err := f.t.DraftFromPending(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if draft.ID != 0 {
		t.Errorf("draft should be unsaved, got id %d", draft.ID)
	}
	want := "Source: Indeed\nURL: https://www.indeed.com/viewjob?jk=abc123\n"
	if draft.Notes != want {
		t.Errorf("notes: got %q, want %q", draft.Notes, want)
	}
	if draft.Company != "Acme" || draft.Position != "Dev" || draft.Date != "2026-03-14" {
		t.Errorf("draft: got %+v", draft)
	}
	if n := len(f.all(t)); n != 0 {
		t.Errorf("draft must not be saved, got %d applications", n)
	}
	if _, err := f.t.DraftFromPending(ctx); !errors.Is(err, ErrNoPending) {
		t.Errorf("second draft: got %v, want ErrNoPending", err)
	}
}
