package tracker

import (
	"context"
	"fmt"
	"time"

	"github.com/hazyhaar/jobtrack/domain"
	"github.com/hazyhaar/jobtrack/notify"
)

// DuplicateWindow is how long a recorded application suppresses another
// submission with the same company and position.
const DuplicateWindow = 24 * time.Hour

// RecordSubmission saves a submitted application unless auto-save is off or
// an identical one was created within DuplicateWindow. It reports whether a
// new application was written.
func (t *Tracker) RecordSubmission(ctx context.Context, rec domain.JobRecord) (bool, error) {
	if rec.Title == "" || rec.Company == "" {
		return false, fmt.Errorf("%w: submission without title and company", ErrInvalid)
	}
	set, err := t.store.GetSettings(ctx)
	if err != nil {
		return false, fmt.Errorf("tracker: read settings: %w", err)
	}
	if !set.AutoSaveEnabled {
		t.logger.DebugContext(ctx, "tracker: auto-save disabled", "company", rec.Company, "position", rec.Title)
		return false, nil
	}

	t.mu.Lock()
	now := t.clock.Now()
	app := domain.Application{
		ID:        t.ids.Next(now),
		Company:   rec.Company,
		Position:  rec.Title,
		Date:      t.today(now),
		Status:    domain.StatusApplied,
		Notes:     fmt.Sprintf("Automatically tracked from %s\nURL: %s", rec.Source(), rec.URL),
		CreatedAt: now,
		Source:    rec.Source(),
		URL:       rec.URL,
	}
	inserted, err := t.store.InsertUnlessDuplicate(ctx, app, now.Add(-DuplicateWindow))
	t.mu.Unlock()
	if err != nil {
		return false, fmt.Errorf("tracker: record submission: %w", err)
	}
	if !inserted {
		t.logger.InfoContext(ctx, "tracker: duplicate submission ignored", "company", rec.Company, "position", rec.Title)
		return false, nil
	}

	t.logger.InfoContext(ctx, "tracker: application recorded",
		"id", app.ID, "company", app.Company, "position", app.Position, "source", app.Source)
	t.notify(ctx, set, notify.Tracked(app))
	return true, nil
}
