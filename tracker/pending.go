package tracker

import (
	"context"
	"errors"
	"fmt"

	"github.com/hazyhaar/jobtrack/domain"
	"github.com/hazyhaar/jobtrack/notify"
	"github.com/hazyhaar/jobtrack/tracker/internal/store"
)

// HoldPending replaces the pending detected job with rec and prompts the
// user when notifications are enabled.
func (t *Tracker) HoldPending(ctx context.Context, rec domain.JobRecord) error {
	if rec.Title == "" || rec.Company == "" {
		return fmt.Errorf("%w: job without title and company", ErrInvalid)
	}
	if err := t.store.SetPending(ctx, rec); err != nil {
		return fmt.Errorf("tracker: hold pending: %w", err)
	}
	set, err := t.store.GetSettings(ctx)
	if err != nil {
		t.logger.WarnContext(ctx, "tracker: settings unavailable, skipping prompt", "error", err)
		return nil
	}
	t.notify(ctx, set, notify.PossibleApplication(rec))
	return nil
}

// Pending returns the held job.
func (t *Tracker) Pending(ctx context.Context) (domain.JobRecord, error) {
	rec, err := t.store.GetPending(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return domain.JobRecord{}, ErrNoPending
	}
	return rec, err
}

// AcceptPending turns the held job into an application and empties the
// slot. The duplicate window does not apply: accepting is an explicit act.
func (t *Tracker) AcceptPending(ctx context.Context) (domain.Application, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.clock.Now()
	app, err := t.store.PromotePending(ctx, func(rec domain.JobRecord) domain.Application {
		return domain.Application{
			ID:        t.ids.Next(now),
			Company:   rec.Company,
			Position:  rec.Title,
			Date:      t.today(now),
			Status:    domain.StatusApplied,
			Notes:     fmt.Sprintf("Tracked from %s\nURL: %s", rec.Source(), rec.URL),
			CreatedAt: now,
			Source:    rec.Source(),
			URL:       rec.URL,
		}
	})
	if errors.Is(err, store.ErrNotFound) {
		return domain.Application{}, ErrNoPending
	}
	if err != nil {
		return domain.Application{}, fmt.Errorf("tracker: accept pending: %w", err)
	}
	t.logger.InfoContext(ctx, "tracker: pending job accepted", "id", app.ID, "company", app.Company)
	return app, nil
}

// DismissPending empties the slot.
func (t *Tracker) DismissPending(ctx context.Context) error {
	return t.store.ClearPending(ctx)
}

// DraftFromPending empties the slot and returns an unsaved application
// pre-filled from the held job, for a quick-entry form.
func (t *Tracker) DraftFromPending(ctx context.Context) (domain.Application, error) {
	rec, err := t.store.TakePending(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Application{}, ErrNoPending
	}
	if err != nil {
		return domain.Application{}, err
	}
	return domain.Application{
		Company:  rec.Company,
		Position: rec.Title,
		Date:     t.today(t.clock.Now()),
		Status:   domain.StatusApplied,
		Notes:    fmt.Sprintf("Source: %s\nURL: %s\n", rec.Source(), rec.URL),
		Source:   rec.Source(),
		URL:      rec.URL,
	}, nil
}
