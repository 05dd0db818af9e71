package tracker

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/hazyhaar/jobtrack/domain"
)

// Sort orders accepted by List.
const (
	SortDateDesc = "date-desc"
	SortDateAsc  = "date-asc"
	SortCompany  = "company"
	SortStatus   = "status"
)

// Filter narrows and orders List results.
type Filter struct {
	// Query is matched case-insensitively against company, position and notes.
	Query string `json:"query,omitempty"`
	// Status keeps only applications with this status. "all" or empty keeps all.
	Status string `json:"status,omitempty"`
	Sort   string `json:"sort,omitempty"`
}

// List returns the applications matching f.
func (t *Tracker) List(ctx context.Context, f Filter) ([]domain.Application, error) {
	apps, err := t.store.ListApplications(ctx)
	if err != nil {
		return nil, err
	}

	q := strings.ToLower(f.Query)
	out := apps[:0]
	for _, a := range apps {
		if q != "" &&
			!strings.Contains(strings.ToLower(a.Company), q) &&
			!strings.Contains(strings.ToLower(a.Position), q) &&
			!strings.Contains(strings.ToLower(a.Notes), q) {
			continue
		}
		if f.Status != "" && f.Status != "all" && a.Status != f.Status {
			continue
		}
		out = append(out, a)
	}

	switch f.Sort {
	case SortDateAsc:
		slices.SortStableFunc(out, func(a, b domain.Application) int { return cmp.Compare(a.Date, b.Date) })
	case SortCompany:
		slices.SortStableFunc(out, func(a, b domain.Application) int {
			return cmp.Compare(strings.ToLower(a.Company), strings.ToLower(b.Company))
		})
	case SortStatus:
		slices.SortStableFunc(out, func(a, b domain.Application) int { return cmp.Compare(a.Status, b.Status) })
	default:
		slices.SortStableFunc(out, func(a, b domain.Application) int { return cmp.Compare(b.Date, a.Date) })
	}
	return out, nil
}

// Recent returns the n applications with the latest dates.
func (t *Tracker) Recent(ctx context.Context, n int) ([]domain.Application, error) {
	apps, err := t.List(ctx, Filter{Sort: SortDateDesc})
	if err != nil {
		return nil, err
	}
	if n >= 0 && len(apps) > n {
		apps = apps[:n]
	}
	return apps, nil
}

// Get returns one application.
func (t *Tracker) Get(ctx context.Context, id int64) (domain.Application, error) {
	a, err := t.store.GetApplication(ctx, id)
	return a, translate(err)
}

// Add saves a manually entered application. Company and position are
// required; date defaults to today and status to applied.
func (t *Tracker) Add(ctx context.Context, a domain.Application) (domain.Application, error) {
	if err := validate(a); err != nil {
		return domain.Application{}, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.clock.Now()
	a.ID = t.ids.Next(now)
	a.CreatedAt = now
	a.UpdatedAt = nil
	if a.Date == "" {
		a.Date = t.today(now)
	}
	if a.Status == "" {
		a.Status = domain.StatusApplied
	}
	if err := t.store.InsertApplication(ctx, a); err != nil {
		return domain.Application{}, fmt.Errorf("tracker: add: %w", err)
	}
	return a, nil
}

// Update replaces the editable fields of the application with a.ID and
// stamps UpdatedAt. ID and CreatedAt are kept from the stored record.
func (t *Tracker) Update(ctx context.Context, a domain.Application) (domain.Application, error) {
	if err := validate(a); err != nil {
		return domain.Application{}, err
	}
	cur, err := t.store.GetApplication(ctx, a.ID)
	if err != nil {
		return domain.Application{}, translate(err)
	}

	now := t.clock.Now()
	cur.Company = a.Company
	cur.Position = a.Position
	cur.Notes = a.Notes
	cur.UpdatedAt = &now
	if a.Date != "" {
		cur.Date = a.Date
	}
	if a.Status != "" {
		cur.Status = a.Status
	}
	if a.Source != "" {
		cur.Source = a.Source
	}
	if a.URL != "" {
		cur.URL = a.URL
	}
	if err := t.store.UpdateApplication(ctx, cur); err != nil {
		return domain.Application{}, translate(err)
	}
	return cur, nil
}

// Delete removes exactly one application.
func (t *Tracker) Delete(ctx context.Context, id int64) error {
	return translate(t.store.DeleteApplication(ctx, id))
}

// Clear removes every application. Settings are kept.
func (t *Tracker) Clear(ctx context.Context) error {
	return t.store.ClearApplications(ctx)
}

// Settings returns the current settings. Tracker satisfies
// detect.SettingsSource through it.
func (t *Tracker) Settings(ctx context.Context) (domain.Settings, error) {
	return t.store.GetSettings(ctx)
}

// SaveSettings stores set after trimming custom sites and dropping blanks.
// Numeric fields are stored as given.
func (t *Tracker) SaveSettings(ctx context.Context, set domain.Settings) (domain.Settings, error) {
	set.CustomJobSites = domain.SplitSites(strings.Join(set.CustomJobSites, "\n"))
	if err := t.store.SaveSettings(ctx, set); err != nil {
		return domain.Settings{}, err
	}
	return set, nil
}

// FollowUps returns applications still in the applied state whose date is
// at least FollowUpDays days before now.
func (t *Tracker) FollowUps(ctx context.Context, now time.Time) ([]domain.Application, error) {
	set, err := t.store.GetSettings(ctx)
	if err != nil {
		return nil, err
	}
	apps, err := t.List(ctx, Filter{Status: domain.StatusApplied, Sort: SortDateAsc})
	if err != nil {
		return nil, err
	}

	y, m, d := now.In(t.loc).Date()
	cutoff := time.Date(y, m, d-set.FollowUpDays, 0, 0, 0, 0, t.loc).Format(domain.DateLayout)
	due := []domain.Application{}
	for _, a := range apps {
		if a.Date != "" && a.Date <= cutoff {
			due = append(due, a)
		}
	}
	return due, nil
}

func validate(a domain.Application) error {
	if strings.TrimSpace(a.Company) == "" || strings.TrimSpace(a.Position) == "" {
		return fmt.Errorf("%w: company and position are required", ErrInvalid)
	}
	if a.Date != "" {
		if _, err := time.Parse(domain.DateLayout, a.Date); err != nil {
			return fmt.Errorf("%w: date %q is not YYYY-MM-DD", ErrInvalid, a.Date)
		}
	}
	return nil
}
