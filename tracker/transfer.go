package tracker

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/tidwall/jsonc"

	"github.com/hazyhaar/jobtrack/domain"
	"github.com/hazyhaar/jobtrack/horosafe"
)

// Archive is the export file layout.
type Archive struct {
	Applications []domain.Application `json:"applications"`
	Settings     *domain.Settings     `json:"settings,omitempty"`
}

// ExportFilename names an export taken at now.
func ExportFilename(now time.Time) string {
	return "job_applications_" + now.Format(domain.DateLayout) + ".json"
}

// Export writes every application and the settings as indented JSON.
func (t *Tracker) Export(ctx context.Context, w io.Writer) error {
	apps, err := t.store.ListApplications(ctx)
	if err != nil {
		return fmt.Errorf("tracker: export: %w", err)
	}
	set, err := t.store.GetSettings(ctx)
	if err != nil {
		return fmt.Errorf("tracker: export: %w", err)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(Archive{Applications: apps, Settings: &set})
}

// Import replaces every application, and the settings when the archive has
// them, with the contents of r. Comments and trailing commas are accepted.
// On any error the store is left unchanged. The pending job is kept.
func (t *Tracker) Import(ctx context.Context, r io.Reader) (int, error) {
	raw, err := horosafe.LimitedReadAll(r, t.maxImportBytes())
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	arc, err := decodeArchive(raw)
	if err != nil {
		return 0, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.store.ReplaceAll(ctx, arc.Applications, arc.Settings); err != nil {
		return 0, fmt.Errorf("tracker: import: %w", err)
	}
	for _, a := range arc.Applications {
		t.ids.Observe(a.ID)
	}
	t.logger.InfoContext(ctx, "tracker: import complete",
		"applications", len(arc.Applications), "settings", arc.Settings != nil)
	return len(arc.Applications), nil
}

func (t *Tracker) maxImportBytes() int64 {
	if t.config != nil && t.config.API.MaxImportBytes > 0 {
		return t.config.API.MaxImportBytes
	}
	return 8 << 20
}

func decodeArchive(raw []byte) (Archive, error) {
	var doc struct {
		Applications []domain.Application `json:"applications"`
		Settings     json.RawMessage      `json:"settings"`
	}
	if err := json.Unmarshal(jsonc.ToJSON(raw), &doc); err != nil {
		return Archive{}, fmt.Errorf("%w: decode: %v", ErrInvalid, err)
	}

	arc := Archive{Applications: doc.Applications}
	if arc.Applications == nil {
		arc.Applications = []domain.Application{}
	}
	seen := make(map[int64]bool, len(arc.Applications))
	for i, a := range arc.Applications {
		if seen[a.ID] {
			return Archive{}, fmt.Errorf("%w: duplicate application id %d", ErrInvalid, a.ID)
		}
		seen[a.ID] = true
		if a.Company == "" || a.Position == "" {
			return Archive{}, fmt.Errorf("%w: application %d lacks company or position", ErrInvalid, a.ID)
		}
		if a.Status == "" {
			arc.Applications[i].Status = domain.StatusApplied
		}
	}

	if len(doc.Settings) > 0 && string(doc.Settings) != "null" {
		set := domain.DefaultSettings()
		if err := json.Unmarshal(doc.Settings, &set); err != nil {
			return Archive{}, fmt.Errorf("%w: decode settings: %v", ErrInvalid, err)
		}
		if set.CustomJobSites == nil {
			set.CustomJobSites = []string{}
		}
		arc.Settings = &set
	}
	return arc, nil
}
