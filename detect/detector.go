package detect

import (
	"context"
	"log/slog"

	"github.com/hazyhaar/jobtrack/domain"
)

// SettingsSource returns the current settings. Detector calls it at the
// start of every pass and never caches the result.
type SettingsSource interface {
	Settings(ctx context.Context) (domain.Settings, error)
}

// Dispatcher delivers a detected record across the message boundary.
type Dispatcher interface {
	Dispatch(ctx context.Context, rec domain.JobRecord)
}

// Page is a snapshot of one browsing context as seen by a detection pass.
type Page struct {
	URL  string `json:"url"`
	HTML string `json:"html"`
}

// Outcome is the terminal state of a detection pass.
type Outcome string

const (
	OutcomeDisabled   Outcome = "disabled"
	OutcomeNone       Outcome = "none"
	OutcomePossible   Outcome = "dispatched-possible"
	OutcomeSubmission Outcome = "dispatched-submission"
	OutcomeFailed     Outcome = "failed"
)

// Result reports what a pass did.
type Result struct {
	Outcome        Outcome           `json:"outcome"`
	Classification Classification    `json:"classification"`
	Record         *domain.JobRecord `json:"record,omitempty"`
}

// Detector runs classify, extract and dispatch for one page at a time.
type Detector struct {
	settings   SettingsSource
	dispatcher Dispatcher
	extractor  *Extractor
	logger     *slog.Logger
}

// DetectorOption configures a Detector.
type DetectorOption func(*Detector)

// WithExtractor replaces the default Extractor.
func WithExtractor(e *Extractor) DetectorOption {
	return func(d *Detector) { d.extractor = e }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) DetectorOption {
	return func(d *Detector) { d.logger = l }
}

// NewDetector creates a Detector.
func NewDetector(settings SettingsSource, dispatcher Dispatcher, opts ...DetectorOption) *Detector {
	d := &Detector{
		settings:   settings,
		dispatcher: dispatcher,
		extractor:  defaultExtractor,
		logger:     slog.Default(),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Run performs one detection pass. It never panics: anything unexpected is
// logged and reported as OutcomeFailed so later passes proceed normally.
func (d *Detector) Run(ctx context.Context, p Page) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("detect: pass panicked", "url", p.URL, "panic", r)
			res = Result{Outcome: OutcomeFailed, Classification: res.Classification}
		}
	}()

	settings, err := d.settings.Settings(ctx)
	if err != nil {
		d.logger.Warn("detect: settings unavailable, using defaults", "error", err)
		settings = domain.DefaultSettings()
	}
	if !settings.AutoDetectEnabled {
		return Result{Outcome: OutcomeDisabled, Classification: Classification{PageKind: Unrecognized}}
	}

	snap, err := ParseSnapshotString(p.HTML)
	if err != nil {
		d.logger.Warn("detect: unreadable snapshot", "url", p.URL, "error", err)
		return Result{Outcome: OutcomeFailed, Classification: Classification{PageKind: Unrecognized}}
	}

	res.Classification = Classify(p.URL, snap, settings.CustomJobSites)
	rec, ok := d.extractor.Extract(res.Classification, p.URL, snap)
	if !ok {
		d.logger.Debug("detect: no job information", "url", p.URL, "page_kind", res.Classification.PageKind)
		res.Outcome = OutcomeNone
		return res
	}

	d.dispatcher.Dispatch(ctx, rec)
	res.Record = &rec
	res.Outcome = OutcomePossible
	if rec.Status == domain.JobApplied {
		res.Outcome = OutcomeSubmission
	}
	return res
}
