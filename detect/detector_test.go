package detect

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/hazyhaar/jobtrack/domain"
)

type staticSettings struct {
	s     domain.Settings
	err   error
	calls int
}

func (f *staticSettings) Settings(context.Context) (domain.Settings, error) {
	f.calls++
	return f.s, f.err
}

type recordingDispatcher struct {
	got   []domain.JobRecord
	panic bool
}

func (r *recordingDispatcher) Dispatch(_ context.Context, rec domain.JobRecord) {
	if r.panic {
		panic("boom")
	}
	r.got = append(r.got, rec)
}

func newTestDetector(settings *staticSettings, disp *recordingDispatcher, logs *bytes.Buffer) *Detector {
	logger := slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return NewDetector(settings, disp,
		WithExtractor(testExtractor()),
		WithLogger(logger),
	)
}

const confirmationPage = `<section><h2>Application submitted</h2><p>for Engineer at Acme</p></section>`

func TestDetectorDispatchesSubmission(t *testing.T) {
	settings := &staticSettings{s: domain.DefaultSettings()}
	disp := &recordingDispatcher{}
	d := newTestDetector(settings, disp, &bytes.Buffer{})

	res := d.Run(context.Background(), Page{
		URL:  "https://www.linkedin.com/jobs/view/7/post-apply/default/",
		HTML: confirmationPage,
	})
	if res.Outcome != OutcomeSubmission {
		t.Fatalf("outcome: got %q, want %q", res.Outcome, OutcomeSubmission)
	}
	if len(disp.got) != 1 {
		t.Fatalf("dispatched %d records, want 1", len(disp.got))
	}
	if disp.got[0].Company != "Acme" || disp.got[0].Status != domain.JobApplied {
		t.Errorf("dispatched %+v", disp.got[0])
	}
}

func TestDetectorDispatchesPossible(t *testing.T) {
	settings := &staticSettings{s: domain.DefaultSettings()}
	disp := &recordingDispatcher{}
	d := newTestDetector(settings, disp, &bytes.Buffer{})

	res := d.Run(context.Background(), Page{
		URL:  "https://www.indeed.com/viewjob?jk=9",
		HTML: `<h1 class="jobsearch-JobInfoHeader-title">Analyst</h1>`,
	})
	if res.Outcome != OutcomePossible {
		t.Fatalf("outcome: got %q, want %q", res.Outcome, OutcomePossible)
	}
	if len(disp.got) != 1 || disp.got[0].Status != domain.JobViewed {
		t.Fatalf("dispatched %+v", disp.got)
	}
}

func TestDetectorDisabled(t *testing.T) {
	s := domain.DefaultSettings()
	s.AutoDetectEnabled = false
	disp := &recordingDispatcher{}
	d := newTestDetector(&staticSettings{s: s}, disp, &bytes.Buffer{})

	res := d.Run(context.Background(), Page{URL: "https://www.linkedin.com/jobs/view/7/post-apply/", HTML: confirmationPage})
	if res.Outcome != OutcomeDisabled {
		t.Errorf("outcome: got %q, want %q", res.Outcome, OutcomeDisabled)
	}
	if len(disp.got) != 0 {
		t.Errorf("dispatched %d records while disabled", len(disp.got))
	}
}

func TestDetectorReadsSettingsEveryPass(t *testing.T) {
	settings := &staticSettings{s: domain.DefaultSettings()}
	disp := &recordingDispatcher{}
	d := newTestDetector(settings, disp, &bytes.Buffer{})
	page := Page{URL: "https://careers.initech.example/jobs/1", HTML: `<h1>Engineer</h1>`}

	if res := d.Run(context.Background(), page); res.Outcome != OutcomeNone {
		t.Fatalf("before custom site: got %q, want %q", res.Outcome, OutcomeNone)
	}
	settings.s.CustomJobSites = []string{"initech.example"}
	if res := d.Run(context.Background(), page); res.Outcome != OutcomePossible {
		t.Fatalf("after custom site: got %q, want %q", res.Outcome, OutcomePossible)
	}
	if settings.calls != 2 {
		t.Errorf("settings read %d times, want 2", settings.calls)
	}
}

func TestDetectorSettingsErrorUsesDefaults(t *testing.T) {
	settings := &staticSettings{err: errors.New("receiver gone")}
	disp := &recordingDispatcher{}
	var logs bytes.Buffer
	d := newTestDetector(settings, disp, &logs)

	res := d.Run(context.Background(), Page{URL: "https://www.indeed.com/viewjob?jk=9", HTML: `<h1 class="jobsearch-JobInfoHeader-title">Analyst</h1>`})
	if res.Outcome != OutcomePossible {
		t.Errorf("outcome: got %q, want %q", res.Outcome, OutcomePossible)
	}
	if !strings.Contains(logs.String(), "settings unavailable") {
		t.Errorf("expected a warning, logs: %s", logs.String())
	}
}

func TestDetectorRecoversPanic(t *testing.T) {
	settings := &staticSettings{s: domain.DefaultSettings()}
	disp := &recordingDispatcher{panic: true}
	var logs bytes.Buffer
	d := newTestDetector(settings, disp, &logs)

	res := d.Run(context.Background(), Page{URL: "https://www.indeed.com/viewjob?jk=9", HTML: `<h1 class="jobsearch-JobInfoHeader-title">Analyst</h1>`})
	if res.Outcome != OutcomeFailed {
		t.Errorf("outcome: got %q, want %q", res.Outcome, OutcomeFailed)
	}
	if res.Classification.SiteID != "indeed" {
		t.Errorf("classification lost: %+v", res.Classification)
	}
	if !strings.Contains(logs.String(), "pass panicked") {
		t.Errorf("panic not logged: %s", logs.String())
	}

	// The next pass is unaffected.
	disp.panic = false
	if res := d.Run(context.Background(), Page{URL: "https://www.indeed.com/viewjob?jk=9", HTML: `<h1 class="jobsearch-JobInfoHeader-title">Analyst</h1>`}); res.Outcome != OutcomePossible {
		t.Errorf("next pass: got %q, want %q", res.Outcome, OutcomePossible)
	}
}
