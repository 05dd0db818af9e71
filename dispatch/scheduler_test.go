package dispatch

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/hazyhaar/jobtrack/clock"
)

func newScheduler() (*Scheduler, *clock.FakeClock, *atomic.Int32) {
	fc := clock.Fake(fixedNow)
	var passes atomic.Int32
	return NewScheduler(fc, func() { passes.Add(1) }), fc, &passes
}

func TestSchedulerLoadDelay(t *testing.T) {
	s, fc, passes := newScheduler()
	s.OnLoad("https://www.linkedin.com/jobs/view/1")

	fc.Advance(LoadDelay - time.Millisecond)
	if got := passes.Load(); got != 0 {
		t.Fatalf("passes before delay = %d, want 0", got)
	}
	fc.Advance(time.Millisecond)
	if got := passes.Load(); got != 1 {
		t.Fatalf("passes after delay = %d, want 1", got)
	}
}

func TestSchedulerURLChange(t *testing.T) {
	s, fc, passes := newScheduler()
	s.OnLoad("https://www.linkedin.com/jobs/view/1")
	fc.Advance(LoadDelay)

	if s.OnURLChange("https://www.linkedin.com/jobs/view/1") {
		t.Error("same URL should not schedule")
	}
	if !s.OnURLChange("https://www.linkedin.com/jobs/view/2") {
		t.Error("new URL should schedule")
	}
	fc.Advance(LoadDelay)
	if got := passes.Load(); got != 2 {
		t.Errorf("passes = %d, want 2", got)
	}
}

func TestSchedulerSubmitAndClick(t *testing.T) {
	s, fc, passes := newScheduler()

	if s.OnSubmit("Search jobs", `<form class="search">`) {
		t.Error("search form should not schedule")
	}
	if !s.OnSubmit("Submit application", `<form>`) {
		t.Error("application form should schedule")
	}
	fc.Advance(FormSubmitDelay)
	if got := passes.Load(); got != 1 {
		t.Fatalf("passes after submit = %d, want 1", got)
	}

	if s.OnClick("a", false, "Apply now") {
		t.Error("link outside a button should not schedule")
	}
	if !s.OnClick("span", true, "Easy Apply") {
		t.Error("span inside apply button should schedule")
	}
	fc.Advance(ClickDelay - time.Millisecond)
	if got := passes.Load(); got != 1 {
		t.Fatalf("passes before click delay = %d, want 1", got)
	}
	fc.Advance(time.Millisecond)
	if got := passes.Load(); got != 2 {
		t.Fatalf("passes after click delay = %d, want 2", got)
	}
}

func TestSchedulerStop(t *testing.T) {
	s, fc, passes := newScheduler()
	s.OnLoad("https://example.com")
	s.Stop()
	if s.OnURLChange("https://example.com/2") {
		t.Error("stopped scheduler should ignore events")
	}
	fc.Advance(time.Minute)
	if got := passes.Load(); got != 0 {
		t.Errorf("passes = %d, want 0", got)
	}
	if fc.Pending() != 0 {
		t.Errorf("pending timers = %d, want 0", fc.Pending())
	}
}

func TestIsApplicationForm(t *testing.T) {
	tests := []struct {
		text, markup string
		want         bool
	}{
		{"Apply", "<form>", true},
		{"Send Application", "<form>", true},
		{"Next", `<form><button class="jobs-apply-button">`, true},
		{"Next", `<form id="application-submit">`, true},
		{"Search", `<form class="search">`, false},
	}
	for _, tt := range tests {
		if got := IsApplicationForm(tt.text, tt.markup); got != tt.want {
			t.Errorf("IsApplicationForm(%q, %q) = %v, want %v", tt.text, tt.markup, got, tt.want)
		}
	}
}

func TestIsApplicationButton(t *testing.T) {
	tests := []struct {
		tag    string
		inside bool
		text   string
		want   bool
	}{
		{"BUTTON", false, "Submit", true},
		{"svg", true, "Easy Apply", true},
		{"button", false, "Send application", true},
		{"button", false, "Save", false},
		{"div", false, "Apply", false},
	}
	for _, tt := range tests {
		if got := IsApplicationButton(tt.tag, tt.inside, tt.text); got != tt.want {
			t.Errorf("IsApplicationButton(%q, %v, %q) = %v, want %v", tt.tag, tt.inside, tt.text, got, tt.want)
		}
	}
}
