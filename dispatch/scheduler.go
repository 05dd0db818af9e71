package dispatch

import (
	"strings"
	"sync"
	"time"

	"github.com/hazyhaar/jobtrack/clock"
)

// Delays between a page event and the detection pass it triggers. They give
// the page time to render the content the pass reads.
const (
	FormSubmitDelay = 500 * time.Millisecond
	ClickDelay      = 1000 * time.Millisecond
	LoadDelay       = 1500 * time.Millisecond
)

var (
	formTextMarkers   = []string{"apply", "submit application", "send application"}
	formMarkupMarkers = []string{"apply-button", "application-submit"}
	buttonMarkers     = []string{"apply", "submit", "send application"}
)

// IsApplicationForm reports whether a submitted form looks like a job
// application. text is the form's visible text, markup its outer HTML.
func IsApplicationForm(text, markup string) bool {
	text = strings.ToLower(text)
	for _, m := range formTextMarkers {
		if strings.Contains(text, m) {
			return true
		}
	}
	markup = strings.ToLower(markup)
	for _, m := range formMarkupMarkers {
		if strings.Contains(markup, m) {
			return true
		}
	}
	return false
}

// IsApplicationButton reports whether a click landed on an apply button.
// tag is the clicked element's tag name, insideButton whether it has a
// button ancestor, and text the text of that button.
func IsApplicationButton(tag string, insideButton bool, text string) bool {
	if !strings.EqualFold(tag, "button") && !insideButton {
		return false
	}
	text = strings.ToLower(text)
	for _, m := range buttonMarkers {
		if strings.Contains(text, m) {
			return true
		}
	}
	return false
}

// Scheduler turns page events into delayed detection passes. Each
// qualifying event arms its own timer; events are not coalesced.
type Scheduler struct {
	clock clock.Clock
	pass  func()

	mu      sync.Mutex
	lastURL string
	timers  map[*clock.Timer]struct{}
	stopped bool
}

// NewScheduler returns a Scheduler that calls pass when a timer fires.
func NewScheduler(c clock.Clock, pass func()) *Scheduler {
	return &Scheduler{clock: c, pass: pass, timers: make(map[*clock.Timer]struct{})}
}

// OnLoad records the initial URL and schedules a pass.
func (s *Scheduler) OnLoad(url string) {
	s.mu.Lock()
	s.lastURL = url
	s.mu.Unlock()
	s.schedule(LoadDelay)
}

// OnURLChange schedules a pass when url differs from the last URL seen.
// It reports whether a pass was scheduled.
func (s *Scheduler) OnURLChange(url string) bool {
	s.mu.Lock()
	if url == s.lastURL {
		s.mu.Unlock()
		return false
	}
	s.lastURL = url
	s.mu.Unlock()
	return s.schedule(LoadDelay)
}

// OnSubmit schedules a pass when the submitted form qualifies.
func (s *Scheduler) OnSubmit(text, markup string) bool {
	if !IsApplicationForm(text, markup) {
		return false
	}
	return s.schedule(FormSubmitDelay)
}

// OnClick schedules a pass when the click hit an apply button.
func (s *Scheduler) OnClick(tag string, insideButton bool, text string) bool {
	if !IsApplicationButton(tag, insideButton, text) {
		return false
	}
	return s.schedule(ClickDelay)
}

// Stop cancels every armed timer. Later events are ignored.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	for t := range s.timers {
		t.Stop()
	}
	clear(s.timers)
}

func (s *Scheduler) schedule(d time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return false
	}
	var t *clock.Timer
	t = s.clock.AfterFunc(d, func() {
		s.mu.Lock()
		delete(s.timers, t)
		s.mu.Unlock()
		s.pass()
	})
	s.timers[t] = struct{}{}
	return true
}
