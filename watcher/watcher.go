// Package watcher drives a Chrome instance through go-rod, injects the
// event script into every tab, and runs detection passes when the script
// reports a qualifying load, submit or click.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/hazyhaar/jobtrack/clock"
	"github.com/hazyhaar/jobtrack/detect"
	"github.com/hazyhaar/jobtrack/dispatch"
)

// Runner runs one detection pass. *detect.Detector satisfies it.
type Runner interface {
	Run(ctx context.Context, p detect.Page) detect.Result
}

// Watcher owns the browser and one tab per start URL.
type Watcher struct {
	cfg      *Config
	detector Runner
	clock    clock.Clock
	logger   *slog.Logger

	mu      sync.Mutex
	browser *rod.Browser
	lnch    *launcher.Launcher
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithClock replaces the real clock used for scheduling and URL polling.
func WithClock(c clock.Clock) Option { return func(w *Watcher) { w.clock = c } }

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(w *Watcher) { w.logger = l } }

// New returns a Watcher. Call Run to start the browser.
func New(cfg *Config, detector Runner, opts ...Option) *Watcher {
	cfg.defaults()
	w := &Watcher{cfg: cfg, detector: detector, clock: clock.Real(), logger: slog.Default()}
	for _, o := range opts {
		o(w)
	}
	return w
}

// Run starts the browser, opens every start URL and blocks until ctx is
// done or every tab has exited.
func (w *Watcher) Run(ctx context.Context) error {
	if len(w.cfg.StartURLs) == 0 {
		return errors.New("watcher: no start urls")
	}
	b, err := w.launch()
	if err != nil {
		return err
	}
	defer w.close()

	var wg sync.WaitGroup
	for _, u := range w.cfg.StartURLs {
		wg.Add(1)
		go func(u string) {
			defer wg.Done()
			if err := w.watchTab(ctx, b, u); err != nil && ctx.Err() == nil {
				w.logger.Warn("watcher: tab stopped", "url", u, "error", err)
			}
		}(u)
	}
	wg.Wait()
	return ctx.Err()
}

func (w *Watcher) launch() (*rod.Browser, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	wsURL := w.cfg.RemoteURL
	if wsURL == "" {
		l := launcher.New().
			Headless(!w.cfg.Headful).
			Set("disable-blink-features", "AutomationControlled")
		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("watcher: launch: %w", err)
		}
		wsURL = u
		w.lnch = l
		w.logger.Info("watcher: launched local chrome", "headful", w.cfg.Headful)
	} else {
		w.logger.Info("watcher: connecting to remote chrome", "url", wsURL)
	}

	b := rod.New().ControlURL(wsURL)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("watcher: connect: %w", err)
	}
	w.browser = b
	return b, nil
}

func (w *Watcher) close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.browser != nil {
		if err := w.browser.Close(); err != nil {
			w.logger.Warn("watcher: close browser", "error", err)
		}
		w.browser = nil
	}
	if w.lnch != nil {
		w.lnch.Kill()
		w.lnch = nil
	}
}

// watchTab opens url in a stealth page and serves its events until ctx is
// done.
func (w *Watcher) watchTab(ctx context.Context, b *rod.Browser, url string) error {
	page, err := stealth.Page(b)
	if err != nil {
		return fmt.Errorf("stealth page: %w", err)
	}
	defer page.Close()

	if err := (proto.RuntimeAddBinding{Name: bindingName}).Call(page); err != nil {
		return fmt.Errorf("add binding: %w", err)
	}
	if _, err := page.EvalOnNewDocument(eventsJS); err != nil {
		return fmt.Errorf("inject: %w", err)
	}

	ctx, cancelTab := context.WithCancel(ctx)
	defer cancelTab()

	t := &tab{page: page, watcher: w}
	t.sched = dispatch.NewScheduler(w.clock, func() { t.pass(ctx) })
	defer t.sched.Stop()

	go t.pollURL(ctx)

	navCtx, cancel := context.WithTimeout(ctx, w.cfg.NavTimeout)
	err = page.Context(navCtx).Navigate(url)
	if err == nil {
		err = page.Context(navCtx).WaitLoad()
	}
	cancel()
	if err != nil {
		return fmt.Errorf("navigate: %w", err)
	}
	w.logger.Info("watcher: tab ready", "url", url)

	wait := page.Context(ctx).EachEvent(func(e *proto.RuntimeBindingCalled) {
		if e.Name != bindingName {
			return
		}
		ev, err := ParseEvent(e.Payload)
		if err != nil {
			w.logger.Debug("watcher: bad event", "error", err)
			return
		}
		if Apply(t.sched, ev) {
			w.logger.Debug("watcher: pass scheduled", "event", ev.Type, "url", ev.URL)
		}
	})
	wait()
	return ctx.Err()
}

// tab is one watched page.
type tab struct {
	page    *rod.Page
	watcher *Watcher
	sched   *dispatch.Scheduler

	// passMu keeps passes on the same tab from overlapping.
	passMu sync.Mutex
}

// pollURL catches URL changes the event script misses, such as
// history.pushState navigations in single-page apps.
func (t *tab) pollURL(ctx context.Context) {
	ticker := t.watcher.clock.NewTicker(t.watcher.cfg.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			info, err := t.page.Info()
			if err != nil {
				continue
			}
			if t.sched.OnURLChange(info.URL) {
				t.watcher.logger.Debug("watcher: url changed", "url", info.URL)
			}
		}
	}
}

func (t *tab) pass(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	t.passMu.Lock()
	defer t.passMu.Unlock()

	page, err := t.snapshot(ctx)
	if err != nil {
		t.watcher.logger.Warn("watcher: snapshot failed", "error", err)
		return
	}
	res := t.watcher.detector.Run(ctx, page)
	t.watcher.logger.Info("watcher: pass", "url", page.URL, "outcome", res.Outcome)
}

func (t *tab) snapshot(ctx context.Context) (detect.Page, error) {
	p := t.page.Context(ctx)
	info, err := p.Info()
	if err != nil {
		return detect.Page{}, fmt.Errorf("info: %w", err)
	}
	res, err := p.Eval(`() => document.documentElement.outerHTML`)
	if err != nil {
		return detect.Page{}, fmt.Errorf("outer html: %w", err)
	}
	return detect.Page{URL: info.URL, HTML: res.Value.Str()}, nil
}
