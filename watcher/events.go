package watcher

import (
	"encoding/json"
	"fmt"

	"github.com/hazyhaar/jobtrack/dispatch"
)

// bindingName is the CDP binding the injected script reports through.
const bindingName = "__jobtrack_event"

// eventsJS runs in every document. It reports load, form submits and
// clicks; the Go side decides which of them warrant a detection pass.
const eventsJS = `(() => {
	if (window.__jobtrackInstalled) return;
	window.__jobtrackInstalled = true;
	const send = (ev) => {
		try { window.` + bindingName + `(JSON.stringify(ev)); } catch (e) {}
	};
	const text = (el) => ((el && (el.innerText || el.textContent)) || '').slice(0, 2000);
	const onReady = () => send({type: 'load', url: location.href});
	if (document.readyState === 'complete') onReady();
	else window.addEventListener('load', onReady, {once: true});
	document.addEventListener('submit', (e) => {
		const form = e.target;
		send({type: 'submit', url: location.href, text: text(form), markup: (form.outerHTML || '').slice(0, 20000)});
	}, true);
	document.addEventListener('click', (e) => {
		const target = e.target;
		if (!target || !target.tagName) return;
		const button = target.closest ? target.closest('button') : null;
		send({
			type: 'click',
			url: location.href,
			tag: target.tagName,
			insideButton: !!button && button !== target,
			text: text(button || target),
		});
	}, true);
})()`

// Event is one report from the injected script.
type Event struct {
	Type         string `json:"type"`
	URL          string `json:"url,omitempty"`
	Text         string `json:"text,omitempty"`
	Markup       string `json:"markup,omitempty"`
	Tag          string `json:"tag,omitempty"`
	InsideButton bool   `json:"insideButton,omitempty"`
}

// ParseEvent decodes a binding payload.
func ParseEvent(payload string) (Event, error) {
	var ev Event
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		return Event{}, fmt.Errorf("decode: %w", err)
	}
	if ev.Type == "" {
		return Event{}, fmt.Errorf("decode: event without type")
	}
	return ev, nil
}

// Apply feeds ev to s and reports whether a pass was scheduled.
func Apply(s *dispatch.Scheduler, ev Event) bool {
	switch ev.Type {
	case "load":
		s.OnLoad(ev.URL)
		return true
	case "submit":
		return s.OnSubmit(ev.Text, ev.Markup)
	case "click":
		return s.OnClick(ev.Tag, ev.InsideButton, ev.Text)
	default:
		return false
	}
}
