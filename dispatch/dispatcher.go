package dispatch

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hazyhaar/jobtrack/clock"
	"github.com/hazyhaar/jobtrack/domain"
	"github.com/hazyhaar/jobtrack/idgen"
)

// Caller is the side of connectivity.Router the dispatcher needs.
type Caller interface {
	Call(ctx context.Context, service string, payload []byte) ([]byte, error)
}

// Dispatcher sends one message per detected record. Delivery is
// fire-and-forget: failures are logged and swallowed, never retried.
type Dispatcher struct {
	caller Caller
	clock  clock.Clock
	newID  idgen.Generator
	logger *slog.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithClock sets the clock stamping SentAt.
func WithClock(c clock.Clock) Option { return func(d *Dispatcher) { d.clock = c } }

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(d *Dispatcher) { d.logger = l } }

// WithIDGenerator sets the envelope ID generator.
func WithIDGenerator(g idgen.Generator) Option { return func(d *Dispatcher) { d.newID = g } }

// New creates a Dispatcher that sends through caller.
func New(caller Caller, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		caller: caller,
		clock:  clock.Real(),
		newID:  idgen.Prefixed("msg_", idgen.Default),
		logger: slog.Default(),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Dispatch sends rec as job-application-submitted when it is applied and as
// possible-job-application otherwise.
func (d *Dispatcher) Dispatch(ctx context.Context, rec domain.JobRecord) {
	msg := Message{
		ID:     d.newID(),
		Action: ActionFor(rec),
		Job:    &rec,
		SentAt: d.clock.Now(),
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		d.logger.Warn("dispatch: encode failed", "action", msg.Action, "error", err)
		return
	}
	resp, err := d.caller.Call(ctx, msg.Action, payload)
	if err != nil {
		d.logger.Warn("dispatch: delivery failed",
			"action", msg.Action, "message_id", msg.ID, "company", rec.Company, "title", rec.Title, "error", err)
		return
	}
	d.logger.Info("dispatch: delivered",
		"action", msg.Action, "message_id", msg.ID, "company", rec.Company, "title", rec.Title, "reply", string(resp))
}

// RemoteSettings reads Settings across the boundary with a get-settings
// message. It satisfies detect.SettingsSource.
type RemoteSettings struct {
	Caller Caller
}

// Settings asks the tracker for the current settings.
func (r RemoteSettings) Settings(ctx context.Context) (domain.Settings, error) {
	payload, err := json.Marshal(Message{Action: ActionGetSettings})
	if err != nil {
		return domain.Settings{}, err
	}
	resp, err := r.Caller.Call(ctx, ActionGetSettings, payload)
	if err != nil {
		return domain.Settings{}, err
	}
	s := domain.DefaultSettings()
	if err := json.Unmarshal(resp, &s); err != nil {
		return domain.Settings{}, err
	}
	return s, nil
}
