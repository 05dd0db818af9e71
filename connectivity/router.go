// Package connectivity is the message boundary between detection and the
// tracker. A call names a service (the message action) and carries a JSON
// payload; the router dispatches it to an in-process handler or, when a route
// says so, to a remote transport such as HTTP.
//
//	router := connectivity.New()
//	router.RegisterTransport("http", connectivity.HTTPFactory())
//	router.RegisterLocal("get-settings", handleGetSettings)
//	router.Apply([]connectivity.Route{{Service: "job-application-submitted", Strategy: "http", Endpoint: url}})
//
//	resp, err := router.Call(ctx, "job-application-submitted", payload)
//
// Callers do not know whether the receiver lives in the same process.
package connectivity

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
)

// Handler is a transport-agnostic service function: bytes in, bytes out.
type Handler func(ctx context.Context, payload []byte) ([]byte, error)

// TransportFactory builds a Handler for a remote endpoint. The returned close
// function runs when the route is replaced or the router closes; it may be
// nil.
type TransportFactory func(endpoint string, config json.RawMessage) (handler Handler, close func(), err error)

// Route sends one service to a transport. Strategy "local" uses the
// registered local handler, "noop" drops calls silently, anything else names
// a registered transport.
type Route struct {
	Service  string          `yaml:"service" json:"service"`
	Strategy string          `yaml:"strategy" json:"strategy"`
	Endpoint string          `yaml:"endpoint" json:"endpoint,omitempty"`
	Config   json.RawMessage `yaml:"-" json:"config,omitempty"`
}

func (rt Route) fingerprint() string {
	return rt.Strategy + "|" + rt.Endpoint + "|" + string(rt.Config)
}

type remoteEntry struct {
	handler Handler
	close   func()
}

// Router dispatches service calls. Safe for concurrent use.
type Router struct {
	mu            sync.RWMutex
	localHandlers map[string]Handler
	remoteEntries map[string]remoteEntry
	routes        map[string]Route
	factories     map[string]TransportFactory
	middleware    HandlerMiddleware
	logger        *slog.Logger
}

// Option configures a Router.
type Option func(*Router)

// WithLogger sets a custom logger for the router.
func WithLogger(l *slog.Logger) Option {
	return func(r *Router) { r.logger = l }
}

// WithMiddleware wraps every dispatched call, local or remote.
func WithMiddleware(mw HandlerMiddleware) Option {
	return func(r *Router) { r.middleware = mw }
}

// New creates a Router with no routes.
func New(opts ...Option) *Router {
	r := &Router{
		localHandlers: make(map[string]Handler),
		remoteEntries: make(map[string]remoteEntry),
		routes:        make(map[string]Route),
		factories:     make(map[string]TransportFactory),
		logger:        slog.Default(),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// RegisterLocal registers an in-process handler for a service.
func (r *Router) RegisterLocal(service string, h Handler) {
	r.mu.Lock()
	r.localHandlers[service] = h
	r.mu.Unlock()
}

// RegisterTransport registers a factory for a strategy name such as "http".
func (r *Router) RegisterTransport(strategy string, f TransportFactory) {
	r.mu.Lock()
	r.factories[strategy] = f
	r.mu.Unlock()
}

// Services lists the services that have a local handler.
func (r *Router) Services() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.localHandlers))
	for name := range r.localHandlers {
		out = append(out, name)
	}
	return out
}

// Call dispatches a service call. Resolution order: noop route, remote
// route, local handler, ErrServiceNotFound.
func (r *Router) Call(ctx context.Context, service string, payload []byte) ([]byte, error) {
	r.mu.RLock()
	entry, hasRemote := r.remoteEntries[service]
	localH := r.localHandlers[service]
	rt, hasRoute := r.routes[service]
	mw := r.middleware
	r.mu.RUnlock()

	var h Handler
	switch {
	case hasRoute && rt.Strategy == "noop":
		r.logger.DebugContext(ctx, "routing noop", "service", service)
		return nil, nil
	case hasRemote:
		r.logger.DebugContext(ctx, "routing remote",
			"service", service, "strategy", rt.Strategy, "endpoint", rt.Endpoint)
		h = entry.handler
	case localH != nil:
		r.logger.DebugContext(ctx, "routing local", "service", service)
		h = localH
	default:
		return nil, &ErrServiceNotFound{Service: service}
	}

	if mw != nil {
		h = mw(h)
	}
	return h(context.WithValue(ctx, serviceKey{}, service), payload)
}

type serviceKey struct{}

// ServiceFromContext returns the service name of the call in progress.
func ServiceFromContext(ctx context.Context) string {
	s, _ := ctx.Value(serviceKey{}).(string)
	return s
}

// Apply replaces the route set. Only routes whose strategy, endpoint or
// config changed are rebuilt. Routes that fail to build are reported in the
// returned error and left out; the others are still applied.
func (r *Router) Apply(routes []Route) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := make(map[string]Route, len(routes))
	for _, rt := range routes {
		next[rt.Service] = rt
	}

	var firstErr error
	entries := make(map[string]remoteEntry, len(next))
	reused := make(map[string]bool)
	for name, rt := range next {
		if rt.Strategy == "local" || rt.Strategy == "noop" {
			continue
		}
		if old, ok := r.routes[name]; ok && old.fingerprint() == rt.fingerprint() {
			if existing, exists := r.remoteEntries[name]; exists {
				entries[name] = existing
				reused[name] = true
				continue
			}
		}

		factory, ok := r.factories[rt.Strategy]
		if !ok {
			if firstErr == nil {
				firstErr = &ErrNoFactory{Service: name, Strategy: rt.Strategy}
			}
			r.logger.Warn("no transport factory for strategy", "service", name, "strategy", rt.Strategy)
			continue
		}
		h, closeFn, err := factory(rt.Endpoint, rt.Config)
		if err != nil {
			if firstErr == nil {
				firstErr = &ErrFactoryFailed{Service: name, Strategy: rt.Strategy, Endpoint: rt.Endpoint, Cause: err}
			}
			r.logger.Error("factory failed", "service", name, "strategy", rt.Strategy, "endpoint", rt.Endpoint, "error", err)
			continue
		}
		entries[name] = remoteEntry{handler: h, close: closeFn}
		r.logger.Info("route built", "service", name, "strategy", rt.Strategy, "endpoint", rt.Endpoint)
	}

	for name, old := range r.remoteEntries {
		if old.close == nil {
			continue
		}
		if !reused[name] {
			old.close()
		}
	}

	r.remoteEntries = entries
	r.routes = next
	return firstErr
}

// Close shuts down all remote handlers.
func (r *Router) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, entry := range r.remoteEntries {
		if entry.close != nil {
			entry.close()
		}
	}
	r.remoteEntries = make(map[string]remoteEntry)
	r.routes = make(map[string]Route)
	return nil
}
