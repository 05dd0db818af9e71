package watcher

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hazyhaar/jobtrack/connectivity"
	"github.com/hazyhaar/jobtrack/detect"
	"github.com/hazyhaar/jobtrack/dispatch"
)

// remoteActions are the services the watcher sends to the daemon.
var remoteActions = []string{
	dispatch.ActionPossibleApplication,
	dispatch.ActionSubmitted,
	dispatch.ActionGetSettings,
}

// NewRouter returns a connectivity Router that sends every watcher message
// to the daemon's message endpoint over HTTP.
func NewRouter(cfg *Config, logger *slog.Logger) (*connectivity.Router, error) {
	cfg.defaults()
	if logger == nil {
		logger = slog.Default()
	}
	router := connectivity.New(
		connectivity.WithLogger(logger),
		connectivity.WithMiddleware(connectivity.Chain(
			connectivity.Recovery(logger),
			connectivity.Logging(logger),
		)),
	)
	router.RegisterTransport("http", connectivity.HTTPFactory())

	routeCfg, err := json.Marshal(map[string]any{
		"timeout_ms": cfg.CallTimeout.Milliseconds(),
		"token":      cfg.Token,
	})
	if err != nil {
		return nil, err
	}
	endpoint := strings.TrimSuffix(cfg.TrackerURL, "/") + "/api/v1/messages"
	routes := make([]connectivity.Route, 0, len(remoteActions))
	for _, action := range remoteActions {
		routes = append(routes, connectivity.Route{
			Service:  action,
			Strategy: "http",
			Endpoint: endpoint,
			Config:   routeCfg,
		})
	}
	if err := router.Apply(routes); err != nil {
		router.Close()
		return nil, fmt.Errorf("watcher: routes: %w", err)
	}
	return router, nil
}

// NewDetector returns a Detector that reads settings from, and dispatches
// to, the daemon behind router.
func NewDetector(router *connectivity.Router, logger *slog.Logger) *detect.Detector {
	return detect.NewDetector(
		dispatch.RemoteSettings{Caller: router},
		dispatch.New(router, dispatch.WithLogger(logger)),
		detect.WithLogger(logger),
	)
}
