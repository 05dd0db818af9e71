// Package shield provides the HTTP middleware in front of the tracker API:
// security headers, body limits, CORS for browser collectors and request IDs.
//
//	r := chi.NewRouter()
//	for _, mw := range shield.DefaultAPIStack(shield.CORSConfig{}) {
//	    r.Use(mw)
//	}
package shield

import "net/http"

type contextKey string

// LoggerKey is the context key for the per-request structured logger.
const LoggerKey contextKey = "shield_logger"

// DefaultMaxBody bounds JSON request bodies. Page snapshots are the largest
// payloads the API accepts.
const DefaultMaxBody int64 = 8 << 20

// DefaultAPIStack returns RequestID, SecurityHeaders, CORS and MaxBody in
// that order.
func DefaultAPIStack(cors CORSConfig) []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		RequestID,
		SecurityHeaders(DefaultHeaders()),
		CORS(cors),
		MaxBody(DefaultMaxBody),
	}
}
