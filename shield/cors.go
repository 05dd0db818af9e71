package shield

import (
	"net/http"
	"strings"
)

// CORSConfig lists the origins allowed to call the API from a browser, such
// as an extension collector. An empty list allows any origin.
type CORSConfig struct {
	AllowedOrigins []string
}

// CORS answers preflight requests and sets the allow headers.
func CORS(cfg CORSConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" {
				if allow := cfg.allow(origin); allow != "" {
					w.Header().Set("Access-Control-Allow-Origin", allow)
					w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
					w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
					w.Header().Add("Vary", "Origin")
				}
			}
			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (c CORSConfig) allow(origin string) string {
	if len(c.AllowedOrigins) == 0 {
		return "*"
	}
	for _, o := range c.AllowedOrigins {
		if strings.EqualFold(o, origin) {
			return origin
		}
	}
	return ""
}
