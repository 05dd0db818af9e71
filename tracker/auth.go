package tracker

import (
	"net/http"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// bearerAuth rejects requests whose bearer token does not match hash.
// Tokens that matched once are remembered so bcrypt runs once per token.
func bearerAuth(hash string) func(http.Handler) http.Handler {
	var accepted sync.Map
	return func(next http.Handler) http.Handler {
		if hash == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				writeError(w, http.StatusUnauthorized, errUnauthorized)
				return
			}
			if _, hit := accepted.Load(token); !hit {
				if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(token)); err != nil {
					writeError(w, http.StatusUnauthorized, errUnauthorized)
					return
				}
				accepted.Store(token, struct{}{})
			}
			next.ServeHTTP(w, r)
		})
	}
}

// HashToken returns the bcrypt hash to put in api.token_hash.
func HashToken(token string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}
