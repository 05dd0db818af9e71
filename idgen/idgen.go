// Package idgen provides the identifier strategies used across jobtrack.
//
// String identifiers (message envelopes) come from a Generator, UUIDv7 by
// default. Application records use numeric, creation-time based IDs from a
// Sequence, which stays strictly increasing even when two records are created
// within the same millisecond.
package idgen

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Generator produces unique string identifiers.
type Generator func() string

// UUIDv7 returns a Generator that produces RFC 9562 UUID v7 strings.
func UUIDv7() Generator {
	return func() string {
		return uuid.Must(uuid.NewV7()).String()
	}
}

// Prefixed wraps a Generator and prepends a fixed prefix to every ID.
func Prefixed(prefix string, gen Generator) Generator {
	return func() string {
		return prefix + gen()
	}
}

// Default is UUIDv7.
var Default Generator = UUIDv7()

// New produces an ID using the Default generator.
func New() string {
	return Default()
}

// Parse validates a UUID string and returns it or an error.
func Parse(s string) (string, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return "", fmt.Errorf("invalid UUID: %w", err)
	}
	return u.String(), nil
}

// Sequence hands out int64 IDs equal to the creation time in unix
// milliseconds, bumped by one whenever that would not exceed the last ID
// handed out or observed.
type Sequence struct {
	mu   sync.Mutex
	last int64
}

// Next returns an ID derived from now, strictly greater than every previous
// result and every observed ID.
func (s *Sequence) Next(now time.Time) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := now.UnixMilli()
	if id <= s.last {
		id = s.last + 1
	}
	s.last = id
	return id
}

// Observe raises the floor so that later IDs are greater than id.
func (s *Sequence) Observe(id int64) {
	s.mu.Lock()
	if id > s.last {
		s.last = id
	}
	s.mu.Unlock()
}
