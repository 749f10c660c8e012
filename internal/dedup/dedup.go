// Package dedup implements the duplicate URL detector.
package dedup

import (
	"sync"

	"github.com/jsonharvest/crawler/internal/crawler"
)

// Set tracks normalized URLs already admitted to the frontier. A disabled
// Set claims everything and tracks nothing; the resulting unbounded frontier
// growth on cyclic inputs is an accepted tradeoff, not an error.
type Set struct {
	mu      sync.Mutex
	seen    map[string]struct{}
	enabled bool
}

// New constructs a Set. When enabled is false every TryClaim returns true.
func New(enabled bool) *Set {
	s := &Set{enabled: enabled}
	if enabled {
		s.seen = make(map[string]struct{})
	}
	return s
}

// TryClaim atomically checks membership and inserts if absent, returning
// whether the URL was newly claimed. URLs are keyed by their normalized
// form; a URL that fails to parse is keyed by its raw string so it is still
// claimed at most once.
func (s *Set) TryClaim(rawURL string) bool {
	if !s.enabled {
		return true
	}
	key, err := crawler.NormalizeURL(rawURL)
	if err != nil {
		key = rawURL
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.seen[key]; dup {
		return false
	}
	s.seen[key] = struct{}{}
	return true
}

// Size returns the number of tracked URLs (0 when disabled).
func (s *Set) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen)
}
