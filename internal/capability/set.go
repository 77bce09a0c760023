package capability

import (
	"sort"
	"strings"
	"sync"
)

// Observer receives delta notifications from a Set.
//
// Notifications list exactly the tags that changed: an Add of an
// already-present tag produces no notification at all.
type Observer interface {
	// CapabilitiesAdded is called with the tags newly inserted by an
	// Add or AddAll call. Never called with an empty slice.
	CapabilitiesAdded(tags []string)

	// CapabilitiesRemoved is called with the tags actually removed by a
	// Remove or RemoveAll call. Never called with an empty slice.
	CapabilitiesRemoved(tags []string)
}

// NoopObserver implements Observer with empty methods. Embed it to
// override only the notifications you care about.
type NoopObserver struct{}

func (NoopObserver) CapabilitiesAdded([]string)   {}
func (NoopObserver) CapabilitiesRemoved([]string) {}

// Set is the mutable capability registry for one channel.
//
// Tags are case-sensitive, unordered and de-duplicated. Blank tags are
// ignored on insertion. All methods are safe for concurrent use.
type Set struct {
	mu       sync.RWMutex
	tags     map[string]struct{}
	observer Observer
}

// NewSet creates a Set pre-populated with the given tags.
// No notification is emitted for the initial tags.
func NewSet(tags ...string) *Set {
	s := &Set{
		tags:     make(map[string]struct{}, len(tags)),
		observer: NoopObserver{},
	}
	for _, tag := range tags {
		if strings.TrimSpace(tag) == "" {
			continue
		}
		s.tags[tag] = struct{}{}
	}
	return s
}

// SetObserver registers the delta observer. Passing nil restores the
// no-op default.
func (s *Set) SetObserver(o Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o == nil {
		o = NoopObserver{}
	}
	s.observer = o
}

// Add inserts a single tag. Blank or already-present tags are ignored.
func (s *Set) Add(tag string) {
	s.AddAll([]string{tag})
}

// AddAll inserts every genuinely new, non-blank tag and emits one
// notification listing exactly those tags.
func (s *Set) AddAll(tags []string) {
	s.mu.Lock()
	var added []string
	for _, tag := range tags {
		if strings.TrimSpace(tag) == "" {
			continue
		}
		if _, exists := s.tags[tag]; exists {
			continue
		}
		s.tags[tag] = struct{}{}
		added = append(added, tag)
	}
	observer := s.observer
	s.mu.Unlock()

	if len(added) > 0 {
		sort.Strings(added)
		observer.CapabilitiesAdded(added)
	}
}

// Remove drops a single tag. Absent tags are ignored.
func (s *Set) Remove(tag string) {
	s.RemoveAll([]string{tag})
}

// RemoveAll drops every listed tag that is present and emits one
// notification listing exactly the tags removed.
func (s *Set) RemoveAll(tags []string) {
	s.mu.Lock()
	var removed []string
	for _, tag := range tags {
		if _, exists := s.tags[tag]; !exists {
			continue
		}
		delete(s.tags, tag)
		removed = append(removed, tag)
	}
	observer := s.observer
	s.mu.Unlock()

	if len(removed) > 0 {
		sort.Strings(removed)
		observer.CapabilitiesRemoved(removed)
	}
}

// All returns the registered tags in sorted order.
func (s *Set) All() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tags := make([]string, 0, len(s.tags))
	for tag := range s.tags {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// Len returns the number of registered tags.
func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tags)
}

// Has reports whether the set satisfies the query.
//
// A query containing the ".Any" wildcard marker matches if any registered
// tag contains the text before the marker. The match is "contains", not
// prefix-anchored, so "Launcher.App.Any" matches both "Launcher.App" and
// "Launcher.App.Params". Without the marker the match is exact.
func (s *Set) Has(query string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hasLocked(query)
}

// HasAll reports whether every query is satisfied.
// Short-circuits on the first failure.
func (s *Set) HasAll(queries []string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, q := range queries {
		if !s.hasLocked(q) {
			return false
		}
	}
	return true
}

// HasAny reports whether at least one query is satisfied.
// Short-circuits on the first success.
func (s *Set) HasAny(queries []string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, q := range queries {
		if s.hasLocked(q) {
			return true
		}
	}
	return false
}

func (s *Set) hasLocked(query string) bool {
	if i := strings.Index(query, Any); i >= 0 {
		prefix := query[:i]
		for tag := range s.tags {
			if strings.Contains(tag, prefix) {
				return true
			}
		}
		return false
	}

	_, ok := s.tags[query]
	return ok
}
