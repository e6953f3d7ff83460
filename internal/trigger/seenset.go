// Package trigger implements the three trigger loop flavors (C5): timer,
// polling and webhook. The polling flavor's seed/poll algorithm and its
// SeenSet atomicity invariant are grounded directly on the original
// PR-watcher polling loop this spec's polling trigger generalizes.
package trigger

import "sync"

// SeenSet is a per-scope set of already-dispatched external item
// identifiers. The critical section of DiffAndInsert must cover both the
// set-difference computation and the insertion of the new items, so that
// an item is never dispatched before its id is recorded as seen.
type SeenSet struct {
	mu    sync.Mutex
	byKey map[string]map[string]bool
}

// NewSeenSet returns an empty SeenSet.
func NewSeenSet() *SeenSet {
	return &SeenSet{byKey: make(map[string]map[string]bool)}
}

// Seed inserts the full current item set for scope, establishing it as
// seeded without producing any "new" items (used by the seed phase).
func (s *SeenSet) Seed(scope string, ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	s.byKey[scope] = set
}

// DiffAndInsert computes, under one lock, which of current are new for
// scope (i.e. not already in the SeenSet), inserts them into the SeenSet,
// and returns them in the order they appear in current. This ordering
// and atomicity is the exact invariant the spec requires: insertion
// precedes dispatch, and both happen under one critical section.
func (s *SeenSet) DiffAndInsert(scope string, current []string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.byKey[scope]
	if !ok {
		set = make(map[string]bool)
		s.byKey[scope] = set
	}

	var fresh []string
	for _, id := range current {
		if !set[id] {
			set[id] = true
			fresh = append(fresh, id)
		}
	}
	return fresh
}

// Seeded reports whether scope has completed the seed phase.
func (s *SeenSet) Seeded(scope string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.byKey[scope]
	return ok
}
