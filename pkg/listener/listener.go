// Package listener implements the pattern-keyed subscription table that
// notify_listeners walks on every dispatched event.
package listener

import (
	"regexp"
	"sync"

	"github.com/google/uuid"

	"github.com/kyco-project/kyco/pkg/event"
)

// Func is a listener callable. It runs synchronously on the dispatcher
// goroutine that owns the buffer the matched event arrived on; listeners
// that need to do blocking or long work should enqueue a follow-up event
// onto a buffer instead of running it inline.
type Func func(event.Event)

// Handle identifies one registration returned by Subscribe, used to remove
// that exact registration with Unsubscribe.
type Handle struct {
	id      string
	pattern string
}

// ID returns the generated identifier for this registration.
func (h Handle) ID() string { return h.id }

// Pattern returns the subscription pattern this handle was registered
// under.
func (h Handle) Pattern() string { return h.pattern }

type entry struct {
	handle Handle
	fn     Func
	napp   string
}

// Table is the anchored-regex pattern → ordered listener list used by
// notify_listeners. A pattern with no regex metacharacters is kept in a map
// and matched with a plain prefix comparison; every other pattern is
// compiled once at Subscribe time and scanned in registration order.
type Table struct {
	mu       sync.RWMutex
	literals map[string][]entry
	patterns []compiledPattern
}

type compiledPattern struct {
	pattern string
	re      *regexp.Regexp
	entries []entry
}

// New returns an empty listener table.
func New() *Table {
	return &Table{
		literals: make(map[string][]entry),
	}
}

// isLiteral reports whether pattern contains no regexp metacharacters, in
// which case it matches (anchored at the start) exactly event names that
// begin with pattern itself, and can be dispatched via map lookup on a
// prefix check instead of a compiled regexp.
func isLiteral(pattern string) bool {
	for _, r := range pattern {
		switch r {
		case '.', '*', '+', '?', '(', ')', '[', ']', '{', '}', '|', '^', '$', '\\':
			return false
		}
	}
	return true
}

// Subscribe appends fn to the ordered list for pattern, creating it if
// absent, and returns a handle that can later be passed to Unsubscribe.
// napp is the owning NApp's name, or "" for core-registered listeners.
func (t *Table) Subscribe(pattern string, fn Func, napp string) Handle {
	h := Handle{id: uuid.NewString(), pattern: pattern}
	e := entry{handle: h, fn: fn, napp: napp}

	t.mu.Lock()
	defer t.mu.Unlock()

	if isLiteral(pattern) {
		t.literals[pattern] = append(t.literals[pattern], e)
		return h
	}

	for i := range t.patterns {
		if t.patterns[i].pattern == pattern {
			t.patterns[i].entries = append(t.patterns[i].entries, e)
			return h
		}
	}

	re := regexp.MustCompile("^(?:" + pattern + ")")
	t.patterns = append(t.patterns, compiledPattern{pattern: pattern, re: re, entries: []entry{e}})
	return h
}

// Unsubscribe removes the specific registration identified by h. Emptying
// a pattern's list removes the pattern key entirely.
func (t *Table) Unsubscribe(h Handle) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if isLiteral(h.pattern) {
		entries := t.literals[h.pattern]
		for i, e := range entries {
			if e.handle.id == h.id {
				entries = append(entries[:i], entries[i+1:]...)
				break
			}
		}
		if len(entries) == 0 {
			delete(t.literals, h.pattern)
		} else {
			t.literals[h.pattern] = entries
		}
		return
	}

	for i := range t.patterns {
		if t.patterns[i].pattern != h.pattern {
			continue
		}
		entries := t.patterns[i].entries
		for j, e := range entries {
			if e.handle.id == h.id {
				entries = append(entries[:j], entries[j+1:]...)
				break
			}
		}
		if len(entries) == 0 {
			t.patterns = append(t.patterns[:i], t.patterns[i+1:]...)
		} else {
			t.patterns[i].entries = entries
		}
		return
	}
}

// UnsubscribeNApp removes every listener registered by the named NApp,
// across every pattern. Used by the NApp manager on unload.
func (t *Table) UnsubscribeNApp(napp string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for pattern, entries := range t.literals {
		filtered := entries[:0:0]
		for _, e := range entries {
			if e.napp != napp {
				filtered = append(filtered, e)
			}
		}
		if len(filtered) == 0 {
			delete(t.literals, pattern)
		} else {
			t.literals[pattern] = filtered
		}
	}

	kept := t.patterns[:0:0]
	for _, cp := range t.patterns {
		filtered := cp.entries[:0:0]
		for _, e := range cp.entries {
			if e.napp != napp {
				filtered = append(filtered, e)
			}
		}
		if len(filtered) > 0 {
			cp.entries = filtered
			kept = append(kept, cp)
		}
	}
	t.patterns = kept
}

// Match returns every listener whose pattern matches name from the start
// of the string. Listeners under the same pattern come back in
// registration order; matches from literal patterns come before matches
// from regex patterns, and the order across distinct literal patterns is
// not defined.
func (t *Table) Match(name string) []Func {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var matched []Func

	for pattern, entries := range t.literals {
		if len(name) >= len(pattern) && name[:len(pattern)] == pattern {
			for _, e := range entries {
				matched = append(matched, e.fn)
			}
		}
	}

	for _, cp := range t.patterns {
		if cp.re.MatchString(name) {
			for _, e := range cp.entries {
				matched = append(matched, e.fn)
			}
		}
	}

	return matched
}

// Patterns returns every distinct pattern currently registered, for
// introspection and tests (e.g. reload idempotence checks).
func (t *Table) Patterns() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	patterns := make([]string, 0, len(t.literals)+len(t.patterns))
	for p := range t.literals {
		patterns = append(patterns, p)
	}
	for _, cp := range t.patterns {
		patterns = append(patterns, cp.pattern)
	}
	return patterns
}

// Len returns the number of registrations under pattern.
func (t *Table) Len(pattern string) int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if isLiteral(pattern) {
		return len(t.literals[pattern])
	}
	for _, cp := range t.patterns {
		if cp.pattern == pattern {
			return len(cp.entries)
		}
	}
	return 0
}
