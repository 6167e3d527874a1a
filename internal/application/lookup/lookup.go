// Package lookup implements the debounced, server-backed live search used by
// the checkout for products and for on-account customers.
//
// Staleness is decided by a generation counter instead of timers: every
// keystroke bumps the generation, and a debounce tick or a response is only
// honoured when it carries the latest generation.
package lookup

import (
	"strings"
	"unicode/utf8"
)

// DefaultMinQueryLength is the shortest query that reaches the backend
const DefaultMinQueryLength = 2

// Request is a search that should be issued against the backend
type Request struct {
	Generation uint64
	Query      string
}

// Lookup holds the query, the latest results and the keyboard highlight of
// one live search box. It is not safe for concurrent use; it is owned by the
// single event loop of the checkout.
type Lookup[T any] struct {
	minLength  int
	query      string
	generation uint64
	results    []T
	highlight  int
	loading    bool
	failed     bool
}

// New creates a lookup that ignores queries shorter than minLength runes
func New[T any](minLength int) *Lookup[T] {
	if minLength <= 0 {
		minLength = DefaultMinQueryLength
	}
	return &Lookup[T]{minLength: minLength, highlight: -1}
}

// SetQuery records the new query text. It invalidates any pending debounce
// tick or in-flight response. When the query is long enough it returns the
// request to issue once the debounce window elapses.
func (l *Lookup[T]) SetQuery(query string) (Request, bool) {
	l.query = query
	l.generation++
	l.highlight = -1
	l.failed = false

	if !l.searchable() {
		l.results = nil
		l.loading = false
		return Request{}, false
	}

	l.loading = true
	return Request{Generation: l.generation, Query: strings.TrimSpace(query)}, true
}

// DebounceElapsed confirms a request after its debounce window. It returns
// false if the query changed in the meantime.
func (l *Lookup[T]) DebounceElapsed(generation uint64) (Request, bool) {
	if generation != l.generation || !l.searchable() {
		return Request{}, false
	}
	return Request{Generation: generation, Query: strings.TrimSpace(l.query)}, true
}

// Resolve applies the response of a request. Responses from superseded
// generations are discarded and Resolve returns false. A failed search
// degrades to an empty result set.
func (l *Lookup[T]) Resolve(generation uint64, results []T, err error) bool {
	if generation != l.generation {
		return false
	}

	l.loading = false
	if err != nil {
		l.results = nil
		l.failed = true
		l.highlight = -1
		return true
	}

	l.results = results
	l.failed = false
	if len(results) > 0 {
		l.highlight = 0
	} else {
		l.highlight = -1
	}
	return true
}

// Next moves the highlight down, stopping at the last result
func (l *Lookup[T]) Next() {
	if len(l.results) == 0 {
		return
	}
	l.highlight = min(l.highlight+1, len(l.results)-1)
}

// Prev moves the highlight up, stopping at the first result
func (l *Lookup[T]) Prev() {
	if len(l.results) == 0 {
		return
	}
	l.highlight = max(l.highlight-1, 0)
}

// SetHighlight highlights the result at index (pointer hover)
func (l *Lookup[T]) SetHighlight(index int) {
	if index >= 0 && index < len(l.results) {
		l.highlight = index
	}
}

// Highlighted returns the highlighted result
func (l *Lookup[T]) Highlighted() (T, bool) {
	var zero T
	if l.highlight < 0 || l.highlight >= len(l.results) {
		return zero, false
	}
	return l.results[l.highlight], true
}

// Select yields the result at index and clears the query
func (l *Lookup[T]) Select(index int) (T, bool) {
	var zero T
	if index < 0 || index >= len(l.results) {
		return zero, false
	}
	item := l.results[index]
	l.Clear()
	return item, true
}

// SelectHighlighted yields the highlighted result and clears the query
func (l *Lookup[T]) SelectHighlighted() (T, bool) {
	return l.Select(l.highlight)
}

// Clear empties the query and results and discards anything in flight
func (l *Lookup[T]) Clear() {
	l.query = ""
	l.generation++
	l.results = nil
	l.highlight = -1
	l.loading = false
	l.failed = false
}

// Query returns the current query text
func (l *Lookup[T]) Query() string {
	return l.query
}

// Results returns the results of the latest accepted response
func (l *Lookup[T]) Results() []T {
	return l.results
}

// HighlightIndex returns the highlighted index, or -1
func (l *Lookup[T]) HighlightIndex() int {
	return l.highlight
}

// Loading reports whether a search for the current query is pending
func (l *Lookup[T]) Loading() bool {
	return l.loading
}

// Failed reports whether the last search for the current query failed
func (l *Lookup[T]) Failed() bool {
	return l.failed
}

// NoMatches reports a settled, searchable query that returned nothing
func (l *Lookup[T]) NoMatches() bool {
	return l.searchable() && !l.loading && len(l.results) == 0
}

// IsBlank reports whether the query is empty
func (l *Lookup[T]) IsBlank() bool {
	return strings.TrimSpace(l.query) == ""
}

func (l *Lookup[T]) searchable() bool {
	return utf8.RuneCountInString(strings.TrimSpace(l.query)) >= l.minLength
}
