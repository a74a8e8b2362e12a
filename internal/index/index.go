// Package index holds the in-memory State Index: the latest known state of
// every URL, rebuilt by replaying the record log.
package index

import (
	"github.com/JakeFAU/gridcrawl/internal/crawler"
)

// Counts tallies URLs by their latest state.
type Counts struct {
	Queued int `json:"queued"`
	Page   int `json:"page"`
	Absent int `json:"absent"`
	Error  int `json:"error"`
}

// Total returns the number of distinct URLs.
func (c Counts) Total() int {
	return c.Queued + c.Page + c.Absent + c.Error
}

// Index maps URL to latest state. Set only changes memory; callers append to
// the record log first.
type Index struct {
	states map[string]crawler.State
	// discovered lists URLs in the order of their first Queued assignment.
	discovered []string
	seen       map[string]struct{}
}

// New returns an empty Index.
func New() *Index {
	return &Index{
		states: make(map[string]crawler.State),
		seen:   make(map[string]struct{}),
	}
}

// Replay folds records left to right; the last record for a URL wins.
func Replay(records []crawler.Record) *Index {
	x := New()
	for _, rec := range records {
		x.Set(rec.URL, rec.State)
	}
	return x
}

// Get returns the latest state for url.
func (x *Index) Get(url string) (crawler.State, bool) {
	s, ok := x.states[url]
	return s, ok
}

// Contains reports whether url has ever been assigned a state.
func (x *Index) Contains(url string) bool {
	_, ok := x.states[url]
	return ok
}

// Set records state for url in memory.
func (x *Index) Set(url string, state crawler.State) {
	x.states[url] = state
	if state != crawler.StateQueued {
		return
	}
	if _, ok := x.seen[url]; !ok {
		x.seen[url] = struct{}{}
		x.discovered = append(x.discovered, url)
	}
}

// Len returns the number of distinct URLs.
func (x *Index) Len() int {
	return len(x.states)
}

// Queued returns every URL whose latest state is Queued, ordered by the
// first Queued record for that URL.
func (x *Index) Queued() []string {
	var out []string
	for _, url := range x.discovered {
		if x.states[url] == crawler.StateQueued {
			out = append(out, url)
		}
	}
	return out
}

// Counts tallies URLs by state.
func (x *Index) Counts() Counts {
	var c Counts
	for _, s := range x.states {
		switch s {
		case crawler.StateQueued:
			c.Queued++
		case crawler.StatePage:
			c.Page++
		case crawler.StateAbsent:
			c.Absent++
		case crawler.StateError:
			c.Error++
		}
	}
	return c
}

// Snapshot returns a copy of the URL to state mapping.
func (x *Index) Snapshot() map[string]crawler.State {
	out := make(map[string]crawler.State, len(x.states))
	for url, s := range x.states {
		out[url] = s
	}
	return out
}
