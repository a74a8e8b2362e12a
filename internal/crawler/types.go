package crawler

import (
	"fmt"
	"net/http"
	"time"
)

// State is the crawl state of a single grid-cell URL. Its value is the
// single-character code written to the record log.
type State byte

// Record log state codes.
const (
	StateQueued State = 'Q'
	StatePage   State = 'P'
	StateAbsent State = 'A'
	StateError  State = 'E'
)

// States lists every valid state in log-code order.
var States = []State{StateQueued, StatePage, StateAbsent, StateError}

// ParseState converts a one-character log code into a State.
func ParseState(code string) (State, error) {
	if len(code) != 1 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidState, code)
	}
	s := State(code[0])
	if !s.Valid() {
		return 0, fmt.Errorf("%w: %q", ErrInvalidState, code)
	}
	return s, nil
}

// Valid reports whether s is one of the four known states.
func (s State) Valid() bool {
	switch s {
	case StateQueued, StatePage, StateAbsent, StateError:
		return true
	default:
		return false
	}
}

// Terminal reports whether s is a state no URL ever leaves.
func (s State) Terminal() bool {
	return s == StatePage || s == StateAbsent || s == StateError
}

// Code returns the log code for s.
func (s State) Code() string {
	return string([]byte{byte(s)})
}

// String returns a lower-case name for logs and metric labels.
func (s State) String() string {
	switch s {
	case StateQueued:
		return "queued"
	case StatePage:
		return "page"
	case StateAbsent:
		return "absent"
	case StateError:
		return "error"
	default:
		return fmt.Sprintf("State(%d)", byte(s))
	}
}

// FetchRequest captures everything needed to fetch a URL.
type FetchRequest struct {
	URL     string
	Headers http.Header
}

// FetchResponse is a structured HTTP response returned by a Fetcher. Any
// status code is a valid response; only transport failures are errors.
type FetchResponse struct {
	URL        string
	StatusCode int
	Status     string
	Body       []byte
	Duration   time.Duration
}

// OK reports whether the response carries a 2xx status.
func (r FetchResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// NotFound reports whether the response is a 404.
func (r FetchResponse) NotFound() bool {
	return r.StatusCode == http.StatusNotFound
}

// StatusText returns the response status text, falling back to the
// canonical text for the code.
func (r FetchResponse) StatusText() string {
	if r.Status != "" {
		return r.Status
	}
	return http.StatusText(r.StatusCode)
}

// Link is a neighbor anchor found in a grid page.
type Link struct {
	URL   string
	Label string
}
