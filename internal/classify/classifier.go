// Package classify maps a fetched grid page to its record-log state.
package classify

import (
	"bytes"

	"github.com/JakeFAU/gridcrawl/internal/crawler"
)

// Default marker phrases the archived Domesday site renders for cells that
// hold no page.
var DefaultMarkers = []string{
	"<h1>Empty D-block</h1>",
	"<h1>Invalid D-block</h1>",
}

// Classifier applies the not-found, marker, and success rules in order.
type Classifier struct {
	markers [][]byte
}

// New creates a Classifier. Empty markers are ignored.
func New(markers []string) *Classifier {
	c := &Classifier{}
	for _, m := range markers {
		if m == "" {
			continue
		}
		c.markers = append(c.markers, []byte(m))
	}
	return c
}

// Classify returns the state for resp. The boolean is false when the status
// is neither 404 nor 2xx; the URL must then stay Queued.
func (c *Classifier) Classify(resp crawler.FetchResponse) (crawler.State, bool) {
	switch {
	case resp.NotFound():
		return crawler.StateError, true
	case !resp.OK():
		return 0, false
	case c.hasMarker(resp.Body):
		return crawler.StateAbsent, true
	default:
		return crawler.StatePage, true
	}
}

func (c *Classifier) hasMarker(body []byte) bool {
	for _, m := range c.markers {
		if bytes.Contains(body, m) {
			return true
		}
	}
	return false
}
