// Package frontier implements the ordered list of URLs awaiting a fetch.
package frontier

// Frontier is consumed by position rather than by removal, so entries pushed
// while it is being walked stay visible to later positions.
type Frontier struct {
	urls []string
}

// New returns a Frontier seeded with a copy of urls.
func New(urls []string) *Frontier {
	return &Frontier{urls: append([]string(nil), urls...)}
}

// Push appends url to the end.
func (f *Frontier) Push(url string) {
	f.urls = append(f.urls, url)
}

// At returns the URL at position i.
func (f *Frontier) At(i int) (string, bool) {
	if i < 0 || i >= len(f.urls) {
		return "", false
	}
	return f.urls[i], true
}

// Len returns the current length, including entries already consumed.
func (f *Frontier) Len() int {
	return len(f.urls)
}
