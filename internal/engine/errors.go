package engine

import "fmt"

// FetchError is a transport failure: the fetch for URL produced no HTTP
// response. It ends the run; nothing is recorded for URL.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
