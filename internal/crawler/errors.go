package crawler

import "errors"

var (
	// ErrInvalidState reports an unknown state code.
	ErrInvalidState = errors.New("invalid state")
	// ErrInvalidURL reports a URL that cannot be written as a single log line.
	ErrInvalidURL = errors.New("invalid url")
	// ErrMalformedRecord reports a complete log line that cannot be parsed.
	ErrMalformedRecord = errors.New("malformed record")
	// ErrTerminal reports an attempt to move a URL out of a terminal state.
	ErrTerminal = errors.New("url already in terminal state")
)
