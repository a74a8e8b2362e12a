package crawler

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Record is one state assignment in the record log.
type Record struct {
	State State
	URL   string
}

// Validate checks that the record can be written as a single log line.
func (r Record) Validate() error {
	if !r.State.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidState, byte(r.State))
	}
	if r.URL == "" || strings.ContainsAny(r.URL, "\r\n") {
		return fmt.Errorf("%w: %q", ErrInvalidURL, r.URL)
	}
	return nil
}

// Line renders the record in log format, including the trailing newline.
func (r Record) Line() (string, error) {
	if err := r.Validate(); err != nil {
		return "", err
	}
	return r.State.Code() + " " + r.URL + "\n", nil
}

// String renders the record without a trailing newline.
func (r Record) String() string {
	return r.State.Code() + " " + r.URL
}

// ParseRecord parses a single log line without its newline. The URL is
// everything after the first space.
func ParseRecord(line string) (Record, error) {
	code, url, ok := strings.Cut(line, " ")
	if !ok || url == "" {
		return Record{}, fmt.Errorf("%w: missing url in %q", ErrMalformedRecord, line)
	}
	state, err := ParseState(code)
	if err != nil {
		return Record{}, fmt.Errorf("%w: %w", ErrMalformedRecord, err)
	}
	return Record{State: state, URL: url}, nil
}

// Decoder reads records from a log stream. Blank lines are skipped. A final
// line without a newline was never acknowledged by an append and is
// reported through Torn instead of being decoded.
type Decoder struct {
	r    *bufio.Reader
	line int
	torn int
}

// NewDecoder returns a Decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: bufio.NewReader(r)}
}

// Next returns the next record, or io.EOF once the stream is exhausted.
func (d *Decoder) Next() (Record, error) {
	for {
		raw, err := d.r.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return Record{}, fmt.Errorf("read record log: %w", err)
		}
		if errors.Is(err, io.EOF) {
			// Unterminated tail: never acknowledged.
			d.torn = len(raw)
			return Record{}, io.EOF
		}
		d.line++
		text := strings.TrimSuffix(strings.TrimSuffix(raw, "\n"), "\r")
		if strings.TrimSpace(text) == "" {
			continue
		}
		rec, perr := ParseRecord(text)
		if perr != nil {
			return Record{}, fmt.Errorf("line %d: %w", d.line, perr)
		}
		return rec, nil
	}
}

// Torn returns the length of the unterminated tail seen at EOF.
func (d *Decoder) Torn() int {
	return d.torn
}

// ReadRecords decodes every complete record from r.
func ReadRecords(r io.Reader) ([]Record, error) {
	dec := NewDecoder(r)
	var records []Record
	for {
		rec, err := dec.Next()
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
}
