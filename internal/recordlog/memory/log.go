// Package memory provides an in-process record log for dry runs and tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/JakeFAU/gridcrawl/internal/crawler"
)

// Log keeps records in memory with the same contract as the file log.
type Log struct {
	mu        sync.Mutex
	records   []crawler.Record
	appendErr error
	failAfter int
}

// NewLog returns a log pre-populated with history.
func NewLog(history ...crawler.Record) *Log {
	return &Log{records: append([]crawler.Record(nil), history...)}
}

// FailAppends lets the next n appends succeed and fails every later one with
// err. A nil err clears the injected failure.
func (l *Log) FailAppends(n int, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.appendErr = err
	l.failAfter = n
}

// Append validates and stores rec.
func (l *Log) Append(ctx context.Context, rec crawler.Record) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("append canceled: %w", err)
	}
	if err := rec.Validate(); err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.appendErr != nil {
		if l.failAfter <= 0 {
			return l.appendErr
		}
		l.failAfter--
	}
	l.records = append(l.records, rec)
	return nil
}

// LoadAll returns a copy of every stored record.
func (l *Log) LoadAll(ctx context.Context) ([]crawler.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("load canceled: %w", err)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]crawler.Record(nil), l.records...), nil
}

// Records returns a copy of the stored records without a context.
func (l *Log) Records() []crawler.Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]crawler.Record(nil), l.records...)
}
