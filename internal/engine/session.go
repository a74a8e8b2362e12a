package engine

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/JakeFAU/gridcrawl/internal/crawler"
	"github.com/JakeFAU/gridcrawl/internal/frontier"
	"github.com/JakeFAU/gridcrawl/internal/index"
	"github.com/JakeFAU/gridcrawl/internal/metrics"
)

// Session is the state of one crawl: the record log, the index replayed from
// it, the frontier of Queued URLs, and the cursor into that frontier. It is
// owned by a single goroutine.
type Session struct {
	log      crawler.RecordLog
	index    *index.Index
	frontier *frontier.Frontier
	cursor   int
}

// Open replays log and seeds the frontier with every URL still Queued, in the
// order each was first queued.
func Open(ctx context.Context, log crawler.RecordLog) (*Session, error) {
	if log == nil {
		return nil, fmt.Errorf("record log is required")
	}
	records, err := log.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load record log: %w", err)
	}
	idx := index.Replay(records)
	return &Session{
		log:      log,
		index:    idx,
		frontier: frontier.New(idx.Queued()),
	}, nil
}

// Index returns the session's State Index.
func (s *Session) Index() *index.Index {
	return s.index
}

// Frontier returns the session's frontier.
func (s *Session) Frontier() *frontier.Frontier {
	return s.frontier
}

// Cursor returns the frontier position of the next URL to visit.
func (s *Session) Cursor() int {
	return s.cursor
}

// Pending returns the number of frontier entries not yet visited.
func (s *Session) Pending() int {
	return s.frontier.Len() - s.cursor
}

// Seed queues each url that the log has never seen, in order, and returns
// the number added. Known URLs and repeats are skipped.
func (s *Session) Seed(ctx context.Context, urls []string, logger *zap.Logger) (int, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	added := 0
	for _, url := range urls {
		if s.index.Contains(url) {
			state, _ := s.index.Get(url)
			logger.Info("seed already known", zap.String("url", url), zap.Stringer("state", state))
			continue
		}
		if err := s.queue(ctx, url); err != nil {
			return added, err
		}
		added++
	}
	return added, nil
}

// queue durably records url as Queued before it becomes visible in memory.
func (s *Session) queue(ctx context.Context, url string) error {
	if err := s.assign(ctx, url, crawler.StateQueued); err != nil {
		return err
	}
	s.frontier.Push(url)
	return nil
}

// assign appends the record, then updates the index. A failed append leaves
// the index untouched.
func (s *Session) assign(ctx context.Context, url string, state crawler.State) error {
	if current, ok := s.index.Get(url); ok && current.Terminal() {
		return fmt.Errorf("assign %s to %s: %w", state, url, crawler.ErrTerminal)
	}
	if err := s.log.Append(ctx, crawler.Record{State: state, URL: url}); err != nil {
		return fmt.Errorf("append %s record for %s: %w", state.Code(), url, err)
	}
	s.index.Set(url, state)
	metrics.ObserveRecord(state.String())
	return nil
}
