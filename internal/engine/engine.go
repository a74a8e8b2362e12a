// Package engine drives the single-pass grid crawl: it walks the frontier,
// fetches each Queued URL once, queues newly discovered neighbors, and
// records a terminal state for every classified page.
package engine

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/gridcrawl/internal/crawler"
	"github.com/JakeFAU/gridcrawl/internal/metrics"
)

// Classifier decides the terminal state of a fetched page. ok is false when
// the response says nothing about the URL.
type Classifier interface {
	Classify(resp crawler.FetchResponse) (state crawler.State, ok bool)
}

// Extractor lists the neighbor links of a page body.
type Extractor interface {
	Links(body []byte) []crawler.Link
}

// Summary reports what one Run did.
type Summary struct {
	Fetched       int
	Pages         int
	Absent        int
	Errors        int
	Indeterminate int
	Discovered    int
	Skipped       int
	FrontierLen   int
	Duration      time.Duration
}

// Engine runs crawl sessions. It holds no crawl state of its own.
type Engine struct {
	fetcher    crawler.Fetcher
	classifier Classifier
	extractor  Extractor
	logger     *zap.Logger
}

// New constructs an Engine.
func New(fetcher crawler.Fetcher, classifier Classifier, extractor Extractor, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		fetcher:    fetcher,
		classifier: classifier,
		extractor:  extractor,
		logger:     logger,
	}
}

// Run visits the session's frontier from its cursor until the cursor reaches
// the end, including entries discovered along the way. Cancellation is
// checked between URLs. A transport failure or a failed append ends the run
// with an error and leaves the current URL Queued.
func (e *Engine) Run(ctx context.Context, s *Session) (Summary, error) {
	start := time.Now()
	var sum Summary
	finish := func() Summary {
		sum.FrontierLen = s.frontier.Len()
		sum.Duration = time.Since(start)
		metrics.SetFrontier(s.cursor, s.frontier.Len())
		return sum
	}

	e.logger.Info("crawl started",
		zap.Int("position", s.cursor),
		zap.Int("frontier", s.frontier.Len()),
	)
	for ; s.cursor < s.frontier.Len(); s.cursor++ {
		if err := ctx.Err(); err != nil {
			return finish(), fmt.Errorf("crawl interrupted: %w", err)
		}
		url, _ := s.frontier.At(s.cursor)
		metrics.SetFrontier(s.cursor, s.frontier.Len())

		if state, ok := s.index.Get(url); ok && state.Terminal() {
			e.logger.Debug("skipping terminal url", zap.String("url", url), zap.Stringer("state", state))
			sum.Skipped++
			continue
		}
		if err := e.visit(ctx, s, url, &sum); err != nil {
			return finish(), err
		}
	}
	return finish(), nil
}

func (e *Engine) visit(ctx context.Context, s *Session, url string, sum *Summary) error {
	resp, err := e.fetcher.Fetch(ctx, crawler.FetchRequest{URL: url})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("crawl interrupted at %s: %w", url, ctxErr)
		}
		metrics.ObserveTransportFailure()
		return &FetchError{URL: url, Err: err}
	}
	sum.Fetched++
	metrics.ObserveFetch(resp.StatusCode, len(resp.Body), resp.Duration)

	state, ok := e.classifier.Classify(resp)
	if !ok {
		sum.Indeterminate++
		metrics.ObserveIndeterminate(resp.StatusCode)
		e.logger.Warn("unexpected response status, url stays queued",
			zap.String("url", url),
			zap.Int("status", resp.StatusCode),
			zap.String("status_text", resp.StatusText()),
		)
		return nil
	}

	// A fetched page is recorded in full even if the run is canceled meanwhile.
	appendCtx := context.WithoutCancel(ctx)
	if resp.OK() {
		if err := e.discover(appendCtx, s, url, resp.Body, sum); err != nil {
			return err
		}
	}
	if err := s.assign(appendCtx, url, state); err != nil {
		return err
	}
	switch state {
	case crawler.StatePage:
		sum.Pages++
	case crawler.StateAbsent:
		sum.Absent++
	case crawler.StateError:
		sum.Errors++
	}
	e.logger.Debug("visited",
		zap.String("url", url),
		zap.Stringer("state", state),
		zap.Int("status", resp.StatusCode),
		zap.Int("position", s.cursor),
		zap.Int("frontier", s.frontier.Len()),
	)
	return nil
}

func (e *Engine) discover(ctx context.Context, s *Session, from string, body []byte, sum *Summary) error {
	for _, link := range e.extractor.Links(body) {
		if s.index.Contains(link.URL) {
			continue
		}
		if err := s.queue(ctx, link.URL); err != nil {
			return err
		}
		sum.Discovered++
		metrics.ObserveDiscovery()
		e.logger.Debug("queued neighbor",
			zap.String("url", link.URL),
			zap.String("label", link.Label),
			zap.String("from", from),
		)
	}
	return nil
}
