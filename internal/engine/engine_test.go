package engine

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/gridcrawl/internal/classify"
	"github.com/JakeFAU/gridcrawl/internal/crawler"
	"github.com/JakeFAU/gridcrawl/internal/extract"
	"github.com/JakeFAU/gridcrawl/internal/recordlog/memory"
)

const gridPattern = `https://x/grid-\d+-\d+`

type fakeFetcher struct {
	mu        sync.Mutex
	responses map[string]crawler.FetchResponse
	errs      map[string]error
	calls     []string
	onFetch   func(url string)
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		responses: make(map[string]crawler.FetchResponse),
		errs:      make(map[string]error),
	}
}

func (f *fakeFetcher) respond(url string, code int, body string) {
	f.responses[url] = crawler.FetchResponse{URL: url, StatusCode: code, Body: []byte(body)}
}

func (f *fakeFetcher) Fetch(_ context.Context, req crawler.FetchRequest) (crawler.FetchResponse, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req.URL)
	hook := f.onFetch
	f.mu.Unlock()
	if hook != nil {
		hook(req.URL)
	}
	if err, ok := f.errs[req.URL]; ok {
		return crawler.FetchResponse{}, err
	}
	if resp, ok := f.responses[req.URL]; ok {
		return resp, nil
	}
	return crawler.FetchResponse{URL: req.URL, StatusCode: http.StatusNotFound}, nil
}

func (f *fakeFetcher) fetched() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func page(anchors ...string) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	for i := 0; i+1 < len(anchors); i += 2 {
		fmt.Fprintf(&b, `<a href="%s">%s</a>`, anchors[i], anchors[i+1])
	}
	b.WriteString("</body></html>")
	return b.String()
}

func qRec(url string) crawler.Record { return crawler.Record{State: crawler.StateQueued, URL: url} }
func pRec(url string) crawler.Record { return crawler.Record{State: crawler.StatePage, URL: url} }
func aRec(url string) crawler.Record { return crawler.Record{State: crawler.StateAbsent, URL: url} }
func eRec(url string) crawler.Record { return crawler.Record{State: crawler.StateError, URL: url} }

func newTestEngine(t *testing.T, fetcher crawler.Fetcher) *Engine {
	t.Helper()
	ex, err := extract.New(gridPattern, extract.DefaultLabels)
	require.NoError(t, err)
	return New(fetcher, classify.New(classify.DefaultMarkers), ex, zap.NewNop())
}

func runOnce(t *testing.T, log *memory.Log, fetcher crawler.Fetcher) (*Session, Summary, error) {
	t.Helper()
	s, err := Open(context.Background(), log)
	require.NoError(t, err)
	sum, err := newTestEngine(t, fetcher).Run(context.Background(), s)
	return s, sum, err
}

// appended returns the records written after the first n history records.
func appended(log *memory.Log, n int) []crawler.Record {
	return log.Records()[n:]
}

func TestRun_EmptyLog(t *testing.T) {
	t.Parallel()

	log := memory.NewLog()
	fetcher := newFakeFetcher()
	_, sum, err := runOnce(t, log, fetcher)
	require.NoError(t, err)
	assert.Empty(t, fetcher.fetched())
	assert.Empty(t, log.Records())
	assert.Equal(t, Summary{Duration: sum.Duration}, sum)
}

func TestRun_SimpleDiscovery(t *testing.T) {
	t.Parallel()

	log := memory.NewLog(qRec("https://x/grid-0-0"))
	fetcher := newFakeFetcher()
	fetcher.respond("https://x/grid-0-0", http.StatusOK, page(
		"https://x/grid-10000-0", "North",
		"https://x/elsewhere", "Up",
	))

	s, sum, err := runOnce(t, log, fetcher)
	require.NoError(t, err)
	assert.Equal(t, []crawler.Record{
		qRec("https://x/grid-10000-0"),
		pRec("https://x/grid-0-0"),
		eRec("https://x/grid-10000-0"),
	}, appended(log, 1))
	assert.Equal(t, []string{"https://x/grid-0-0", "https://x/grid-10000-0"}, fetcher.fetched())
	assert.Equal(t, 1, sum.Discovered)
	assert.Equal(t, 1, sum.Pages)
	assert.Equal(t, 1, sum.Errors)
	assert.Equal(t, 2, sum.FrontierLen)
	assert.Equal(t, 2, s.Cursor())
	assert.Zero(t, s.Pending())
}

func TestRun_NotFound(t *testing.T) {
	t.Parallel()

	log := memory.NewLog(qRec("https://x/grid-1-1"))
	fetcher := newFakeFetcher()
	fetcher.respond("https://x/grid-1-1", http.StatusNotFound, page("https://x/grid-2-1", "East"))

	s, sum, err := runOnce(t, log, fetcher)
	require.NoError(t, err)
	assert.Equal(t, []crawler.Record{eRec("https://x/grid-1-1")}, appended(log, 1))
	assert.Equal(t, 1, sum.Errors)
	assert.False(t, s.Index().Contains("https://x/grid-2-1"), "404 bodies are not scanned for links")
}

func TestRun_EmptyCellMarker(t *testing.T) {
	t.Parallel()

	log := memory.NewLog(qRec("https://x/grid-2-2"))
	fetcher := newFakeFetcher()
	fetcher.respond("https://x/grid-2-2", http.StatusOK, "<html><h1>Empty D-block</h1></html>")

	_, sum, err := runOnce(t, log, fetcher)
	require.NoError(t, err)
	assert.Equal(t, []crawler.Record{aRec("https://x/grid-2-2")}, appended(log, 1))
	assert.Equal(t, 1, sum.Absent)
}

func TestRun_TransientStatusLeavesQueued(t *testing.T) {
	t.Parallel()

	url := "https://x/grid-3-3"
	log := memory.NewLog(qRec(url))
	fetcher := newFakeFetcher()
	fetcher.respond(url, http.StatusInternalServerError, "")

	s, sum, err := runOnce(t, log, fetcher)
	require.NoError(t, err)
	assert.Empty(t, appended(log, 1))
	assert.Equal(t, 1, sum.Indeterminate)
	state, ok := s.Index().Get(url)
	require.True(t, ok)
	assert.Equal(t, crawler.StateQueued, state)

	// The next run retries it.
	fetcher.respond(url, http.StatusOK, "<html></html>")
	_, sum, err = runOnce(t, log, fetcher)
	require.NoError(t, err)
	assert.Equal(t, []crawler.Record{pRec(url)}, appended(log, 1))
	assert.Equal(t, 1, sum.Pages)
	assert.Equal(t, []string{url, url}, fetcher.fetched())
}

func TestRun_NoDuplicateDiscovery(t *testing.T) {
	t.Parallel()

	log := memory.NewLog(
		qRec("https://x/grid-0-0"),
		qRec("https://x/grid-0-10000"),
		pRec("https://x/grid-0-10000"),
	)
	fetcher := newFakeFetcher()
	fetcher.respond("https://x/grid-0-0", http.StatusOK, page(
		"https://x/grid-10000-0", "East",
		"https://x/grid-10000-0", "East",
		"https://x/grid-0-10000", "North",
		"https://x/grid-0-0", "West",
	))

	_, sum, err := runOnce(t, log, fetcher)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Discovered)

	queued := map[string]int{}
	for _, rec := range log.Records() {
		if rec.State == crawler.StateQueued {
			queued[rec.URL]++
		}
	}
	for url, n := range queued {
		assert.Equal(t, 1, n, "url %s queued more than once", url)
	}
}

func TestRun_TerminalStatesAreFinal(t *testing.T) {
	t.Parallel()

	log := memory.NewLog(
		qRec("https://x/grid-0-0"),
		pRec("https://x/grid-0-0"),
		qRec("https://x/grid-1-0"),
		eRec("https://x/grid-1-0"),
	)
	fetcher := newFakeFetcher()
	_, _, err := runOnce(t, log, fetcher)
	require.NoError(t, err)
	assert.Empty(t, fetcher.fetched())
	assert.Len(t, log.Records(), 4)

	// A terminal URL that reaches the frontier anyway is skipped.
	s, err := Open(context.Background(), log)
	require.NoError(t, err)
	s.frontier.Push("https://x/grid-0-0")
	sum, err := newTestEngine(t, fetcher).Run(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Skipped)
	assert.Empty(t, fetcher.fetched())

	err = s.assign(context.Background(), "https://x/grid-1-0", crawler.StatePage)
	assert.ErrorIs(t, err, crawler.ErrTerminal)
	assert.Len(t, log.Records(), 4)
}

func TestRun_DiscoveryOrder(t *testing.T) {
	t.Parallel()

	log := memory.NewLog(qRec("https://x/grid-5-5"))
	fetcher := newFakeFetcher()
	fetcher.respond("https://x/grid-5-5", http.StatusOK, page(
		"https://x/grid-5-6", "North",
		"https://x/grid-5-4", "South",
		"https://x/grid-6-5", "East",
		"https://x/grid-4-5", "West",
	))

	_, _, err := runOnce(t, log, fetcher)
	require.NoError(t, err)
	want := []string{
		"https://x/grid-5-5",
		"https://x/grid-5-6",
		"https://x/grid-5-4",
		"https://x/grid-6-5",
		"https://x/grid-4-5",
	}
	assert.Equal(t, want, fetcher.fetched())

	var queued []string
	for _, rec := range log.Records() {
		if rec.State == crawler.StateQueued {
			queued = append(queued, rec.URL)
		}
	}
	assert.Equal(t, want, queued)

	// A restart derives the same order from the log.
	s, err := Open(context.Background(), memory.NewLog(log.Records()[:6]...))
	require.NoError(t, err)
	assert.Equal(t, 4, s.Pending())
	first, _ := s.Frontier().At(0)
	assert.Equal(t, "https://x/grid-5-6", first)
}

func TestRun_AppendFailureIsFatal(t *testing.T) {
	t.Parallel()

	errDisk := errors.New("disk full")
	url := "https://x/grid-7-7"
	log := memory.NewLog(qRec(url))
	log.FailAppends(1, errDisk)
	fetcher := newFakeFetcher()
	fetcher.respond(url, http.StatusOK, page("https://x/grid-7-8", "North"))

	s, err := Open(context.Background(), log)
	require.NoError(t, err)
	_, err = newTestEngine(t, fetcher).Run(context.Background(), s)
	require.ErrorIs(t, err, errDisk)

	// The discovery made it to the log; the terminal record did not.
	assert.Equal(t, []crawler.Record{qRec("https://x/grid-7-8")}, appended(log, 1))
	state, _ := s.Index().Get(url)
	assert.Equal(t, crawler.StateQueued, state)
	assert.Equal(t, 0, s.Cursor())
	assert.Equal(t, []string{url}, fetcher.fetched())

	// The rerun refetches the page; its neighbor is already queued and is not
	// appended again.
	log.FailAppends(0, nil)
	s, err = Open(context.Background(), log)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Pending())
	sum, err := newTestEngine(t, fetcher).Run(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, []crawler.Record{
		qRec("https://x/grid-7-8"),
		pRec(url),
		eRec("https://x/grid-7-8"),
	}, appended(log, 1))
	assert.Equal(t, []string{url, url, "https://x/grid-7-8"}, fetcher.fetched())
	assert.Equal(t, 0, sum.Discovered)
}

func TestRun_AppendFailureOnDiscovery(t *testing.T) {
	t.Parallel()

	errDisk := errors.New("disk full")
	log := memory.NewLog(qRec("https://x/grid-7-7"))
	log.FailAppends(0, errDisk)
	fetcher := newFakeFetcher()
	fetcher.respond("https://x/grid-7-7", http.StatusOK, page("https://x/grid-7-8", "North"))

	s, err := Open(context.Background(), log)
	require.NoError(t, err)
	_, err = newTestEngine(t, fetcher).Run(context.Background(), s)
	require.ErrorIs(t, err, errDisk)
	assert.False(t, s.Index().Contains("https://x/grid-7-8"))
	assert.Equal(t, 1, s.Frontier().Len())
}

func TestRun_TransportErrorIsFatal(t *testing.T) {
	t.Parallel()

	errReset := errors.New("connection reset by peer")
	log := memory.NewLog(qRec("https://x/grid-8-8"), qRec("https://x/grid-9-9"))
	fetcher := newFakeFetcher()
	fetcher.errs["https://x/grid-8-8"] = errReset

	s, _, err := runOnce(t, log, fetcher)
	require.ErrorIs(t, err, errReset)
	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, "https://x/grid-8-8", fetchErr.URL)
	assert.Empty(t, appended(log, 2))
	assert.Equal(t, []string{"https://x/grid-8-8"}, fetcher.fetched())
	assert.Equal(t, 2, s.Pending())
}

func TestRun_Canceled(t *testing.T) {
	t.Parallel()

	log := memory.NewLog(qRec("https://x/grid-0-0"))
	fetcher := newFakeFetcher()
	s, err := Open(context.Background(), log)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = newTestEngine(t, fetcher).Run(ctx, s)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, fetcher.fetched())
	assert.Len(t, log.Records(), 1)
}

func TestRun_CancelTakesEffectBetweenURLs(t *testing.T) {
	t.Parallel()

	log := memory.NewLog(qRec("https://x/grid-0-0"), qRec("https://x/grid-1-0"))
	fetcher := newFakeFetcher()
	fetcher.respond("https://x/grid-0-0", http.StatusOK, page("https://x/grid-0-1", "North"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	fetcher.onFetch = func(string) { cancel() }

	s, err := Open(context.Background(), log)
	require.NoError(t, err)
	_, err = newTestEngine(t, fetcher).Run(ctx, s)
	require.ErrorIs(t, err, context.Canceled)

	// The page fetched before the cancel is fully recorded.
	assert.Equal(t, []crawler.Record{qRec("https://x/grid-0-1"), pRec("https://x/grid-0-0")}, appended(log, 2))
	assert.Equal(t, []string{"https://x/grid-0-0"}, fetcher.fetched())
	assert.Equal(t, 1, s.Cursor())
}

func TestRun_ReplayIsIdempotent(t *testing.T) {
	t.Parallel()

	log := memory.NewLog(qRec("https://x/grid-0-0"))
	fetcher := newFakeFetcher()
	fetcher.respond("https://x/grid-0-0", http.StatusOK, page("https://x/grid-0-1", "North"))
	fetcher.respond("https://x/grid-0-1", http.StatusServiceUnavailable, "")
	first, _, err := runOnce(t, log, fetcher)
	require.NoError(t, err)

	again, err := Open(context.Background(), log)
	require.NoError(t, err)
	assert.Equal(t, first.Index().Snapshot(), again.Index().Snapshot())
	assert.Equal(t, first.Index().Queued(), again.Index().Queued())
}
