package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestStatusClass(t *testing.T) {
	testCases := []struct {
		code     int
		expected string
	}{
		{200, "2xx"},
		{204, "2xx"},
		{301, "3xx"},
		{404, "4xx"},
		{503, "5xx"},
		{0, "other"},
		{999, "other"},
	}

	for _, tc := range testCases {
		if got := StatusClass(tc.code); got != tc.expected {
			t.Errorf("StatusClass(%d) = %q; want %q", tc.code, got, tc.expected)
		}
	}
}

func TestInit(t *testing.T) {
	// Call Init multiple times to test idempotency.
	Init()
	Init()

	if fetchesTotal == nil || recordsTotal == nil || frontierLength == nil ||
		httpRequestsTotal == nil || httpRequestDurationSeconds == nil {
		t.Fatal("Init() did not initialize metrics collectors")
	}
}

func TestObservers(t *testing.T) {
	Init()
	beforeRecords := testutil.ToFloat64(recordsTotal.WithLabelValues("page"))
	ObserveRecord("page")
	if got := testutil.ToFloat64(recordsTotal.WithLabelValues("page")); got != beforeRecords+1 {
		t.Errorf("expected page records to grow by 1, got %f -> %f", beforeRecords, got)
	}

	before2xx := testutil.ToFloat64(fetchesTotal.WithLabelValues("2xx"))
	ObserveFetch(200, 512, 20*time.Millisecond)
	if got := testutil.ToFloat64(fetchesTotal.WithLabelValues("2xx")); got != before2xx+1 {
		t.Errorf("expected 2xx fetches to grow by 1, got %f -> %f", before2xx, got)
	}

	ObserveIndeterminate(503)
	if got := testutil.ToFloat64(indeterminateTotal.WithLabelValues("503")); got < 1 {
		t.Errorf("expected indeterminate 503 to be recorded, got %f", got)
	}

	SetFrontier(3, 10)
	if got := testutil.ToFloat64(frontierPosition); got != 3 {
		t.Errorf("expected frontier position 3, got %f", got)
	}
	if got := testutil.ToFloat64(frontierLength); got != 10 {
		t.Errorf("expected frontier length 10, got %f", got)
	}
}
