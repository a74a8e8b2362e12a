package classify

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/gridcrawl/internal/crawler"
)

func TestClassifier_Classify(t *testing.T) {
	t.Parallel()

	c := New(DefaultMarkers)
	testCases := []struct {
		name     string
		resp     crawler.FetchResponse
		want     crawler.State
		terminal bool
	}{
		{"page", crawler.FetchResponse{StatusCode: http.StatusOK, Body: []byte("<h1>D-block</h1>")}, crawler.StatePage, true},
		{"empty marker", crawler.FetchResponse{StatusCode: http.StatusOK, Body: []byte("<h1>Empty D-block</h1>")}, crawler.StateAbsent, true},
		{"invalid marker", crawler.FetchResponse{StatusCode: http.StatusOK, Body: []byte("x<h1>Invalid D-block</h1>y")}, crawler.StateAbsent, true},
		{"not found", crawler.FetchResponse{StatusCode: http.StatusNotFound}, crawler.StateError, true},
		// 404 wins even when the body carries a marker.
		{"not found with marker", crawler.FetchResponse{StatusCode: http.StatusNotFound, Body: []byte("<h1>Empty D-block</h1>")}, crawler.StateError, true},
		{"non-200 success", crawler.FetchResponse{StatusCode: http.StatusNoContent}, crawler.StatePage, true},
		{"server error", crawler.FetchResponse{StatusCode: http.StatusInternalServerError}, 0, false},
		{"gone", crawler.FetchResponse{StatusCode: http.StatusGone}, 0, false},
		{"redirect", crawler.FetchResponse{StatusCode: http.StatusFound}, 0, false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, ok := c.Classify(tc.resp)
			require.Equal(t, tc.terminal, ok)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestClassifier_IgnoresEmptyMarker(t *testing.T) {
	t.Parallel()

	c := New([]string{""})
	got, ok := c.Classify(crawler.FetchResponse{StatusCode: http.StatusOK, Body: []byte("anything")})
	require.True(t, ok)
	require.Equal(t, crawler.StatePage, got)
}
