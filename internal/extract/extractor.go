// Package extract finds same-grid neighbor links in a fetched page.
package extract

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/JakeFAU/gridcrawl/internal/crawler"
)

// DefaultLinkPattern matches archived Domesday GB grid cells.
const DefaultLinkPattern = `https://webarchive\.nationalarchives\.gov\.uk/\d+/http://www\.bbc\.co\.uk/history/domesday/dblock/GB-\d+-\d+`

// DefaultLabels are the cardinal direction labels of neighbor anchors.
var DefaultLabels = []string{"North", "South", "East", "West"}

// Extractor holds the dataset's href pattern and allowed anchor labels.
// Links is a pure function of its input; nothing carries over between calls.
type Extractor struct {
	pattern *regexp.Regexp
	labels  map[string]struct{}
}

// New compiles pattern, anchored to match the whole href.
func New(pattern string, labels []string) (*Extractor, error) {
	if strings.TrimSpace(pattern) == "" {
		return nil, fmt.Errorf("link pattern is required")
	}
	if len(labels) == 0 {
		return nil, fmt.Errorf("at least one link label is required")
	}
	re, err := regexp.Compile(`^(?:` + pattern + `)$`)
	if err != nil {
		return nil, fmt.Errorf("compile link pattern: %w", err)
	}
	set := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		set[l] = struct{}{}
	}
	return &Extractor{pattern: re, labels: set}, nil
}

// Links returns every anchor in body whose href matches the grid pattern and
// whose plain text, with no nested markup, is exactly an allowed label, in
// document order. Unparseable bodies and malformed anchors yield no links.
func (e *Extractor) Links(body []byte) []crawler.Link {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil
	}
	var links []crawler.Link
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if s.Children().Length() > 0 {
			return
		}
		label := s.Text()
		if _, ok := e.labels[label]; !ok {
			return
		}
		if !e.pattern.MatchString(href) {
			return
		}
		links = append(links, crawler.Link{URL: href, Label: label})
	})
	return links
}
