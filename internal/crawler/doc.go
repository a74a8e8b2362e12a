// Package crawler defines the record, state, and fetch types shared by the grid
// crawl engine and by every tool that reads its append-only record log.
package crawler
