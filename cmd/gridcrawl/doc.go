// Package main hosts the gridcrawl command.
//
// Architecture overview:
//   - Record log: a flat file of "<STATE> <URL>" lines (internal/recordlog/file). It is the only state the crawler
//     keeps. Every state change is appended and fsynced before it takes effect in memory.
//   - Session: on start the log is replayed into a State Index (internal/index) and every URL still Queued becomes the
//     frontier (internal/frontier), ordered by when it was first queued. Restarting resumes the crawl.
//   - Crawl loop: internal/engine visits the frontier one URL at a time with the Colly fetcher, queues neighbor links
//     found by the goquery extractor, and records Page, Absent (marker phrase), or Error (404). Any other status is
//     logged and left Queued for the next run; a transport failure stops the run.
//   - Collaborators: status, render, and export only read the log, so they are safe to run beside a crawl.
//
// Quick checklist:
//   - Configure via config.yaml (working dir or $XDG_CONFIG_HOME/gridcrawl) or GRIDCRAWL_* env vars, e.g.
//     GRIDCRAWL_LOG_PATH, GRIDCRAWL_SERVER_ADDR, GRIDCRAWL_LOGGING_LEVEL.
//   - Seed once: gridcrawl seed <url>; then gridcrawl crawl (repeat after an interruption).
package main
