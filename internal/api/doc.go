// Package api hosts the status HTTP server that runs beside a crawl. Routes:
//   - GET /healthz and /readyz for probes.
//   - GET /metrics for Prometheus scraping.
//   - GET /v1/status for per-state counts replayed from the record log file.
package api
