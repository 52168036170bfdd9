// Package http provides the HTTP status API.
//
// The HTTP server exposes endpoints for:
//   - Stream connection status
//   - Visible notifications and dismissal
//   - Recent uploads and refresh
//   - Health checks
//   - Prometheus metrics
package http
