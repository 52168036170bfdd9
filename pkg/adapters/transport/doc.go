// Package transport provides push connection implementations for the
// realtime client.
//
// Implementations:
//   - sse: text/event-stream over a long-lived HTTP GET (default)
//   - websocket: one text frame per payload
package transport
