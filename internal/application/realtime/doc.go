// Package realtime implements the live-update stream client.
//
// The client owns at most one push connection to the backend. All callbacks
// (open, message, error, reconnect timers) are serialized on a single dispatch
// goroutine, so handler logic never runs concurrently and messages are handled
// in the order the transport delivers them.
//
// Failures never stop the client: a broken connection is closed, a warning
// notification is shown and a reconnect is scheduled with capped exponential
// backoff (2s, 4s, 8s, 16s, 32s, then 64s forever).
//
// Example usage:
//
//	client := realtime.NewClient(transport, center, uploadsSvc, logger,
//	    realtime.WithMetrics(collector))
//	if err := client.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
package realtime
