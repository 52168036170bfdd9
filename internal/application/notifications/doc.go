// Package notifications implements the user notification center.
//
// Notifications are transient: each one is dismissed automatically after a
// fixed TTL or explicitly by the user. Lifecycle events are published in order
// on the "notifications" topic of the event bus so push surfaces (WebSocket)
// can mirror them.
package notifications
