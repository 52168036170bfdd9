// Package websocket pushes notification lifecycle events to browsers.
//
// Clients connect to /api/v1/notifications/ws and receive every
// notification.shown and notification.dismissed event as a JSON text frame.
package websocket
