// Package monitor periodically checks the realtime stream and exposes the
// result as logs, metrics and the gRPC serving status.
package monitor
