package ports

import "context"

// StreamHandler receives callbacks from a live push connection.
// Implementations must tolerate calls from the transport's reader goroutine.
type StreamHandler interface {
	OnOpen()
	OnMessage(payload string)
	OnError(err error)
}

// Stream is one push connection created by a Transport
type Stream interface {
	Close() error
}

// Transport creates push connections.
//
// Open must not block on the network: it builds the connection object and
// reports the outcome through the handler. An error from Open means the
// connection could not even be constructed.
type Transport interface {
	Name() string
	Open(ctx context.Context, handler StreamHandler) (Stream, error)
}
