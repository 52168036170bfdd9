package websocket

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aescanero/skillstream/pkg/ports"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Config holds WebSocket transport configuration
type Config struct {
	URL              string
	HandshakeTimeout time.Duration
	Header           http.Header
	Logger           *zap.Logger
}

// Transport opens WebSocket push connections
type Transport struct {
	url    string
	header http.Header
	dialer *websocket.Dialer
	logger *zap.Logger
}

// NewTransport creates a new WebSocket transport
func NewTransport(cfg *Config) *Transport {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Transport{
		url:    cfg.URL,
		header: cfg.Header,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: cfg.HandshakeTimeout,
			ReadBufferSize:   1024,
			WriteBufferSize:  1024,
		},
		logger: logger,
	}
}

// Name returns the transport name
func (t *Transport) Name() string {
	return "websocket"
}

// Open dials the stream endpoint in the background and reports the outcome
// through handler. http(s) URLs are mapped to ws(s).
func (t *Transport) Open(ctx context.Context, handler ports.StreamHandler) (ports.Stream, error) {
	wsURL, err := toWebSocketURL(t.url)
	if err != nil {
		return nil, err
	}

	streamCtx, cancel := context.WithCancel(ctx)
	s := &stream{
		cancel:  cancel,
		handler: handler,
		logger:  t.logger,
	}
	go s.run(streamCtx, t.dialer, wsURL, t.header)

	return s, nil
}

// toWebSocketURL validates raw and rewrites http schemes to their ws equivalents
func toWebSocketURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid stream url: %w", err)
	}

	switch u.Scheme {
	case "ws", "wss":
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported stream url scheme: %q", u.Scheme)
	}

	return u.String(), nil
}

// stream is one live WebSocket connection
type stream struct {
	cancel  context.CancelFunc
	handler ports.StreamHandler
	logger  *zap.Logger

	mu      sync.Mutex
	conn    *websocket.Conn
	closed  atomic.Bool
	errOnce sync.Once
}

// Close stops the stream. No callbacks are delivered afterwards.
func (s *stream) Close() error {
	s.closed.Store(true)
	s.cancel()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		return s.conn.Close()
	}
	return nil
}

func (s *stream) run(ctx context.Context, dialer *websocket.Dialer, wsURL string, header http.Header) {
	conn, _, err := dialer.DialContext(ctx, wsURL, header)
	if err != nil {
		s.fail(fmt.Errorf("failed to dial %s: %w", wsURL, err))
		return
	}

	s.mu.Lock()
	if s.closed.Load() {
		s.mu.Unlock()
		_ = conn.Close()
		return
	}
	s.conn = conn
	s.mu.Unlock()

	s.handler.OnOpen()

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			s.fail(err)
			return
		}
		if s.closed.Load() {
			return
		}
		if msgType != websocket.TextMessage {
			s.logger.Debug("ignoring non-text stream frame", zap.Int("type", msgType))
			continue
		}
		s.handler.OnMessage(string(data))
	}
}

// fail reports the first error unless the stream was closed locally
func (s *stream) fail(err error) {
	if s.closed.Load() {
		return
	}
	s.errOnce.Do(func() {
		s.handler.OnError(err)
	})
}
