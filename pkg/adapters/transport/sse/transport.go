package sse

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aescanero/skillstream/pkg/ports"
	"go.uber.org/zap"
)

// ErrStreamEnded is reported when the server closes the event stream
var ErrStreamEnded = errors.New("event stream closed by server")

// Config holds SSE transport configuration
type Config struct {
	URL              string
	HandshakeTimeout time.Duration
	HTTPClient       *http.Client
	Logger           *zap.Logger
}

// Transport opens text/event-stream connections
type Transport struct {
	url    string
	client *http.Client
	logger *zap.Logger
}

// NewTransport creates a new SSE transport
func NewTransport(cfg *Config) *Transport {
	client := cfg.HTTPClient
	if client == nil {
		// No overall timeout: the response body stays open for the stream lifetime
		client = &http.Client{
			Transport: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				ResponseHeaderTimeout: cfg.HandshakeTimeout,
			},
		}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Transport{
		url:    cfg.URL,
		client: client,
		logger: logger,
	}
}

// Name returns the transport name
func (t *Transport) Name() string {
	return "sse"
}

// Open starts a new event stream. The HTTP request runs in the background and
// its outcome is reported through handler.
func (t *Transport) Open(ctx context.Context, handler ports.StreamHandler) (ports.Stream, error) {
	u, err := url.Parse(t.url)
	if err != nil {
		return nil, fmt.Errorf("invalid stream url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported stream url scheme: %q", u.Scheme)
	}

	streamCtx, cancel := context.WithCancel(ctx)
	req, err := http.NewRequestWithContext(streamCtx, http.MethodGet, u.String(), nil)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	s := &stream{
		cancel:  cancel,
		handler: handler,
		logger:  t.logger,
	}
	go s.run(t.client, req)

	return s, nil
}

// stream is one live event-stream connection
type stream struct {
	cancel  context.CancelFunc
	handler ports.StreamHandler
	logger  *zap.Logger

	closed  atomic.Bool
	errOnce sync.Once
}

// Close stops the stream. No callbacks are delivered afterwards.
func (s *stream) Close() error {
	s.closed.Store(true)
	s.cancel()
	return nil
}

func (s *stream) run(client *http.Client, req *http.Request) {
	defer s.cancel()

	resp, err := client.Do(req)
	if err != nil {
		s.fail(fmt.Errorf("failed to connect to %s: %w", req.URL.Redacted(), err))
		return
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		s.fail(fmt.Errorf("server returned status %d", resp.StatusCode))
		return
	}

	mediaType, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil || mediaType != "text/event-stream" {
		s.fail(fmt.Errorf("unexpected content type %q", resp.Header.Get("Content-Type")))
		return
	}

	if s.closed.Load() {
		return
	}
	s.handler.OnOpen()

	err = Read(resp.Body, func(ev Event) {
		if s.closed.Load() {
			return
		}
		if ev.Type != "message" {
			s.logger.Debug("ignoring named stream event", zap.String("event", ev.Type))
			return
		}
		s.handler.OnMessage(ev.Data)
	})
	if err == nil {
		err = ErrStreamEnded
	}

	s.fail(err)
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
