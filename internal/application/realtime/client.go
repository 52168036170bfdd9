package realtime

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aescanero/skillstream/pkg/domain"
	"github.com/aescanero/skillstream/pkg/ports"
	"go.uber.org/zap"
)

// ErrAlreadyStarted is returned when Start is called more than once
var ErrAlreadyStarted = errors.New("realtime client already started")

const (
	msgConnected      = "Real-time connection established"
	msgConnectionLost = "Real-time connection lost - attempting to reconnect..."
	msgUploaded       = "New resume uploaded: %s"
	msgUpdate         = "Real-time update: %s"
	msgUpdateReceived = "Real-time update received"

	defaultUploadName = "file"
	defaultQueueSize  = 64
)

// AfterFunc runs f once after d has elapsed
type AfterFunc func(d time.Duration, f func())

// Option configures a Client
type Option func(*Client)

// WithMetrics sets the metrics collector
func WithMetrics(metrics ports.MetricsCollector) Option {
	return func(c *Client) {
		if metrics != nil {
			c.metrics = metrics
		}
	}
}

// WithAfterFunc replaces the timer used for reconnect delays
func WithAfterFunc(fn AfterFunc) Option {
	return func(c *Client) {
		if fn != nil {
			c.afterFunc = fn
		}
	}
}

// WithStateListener registers fn to be called on every state transition.
// Listeners run on the dispatch goroutine and must not block.
func WithStateListener(fn func(State)) Option {
	return func(c *Client) {
		if fn != nil {
			c.listeners = append(c.listeners, fn)
		}
	}
}

// Status is a point-in-time view of the client
type Status struct {
	State          State      `json:"state"`
	Attempts       int        `json:"reconnect_attempts"`
	Transport      string     `json:"transport"`
	ConnectedSince *time.Time `json:"connected_since,omitempty"`
	LastMessageAt  *time.Time `json:"last_message_at,omitempty"`
	Messages       uint64     `json:"messages_received"`
	LastError      string     `json:"last_error,omitempty"`
	LastErrorAt    *time.Time `json:"last_error_at,omitempty"`
}

// Client maintains the live-update push connection
type Client struct {
	transport ports.Transport
	notifier  ports.Notifier
	uploads   ports.UploadsRefresher
	metrics   ports.MetricsCollector
	logger    *zap.Logger
	afterFunc AfterFunc
	listeners []func(State)

	queue   chan func()
	done    chan struct{}
	started atomic.Bool
	ctx     context.Context

	// Owned by the dispatch goroutine
	conn     ports.Stream
	gen      uint64
	attempts int
	state    State

	mu     sync.RWMutex
	status Status
}

// NewClient creates a stream client. It does nothing until Start is called.
func NewClient(
	transport ports.Transport,
	notifier ports.Notifier,
	uploads ports.UploadsRefresher,
	logger *zap.Logger,
	opts ...Option,
) *Client {
	c := &Client{
		transport: transport,
		notifier:  notifier,
		uploads:   uploads,
		metrics:   nopMetrics{},
		logger:    logger,
		afterFunc: func(d time.Duration, f func()) { time.AfterFunc(d, f) },
		done:      make(chan struct{}),
		state:     StateDisconnected,
	}
	if c.uploads == nil {
		c.uploads = nopUploads{}
	}
	for _, opt := range opts {
		opt(c)
	}

	c.queue = make(chan func(), defaultQueueSize)
	c.status = Status{State: StateDisconnected, Transport: transport.Name()}

	return c
}

// Start launches the dispatch loop and opens the connection. The client runs
// until ctx is cancelled, at which point the live connection is closed.
func (c *Client) Start(ctx context.Context) error {
	if !c.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}

	c.ctx = ctx
	go c.run(ctx)

	c.logger.Info("starting realtime client",
		zap.String("transport", c.transport.Name()))

	c.Connect()
	return nil
}

// Connect opens a connection unless one already exists
func (c *Client) Connect() {
	c.enqueue(c.connect)
}

// Done is closed once the dispatch loop has exited
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Status returns a snapshot of the client state
func (c *Client) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status
}

// run is the dispatch loop
func (c *Client) run(ctx context.Context) {
	defer close(c.done)

	for {
		select {
		case <-ctx.Done():
			c.teardown()
			return
		case fn := <-c.queue:
			fn()
		}
	}
}

// enqueue hands fn to the dispatch loop. It reports false once the loop has exited.
func (c *Client) enqueue(fn func()) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.queue <- fn:
		return true
	case <-c.done:
		return false
	}
}

func (c *Client) connect() {
	if c.conn != nil {
		c.logger.Debug("stream connection already exists, connect ignored")
		return
	}
	c.createSource()
}

// createSource opens a new transport connection tagged with a fresh generation
func (c *Client) createSource() {
	c.gen++
	gen := c.gen
	c.setState(StateConnecting)

	stream, err := c.transport.Open(c.ctx, &streamHandler{client: c, gen: gen})
	if err != nil {
		c.logger.Error("failed to create stream connection",
			zap.String("transport", c.transport.Name()),
			zap.Error(err))
		c.metrics.IncTransportErrors("creation")
		c.recordError(err)
		c.setState(StateErrored)
		c.scheduleReconnect()
		return
	}

	c.conn = stream
}

// current reports whether gen identifies the live connection
func (c *Client) current(gen uint64) bool {
	return c.conn != nil && gen == c.gen
}

func (c *Client) onOpen(gen uint64) {
	if !c.current(gen) {
		return
	}

	c.attempts = 0
	c.metrics.SetReconnectAttempts(0)

	now := time.Now()
	c.mu.Lock()
	c.status.Attempts = 0
	c.status.ConnectedSince = &now
	c.mu.Unlock()

	c.setState(StateOpen)
	c.logger.Info("stream connection established",
		zap.String("transport", c.transport.Name()))
	c.notifier.Notify(msgConnected, domain.NotificationSuccess)
}

func (c *Client) onMessage(gen uint64, payload string) {
	if !c.current(gen) {
		return
	}

	now := time.Now()
	c.mu.Lock()
	c.status.Messages++
	c.status.LastMessageAt = &now
	c.mu.Unlock()

	text, refresh := c.interpret(payload)
	c.notifier.Notify(text, domain.NotificationInfo)
	if refresh {
		c.uploads.LoadRecentUploads()
	}
}

// interpret turns a payload into notification text. It never panics: any
// failure degrades to the generic "update received" text.
func (c *Client) interpret(payload string) (text string, refresh bool) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Warn("failed to interpret stream message",
				zap.Any("panic", r))
			text, refresh = msgUpdateReceived, false
		}
	}()

	msg := DecodeMessage(payload)
	c.metrics.IncMessages(msg.Variant.String())

	if msg.IsUpload() {
		upload := msg.Upload()
		name := upload.Filename
		if name == "" {
			name = defaultUploadName
		}
		c.logger.Info("resume upload announced",
			zap.Int64("resume_id", upload.ResumeID),
			zap.String("filename", upload.Filename))
		return fmt.Sprintf(msgUploaded, name), true
	}

	desc, err := msg.Describe()
	if err != nil {
		c.logger.Debug("failed to describe stream message",
			zap.String("variant", msg.Variant.String()),
			zap.Error(err))
		return msgUpdateReceived, false
	}

	return fmt.Sprintf(msgUpdate, desc), false
}

func (c *Client) onError(gen uint64, err error) {
	if !c.current(gen) {
		return
	}

	c.logger.Warn("stream connection error",
		zap.String("transport", c.transport.Name()),
		zap.Error(err))
	c.metrics.IncTransportErrors("runtime")
	c.recordError(err)
	c.notifier.Notify(msgConnectionLost, domain.NotificationWarning)

	if closeErr := c.conn.Close(); closeErr != nil {
		c.logger.Debug("failed to close stream connection", zap.Error(closeErr))
	}
	c.conn = nil

	c.mu.Lock()
	c.status.ConnectedSince = nil
	c.mu.Unlock()

	c.setState(StateErrored)
	c.scheduleReconnect()
}

// scheduleReconnect bumps the attempt counter and arms a reconnect timer
func (c *Client) scheduleReconnect() {
	delay := Backoff(c.attempts)
	c.attempts = nextAttempt(c.attempts)

	c.mu.Lock()
	c.status.Attempts = c.attempts
	c.mu.Unlock()

	c.metrics.SetReconnectAttempts(c.attempts)
	c.metrics.RecordReconnectScheduled(delay)
	c.logger.Info("reconnect scheduled",
		zap.Int("attempt", c.attempts),
		zap.Duration("delay", delay))

	c.afterFunc(delay, func() {
		c.enqueue(c.reconnect)
	})
}

// reconnect runs when a reconnect timer fires
func (c *Client) reconnect() {
	if c.conn != nil {
		c.logger.Debug("stream connection already re-established, reconnect skipped")
		return
	}
	c.createSource()
}

// teardown closes the live connection when the client stops
func (c *Client) teardown() {
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			c.logger.Debug("failed to close stream connection", zap.Error(err))
		}
		c.conn = nil
	}

	c.mu.Lock()
	c.status.ConnectedSince = nil
	c.mu.Unlock()

	c.setState(StateDisconnected)
	c.logger.Info("realtime client stopped")
}

func (c *Client) setState(s State) {
	if c.state == s {
		return
	}
	c.state = s

	c.mu.Lock()
	c.status.State = s
	c.mu.Unlock()

	c.metrics.SetStreamState(s.String())
	for _, fn := range c.listeners {
		fn(s)
	}
}

func (c *Client) recordError(err error) {
	now := time.Now()
	c.mu.Lock()
	c.status.LastError = err.Error()
	c.status.LastErrorAt = &now
	c.mu.Unlock()
}

// streamHandler forwards transport callbacks onto the dispatch loop
type streamHandler struct {
	client *Client
	gen    uint64
}

func (h *streamHandler) OnOpen() {
	h.client.enqueue(func() { h.client.onOpen(h.gen) })
}

func (h *streamHandler) OnMessage(payload string) {
	h.client.enqueue(func() { h.client.onMessage(h.gen, payload) })
}

func (h *streamHandler) OnError(err error) {
	h.client.enqueue(func() { h.client.onError(h.gen, err) })
}

type nopMetrics struct{}

func (nopMetrics) SetStreamState(string)                      {}
func (nopMetrics) SetReconnectAttempts(int)                   {}
func (nopMetrics) RecordReconnectScheduled(time.Duration)     {}
func (nopMetrics) IncTransportErrors(string)                  {}
func (nopMetrics) IncMessages(string)                         {}
func (nopMetrics) IncNotifications(string)                    {}
func (nopMetrics) RecordUploadsRefresh(string, time.Duration) {}

type nopUploads struct{}

func (nopUploads) LoadRecentUploads() {}
