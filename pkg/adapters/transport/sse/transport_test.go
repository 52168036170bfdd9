package sse

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingHandler struct {
	opened   chan struct{}
	messages chan string
	errors   chan error
}

func newRecordingHandler() *recordingHandler {
	return &recordingHandler{
		opened:   make(chan struct{}, 4),
		messages: make(chan string, 16),
		errors:   make(chan error, 4),
	}
}

func (h *recordingHandler) OnOpen()                  { h.opened <- struct{}{} }
func (h *recordingHandler) OnMessage(payload string) { h.messages <- payload }
func (h *recordingHandler) OnError(err error)        { h.errors <- err }

func newStreamServer(t *testing.T, handler gin.HandlerFunc) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.GET("/stream", handler)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func waitFor[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for stream callback")
	}
	var zero T
	return zero
}

func TestTransport_DeliversMessages(t *testing.T) {
	srv := newStreamServer(t, func(c *gin.Context) {
		c.SSEvent("message", `{'type': 'resume_uploaded', 'filename': 'cv.pdf'}`)
		c.SSEvent("heartbeat", "ignored")
		_, _ = c.Writer.WriteString(": comment\n\ndata: line1\ndata: line2\n\n")
		c.Writer.Flush()
	})

	tr := NewTransport(&Config{URL: srv.URL + "/stream", HandshakeTimeout: time.Second, Logger: zap.NewNop()})
	assert.Equal(t, "sse", tr.Name())

	h := newRecordingHandler()
	s, err := tr.Open(context.Background(), h)
	require.NoError(t, err)
	defer s.Close()

	waitFor(t, h.opened)
	assert.Equal(t, `{'type': 'resume_uploaded', 'filename': 'cv.pdf'}`, waitFor(t, h.messages))
	assert.Equal(t, "line1\nline2", waitFor(t, h.messages))

	err = waitFor(t, h.errors)
	assert.True(t, errors.Is(err, ErrStreamEnded))
	assert.Empty(t, h.messages)
}

func TestTransport_BadStatus(t *testing.T) {
	srv := newStreamServer(t, func(c *gin.Context) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "down"})
	})

	h := newRecordingHandler()
	s, err := NewTransport(&Config{URL: srv.URL + "/stream"}).Open(context.Background(), h)
	require.NoError(t, err)
	defer s.Close()

	err = waitFor(t, h.errors)
	assert.Contains(t, err.Error(), "503")
	assert.Empty(t, h.opened)
}

func TestTransport_WrongContentType(t *testing.T) {
	srv := newStreamServer(t, func(c *gin.Context) {
		c.String(http.StatusOK, "data: nope\n\n")
	})

	h := newRecordingHandler()
	s, err := NewTransport(&Config{URL: srv.URL + "/stream"}).Open(context.Background(), h)
	require.NoError(t, err)
	defer s.Close()

	err = waitFor(t, h.errors)
	assert.Contains(t, err.Error(), "content type")
	assert.Empty(t, h.opened)
}

func TestTransport_CloseSuppressesCallbacks(t *testing.T) {
	srv := newStreamServer(t, func(c *gin.Context) {
		c.SSEvent("message", "hello")
		c.Writer.Flush()
		<-c.Request.Context().Done()
	})

	h := newRecordingHandler()
	s, err := NewTransport(&Config{URL: srv.URL + "/stream"}).Open(context.Background(), h)
	require.NoError(t, err)

	waitFor(t, h.opened)
	assert.Equal(t, "hello", waitFor(t, h.messages))

	require.NoError(t, s.Close())

	select {
	case err := <-h.errors:
		t.Fatalf("unexpected error callback after close: %v", err)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestTransport_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	h := newRecordingHandler()
	s, err := NewTransport(&Config{URL: addr + "/stream"}).Open(context.Background(), h)
	require.NoError(t, err)
	defer s.Close()

	assert.Error(t, waitFor(t, h.errors))
}

func TestTransport_InvalidURL(t *testing.T) {
	tests := []string{"://missing-scheme", "ftp://example.com/stream", "localhost:5000/stream"}

	for _, u := range tests {
		_, err := NewTransport(&Config{URL: u}).Open(context.Background(), newRecordingHandler())
		assert.Error(t, err, u)
	}
}
