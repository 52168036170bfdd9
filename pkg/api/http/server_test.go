package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aescanero/skillstream/internal/application/realtime"
	"github.com/aescanero/skillstream/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeStream struct {
	status realtime.Status
}

func (f *fakeStream) Status() realtime.Status {
	return f.status
}

type fakeNotifications struct {
	items []domain.Notification
}

func (f *fakeNotifications) List() []domain.Notification {
	return f.items
}

func (f *fakeNotifications) Dismiss(id string) bool {
	for i, n := range f.items {
		if n.ID == id {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return true
		}
	}
	return false
}

type fakeUploads struct {
	recent     []domain.Upload
	refreshErr error
	triggered  int
}

func (f *fakeUploads) Recent(ctx context.Context) ([]domain.Upload, error) {
	return f.recent, nil
}

func (f *fakeUploads) Refresh(ctx context.Context) ([]domain.Upload, error) {
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	return f.recent, nil
}

func (f *fakeUploads) LoadRecentUploads() {
	f.triggered++
}

type fixture struct {
	server        *Server
	stream        *fakeStream
	notifications *fakeNotifications
	uploads       *fakeUploads
}

func newFixture() *fixture {
	f := &fixture{
		stream:        &fakeStream{status: realtime.Status{State: realtime.StateOpen, Transport: "sse"}},
		notifications: &fakeNotifications{},
		uploads:       &fakeUploads{},
	}
	f.server = NewServer(&Config{
		Addr:          ":0",
		Stream:        f.stream,
		Notifications: f.notifications,
		Uploads:       f.uploads,
		Logger:        zap.NewNop(),
	})
	return f
}

func (f *fixture) do(method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	f.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHealth(t *testing.T) {
	f := newFixture()

	rec := f.do(http.MethodGet, "/health")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	checks := body["checks"].(map[string]interface{})
	assert.Equal(t, "open", checks["stream"])
	assert.Equal(t, true, checks["stream_open"])
}

func TestStreamStatus(t *testing.T) {
	f := newFixture()
	f.stream.status = realtime.Status{State: realtime.StateErrored, Attempts: 2, Transport: "sse", LastError: "boom"}

	rec := f.do(http.MethodGet, "/api/v1/stream")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	stream := body["stream"].(map[string]interface{})
	assert.Equal(t, "errored", stream["state"])
	assert.Equal(t, float64(2), stream["reconnect_attempts"])
	assert.Equal(t, "boom", stream["last_error"])
	assert.Equal(t, "1m4s", body["max_backoff"])
}

func TestNotifications(t *testing.T) {
	f := newFixture()
	f.notifications.items = []domain.Notification{
		{ID: "a", Message: "Real-time connection established", Kind: domain.NotificationSuccess, CreatedAt: time.Now()},
	}

	rec := f.do(http.MethodGet, "/api/v1/notifications")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), decode(t, rec)["total"])

	rec = f.do(http.MethodDelete, "/api/v1/notifications/a")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(http.MethodDelete, "/api/v1/notifications/a")
	require.Equal(t, http.StatusNotFound, rec.Code)
	errBody := decode(t, rec)["error"].(map[string]interface{})
	assert.Equal(t, "NOT_FOUND", errBody["code"])
}

func TestUploads(t *testing.T) {
	f := newFixture()
	f.uploads.recent = []domain.Upload{{ID: 4, Filename: "cv.pdf"}}

	rec := f.do(http.MethodGet, "/api/v1/uploads")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), decode(t, rec)["total"])

	rec = f.do(http.MethodPost, "/api/v1/uploads/refresh")
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, 1, f.uploads.triggered)

	rec = f.do(http.MethodPost, "/api/v1/uploads/refresh?wait=true")
	assert.Equal(t, http.StatusOK, rec.Code)

	f.uploads.refreshErr = errors.New("backend down")
	rec = f.do(http.MethodPost, "/api/v1/uploads/refresh?wait=true")
	require.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "REFRESH_FAILED", decode(t, rec)["error"].(map[string]interface{})["code"])
}

func TestCORSPreflight(t *testing.T) {
	f := newFixture()

	rec := f.do(http.MethodOptions, "/api/v1/uploads")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
