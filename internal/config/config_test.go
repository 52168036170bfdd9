package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.HTTPPort)
	assert.Equal(t, 9091, cfg.GRPCPort)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "http://localhost:5000/stream", cfg.Stream.URL)
	assert.Equal(t, "sse", cfg.Stream.Transport)
	assert.Equal(t, 5*time.Second, cfg.Notify.TTL)
	assert.Equal(t, 10, cfg.Uploads.RecentLimit)
	assert.Equal(t, 10*time.Minute, cfg.Uploads.CacheTTL)
	assert.Equal(t, 30*time.Second, cfg.MonitorInterval)
	assert.False(t, cfg.Redis.Enabled())
	assert.Equal(t, ":8081", cfg.GetHTTPAddr())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STREAM_TRANSPORT", "websocket")
	t.Setenv("STREAM_URL", "https://matcher.example.com/stream")
	t.Setenv("NOTIFY_TTL", "2s")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "websocket", cfg.Stream.Transport)
	assert.Equal(t, "https://matcher.example.com/stream", cfg.Stream.URL)
	assert.Equal(t, 2*time.Second, cfg.Notify.TTL)
	assert.True(t, cfg.Redis.Enabled())
}

func TestLoad_StreamURLSchemes(t *testing.T) {
	tests := []struct {
		name      string
		transport string
		url       string
		wantErr   bool
	}{
		{"sse over http", "sse", "http://localhost:5000/stream", false},
		{"sse over https", "sse", "https://matcher.example.com/stream", false},
		{"sse rejects ws", "sse", "ws://localhost:5000/stream", true},
		{"websocket over ws", "websocket", "ws://localhost:5000/stream", false},
		{"websocket over wss", "websocket", "wss://matcher.example.com/stream", false},
		{"websocket over http", "websocket", "http://localhost:5000/stream", false},
		{"websocket rejects ftp", "websocket", "ftp://localhost/stream", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("STREAM_TRANSPORT", tt.transport)
			t.Setenv("STREAM_URL", tt.url)

			_, err := Load()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"http port", "SKILLSTREAM_HTTP_PORT", "70000"},
		{"transport", "STREAM_TRANSPORT", "polling"},
		{"stream url scheme", "STREAM_URL", "ftp://localhost/stream"},
		{"backend url host", "BACKEND_URL", "http://"},
		{"ttl", "NOTIFY_TTL", "0s"},
		{"limit", "UPLOADS_RECENT_LIMIT", "0"},
		{"log level", "LOG_LEVEL", "trace"},
		{"unparsable duration", "MONITOR_INTERVAL", "soon"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}
