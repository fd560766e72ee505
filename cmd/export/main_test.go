package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/couchcryptid/trashrake-monitor/internal/config"
	"github.com/couchcryptid/trashrake-monitor/internal/domain"
	"github.com/couchcryptid/trashrake-monitor/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const feedBody = "Timestamp,WiFi,ToF,Level,Status\n" +
	"01-01-2024 10:00,CONNECTED,500,LOW,NORMAL\n" +
	"DATE,WIFI,TOF,LEVEL,STATUS\n" +
	"01-01-2024 10:05,CONNECTED,1200,HIGH,ALERT\n"

func testConfig(url string) *config.Config {
	return &config.Config{
		FeedURL:       url,
		PollInterval:  10 * time.Millisecond,
		FetchTimeout:  time.Second,
		FetchAttempts: 3,
		FetchBackoff:  time.Millisecond,
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFetch_RetriesThenParses(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(feedBody))
	}))
	defer srv.Close()

	parsed, err := fetch(context.Background(), testConfig(srv.URL), discardLogger(), observability.NewMetricsForTesting())

	require.NoError(t, err)
	assert.Len(t, parsed.History, 2)
	assert.Equal(t, 1, parsed.Dropped)
	assert.Equal(t, int32(2), calls.Load())
}

func TestFetch_GivesUpAfterAttempts(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := fetch(context.Background(), testConfig(srv.URL), discardLogger(), observability.NewMetricsForTesting())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 3 attempts")
	assert.Equal(t, int32(3), calls.Load())
}

func TestWriteFile(t *testing.T) {
	parsed, err := domain.ParseFeed(feedBody)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "export.csv")

	require.NoError(t, writeFile(path, domain.Filter(parsed.History, domain.Criteria{})))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[1], `"01-01-2024 10:05"`), "newest row first")
}
