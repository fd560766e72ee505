package websocket

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/couchcryptid/trashrake-monitor/internal/domain"
	"github.com/couchcryptid/trashrake-monitor/internal/observability"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func renderGeneration(s domain.Snapshot) any {
	return map[string]uint64{"generation": s.Generation}
}

func startHub(t *testing.T) (*Hub, *httptest.Server, *observability.Metrics, context.CancelFunc) {
	t.Helper()
	metrics := observability.NewMetricsForTesting()
	hub := NewHub(renderGeneration, slog.New(slog.NewTextHandler(io.Discard, nil)), metrics)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	srv := httptest.NewServer(hub)
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})
	return hub, srv, metrics, cancel
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestHub_PublishReachesClients(t *testing.T) {
	hub, srv, metrics, _ := startHub(t)
	a := dial(t, srv)
	b := dial(t, srv)
	require.Eventually(t, func() bool { return hub.ClientCount() == 2 }, 2*time.Second, 10*time.Millisecond)
	assert.InDelta(t, 2, testutil.ToFloat64(metrics.WebsocketClients), 0)

	require.NoError(t, hub.Publish(context.Background(), domain.Snapshot{Generation: 7}))

	for _, conn := range []*websocket.Conn{a, b} {
		msg := readMessage(t, conn)
		assert.Equal(t, MessageOverview, msg.Type)
		assert.Equal(t, map[string]any{"generation": 7.0}, msg.Payload)
	}
}

func TestHub_LateClientGetsLastMessage(t *testing.T) {
	hub, srv, _, _ := startHub(t)
	require.NoError(t, hub.Publish(context.Background(), domain.Snapshot{Generation: 3}))

	conn := dial(t, srv)

	msg := readMessage(t, conn)
	assert.Equal(t, map[string]any{"generation": 3.0}, msg.Payload)
}

func TestHub_ClientDisconnectUnregisters(t *testing.T) {
	hub, srv, _, _ := startHub(t)
	conn := dial(t, srv)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())

	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_PublishAfterStop(t *testing.T) {
	hub, _, _, cancel := startHub(t)
	cancel()
	require.Eventually(t, func() bool {
		return hub.Publish(context.Background(), domain.Snapshot{}) == ErrHubClosed
	}, 2*time.Second, 10*time.Millisecond)
}

func TestHub_PublishHonoursContext(t *testing.T) {
	hub := NewHub(renderGeneration, slog.New(slog.NewTextHandler(io.Discard, nil)), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := hub.Publish(ctx, domain.Snapshot{})
	assert.ErrorIs(t, err, context.Canceled)
}
