package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhookClient_Notify(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	c := NewWebhookClient(srv.URL, 2*time.Second, discardLogger())
	err := c.Notify(context.Background(), Notification{
		Event:      EventTrashDetected,
		TofValue:   1250,
		HydroLevel: "LOW",
		Timestamp:  "2024-01-01T10:00:00.000Z",
		Location:   testLocation,
	})
	require.NoError(t, err)

	assert.Equal(t, map[string]any{
		"event":       "TRASH_DETECTED_ALARM",
		"tof_value":   1250.0,
		"hydro_level": "LOW",
		"timestamp":   "2024-01-01T10:00:00.000Z",
		"location":    testLocation,
	}, got)
}

func TestWebhookClient_IgnoresResponseStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewWebhookClient(srv.URL, 2*time.Second, discardLogger())
	assert.NoError(t, c.Notify(context.Background(), Notification{Event: EventHighWater}))
}

func TestWebhookClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewWebhookClient(url, time.Second, discardLogger())
	err := c.Notify(context.Background(), Notification{Event: EventHighWater})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "webhook request")
}

func TestBellSounder(t *testing.T) {
	var buf bytes.Buffer
	s := NewBellSounder(&buf)
	require.NoError(t, s.Sound())
	require.NoError(t, s.Sound())
	assert.Equal(t, "\a\a", buf.String())
}
