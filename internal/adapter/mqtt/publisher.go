// Package mqtt publishes the newest sensor status as a retained MQTT
// message so late subscribers see the current state immediately.
package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/trashrake-monitor/internal/domain"
	paho "github.com/eclipse/paho.mqtt.golang"
)

const (
	clientID       = "trashrake-monitor"
	connectTimeout = 10 * time.Second
	publishTimeout = 5 * time.Second
	// QoS 1 (at-least-once): the retained status must reach the broker.
	qos = 1
)

// ErrPublishTimeout is returned when the broker does not acknowledge a
// publish in time.
var ErrPublishTimeout = errors.New("mqtt publish timeout")

// client is the subset of paho.Client used by Publisher.
type client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Disconnect(quiesce uint)
}

// Publisher sends the newest record of each accepted snapshot to a topic.
// It implements pipeline.Publisher.
type Publisher struct {
	client client
	topic  string
	logger *slog.Logger
}

// NewPublisher connects to broker and returns a publisher for topic.
func NewPublisher(broker, topic string, logger *slog.Logger) (*Publisher, error) {
	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetCleanSession(true).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOnConnectHandler(func(paho.Client) {
			logger.Info("mqtt connected", "broker", broker)
		}).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			logger.Warn("mqtt connection lost", "broker", broker, "error", err)
		})

	return connect(paho.NewClient(opts), broker, topic, connectTimeout, logger)
}

// connectingClient is the subset of paho.Client needed to establish a session.
type connectingClient interface {
	client
	Connect() paho.Token
}

// connect waits for the initial session. On failure the client is
// disconnected so its connect-retry loop stops.
func connect(c connectingClient, broker, topic string, timeout time.Duration, logger *slog.Logger) (*Publisher, error) {
	token := c.Connect()
	if !token.WaitTimeout(timeout) {
		c.Disconnect(0)
		return nil, fmt.Errorf("connect to %s: timeout", broker)
	}
	if err := token.Error(); err != nil {
		c.Disconnect(0)
		return nil, fmt.Errorf("connect to %s: %w", broker, err)
	}

	return &Publisher{client: c, topic: topic, logger: logger}, nil
}

// Name implements pipeline.Publisher.
func (p *Publisher) Name() string { return "mqtt" }

// Publish sends the snapshot's newest record as a retained message. An
// empty history publishes nothing.
func (p *Publisher) Publish(ctx context.Context, snap domain.Snapshot) error {
	payload, ok, err := FormatPayload(snap)
	if err != nil || !ok {
		return err
	}

	token := p.client.Publish(p.topic, qos, true, payload)
	timer := time.NewTimer(publishTimeout)
	defer timer.Stop()

	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return ErrPublishTimeout
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", p.topic, err)
	}
	p.logger.Debug("published latest status", "topic", p.topic, "generation", snap.Generation)
	return nil
}

// Close disconnects from the broker.
func (p *Publisher) Close() error {
	p.client.Disconnect(1000) // 1 second quiesce
	return nil
}

// statusPayload is the retained message body: the newest record plus the
// fetch it came from.
type statusPayload struct {
	domain.Record
	Connected    bool   `json:"connected"`
	TotalRecords int    `json:"total_records"`
	Generation   uint64 `json:"generation"`
	FetchedAt    string `json:"fetched_at"`
}

// FormatPayload builds the retained status message. It returns false when
// the snapshot has no records.
func FormatPayload(snap domain.Snapshot) ([]byte, bool, error) {
	latest, ok := snap.Latest()
	if !ok {
		return nil, false, nil
	}
	data, err := json.Marshal(statusPayload{
		Record:       latest,
		Connected:    latest.Connected(),
		TotalRecords: len(snap.History),
		Generation:   snap.Generation,
		FetchedAt:    snap.FetchedAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return nil, false, fmt.Errorf("format status payload: %w", err)
	}
	return data, true, nil
}
