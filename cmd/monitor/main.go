package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/trashrake-monitor/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/trashrake-monitor/internal/adapter/kafka"
	mqttadapter "github.com/couchcryptid/trashrake-monitor/internal/adapter/mqtt"
	wsadapter "github.com/couchcryptid/trashrake-monitor/internal/adapter/websocket"
	"github.com/couchcryptid/trashrake-monitor/internal/alert"
	"github.com/couchcryptid/trashrake-monitor/internal/config"
	"github.com/couchcryptid/trashrake-monitor/internal/dashboard"
	"github.com/couchcryptid/trashrake-monitor/internal/domain"
	"github.com/couchcryptid/trashrake-monitor/internal/feed"
	"github.com/couchcryptid/trashrake-monitor/internal/observability"
	"github.com/couchcryptid/trashrake-monitor/internal/pipeline"
)

// seriesCacheSize covers a handful of day selections across the current
// and previous fetch.
const seriesCacheSize = 64

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	source, err := feed.NewClient(cfg.FeedURL, cfg.FetchTimeout, nil, logger)
	if err != nil {
		logger.Error("invalid feed url", "error", err)
		os.Exit(1)
	}

	// Outbound alerts are disabled by an empty WEBHOOK_URL.
	var notifier alert.Notifier
	if cfg.WebhookURL != "" {
		notifier = alert.NewWebhookClient(cfg.WebhookURL, cfg.WebhookTimeout, logger)
		logger.Info("webhook alerts enabled", "cooldown", cfg.AlertCooldown, "location", cfg.AlertLocation)
	} else {
		logger.Info("webhook alerts disabled")
	}
	dispatcher := alert.NewDispatcher(alert.Config{
		Cooldown:     cfg.AlertCooldown,
		Location:     cfg.AlertLocation,
		AudioEnabled: cfg.AudioEnabled,
	}, notifier, alert.NewBellSounder(os.Stderr), nil, logger, metrics)

	initial := dashboard.DefaultState()
	initial.Audio = cfg.AudioEnabled
	session := dashboard.NewSession(initial, dispatcher)
	overviews := dashboard.NewBuilder(seriesCacheSize)

	hub := wsadapter.NewHub(func(s domain.Snapshot) any {
		return overviews.Overview(s, session.State().SelectedDay)
	}, logger, metrics)
	publishers := []pipeline.Publisher{hub}
	var closers []io.Closer

	if len(cfg.KafkaBrokers) > 0 {
		writer := kafkaadapter.NewWriter(cfg, logger)
		publishers = append(publishers, writer)
		closers = append(closers, writer)
		logger.Info("kafka publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}
	if cfg.MQTTBroker != "" {
		mqttPub, err := mqttadapter.NewPublisher(cfg.MQTTBroker, cfg.MQTTTopic, logger)
		if err != nil {
			logger.Warn("mqtt publishing disabled", "broker", cfg.MQTTBroker, "error", err)
		} else {
			publishers = append(publishers, mqttPub)
			closers = append(closers, mqttPub)
			logger.Info("mqtt publishing enabled", "broker", cfg.MQTTBroker, "topic", cfg.MQTTTopic)
		}
	}

	p := pipeline.New(pipeline.Config{
		Interval: cfg.PollInterval,
		Attempts: cfg.FetchAttempts,
		Backoff:  cfg.FetchBackoff,
	}, source, pipeline.NewTransformer(logger), dispatcher, publishers, nil, logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, httpadapter.Deps{
		Feed:      p,
		Overviews: overviews,
		Session:   session,
		Live:      hub,
	}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go hub.Run(ctx)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start feed poller.
	pollerDone := make(chan struct{})
	go func() {
		defer close(pollerDone)
		if err := p.Run(ctx); err != nil {
			logger.Error("poller error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	select {
	case <-pollerDone:
	case <-shutdownCtx.Done():
		logger.Warn("poller did not stop before shutdown timeout")
	}
	for _, c := range closers {
		if err := c.Close(); err != nil {
			logger.Error("publisher close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
