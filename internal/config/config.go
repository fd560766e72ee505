package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

const (
	defaultFeedURL    = "https://docs.google.com/spreadsheets/d/e/2PACX-1vQd963Q6VuLwBc2ZY5Ll_37AbrH0dbemKBEH4SNWtR1jHkWYARbf9jPvGuBzjtwT8kbJZUEk5TPWZBh/pub?output=csv"
	defaultWebhookURL = "https://hook.eu1.make.com/ctn37dg9urwlnn3y5c8hqie9ddwbq1g1"
	defaultLocation   = "Taman Sri Rambai Node #001"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Feed polling.
	FeedURL       string
	PollInterval  time.Duration
	FetchTimeout  time.Duration
	FetchAttempts int
	FetchBackoff  time.Duration

	// Alerting. An empty WebhookURL disables outbound notifications.
	WebhookURL     string
	WebhookTimeout time.Duration
	AlertCooldown  time.Duration
	AlertLocation  string
	AudioEnabled   bool

	// Optional downstream publishers, disabled when the broker is empty.
	KafkaBrokers []string
	KafkaTopic   string
	MQTTBroker   string
	MQTTTopic    string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	pollInterval, err := parsePositiveDuration("POLL_INTERVAL", "30s")
	if err != nil {
		return nil, err
	}
	fetchTimeout, err := parsePositiveDuration("FETCH_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	fetchBackoff, err := parsePositiveDuration("FETCH_BACKOFF", "1s")
	if err != nil {
		return nil, err
	}
	webhookTimeout, err := parsePositiveDuration("WEBHOOK_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}
	alertCooldown, err := parsePositiveDuration("ALERT_COOLDOWN", "5m")
	if err != nil {
		return nil, err
	}
	fetchAttempts, err := parsePositiveInt("FETCH_ATTEMPTS", 5)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		FeedURL:       sharedcfg.EnvOrDefault("FEED_URL", defaultFeedURL),
		PollInterval:  pollInterval,
		FetchTimeout:  fetchTimeout,
		FetchAttempts: fetchAttempts,
		FetchBackoff:  fetchBackoff,

		WebhookURL:     envOrDefaultAllowEmpty("WEBHOOK_URL", defaultWebhookURL),
		WebhookTimeout: webhookTimeout,
		AlertCooldown:  alertCooldown,
		AlertLocation:  sharedcfg.EnvOrDefault("ALERT_LOCATION", defaultLocation),
		AudioEnabled:   os.Getenv("AUDIO_ENABLED") == "true",

		KafkaTopic: sharedcfg.EnvOrDefault("KAFKA_TOPIC", "trashrake-readings"),
		MQTTBroker: os.Getenv("MQTT_BROKER"),
		MQTTTopic:  sharedcfg.EnvOrDefault("MQTT_TOPIC", "trashrake/node-001/latest"),
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = sharedcfg.ParseBrokers(brokers)
	}

	if cfg.FeedURL == "" {
		return nil, errors.New("FEED_URL is required")
	}
	if len(cfg.KafkaBrokers) > 0 && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}
	if cfg.MQTTBroker != "" && cfg.MQTTTopic == "" {
		return nil, errors.New("MQTT_TOPIC is required when MQTT_BROKER is set")
	}

	return cfg, nil
}

func parsePositiveDuration(name, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(name, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return d, nil
}

func parsePositiveInt(name string, def int) (int, error) {
	s := os.Getenv(name)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return n, nil
}

// envOrDefaultAllowEmpty distinguishes an unset variable from one explicitly
// set to "", which disables the feature.
func envOrDefaultAllowEmpty(name, def string) string {
	if v, ok := os.LookupEnv(name); ok {
		return v
	}
	return def
}
