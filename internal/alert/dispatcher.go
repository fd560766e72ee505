package alert

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/couchcryptid/trashrake-monitor/internal/domain"
	"github.com/couchcryptid/trashrake-monitor/internal/observability"
	"github.com/jonboulle/clockwork"
)

// Config holds the dispatcher settings.
type Config struct {
	Cooldown     time.Duration
	Location     string
	AudioEnabled bool
}

// Outcome describes what happened to one trigger.
type Outcome string

const (
	OutcomeSent       Outcome = "sent"
	OutcomeSuppressed Outcome = "suppressed"
	OutcomeFailed     Outcome = "failed"
	OutcomeDisabled   Outcome = "disabled"
)

// Decision records one active trigger and how it was handled.
type Decision struct {
	Event   Event
	Sounded bool
	Outcome Outcome
}

// Dispatcher checks the newest record after each fetch. It owns the only
// state that survives between cycles: the time of the last outbound send.
type Dispatcher struct {
	notifier Notifier
	sounder  Sounder
	clock    clockwork.Clock
	cfg      Config
	logger   *slog.Logger
	metrics  *observability.Metrics

	mu              sync.Mutex
	lastSent        time.Time
	audioEnabled    bool
	audioAuthorized bool
}

// NewDispatcher creates a Dispatcher. A nil notifier disables outbound
// notifications and a nil sounder disables the audible alarm. Enabling audio
// through the config counts as the operator authorizing playback.
func NewDispatcher(cfg Config, notifier Notifier, sounder Sounder, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Dispatcher {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Dispatcher{
		notifier:        notifier,
		sounder:         sounder,
		clock:           clock,
		cfg:             cfg,
		logger:          logger,
		metrics:         metrics,
		audioEnabled:    cfg.AudioEnabled,
		audioAuthorized: cfg.AudioEnabled,
	}
}

// SetAudio toggles the audible alarm. Turning it on also authorizes playback
// for the rest of the process lifetime.
func (d *Dispatcher) SetAudio(enabled bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.audioEnabled = enabled
	if enabled {
		d.audioAuthorized = true
	}
}

// AudioEnabled reports the current audio preference.
func (d *Dispatcher) AudioEnabled() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.audioEnabled
}

// LastSent returns when the last outbound notification was issued, or the
// zero time if none has been.
func (d *Dispatcher) LastSent() time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastSent
}

// Evaluate checks the newest record of h against both alarm conditions.
// Historical records are never inspected. Failures are logged and never
// returned: alerting is a side effect of a fetch cycle, not part of it.
func (d *Dispatcher) Evaluate(ctx context.Context, h domain.History) []Decision {
	latest, ok := h.Latest()
	if !ok {
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	var decisions []Decision
	if latest.Distance >= domain.DetectionThreshold {
		decisions = append(decisions, d.fire(ctx, trashNotification(latest, d.clock.Now(), d.cfg.Location)))
	}
	if latest.Level == domain.LevelHigh {
		decisions = append(decisions, d.fire(ctx, highWaterNotification(latest, d.clock.Now(), d.cfg.Location)))
	}
	return decisions
}

// fire must be called with d.mu held.
func (d *Dispatcher) fire(ctx context.Context, n Notification) Decision {
	dec := Decision{Event: n.Event, Sounded: d.sound()}
	dec.Outcome = d.send(ctx, n)
	d.metrics.AlertsTotal.WithLabelValues(string(n.Event), string(dec.Outcome)).Inc()
	return dec
}

func (d *Dispatcher) sound() bool {
	if d.sounder == nil || !d.audioEnabled || !d.audioAuthorized {
		return false
	}
	if err := d.sounder.Sound(); err != nil {
		d.logger.Debug("audible alarm failed", "error", err)
		return false
	}
	d.metrics.SoundsPlayed.Inc()
	return true
}

func (d *Dispatcher) send(ctx context.Context, n Notification) Outcome {
	if d.notifier == nil {
		return OutcomeDisabled
	}
	now := d.clock.Now()
	if !d.lastSent.IsZero() && now.Sub(d.lastSent) <= d.cfg.Cooldown {
		d.logger.Debug("alert suppressed by cooldown",
			"event", n.Event,
			"last_sent", d.lastSent,
			"cooldown", d.cfg.Cooldown,
		)
		return OutcomeSuppressed
	}

	if err := d.notifier.Notify(ctx, n); err != nil {
		d.logger.Warn("outbound alert failed", "event", n.Event, "error", err)
		return OutcomeFailed
	}
	d.lastSent = now
	d.logger.Info("outbound alert sent", "event", n.Event, "location", n.Location)
	return OutcomeSent
}
