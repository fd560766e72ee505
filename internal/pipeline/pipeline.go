package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/storm-data-shared/retry"
	"github.com/couchcryptid/trashrake-monitor/internal/alert"
	"github.com/couchcryptid/trashrake-monitor/internal/domain"
	"github.com/couchcryptid/trashrake-monitor/internal/observability"
	"github.com/jonboulle/clockwork"
)

// Fetcher retrieves the raw feed body.
type Fetcher interface {
	Fetch(ctx context.Context) (string, error)
}

// Transformer turns a raw feed body into a record history.
type Transformer interface {
	Transform(body string) (domain.ParseResult, error)
}

// Evaluator inspects each accepted history for alarm conditions.
type Evaluator interface {
	Evaluate(ctx context.Context, h domain.History) []alert.Decision
}

// Publisher receives every accepted snapshot.
type Publisher interface {
	Name() string
	Publish(ctx context.Context, s domain.Snapshot) error
}

// defaultInterval applies when Config.Interval is unset. The interval also
// caps the retry backoff.
const defaultInterval = 30 * time.Second

// Config controls polling and retry behaviour.
type Config struct {
	Interval time.Duration
	Attempts int
	Backoff  time.Duration
}

// Outcome describes how a fetch cycle ended.
type Outcome string

const (
	OutcomeAccepted  Outcome = "accepted"
	OutcomeDiscarded Outcome = "discarded"
	OutcomeExhausted Outcome = "exhausted"
	OutcomeCanceled  Outcome = "canceled"
)

// CycleResult summarizes one fetch cycle.
type CycleResult struct {
	Generation uint64
	Outcome    Outcome
	Attempts   int
	Records    int
	Dropped    int
	Err        error
}

// Pipeline polls the feed, replaces the history on every successful fetch
// and drives alerting and publishing.
type Pipeline struct {
	fetcher     Fetcher
	transformer Transformer
	evaluator   Evaluator
	publishers  []Publisher
	cfg         Config
	clock       clockwork.Clock
	logger      *slog.Logger
	metrics     *observability.Metrics

	sleep func(ctx context.Context, d time.Duration) bool

	generation atomic.Uint64
	commitMu   sync.Mutex
	committed  uint64 // guarded by commitMu
	current    atomic.Pointer[domain.Snapshot]
	ready      atomic.Bool
	refresh    chan struct{}
}

// New creates a Pipeline. A nil evaluator disables alerting.
func New(cfg Config, f Fetcher, t Transformer, e Evaluator, publishers []Publisher, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = defaultInterval
	}
	if cfg.Attempts < 1 {
		cfg.Attempts = 1
	}
	p := &Pipeline{
		fetcher:     f,
		transformer: t,
		evaluator:   e,
		publishers:  publishers,
		cfg:         cfg,
		clock:       clock,
		logger:      logger,
		metrics:     metrics,
		refresh:     make(chan struct{}, 1),
	}
	p.sleep = func(ctx context.Context, d time.Duration) bool {
		return sleepWithContext(ctx, p.clock, d)
	}
	return p
}

// CheckReadiness returns nil once at least one fetch has been accepted.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("no feed fetch has been accepted yet")
	}
	return nil
}

// Snapshot returns the current accepted snapshot. Before the first accepted
// fetch it is the zero snapshot with an empty history.
func (p *Pipeline) Snapshot() domain.Snapshot {
	if s := p.current.Load(); s != nil {
		return *s
	}
	return domain.Snapshot{}
}

// History returns the current record history, oldest first.
func (p *Pipeline) History() domain.History {
	return p.Snapshot().History
}

// Refresh asks the running loop for an immediate cycle. It returns false
// when a refresh is already pending.
func (p *Pipeline) Refresh() bool {
	select {
	case p.refresh <- struct{}{}:
		return true
	default:
		return false
	}
}

// Run fetches once at startup and then on every interval until ctx is
// cancelled. Cycles run concurrently; Run waits for in-flight cycles
// before returning.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("poller started",
		"interval", p.cfg.Interval,
		"attempts", p.cfg.Attempts,
		"backoff", p.cfg.Backoff,
	)
	p.metrics.PollerRunning.Set(1)
	defer p.metrics.PollerRunning.Set(0)

	var wg sync.WaitGroup
	defer wg.Wait()
	start := func(trigger string) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res := p.Cycle(ctx)
			p.logger.Debug("fetch cycle finished",
				"trigger", trigger,
				"generation", res.Generation,
				"outcome", res.Outcome,
				"attempts", res.Attempts,
			)
		}()
	}

	ticker := p.clock.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	start("startup")
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("poller stopping", "reason", ctx.Err())
			return nil
		case <-ticker.Chan():
			start("interval")
		case <-p.refresh:
			start("manual")
		}
	}
}

// Cycle runs one fetch with retries and, unless a newer cycle already
// committed its result, replaces the history and notifies the evaluator and
// publishers.
func (p *Pipeline) Cycle(ctx context.Context) CycleResult {
	gen := p.generation.Add(1)
	res := CycleResult{Generation: gen}

	parsed, attempts, err := p.fetchWithRetry(ctx)
	res.Attempts = attempts
	if err != nil {
		res.Err = err
		if ctx.Err() != nil {
			res.Outcome = OutcomeCanceled
			return res
		}
		res.Outcome = OutcomeExhausted
		p.metrics.CyclesTotal.WithLabelValues(string(res.Outcome)).Inc()
		p.logger.Warn("feed fetch gave up until next interval",
			"generation", gen,
			"attempts", attempts,
			"error", err,
		)
		return res
	}
	res.Records = len(parsed.History)
	res.Dropped = parsed.Dropped

	snap, ok := p.commit(gen, parsed.History)
	if !ok {
		res.Outcome = OutcomeDiscarded
		p.metrics.CyclesTotal.WithLabelValues(string(res.Outcome)).Inc()
		p.logger.Info("discarding stale fetch", "generation", gen, "committed", p.Snapshot().Generation)
		return res
	}
	res.Outcome = OutcomeAccepted
	p.metrics.CyclesTotal.WithLabelValues(string(res.Outcome)).Inc()
	p.metrics.RowsParsed.Add(float64(len(parsed.History)))
	p.metrics.RowsDropped.Add(float64(parsed.Dropped))
	p.metrics.HistorySize.Set(float64(len(parsed.History)))

	if p.evaluator != nil {
		p.evaluator.Evaluate(ctx, snap.History)
	}
	p.publish(ctx, snap)
	return res
}

// commit swaps in the new history unless a newer generation has already
// been committed. A newer cycle that is still running or gave up does not
// block an older success.
func (p *Pipeline) commit(gen uint64, h domain.History) (domain.Snapshot, bool) {
	p.commitMu.Lock()
	defer p.commitMu.Unlock()

	if gen < p.committed {
		return domain.Snapshot{}, false
	}
	p.committed = gen
	prev := p.Snapshot()
	snap := domain.Snapshot{
		Generation: gen,
		FetchedAt:  p.clock.Now(),
		History:    h,
		New:        domain.NewSince(prev.History, h),
	}
	p.current.Store(&snap)
	p.ready.Store(true)
	return snap, true
}

func (p *Pipeline) publish(ctx context.Context, snap domain.Snapshot) {
	for _, pub := range p.publishers {
		if err := pub.Publish(ctx, snap); err != nil {
			p.metrics.PublishErrors.WithLabelValues(pub.Name()).Inc()
			p.logger.Warn("publish snapshot failed",
				"sink", pub.Name(),
				"generation", snap.Generation,
				"error", err,
			)
		}
	}
}

// fetchWithRetry makes up to cfg.Attempts attempts, doubling the delay
// between them. It returns the number of attempts made.
func (p *Pipeline) fetchWithRetry(ctx context.Context) (domain.ParseResult, int, error) {
	backoff := p.cfg.Backoff
	for attempt := 1; ; attempt++ {
		parsed, err := p.attempt(ctx)
		if err == nil {
			return parsed, attempt, nil
		}
		if ctx.Err() != nil {
			return domain.ParseResult{}, attempt, ctx.Err()
		}
		if attempt >= p.cfg.Attempts {
			return domain.ParseResult{}, attempt, err
		}
		p.logger.Warn("feed fetch failed, retrying",
			"attempt", attempt,
			"backoff", backoff,
			"error", err,
		)
		if !p.sleep(ctx, backoff) {
			return domain.ParseResult{}, attempt, ctx.Err()
		}
		backoff = retry.NextBackoff(backoff, p.cfg.Interval)
	}
}

func (p *Pipeline) attempt(ctx context.Context) (domain.ParseResult, error) {
	start := p.clock.Now()
	defer func() {
		p.metrics.FetchDuration.Observe(p.clock.Since(start).Seconds())
	}()

	body, err := p.fetcher.Fetch(ctx)
	if err != nil {
		p.metrics.FetchAttempts.WithLabelValues("error").Inc()
		return domain.ParseResult{}, err
	}
	parsed, err := p.transformer.Transform(body)
	if err != nil {
		p.metrics.FetchAttempts.WithLabelValues("error").Inc()
		return domain.ParseResult{}, err
	}
	p.metrics.FetchAttempts.WithLabelValues("success").Inc()
	return parsed, nil
}

func sleepWithContext(ctx context.Context, clock clockwork.Clock, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.Chan():
		return true
	}
}
