// Command export fetches the sensor feed once, applies the log filters and
// writes the filtered rows, newest first, to a timestamped CSV file.
//
// Usage:
//
//	go run ./cmd/export -start 01-01-2024 -end 31-01-2024 -trash DETECTED -out exports/
//
// FEED_URL, POLL_INTERVAL, FETCH_TIMEOUT, FETCH_ATTEMPTS and FETCH_BACKOFF are
// read from the environment as for the monitor.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/couchcryptid/trashrake-monitor/internal/config"
	"github.com/couchcryptid/trashrake-monitor/internal/domain"
	"github.com/couchcryptid/trashrake-monitor/internal/feed"
	"github.com/couchcryptid/trashrake-monitor/internal/observability"
	"github.com/couchcryptid/trashrake-monitor/internal/pipeline"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	start := flag.String("start", "", "first day to include (DD-MM-YYYY or YYYY-MM-DD)")
	end := flag.String("end", "", "last day to include (DD-MM-YYYY or YYYY-MM-DD)")
	trash := flag.String("trash", domain.FilterAll, "trash status filter: ALL, DETECTED or NOT_DETECTED")
	level := flag.String("level", domain.FilterAll, "level filter: ALL, LOW, NORMAL or HIGH")
	outDir := flag.String("out", ".", "directory to write the export into")
	flag.Parse()

	criteria, err := domain.ParseCriteria(*start, *end, *trash, *level)
	if err != nil {
		flag.Usage()
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	parsed, err := fetch(ctx, cfg, logger, observability.NewMetrics())
	if err != nil {
		return err
	}
	log.Printf("fetched %d records (%d rows dropped)", len(parsed.History), parsed.Dropped)

	rows := domain.Filter(parsed.History, criteria)
	if len(rows) == 0 {
		return errors.New("no records match the filter; nothing exported")
	}

	path := filepath.Join(*outDir, domain.ExportFilename())
	if err := writeFile(path, rows); err != nil {
		return err
	}
	log.Printf("wrote %d records to %s", len(rows), path)
	return nil
}

// fetch runs one pipeline cycle against the feed. Retries and backoff follow
// the monitor's settings, with the delay capped at the poll interval.
func fetch(ctx context.Context, cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) (domain.ParseResult, error) {
	client, err := feed.NewClient(cfg.FeedURL, cfg.FetchTimeout, nil, logger)
	if err != nil {
		return domain.ParseResult{}, err
	}
	p := pipeline.New(pipeline.Config{
		Interval: cfg.PollInterval,
		Attempts: cfg.FetchAttempts,
		Backoff:  cfg.FetchBackoff,
	}, client, pipeline.NewTransformer(logger), nil, nil, nil, logger, metrics)

	res := p.Cycle(ctx)
	if res.Outcome != pipeline.OutcomeAccepted {
		return domain.ParseResult{}, fmt.Errorf("fetch feed after %d attempts: %w", res.Attempts, res.Err)
	}
	return domain.ParseResult{History: p.History(), Dropped: res.Dropped}, nil
}

func writeFile(path string, rows domain.History) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()
	if err := domain.WriteExport(f, rows); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
