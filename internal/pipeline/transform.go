package pipeline

import (
	"fmt"
	"log/slog"

	"github.com/couchcryptid/trashrake-monitor/internal/domain"
)

// FeedTransformer implements Transformer with the CSV record parser.
type FeedTransformer struct {
	logger *slog.Logger
}

// NewTransformer creates a FeedTransformer.
func NewTransformer(logger *slog.Logger) *FeedTransformer {
	return &FeedTransformer{logger: logger}
}

func (t *FeedTransformer) Transform(body string) (domain.ParseResult, error) {
	res, err := domain.ParseFeed(body)
	if err != nil {
		return res, fmt.Errorf("parse feed: %w", err)
	}
	if res.Dropped > 0 {
		t.logger.Debug("dropped non-data rows", "count", res.Dropped)
	}
	return res, nil
}
