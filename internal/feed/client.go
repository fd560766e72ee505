// Package feed retrieves the published CSV export of the sensor sheet.
package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"
)

// ErrStatus is returned when the feed answers with a non-2xx status.
var ErrStatus = errors.New("unexpected feed status")

// cacheBusterParam is overwritten on every request so intermediate caches
// never serve a stale export.
const cacheBusterParam = "t"

// maxBodyBytes bounds the size of one feed body.
const maxBodyBytes = 16 << 20

// Client fetches the CSV feed over HTTP.
type Client struct {
	url        *url.URL
	httpClient *http.Client
	clock      clockwork.Clock
	logger     *slog.Logger
}

// NewClient creates a feed client for rawURL. A nil clock uses the real
// clock.
func NewClient(rawURL string, timeout time.Duration, clock clockwork.Clock, logger *slog.Logger) (*Client, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse feed url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("feed url %q: scheme must be http or https", rawURL)
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Client{
		url: u,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		clock:  clock,
		logger: logger,
	}, nil
}

// Fetch returns the raw feed body as text.
func (c *Client) Fetch(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.requestURL(), nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("feed request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return "", fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("read feed body: %w", err)
	}
	c.logger.Debug("feed fetched", "bytes", len(body))
	return string(body), nil
}

func (c *Client) requestURL() string {
	u := *c.url
	q := u.Query()
	q.Set(cacheBusterParam, strconv.FormatInt(c.clock.Now().UnixMilli(), 10))
	u.RawQuery = q.Encode()
	return u.String()
}
