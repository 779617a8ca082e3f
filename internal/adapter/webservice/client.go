// Package webservice reads time series from a remote WaterOneFlow-style web service
// that serves WaterML documents.
package webservice

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/hydro-tsproc/internal/observability"
	"golang.org/x/time/rate"
)

// maxDocumentSize bounds a single response body.
const maxDocumentSize = 64 << 20

// ErrDocumentTooLarge is returned when a response body exceeds the document limit.
var ErrDocumentTooLarge = errors.New("document exceeds size limit")

// Fetcher retrieves a document by URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Client fetches documents over HTTP, waiting on a shared rate limiter before each
// request.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	metrics    *observability.Metrics
	logger     *slog.Logger
	maxBytes   int64
}

// NewClient creates an HTTP fetcher allowing requestsPerSecond with a burst of one.
func NewClient(timeout time.Duration, requestsPerSecond float64, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
		metrics:    metrics,
		logger:     logger,
		maxBytes:   maxDocumentSize,
	}
}

// Fetch GETs url and returns the body on HTTP 200.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/xml, text/xml")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.WebServiceDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.WebServiceRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("web service request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.metrics.WebServiceRequests.WithLabelValues("error").Inc()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("web service error: status %d: %s", resp.StatusCode, body)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes+1))
	if err != nil {
		c.metrics.WebServiceRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("read response: %w", err)
	}
	if int64(len(body)) > c.maxBytes {
		c.metrics.WebServiceRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("read response from %s: %w (%d bytes)", url, ErrDocumentTooLarge, c.maxBytes)
	}
	if len(body) == 0 {
		c.metrics.WebServiceRequests.WithLabelValues("empty").Inc()
	} else {
		c.metrics.WebServiceRequests.WithLabelValues("success").Inc()
	}
	c.logger.Debug("web service document fetched", "url", url, "bytes", len(body), "duration", time.Since(start))
	return body, nil
}
