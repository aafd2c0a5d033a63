// Package googlebooks provides access to the Google Books volumes API for
// book search and recommendation candidate retrieval.
package googlebooks

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://www.googleapis.com/books/v1/volumes"

// Client queries the Google Books volumes endpoint. An API key is optional:
// the volumes endpoint serves unauthenticated requests at a lower quota.
type Client struct {
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	logger      *slog.Logger
	baseURL     string
	apiKey      string
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint. Used by tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a new Google Books client.
// Rate limited to 1 request per second with a small burst, well under the
// API's per-minute quota.
func NewClient(apiKey string, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		rateLimiter: rate.NewLimiter(rate.Every(time.Second), 4),
		logger:      logger,
		baseURL:     defaultBaseURL,
		apiKey:      apiKey,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// wait blocks until rate limiter allows a request.
func (c *Client) wait(ctx context.Context) error {
	return c.rateLimiter.Wait(ctx)
}
