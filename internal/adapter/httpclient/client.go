package httpclient

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/vertextoedge/request-tui/internal/port"
)

// Client fetches download sources over HTTP(S)
type Client struct {
	httpClient *http.Client
	userAgent  string
}

// Ensure Client implements port.HTTPClient
var _ port.HTTPClient = (*Client)(nil)

// Config contains optional client configuration
type Config struct {
	UserAgent string
	// ResponseHeaderTimeout bounds the wait for response headers. Zero disables it.
	ResponseHeaderTimeout time.Duration
}

// New creates a new download client
func New(cfg *Config) *Client {
	if cfg == nil {
		cfg = &Config{}
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		ForceAttemptHTTP2:   true,

		// Keep Content-Length meaningful for progress and resume offsets
		DisableCompression: true,

		// Header phase only; body streaming has no deadline
		ResponseHeaderTimeout: cfg.ResponseHeaderTimeout,
	}

	return &Client{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   0,
		},
		userAgent: cfg.UserAgent,
	}
}

// Get issues a GET request with an optional Range header
func (c *Client) Get(ctx context.Context, rawURL string, rangeStart int64) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if rangeStart >= 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", rangeStart))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	return resp, nil
}
