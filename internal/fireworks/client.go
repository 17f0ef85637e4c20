package fireworks

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"fwtonight/internal/metrics"
)

const (
	DefaultBaseURL = "https://fireworks-tonight.au/api/v1/"
	DefaultTimeout = 10 * time.Second
)

// Client owns the pooled HTTP connection used for all upstream calls. The
// underlying *http.Client is created on first use and released by Close;
// a closed Client transparently re-acquires one on the next call.
type Client struct {
	baseURL   string
	timeout   time.Duration
	userAgent string
	metrics   *metrics.Metrics
	newHTTP   func() *http.Client

	mu   sync.Mutex
	http *http.Client
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		c.userAgent = ua
	}
}

func WithMetrics(m *metrics.Metrics) ClientOption {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithHTTPClientFactory replaces the constructor used when the connection
// pool is (re)acquired.
func WithHTTPClientFactory(fn func() *http.Client) ClientOption {
	return func(c *Client) {
		if fn != nil {
			c.newHTTP = fn
		}
	}
}

// NewClient creates a client for the upstream API rooted at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/") + "/",
		timeout: DefaultTimeout,
		newHTTP: newPooledHTTPClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func newPooledHTTPClient() *http.Client {
	tr := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 60 * time.Second}).DialContext,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}
	return &http.Client{Transport: tr}
}

// Metrics returns the metrics sink configured for this client (may be nil).
func (c *Client) Metrics() *metrics.Metrics {
	return c.metrics
}

func (c *Client) httpClient() *http.Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.http == nil {
		c.http = c.newHTTP()
	}
	return c.http
}

// Acquired reports whether a connection pool is currently held.
func (c *Client) Acquired() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.http != nil
}

// Close releases the pooled connections. It is safe to call more than once.
func (c *Client) Close() error {
	c.mu.Lock()
	hc := c.http
	c.http = nil
	c.mu.Unlock()

	if hc != nil {
		hc.CloseIdleConnections()
	}
	return nil
}

// getJSON issues GET <base><path>?<query> under its own timeout and decodes
// a JSON body into out. Any transport failure, non-2xx status or bad body is
// returned as *Error.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return NewTransportError("failed to build request for "+path, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	start := time.Now()
	resp, err := c.httpClient().Do(req)
	if err != nil {
		c.metrics.ObserveUpstream(path, "transport", time.Since(start))
		return NewTransportError("request to "+path+" failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		c.metrics.ObserveUpstream(path, "status", time.Since(start))
		return NewUpstreamStatusError(path+" returned non-success status", fmt.Errorf("http %d", resp.StatusCode))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.metrics.ObserveUpstream(path, "decode", time.Since(start))
		return NewDecodeError("failed to decode "+path+" response", err)
	}

	c.metrics.ObserveUpstream(path, "ok", time.Since(start))
	return nil
}
