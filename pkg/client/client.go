// Package client provides the shared HTTP exchange layer used by both API
// bindings: request construction, rate-limit retry via per-stream
// policies, optional response caching, and request metrics.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"threadvault/pkg/cache"
	"threadvault/pkg/logging"
	"threadvault/pkg/ratelimit"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "threadvault_requests_total",
		Help: "Total API requests by domain and status",
	}, []string{"domain", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "threadvault_request_duration_seconds",
		Help:    "API request duration in seconds by domain",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"domain"})
)

// Config holds the exchange layer configuration.
type Config struct {
	// HTTPClient overrides the default client (used by tests).
	HTTPClient *http.Client

	// Cache is the optional Redis response cache. Nil disables caching.
	Cache *cache.Manager

	// RequestsPerSecond paces outgoing requests. Zero disables pacing.
	RequestsPerSecond float64

	// UserAgent sent with every request.
	UserAgent string
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig() Config {
	return Config{
		RequestsPerSecond: 5,
		UserAgent:         "threadvault/0.1.0",
	}
}

// Client executes HTTP exchanges for the engine. The underlying transport
// is shared read-only and safe for concurrent use; each paginated stream
// carries its own retry policy.
type Client struct {
	httpClient *http.Client
	cache      *cache.Manager
	limiter    *rate.Limiter
	userAgent  string
	logger     zerolog.Logger
}

// New creates an exchange client.
func New(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = DefaultConfig().UserAgent
	}

	return &Client{
		httpClient: httpClient,
		cache:      cfg.Cache,
		limiter:    limiter,
		userAgent:  userAgent,
		logger:     logging.NewLogger("client"),
	}
}

// NewPolicy creates the retry policy for one paginated stream, wired to
// the client's shared pacing limiter.
func (c *Client) NewPolicy(domain, stream string) *ratelimit.Policy {
	return ratelimit.NewPolicy(domain, stream, c.limiter)
}

// GetJSON performs a GET exchange under the stream's policy and returns
// the response body. Successful bodies are served from and stored into the
// response cache when one is configured; cache failures degrade to a
// direct fetch.
func (c *Client) GetJSON(ctx context.Context, p *ratelimit.Policy, domain, url string, header http.Header) ([]byte, error) {
	if c.cache != nil {
		entry, err := c.cache.Get(ctx, url)
		if err == nil {
			c.logger.Debug().Str("domain", domain).Msg("Response cache hit")
			return entry.Body, nil
		}
		if err != cache.ErrCacheMiss {
			c.logger.Warn().Err(err).Str("domain", domain).Msg("Cache get error, fetching directly")
		}
	}

	body, err := c.exchange(ctx, p, domain, http.MethodGet, url, header, nil)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		entry := &cache.Entry{Body: body, StatusCode: http.StatusOK, FetchedAt: time.Now()}
		if err := c.cache.Set(ctx, url, entry); err != nil {
			c.logger.Warn().Err(err).Str("domain", domain).Msg("Failed to cache response")
		}
	}

	return body, nil
}

// PostJSON performs a POST exchange with a JSON payload under the stream's
// policy and returns the response body. Never cached.
func (c *Client) PostJSON(ctx context.Context, p *ratelimit.Policy, domain, url string, header http.Header, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request payload: %w", err)
	}
	return c.exchange(ctx, p, domain, http.MethodPost, url, header, data)
}

func (c *Client) exchange(ctx context.Context, p *ratelimit.Policy, domain, method, url string, header http.Header, payload []byte) ([]byte, error) {
	start := time.Now()
	defer func() {
		requestDuration.WithLabelValues(domain).Observe(time.Since(start).Seconds())
	}()

	resp, err := p.Do(ctx, func() (*http.Response, error) {
		var body io.Reader
		if payload != nil {
			body = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, body)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		for k, vs := range header {
			for _, v := range vs {
				req.Header.Set(k, v)
			}
		}
		return c.httpClient.Do(req)
	})
	if err != nil {
		requestsTotal.WithLabelValues(domain, "error").Inc()
		return nil, err
	}
	defer resp.Body.Close()

	requestsTotal.WithLabelValues(domain, fmt.Sprintf("%d", resp.StatusCode)).Inc()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Warn().
			Str("domain", domain).
			Int("status_code", resp.StatusCode).
			Msg("Remote rejected request")
		return nil, &StatusError{StatusCode: resp.StatusCode, URL: url, Body: string(bytes.TrimSpace(snippet))}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return body, nil
}
