// Package ratelimit implements the rate-limit retry policy applied to every
// paginated HTTP exchange. Remote 403/429 responses are retried after the
// delay advertised in the Retry-After header; all other outcomes pass
// through untouched for the caller to classify.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"threadvault/pkg/logging"
)

// Prometheus metrics for rate limit handling.
var (
	rateLimitedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "threadvault_rate_limited_total",
		Help: "Total rate-limited responses by API domain",
	}, []string{"domain"})

	retryExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "threadvault_retry_exhausted_total",
		Help: "Total streams that exhausted the rate-limit retry budget by API domain",
	}, []string{"domain"})

	retryDelaySeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "threadvault_retry_delay_seconds",
		Help:    "Delay before rate-limit retries by API domain",
		Buckets: []float64{1, 5, 15, 30, 60, 120},
	}, []string{"domain"})
)

const (
	// MaxRetries is the number of retries granted per exchange after the
	// initial attempt. The sixth rate-limited response is terminal.
	MaxRetries = 5

	// DefaultRetryDelay is used when a rate-limited response carries no
	// usable Retry-After header.
	DefaultRetryDelay = 60 * time.Second
)

// ErrRetryBudgetExhausted is returned when rate limiting persisted past
// MaxRetries for a single exchange.
var ErrRetryBudgetExhausted = errors.New("rate limit retry budget exhausted")

// IsRateLimited reports whether a status code signals rate limiting.
// YouTube reports quota exhaustion as 403, GitHub secondary limits as 403
// or 429.
func IsRateLimited(statusCode int) bool {
	return statusCode == http.StatusForbidden || statusCode == http.StatusTooManyRequests
}

// RetryDelay computes the backoff before the next attempt from a
// rate-limited response's headers. Missing or malformed Retry-After falls
// back to DefaultRetryDelay.
func RetryDelay(h http.Header) time.Duration {
	v := h.Get("Retry-After")
	if v == "" {
		return DefaultRetryDelay
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return DefaultRetryDelay
	}
	return time.Duration(secs) * time.Second
}

// Policy wraps the HTTP exchanges of one logical paginated stream.
//
// Each stream owns its policy instance, so a rate-limited issue query can
// never exhaust the retry budget of a concurrently running discussion
// query. Policies are not safe for concurrent use; streams are sequential
// by construction (page N+1 waits for page N).
type Policy struct {
	domain  string
	stream  string
	limiter *rate.Limiter
	logger  zerolog.Logger
}

// NewPolicy creates a retry policy for one paginated stream. domain names
// the API ("youtube", "github") for metrics; stream identifies the
// specific query for logging. limiter paces outgoing attempts and may be
// nil to disable pacing.
func NewPolicy(domain, stream string, limiter *rate.Limiter) *Policy {
	return &Policy{
		domain:  domain,
		stream:  stream,
		limiter: limiter,
		logger:  logging.NewLogger("ratelimit").With().Str("stream", stream).Logger(),
	}
}

// Do executes one page-fetch exchange under the policy.
//
// Transport errors are terminal immediately. Rate-limited responses are
// retried up to MaxRetries with the delay from RetryDelay; persisting past
// the budget returns ErrRetryBudgetExhausted. Every other response,
// success or not, is handed back to the caller for classification. The
// backoff sleep blocks only this stream's goroutine and aborts on context
// cancellation.
func (p *Policy) Do(ctx context.Context, exchange func() (*http.Response, error)) (*http.Response, error) {
	for attempt := 0; ; attempt++ {
		if p.limiter != nil {
			if err := p.limiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("pacing wait: %w", err)
			}
		}

		resp, err := exchange()
		if err != nil {
			p.logger.Error().Err(err).Msg("Exchange transport failure")
			return nil, err
		}

		if !IsRateLimited(resp.StatusCode) {
			return resp, nil
		}

		rateLimitedTotal.WithLabelValues(p.domain).Inc()
		delay := RetryDelay(resp.Header)
		resp.Body.Close()

		if attempt >= MaxRetries {
			retryExhaustedTotal.WithLabelValues(p.domain).Inc()
			p.logger.Warn().
				Int("retries", attempt).
				Int("status_code", resp.StatusCode).
				Msg("Rate limit persisted past retry budget")
			return nil, fmt.Errorf("%w after %d retries (status %d)", ErrRetryBudgetExhausted, attempt, resp.StatusCode)
		}

		retryDelaySeconds.WithLabelValues(p.domain).Observe(delay.Seconds())
		p.logger.Debug().
			Int("retry", attempt+1).
			Int("status_code", resp.StatusCode).
			Dur("delay", delay).
			Msg("Rate limited, backing off")

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("cancelled during rate-limit backoff: %w", ctx.Err())
		case <-time.After(delay):
		}
	}
}
