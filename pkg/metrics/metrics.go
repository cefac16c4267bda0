// Package metrics provides the centralized Prometheus metrics registry for
// threadvault. All metrics are defined in their respective packages
// (client, cache, ratelimit, aggregate, archive) to maintain modularity
// and avoid circular dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by threadvault.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - threadvault_requests_total{domain, status} (Counter): Total API requests by domain and HTTP status
//   - threadvault_request_duration_seconds{domain} (Histogram): Request duration by domain
//
// Retry Metrics (pkg/ratelimit):
//   - threadvault_rate_limited_total{domain} (Counter): Rate-limited responses by domain
//   - threadvault_retry_exhausted_total{domain} (Counter): Streams that exhausted the retry budget
//   - threadvault_retry_delay_seconds{domain} (Histogram): Backoff delay before retries
//
// Cache Metrics (pkg/cache):
//   - threadvault_cache_hits_total (Counter): Response cache hits
//   - threadvault_cache_misses_total (Counter): Response cache misses
//   - threadvault_cache_errors_total{operation} (Counter): Cache operation errors
//
// Merge Metrics (pkg/aggregate):
//   - threadvault_entities_merged_total{kind} (Counter): Entities accepted into the collection by source kind
//   - threadvault_entities_dropped_total{reason} (Counter): Entities dropped during merge (failed, duplicate)
//
// Run Metrics (pkg/archive):
//   - threadvault_runs_total{outcome} (Counter): Archive runs by outcome (completed, invalid_input)
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(threadvault_cache_hits_total[5m])) /
//   (sum(rate(threadvault_cache_hits_total[5m])) + sum(rate(threadvault_cache_misses_total[5m])))
//
//   # Rate-Limit Pressure by Domain
//   rate(threadvault_rate_limited_total[5m])
//
//   # Dedup Ratio
//   rate(threadvault_entities_dropped_total{reason="duplicate"}[5m]) /
//   rate(threadvault_entities_merged_total[5m])
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(threadvault_request_duration_seconds_bucket[5m]))
