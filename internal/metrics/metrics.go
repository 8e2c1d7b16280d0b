// Package metrics exposes Prometheus instrumentation for the ledger.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTPRequests counts API requests by method, route pattern, and status.
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "molten_http_requests_total",
			Help: "Total HTTP requests served",
		},
		[]string{"method", "status"},
	)

	// HTTPDuration observes request latency.
	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "molten_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	// LedgerMutations counts quantity mutations by operation.
	LedgerMutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "molten_ledger_mutations_total",
			Help: "Location ledger mutations by operation (add, subtract, move, set)",
		},
		[]string{"operation"},
	)

	// ShoppingListsGenerated counts replenishment runs.
	ShoppingListsGenerated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "molten_shopping_lists_generated_total",
			Help: "Shopping list generations",
		},
	)
)

// Handler returns the Prometheus scrape endpoint handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
