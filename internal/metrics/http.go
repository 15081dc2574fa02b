package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "lightnode",
	Subsystem: "http",
	Name:      "requests_total",
	Help:      "API requests, by operation and status code",
}, []string{"operation", "code"})

// ObserveHTTPRequest counts one finished API request.
func ObserveHTTPRequest(operation string, status int) {
	httpRequests.WithLabelValues(operation, strconv.Itoa(status)).Inc()
}
