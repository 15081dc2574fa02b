package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	connectionState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "lightnode",
		Subsystem: "network",
		Name:      "connection_state",
		Help:      "1 for the current connection state, 0 otherwise",
	}, []string{"state"})

	signalStrength = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "lightnode",
		Subsystem: "network",
		Name:      "rssi_dbm",
		Help:      "Last sampled Wi-Fi signal strength",
	})

	joinAttempts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "lightnode",
		Subsystem: "network",
		Name:      "join_attempts_total",
		Help:      "Client-mode join attempts started",
	})

	universeCommits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lightnode",
		Subsystem: "input",
		Name:      "universe_commits_total",
		Help:      "Universe changes persisted, by source",
	}, []string{"source"})
)

// SetConnectionState marks state as the only active connection state.
func SetConnectionState(state string, all []string) {
	for _, s := range all {
		connectionState.WithLabelValues(s).Set(0)
	}
	connectionState.WithLabelValues(state).Set(1)
}

// SetRSSI records the last signal strength sample.
func SetRSSI(dbm int) {
	signalStrength.Set(float64(dbm))
}

// IncJoinAttempts counts a join attempt.
func IncJoinAttempts() {
	joinAttempts.Inc()
}

// IncUniverseCommits counts a persisted universe change.
func IncUniverseCommits(source string) {
	universeCommits.WithLabelValues(source).Inc()
}
