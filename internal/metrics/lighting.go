// Package metrics provides Prometheus metrics for the lighting node.
package metrics

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	framesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lightnode",
		Subsystem: "artnet",
		Name:      "frames_total",
		Help:      "ArtDmx frames handed to the ingestor, by outcome",
	}, []string{"result"})

	decodeErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "lightnode",
		Subsystem: "artnet",
		Name:      "decode_errors_total",
		Help:      "Datagrams dropped because they could not be decoded",
	})

	framesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "lightnode",
		Subsystem: "artnet",
		Name:      "frames_dropped_total",
		Help:      "Frames dropped because the loop had not consumed the previous ones",
	})

	stripPresents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lightnode",
		Subsystem: "strip",
		Name:      "presents_total",
		Help:      "Strip presents, by outcome",
	}, []string{"result"})

	// Local copies for the status endpoint and the metrics stream.
	appliedCount  atomic.Uint64
	ignoredCount  atomic.Uint64
	decodeCount   atomic.Uint64
	droppedCount  atomic.Uint64
	presentErrors atomic.Uint64
)

// LightingStats is a point-in-time copy of the frame path counters.
type LightingStats struct {
	FramesApplied uint64
	FramesIgnored uint64
	DecodeErrors  uint64
	FramesDropped uint64
	PresentErrors uint64
}

// Lighting returns the frame path counters since start.
func Lighting() LightingStats {
	return LightingStats{
		FramesApplied: appliedCount.Load(),
		FramesIgnored: ignoredCount.Load(),
		DecodeErrors:  decodeCount.Load(),
		FramesDropped: droppedCount.Load(),
		PresentErrors: presentErrors.Load(),
	}
}

// ObserveFrame records a frame that was applied to the strip or ignored
// because it addressed another universe.
func ObserveFrame(applied bool) {
	if applied {
		framesTotal.WithLabelValues("applied").Inc()
		appliedCount.Add(1)
		return
	}
	framesTotal.WithLabelValues("ignored").Inc()
	ignoredCount.Add(1)
}

// FramesApplied returns the number of applied frames since start.
func FramesApplied() uint64 {
	return appliedCount.Load()
}

// IncDecodeErrors counts a malformed datagram.
func IncDecodeErrors() {
	decodeErrors.Inc()
	decodeCount.Add(1)
}

// IncFramesDropped counts a frame lost to a full queue.
func IncFramesDropped() {
	framesDropped.Inc()
	droppedCount.Add(1)
}

// ObservePresent records the outcome of a strip present.
func ObservePresent(err error) {
	if err != nil {
		stripPresents.WithLabelValues("error").Inc()
		presentErrors.Add(1)
		return
	}
	stripPresents.WithLabelValues("ok").Inc()
}
