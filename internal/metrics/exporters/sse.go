package exporters

import (
	"context"
	"sync"
	"time"

	"github.com/smazurov/lightnode/internal/events"
	"github.com/smazurov/lightnode/internal/metrics"
)

// EventPublisher interface for publishing events.
type EventPublisher interface {
	Publish(ev events.Event)
}

// SSEExporter samples the frame path counters and publishes them on the
// event bus for the metrics stream.
type SSEExporter struct {
	eventBus EventPublisher
	interval time.Duration
	last     metrics.LightingStats
	lastAt   time.Time
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewSSEExporter creates an exporter publishing once per second.
func NewSSEExporter(eventBus EventPublisher) *SSEExporter {
	return &SSEExporter{
		eventBus: eventBus,
		interval: time.Second,
	}
}

// Start begins the export loop.
func (s *SSEExporter) Start(ctx context.Context) {
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.last = metrics.Lighting()
	s.lastAt = time.Now()
	s.wg.Add(1)
	go s.run()
}

// Stop stops the exporter and waits for the goroutine to finish.
func (s *SSEExporter) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

func (s *SSEExporter) run() {
	defer s.wg.Done()
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case now := <-ticker.C:
			s.publish(now)
		}
	}
}

func (s *SSEExporter) publish(now time.Time) {
	stats := metrics.Lighting()
	rate := 0.0
	if elapsed := now.Sub(s.lastAt).Seconds(); elapsed > 0 {
		rate = float64(stats.FramesApplied-s.last.FramesApplied) / elapsed
	}
	s.last, s.lastAt = stats, now

	s.eventBus.Publish(events.LightingMetricsEvent{
		FramesApplied: stats.FramesApplied,
		FramesIgnored: stats.FramesIgnored,
		DecodeErrors:  stats.DecodeErrors,
		FramesDropped: stats.FramesDropped,
		PresentErrors: stats.PresentErrors,
		FrameRate:     rate,
		Timestamp:     now.Format(time.RFC3339),
	})
}

// GetEventTypes returns the SSE event names this exporter produces.
func GetEventTypes() map[string]any {
	return map[string]any{
		"lighting-metrics": events.LightingMetricsEvent{},
	}
}
