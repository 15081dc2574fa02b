package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"

	"github.com/smazurov/lightnode/internal/events"
)

// registerSSERoutes registers the native Huma SSE endpoint.
func (s *Server) registerSSERoutes() {
	sse.Register(s.api, huma.Operation{
		OperationID: "events-stream",
		Method:      http.MethodGet,
		Path:        "/api/events",
		Summary:     "Server-Sent Events Stream",
		Description: "Real-time stream of connectivity, menu, universe and settings changes and scheduled restarts",
		Tags:        []string{"events"},
	}, map[string]any{
		"connection-changed": events.ConnectionChangedEvent{},
		"input-changed":      events.InputChangedEvent{},
		"universe-committed": events.UniverseCommittedEvent{},
		"settings-changed":   events.SettingsChangedEvent{},
		"strip-test":         events.StripTestEvent{},
		"restart-scheduled":  events.RestartScheduledEvent{},
	}, func(ctx context.Context, _ *struct{}, send sse.Sender) {
		eventCh := make(chan any, 10)

		unsubscribers := []func(){
			events.SubscribeToChannel[events.ConnectionChangedEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.InputChangedEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.UniverseCommittedEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.SettingsChangedEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.StripTestEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.RestartScheduledEvent](s.eventBus, eventCh),
		}
		defer func() {
			for _, unsub := range unsubscribers {
				unsub()
			}
		}()

		// Start every client from the current connection state.
		snap := s.options.Node.Snapshot()
		if err := send.Data(events.ConnectionChangedEvent{
			State:     snap.Network.State,
			Mode:      string(snap.Network.Mode),
			IP:        snap.Network.IP,
			SSID:      snap.Network.SSID,
			RSSI:      snap.Network.RSSI,
			Timestamp: time.Now().Format(time.RFC3339),
		}); err != nil {
			return
		}

		for {
			select {
			case <-ctx.Done():
				return
			case event := <-eventCh:
				if err := send.Data(event); err != nil {
					return
				}
			}
		}
	})
}
