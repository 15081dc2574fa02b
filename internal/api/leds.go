package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/smazurov/lightnode/internal/api/models"
	"github.com/smazurov/lightnode/internal/led"
)

// registerLEDRoutes registers the status LED endpoints. The LED belongs to
// the LED manager; clients can only read it or ask for an identify blink.
func (s *Server) registerLEDRoutes() {
	if s.options.StatusLED == nil {
		s.logger.Debug("Status LED not enabled, skipping LED routes")
		return
	}

	huma.Register(s.api, huma.Operation{
		OperationID: "get-status-led",
		Method:      http.MethodGet,
		Path:        "/api/leds/status",
		Summary:     "Status LED",
		Description: "What the status LED shows and which connection state it follows",
		Tags:        []string{"leds"},
	}, func(ctx context.Context, _ *struct{}) (*models.LEDStatusResponse, error) {
		return &models.LEDStatusResponse{Body: s.options.StatusLED.Status()}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "identify-node",
		Method:      http.MethodPost,
		Path:        "/api/leds/identify",
		Summary:     "Identify Node",
		Description: "Blink the status LED for a while to find this node in a rig",
		Tags:        []string{"leds"},
		Errors:      []int{422, 500},
	}, func(ctx context.Context, input *models.IdentifyRequest) (*models.LEDStatusResponse, error) {
		d := time.Duration(input.Body.Seconds) * time.Second
		if err := s.options.StatusLED.Identify(d); err != nil {
			if errors.Is(err, led.ErrIdentifyDuration) {
				return nil, huma.Error422UnprocessableEntity("Identify duration out of range", err)
			}
			return nil, huma.Error500InternalServerError("Failed to drive status LED", err)
		}
		return &models.LEDStatusResponse{Body: s.options.StatusLED.Status()}, nil
	})

	s.logger.Info("LED routes registered")
}
