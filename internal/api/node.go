package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/smazurov/lightnode/internal/api/models"
	"github.com/smazurov/lightnode/internal/netsup"
	"github.com/smazurov/lightnode/internal/node"
	"github.com/smazurov/lightnode/internal/settings"
	"github.com/smazurov/lightnode/internal/strip"
)

// settingsTimeout bounds how long a settings request waits for the loop,
// which is busy for the whole join window after a network restart.
const settingsTimeout = 5 * time.Second

// registerNodeRoutes registers the configuration, Wi-Fi, strip and status
// endpoints.
func (s *Server) registerNodeRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-config",
		Method:      http.MethodGet,
		Path:        "/api/config",
		Summary:     "Get Configuration",
		Description: "Get the persisted universe and network settings",
		Tags:        []string{"config"},
	}, func(ctx context.Context, _ *struct{}) (*models.ConfigResponse, error) {
		return &models.ConfigResponse{Body: configData(settings.LoadNetworkConfig(s.options.Store))}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "update-config",
		Method:      http.MethodPut,
		Path:        "/api/config",
		Summary:     "Update Configuration",
		Description: "Persist the universe and/or network mode and apply them on the node",
		Tags:        []string{"config"},
		Errors:      []int{400, 422, 500, 503},
	}, func(ctx context.Context, input *models.ConfigUpdateRequest) (*models.ConfigResponse, error) {
		var mode settings.Mode
		if input.Body.Netmode != nil {
			parsed, err := settings.ParseMode(*input.Body.Netmode)
			if err != nil {
				return nil, huma.Error400BadRequest("Invalid network mode", err)
			}
			mode = parsed
		}
		ctx, cancel := context.WithTimeout(ctx, settingsTimeout)
		defer cancel()
		cfg, err := s.options.Node.UpdateSettings(ctx, "api", func(cfg *settings.NetworkConfig) {
			if input.Body.Universe != nil {
				cfg.Universe = uint16(*input.Body.Universe)
			}
			if mode != "" {
				cfg.Mode = mode
			}
		})
		if err != nil {
			return nil, settingsError(err)
		}
		return &models.ConfigResponse{Body: configData(cfg)}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "update-wifi",
		Method:      http.MethodPut,
		Path:        "/api/wifi",
		Summary:     "Set Wi-Fi Credentials",
		Description: "Store client network credentials and switch to client mode. The network stack restarts.",
		Tags:        []string{"config"},
		Errors:      []int{422, 500, 503},
	}, func(ctx context.Context, input *models.WifiRequest) (*models.ConfigResponse, error) {
		ctx, cancel := context.WithTimeout(ctx, settingsTimeout)
		defer cancel()
		cfg, err := s.options.Node.UpdateSettings(ctx, "api", func(cfg *settings.NetworkConfig) {
			cfg.Mode = settings.ModeClient
			cfg.ClientSSID = input.Body.SSID
			cfg.ClientPassword = input.Body.Password
		})
		if err != nil {
			return nil, settingsError(err)
		}
		return &models.ConfigResponse{Body: configData(cfg)}, nil
	})

	if s.options.Scanner != nil {
		huma.Register(s.api, huma.Operation{
			OperationID: "list-wifi-networks",
			Method:      http.MethodGet,
			Path:        "/api/wifi/networks",
			Summary:     "Scan Wi-Fi Networks",
			Description: "List networks visible to the radio, strongest first",
			Tags:        []string{"config"},
			Errors:      []int{500},
		}, func(ctx context.Context, _ *struct{}) (*models.WifiNetworksResponse, error) {
			networks, err := s.options.Scanner.Scan()
			if err != nil {
				return nil, huma.Error500InternalServerError("Failed to scan networks", err)
			}
			if networks == nil {
				networks = []netsup.Network{}
			}
			return &models.WifiNetworksResponse{Body: models.WifiNetworksData{Networks: networks}}, nil
		})
	}

	huma.Register(s.api, huma.Operation{
		OperationID: "strip-test",
		Method:      http.MethodPost,
		Path:        "/api/strip/test",
		Summary:     "Strip Test Pattern",
		Description: "Fill the whole strip with one color until the next Art-Net frame",
		Tags:        []string{"strip"},
		Errors:      []int{422, 503},
	}, func(ctx context.Context, input *models.StripTestRequest) (*models.AcceptedResponse, error) {
		color, err := strip.ParseColor(input.Body.Color)
		if err != nil {
			return nil, huma.Error422UnprocessableEntity("Unknown color", err)
		}
		if err := s.options.Node.RequestTestPattern(color, input.Body.Color); err != nil {
			return nil, queueError(err)
		}
		return &models.AcceptedResponse{Body: models.AcceptedData{Message: "Queued"}}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-status",
		Method:      http.MethodGet,
		Path:        "/api/status",
		Summary:     "Node Status",
		Description: "Get connectivity, menu and frame counters as last published by the main loop",
		Tags:        []string{"status"},
	}, func(ctx context.Context, _ *struct{}) (*models.StatusResponse, error) {
		return &models.StatusResponse{Body: s.options.Node.Snapshot()}, nil
	})
}

func settingsError(err error) error {
	switch {
	case errors.Is(err, node.ErrQueueFull):
		return queueError(err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return huma.Error503ServiceUnavailable("Node did not apply the settings in time", err)
	}
	return huma.Error500InternalServerError("Failed to save settings", err)
}

func queueError(err error) error {
	if errors.Is(err, node.ErrQueueFull) {
		return huma.Error503ServiceUnavailable("Node busy, retry shortly")
	}
	return huma.Error500InternalServerError(err.Error())
}

func configData(cfg settings.NetworkConfig) models.ConfigData {
	return models.ConfigData{
		Universe: int(cfg.Universe),
		Netmode:  string(cfg.Mode),
		SSID:     cfg.ClientSSID,
		APSSID:   cfg.APSSID,
	}
}
