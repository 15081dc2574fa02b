package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/smazurov/lightnode/internal/api/models"
)

func (s *Server) registerSystemdRoutes() {
	if s.options.SystemdManager == nil || s.options.NetworkService == "" {
		return
	}

	serviceName := s.options.NetworkService

	huma.Register(s.api, huma.Operation{
		OperationID: "get-network-service-status",
		Method:      http.MethodGet,
		Path:        "/api/system/network",
		Summary:     "Network Service Status",
		Description: "Get the systemd state of the host network service",
		Tags:        []string{"systemd"},
		Errors:      []int{500},
	}, func(ctx context.Context, _ *struct{}) (*models.SystemdServiceStatusResponse, error) {
		status, err := s.options.SystemdManager.GetServiceStatus(ctx, serviceName)
		if err != nil {
			return nil, huma.Error500InternalServerError("Failed to get service status", err)
		}
		return &models.SystemdServiceStatusResponse{
			Body: models.SystemdServiceStatus{
				Service: serviceName,
				Status:  status,
			},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "restart-network-service",
		Method:      http.MethodPost,
		Path:        "/api/system/network/restart",
		Summary:     "Restart Network Service",
		Description: "Restart the host network service. The node rejoins on its next link check.",
		Tags:        []string{"systemd"},
		Errors:      []int{500},
	}, func(ctx context.Context, _ *struct{}) (*models.SystemdServiceActionResponse, error) {
		if err := s.options.SystemdManager.RestartService(ctx, serviceName); err != nil {
			return nil, huma.Error500InternalServerError("Failed to restart service", err)
		}
		return &models.SystemdServiceActionResponse{
			Body: models.SystemdServiceAction{
				Service: serviceName,
				Action:  "restart",
				Success: true,
			},
		}, nil
	})
}
