package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/smazurov/lightnode/internal/api/models"
	"github.com/smazurov/lightnode/internal/events"
	"github.com/smazurov/lightnode/internal/updater"
)

// Restart reasons carried by RestartScheduledEvent.
const (
	restartUpdate   = "update"
	restartRollback = "rollback"
	restartRequest  = "request"
)

var (
	checkUpdateOp = huma.Operation{
		OperationID: "check-updates",
		Method:      http.MethodGet,
		Path:        "/api/update/check",
		Summary:     "Check for Updates",
		Description: "Look up the newest release without downloading it",
		Tags:        []string{"update"},
		Errors:      []int{409, 500},
	}
	updateStatusOp = huma.Operation{
		OperationID: "get-update-status",
		Method:      http.MethodGet,
		Path:        "/api/update/status",
		Summary:     "Get Update Status",
		Description: "Updater state, target version and rollback availability",
		Tags:        []string{"update"},
	}
	applyUpdateOp = huma.Operation{
		OperationID: "apply-update",
		Method:      http.MethodPost,
		Path:        "/api/update/apply",
		Summary:     "Apply Update",
		Description: "Install the newest release and restart. The strip goes dark until the node is back.",
		Tags:        []string{"update"},
		Errors:      []int{400, 409, 500},
	}
	rollbackUpdateOp = huma.Operation{
		OperationID: "rollback-update",
		Method:      http.MethodPost,
		Path:        "/api/update/rollback",
		Summary:     "Rollback Update",
		Description: "Restore the binary replaced by the last update and restart",
		Tags:        []string{"update"},
		Errors:      []int{404, 500},
	}
	restartNodeOp = huma.Operation{
		OperationID: "restart-node",
		Method:      http.MethodPost,
		Path:        "/api/update/restart",
		Summary:     "Restart Node",
		Description: "Restart the node process; the service manager starts it again",
		Tags:        []string{"update"},
		Errors:      []int{500},
	}
)

// registerUpdateRoutes registers the self-update endpoints. A disabled
// updater still answers every route, with 503 and the reason.
func (s *Server) registerUpdateRoutes() {
	svc := s.options.UpdateService
	if svc == nil {
		return
	}
	if !svc.IsEnabled() {
		s.registerDisabledUpdateRoutes(svc.DisabledReason())
		return
	}

	huma.Register(s.api, checkUpdateOp, func(ctx context.Context, _ *struct{}) (*models.UpdateCheckResponse, error) {
		info, err := svc.CheckForUpdate(ctx)
		if err != nil {
			return nil, mapUpdateError(err)
		}
		return &models.UpdateCheckResponse{Body: models.NewUpdateCheckData(info)}, nil
	})

	huma.Register(s.api, updateStatusOp, func(ctx context.Context, _ *struct{}) (*models.UpdateStatusResponse, error) {
		return &models.UpdateStatusResponse{Body: models.NewUpdateStatusData(svc.GetStatus(ctx))}, nil
	})

	huma.Register(s.api, applyUpdateOp, func(ctx context.Context, _ *struct{}) (*models.RestartResponse, error) {
		if err := svc.ApplyUpdate(ctx); err != nil {
			return nil, mapUpdateError(err)
		}
		target := svc.GetStatus(ctx).TargetVersion
		return s.announceRestart(restartUpdate, target, "Update applied, restarting"), nil
	})

	huma.Register(s.api, rollbackUpdateOp, func(ctx context.Context, _ *struct{}) (*models.RestartResponse, error) {
		target := svc.GetStatus(ctx).BackupVersion
		if err := svc.Rollback(ctx); err != nil {
			return nil, mapUpdateError(err)
		}
		return s.announceRestart(restartRollback, target, "Rollback complete, restarting"), nil
	})

	huma.Register(s.api, restartNodeOp, func(ctx context.Context, _ *struct{}) (*models.RestartResponse, error) {
		if err := svc.Restart(ctx); err != nil {
			return nil, huma.Error500InternalServerError("Failed to schedule restart", err)
		}
		return s.announceRestart(restartRequest, "", "Restarting"), nil
	})
}

func (s *Server) registerDisabledUpdateRoutes(reason string) {
	disabled := func(_ context.Context, _ *struct{}) (*struct{}, error) {
		return nil, huma.Error503ServiceUnavailable("Update service disabled: " + reason)
	}
	for _, op := range []huma.Operation{checkUpdateOp, updateStatusOp, applyUpdateOp, rollbackUpdateOp, restartNodeOp} {
		op.Description += " (disabled: " + reason + ")"
		op.Errors = []int{503}
		huma.Register(s.api, op, disabled)
	}
}

// announceRestart tells the service manager and the page that the node is
// going away on purpose.
func (s *Server) announceRestart(reason, target, message string) *models.RestartResponse {
	if s.options.Notifier != nil {
		s.options.Notifier.Status("Restarting: " + reason)
	}
	s.eventBus.Publish(events.RestartScheduledEvent{
		Reason:        reason,
		TargetVersion: target,
		Timestamp:     time.Now().Format(time.RFC3339),
	})
	s.logger.Info("Restart scheduled", "reason", reason, "target_version", target)
	return &models.RestartResponse{Body: models.RestartData{Message: message, Reason: reason, TargetVersion: target}}
}

// mapUpdateError converts updater errors to HTTP errors.
func mapUpdateError(err error) error {
	var updateErr *updater.Error
	if !errors.As(err, &updateErr) {
		return huma.Error500InternalServerError(err.Error())
	}
	switch updateErr.Code {
	case updater.ErrCodeInvalidState:
		return huma.Error409Conflict(updateErr.Message)
	case updater.ErrCodeNoUpdate:
		return huma.Error400BadRequest(updateErr.Message)
	case updater.ErrCodeNotFound, updater.ErrCodeNoBackup:
		return huma.Error404NotFound(updateErr.Message)
	case updater.ErrCodeDisabled:
		return huma.Error503ServiceUnavailable(updateErr.Message)
	}
	return huma.Error500InternalServerError(updateErr.Message)
}
