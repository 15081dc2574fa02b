package models

import (
	"time"

	"github.com/smazurov/lightnode/internal/updater"
)

// UpdateCheckData describes the newest release against the running binary.
type UpdateCheckData struct {
	CurrentVersion  string    `json:"current_version" example:"1.0.0" doc:"Running version"`
	LatestVersion   string    `json:"latest_version" example:"1.1.0" doc:"Newest published version"`
	ReleaseNotes    string    `json:"release_notes" doc:"Markdown release notes"`
	ReleaseURL      string    `json:"release_url" doc:"Release page"`
	PublishedAt     time.Time `json:"published_at" doc:"When the release was published"`
	AssetSize       int       `json:"asset_size" example:"5242880" doc:"Download size in bytes"`
	UpdateAvailable bool      `json:"update_available" example:"true" doc:"Whether the newest release is newer than the running one"`
}

// UpdateCheckResponse wraps UpdateCheckData.
type UpdateCheckResponse struct {
	Body UpdateCheckData
}

// NewUpdateCheckData copies a release lookup into its API shape.
func NewUpdateCheckData(info *updater.UpdateInfo) UpdateCheckData {
	return UpdateCheckData{
		CurrentVersion:  info.CurrentVersion,
		LatestVersion:   info.LatestVersion,
		ReleaseNotes:    info.ReleaseNotes,
		ReleaseURL:      info.ReleaseURL,
		PublishedAt:     info.PublishedAt,
		AssetSize:       info.AssetSize,
		UpdateAvailable: info.UpdateAvailable,
	}
}

// UpdateStatusData is the updater state machine as seen by the page.
type UpdateStatusData struct {
	State           string     `json:"state" example:"idle" doc:"Updater state"`
	CurrentVersion  string     `json:"current_version" example:"1.0.0" doc:"Running version"`
	TargetVersion   string     `json:"target_version,omitempty" example:"1.1.0" doc:"Version being installed"`
	Error           string     `json:"error,omitempty" doc:"Last error, set in the error state"`
	LastChecked     *time.Time `json:"last_checked,omitempty" doc:"When releases were last checked"`
	BackupAvailable bool       `json:"backup_available" example:"true" doc:"Whether a rollback is possible"`
	BackupVersion   string     `json:"backup_version,omitempty" example:"1.0.0" doc:"Version a rollback returns to"`
}

// UpdateStatusResponse wraps UpdateStatusData.
type UpdateStatusResponse struct {
	Body UpdateStatusData
}

// NewUpdateStatusData copies the updater status into its API shape.
func NewUpdateStatusData(status *updater.Status) UpdateStatusData {
	return UpdateStatusData{
		State:           string(status.State),
		CurrentVersion:  status.CurrentVersion,
		TargetVersion:   status.TargetVersion,
		Error:           status.Error,
		LastChecked:     status.LastChecked,
		BackupAvailable: status.BackupAvailable,
		BackupVersion:   status.BackupVersion,
	}
}

// RestartData describes a restart the node has scheduled. The strip goes
// dark until the service is back.
type RestartData struct {
	Message       string `json:"message" example:"Update applied, restarting" doc:"Status message"`
	Reason        string `json:"reason" example:"update" enum:"update,rollback,request" doc:"What triggered the restart"`
	TargetVersion string `json:"target_version,omitempty" example:"1.1.0" doc:"Version that runs after the restart"`
}

// RestartResponse wraps RestartData.
type RestartResponse struct {
	Body RestartData
}
