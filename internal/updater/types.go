package updater

import (
	"context"
	"time"
)

// State is a step of the update state machine:
// idle -> checking -> available -> downloading -> applying -> restarting,
// with error and rolled_back reachable from the failing or restoring step.
type State string

// Update states.
const (
	StateIdle        State = "idle"
	StateChecking    State = "checking"
	StateAvailable   State = "available"
	StateDownloading State = "downloading"
	StateApplying    State = "applying"
	StateRestarting  State = "restarting"
	StateError       State = "error"
	StateRolledBack  State = "rolled_back"
)

// Service replaces the running node binary with a published release and
// restarts the node. Every method is safe for concurrent use.
type Service interface {
	// CheckForUpdate looks up the newest release without downloading it.
	CheckForUpdate(ctx context.Context) (*UpdateInfo, error)
	// ApplyUpdate installs the release found by CheckForUpdate, keeping the
	// current binary as the rollback target, then schedules a restart.
	ApplyUpdate(ctx context.Context) error
	// Rollback restores the backup binary and schedules a restart.
	Rollback(ctx context.Context) error
	// Restart schedules a restart without touching the binary.
	Restart(ctx context.Context) error
	// GetStatus returns a copy of the current state.
	GetStatus(ctx context.Context) *Status

	// IsEnabled is false when the binary cannot be replaced; DisabledReason
	// then says why.
	IsEnabled() bool
	DisabledReason() string
}

// UpdateInfo is the result of a release lookup.
type UpdateInfo struct {
	CurrentVersion  string    `json:"current_version"`
	LatestVersion   string    `json:"latest_version"`
	ReleaseNotes    string    `json:"release_notes"`
	ReleaseURL      string    `json:"release_url"`
	PublishedAt     time.Time `json:"published_at"`
	AssetSize       int       `json:"asset_size"`
	UpdateAvailable bool      `json:"update_available"`
}

// Status is a snapshot of the updater.
type Status struct {
	State           State      `json:"state"`
	CurrentVersion  string     `json:"current_version"`
	TargetVersion   string     `json:"target_version,omitempty"`
	Error           string     `json:"error,omitempty"`
	LastChecked     *time.Time `json:"last_checked,omitempty"`
	BackupAvailable bool       `json:"backup_available"`
	BackupVersion   string     `json:"backup_version,omitempty"`
}

// Options configures NewService.
type Options struct {
	Repository string // release source slug, e.g. "smazurov/lightnode"
	Prerelease bool   // consider prereleases
	BackupDir  string // previous binary; default ~/.cache/lightnode/backup

	// Restarter replaces the process restart. The default sends SIGTERM to
	// ourselves and relies on the unit's Restart= policy.
	Restarter func() error
}
