package updater

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"syscall"
	"time"

	"github.com/creativeprojects/go-selfupdate"

	"github.com/smazurov/lightnode/internal/logging"
	"github.com/smazurov/lightnode/internal/version"
)

// restartDelay lets the HTTP response go out before the process exits.
const restartDelay = 500 * time.Millisecond

// releaseSource is the part of selfupdate.Updater the service uses.
type releaseSource interface {
	DetectLatest(ctx context.Context, repository selfupdate.Repository) (*selfupdate.Release, bool, error)
	UpdateTo(ctx context.Context, rel *selfupdate.Release, cmdPath string) error
}

type service struct {
	repository    selfupdate.Repository
	source        releaseSource
	backupManager *backupManager
	restarter     func() error

	mu            sync.RWMutex
	state         State
	latestRelease *selfupdate.Release
	lastChecked   *time.Time
	lastError     error

	enabled        bool
	disabledReason string

	logger *slog.Logger
}

// NewService creates the updater. When the executable's directory is not
// writable the returned service is disabled rather than failing.
func NewService(opts *Options) (Service, error) {
	logger := logging.GetLogger("updater")
	restarter := opts.Restarter
	if restarter == nil {
		restarter = signalRestart
	}

	if canWrite, reason := checkWritePermission(); !canWrite {
		logger.Warn("Update service disabled", "reason", reason)
		return &service{
			enabled:        false,
			disabledReason: reason,
			state:          StateIdle,
			restarter:      restarter,
			logger:         logger,
		}, nil
	}

	source, err := selfupdate.NewGitHubSource(selfupdate.GitHubConfig{})
	if err != nil {
		return nil, fmt.Errorf("failed to create GitHub source: %w", err)
	}
	updater, err := selfupdate.NewUpdater(selfupdate.Config{
		Source:     source,
		Prerelease: opts.Prerelease,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create updater: %w", err)
	}

	backupMgr, err := newBackupManager(opts.BackupDir, logger)
	if err != nil {
		logger.Warn("Failed to create backup manager", "error", err)
	}

	return &service{
		repository:    selfupdate.ParseSlug(opts.Repository),
		source:        updater,
		backupManager: backupMgr,
		restarter:     restarter,
		state:         StateIdle,
		enabled:       true,
		logger:        logger,
	}, nil
}

func checkWritePermission() (bool, string) {
	exe, err := os.Executable()
	if err != nil {
		return false, fmt.Sprintf("failed to get executable path: %v", err)
	}
	if exe, err = filepath.EvalSymlinks(exe); err != nil {
		return false, fmt.Sprintf("failed to resolve symlinks: %v", err)
	}

	dir := filepath.Dir(exe)
	tmp := filepath.Join(dir, ".lightnode.update.test")
	f, err := os.Create(tmp)
	if err != nil {
		return false, fmt.Sprintf("no write permission to %s: %v", dir, err)
	}
	f.Close()
	os.Remove(tmp)
	return true, ""
}

// IsEnabled returns whether the update service is operational.
func (s *service) IsEnabled() bool {
	return s.enabled
}

// DisabledReason returns why the update service is disabled.
func (s *service) DisabledReason() string {
	return s.disabledReason
}

// CheckForUpdate asks GitHub for the latest release without downloading it.
func (s *service) CheckForUpdate(ctx context.Context) (*UpdateInfo, error) {
	if !s.enabled {
		return nil, newError(ErrCodeDisabled, s.disabledReason, nil)
	}
	if !s.transitionTo(StateChecking, StateIdle, StateAvailable, StateError, StateRolledBack) {
		return nil, newError(ErrCodeInvalidState,
			fmt.Sprintf("cannot check for updates in state %s", s.getState()), nil)
	}

	current := version.Version
	release, found, err := s.source.DetectLatest(ctx, s.repository)
	if err != nil {
		s.setError(err)
		return nil, newError(ErrCodeCheckFailed, "failed to check for updates", err)
	}

	now := time.Now()
	s.mu.Lock()
	s.lastChecked = &now
	s.mu.Unlock()

	if !found {
		err := errors.New("repository not found or has no releases")
		s.setError(err)
		return nil, newError(ErrCodeNotFound, err.Error(), nil)
	}

	// Development builds always take the latest release.
	if current != "dev" && !release.GreaterThan(current) {
		s.transitionTo(StateIdle)
		return &UpdateInfo{
			CurrentVersion: current,
			LatestVersion:  release.Version(),
		}, nil
	}

	s.mu.Lock()
	s.latestRelease = release
	s.mu.Unlock()
	s.transitionTo(StateAvailable)

	return &UpdateInfo{
		CurrentVersion:  current,
		LatestVersion:   release.Version(),
		ReleaseNotes:    release.ReleaseNotes,
		ReleaseURL:      release.URL,
		PublishedAt:     release.PublishedAt,
		AssetSize:       release.AssetByteSize,
		UpdateAvailable: true,
	}, nil
}

// ApplyUpdate backs up the running binary, replaces it with the latest
// release and schedules a restart. A failed replacement restores the backup.
func (s *service) ApplyUpdate(ctx context.Context) error {
	if !s.enabled {
		return newError(ErrCodeDisabled, s.disabledReason, nil)
	}

	if state := s.getState(); state != StateAvailable {
		info, err := s.CheckForUpdate(ctx)
		if err != nil {
			return err
		}
		if !info.UpdateAvailable {
			return newError(ErrCodeNoUpdate, "no update available", nil)
		}
	}

	if !s.transitionTo(StateDownloading, StateAvailable) {
		return newError(ErrCodeInvalidState,
			fmt.Sprintf("cannot apply update in state %s", s.getState()), nil)
	}

	exe, err := selfupdate.ExecutablePath()
	if err != nil {
		s.setError(err)
		return newError(ErrCodeApplyFailed, "failed to get executable path", err)
	}

	if s.backupManager != nil {
		if err := s.backupManager.createBackup(exe); err != nil {
			s.setError(err)
			return newError(ErrCodeBackupFailed, "failed to create backup", err)
		}
	}

	s.transitionTo(StateApplying)
	s.mu.RLock()
	release := s.latestRelease
	s.mu.RUnlock()

	if err := s.source.UpdateTo(ctx, release, exe); err != nil {
		s.setError(err)
		s.attemptRollback()
		return newError(ErrCodeApplyFailed, "failed to apply update", err)
	}

	s.transitionTo(StateRestarting)
	s.logger.Info("Update applied, restarting", "version", release.Version())
	s.scheduleRestart()
	return nil
}

// Rollback restores the backed up binary and schedules a restart.
func (s *service) Rollback(_ context.Context) error {
	if !s.enabled {
		return newError(ErrCodeDisabled, s.disabledReason, nil)
	}
	if s.backupManager == nil || !s.backupManager.hasBackup() {
		return newError(ErrCodeNoBackup, "no backup available for rollback", nil)
	}
	if err := s.backupManager.restore(); err != nil {
		return newError(ErrCodeRollbackFailed, "failed to restore backup", err)
	}

	s.transitionTo(StateRolledBack)
	s.logger.Info("Rollback completed, restarting")
	s.scheduleRestart()
	return nil
}

// GetStatus returns the update state, versions, last error and backup.
func (s *service) GetStatus(_ context.Context) *Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	status := &Status{
		State:          s.state,
		CurrentVersion: version.Version,
		LastChecked:    s.lastChecked,
	}
	if s.latestRelease != nil {
		status.TargetVersion = s.latestRelease.Version()
	}
	if s.lastError != nil {
		status.Error = s.lastError.Error()
	}
	if s.backupManager != nil {
		status.BackupAvailable = s.backupManager.hasBackup()
		status.BackupVersion = s.backupManager.backupVersion()
	}
	return status
}

// Restart schedules a process restart without touching the binary.
func (s *service) Restart(_ context.Context) error {
	s.logger.Info("Restart requested")
	s.scheduleRestart()
	return nil
}

func (s *service) transitionTo(newState State, validFromStates ...State) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(validFromStates) > 0 && !slices.Contains(validFromStates, s.state) {
		return false
	}
	s.logger.Debug("State transition", "from", s.state, "to", newState)
	s.state = newState
	s.lastError = nil
	return true
}

func (s *service) getState() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *service) setError(err error) {
	s.mu.Lock()
	s.lastError = err
	s.state = StateError
	s.mu.Unlock()
}

func (s *service) attemptRollback() {
	if s.backupManager == nil || !s.backupManager.hasBackup() {
		s.logger.Error("No backup available for automatic rollback")
		return
	}
	if err := s.backupManager.restore(); err != nil {
		s.logger.Error("Failed to restore backup", "error", err)
		return
	}
	s.transitionTo(StateRolledBack)
	s.logger.Info("Automatic rollback completed")
}

func (s *service) scheduleRestart() {
	go func() {
		time.Sleep(restartDelay)
		if err := s.restarter(); err != nil {
			s.logger.Error("Restart failed", "error", err)
		}
	}()
}

// signalRestart sends SIGTERM to this process; systemd brings it back.
func signalRestart() error {
	proc, err := os.FindProcess(os.Getpid())
	if err != nil {
		return fmt.Errorf("failed to find own process: %w", err)
	}
	return proc.Signal(syscall.SIGTERM)
}
