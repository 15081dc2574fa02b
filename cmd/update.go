package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/smazurov/lightnode/internal/updater"
)

// CreateUpdateCmd creates the self update command.
func CreateUpdateCmd() *cobra.Command {
	var checkOnly bool
	var repository string
	var prerelease bool

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update the lightnode binary from GitHub releases",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			initLogging("info", false)

			svc, err := updater.NewService(&updater.Options{
				Repository: repository,
				Prerelease: prerelease,
				// The running service is restarted by its unit, not from here.
				Restarter: func() error { return nil },
			})
			if err != nil {
				return err
			}
			if !svc.IsEnabled() {
				return fmt.Errorf("update disabled: %s", svc.DisabledReason())
			}

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()

			info, err := svc.CheckForUpdate(ctx)
			if err != nil {
				return err
			}
			if !info.UpdateAvailable {
				fmt.Printf("Already up to date (%s)\n", info.CurrentVersion)
				return nil
			}
			fmt.Printf("Update available: %s -> %s\n", info.CurrentVersion, info.LatestVersion)
			if checkOnly {
				return nil
			}

			if err := svc.ApplyUpdate(ctx); err != nil {
				return err
			}
			fmt.Printf("Updated to %s, restart the lightnode service to run it\n", info.LatestVersion)
			return nil
		},
	}

	cmd.Flags().BoolVar(&checkOnly, "check", false, "Only check for a newer release")
	cmd.Flags().StringVar(&repository, "repository", "smazurov/lightnode", "GitHub repository slug")
	cmd.Flags().BoolVar(&prerelease, "prerelease", false, "Include prereleases")

	return cmd
}
