package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/smazurov/lightnode/internal/logging"
	"github.com/smazurov/lightnode/internal/pixel"
	"github.com/smazurov/lightnode/internal/strip"
)

// CreateTestPatternCmd creates the command that drives the strip directly,
// bypassing Art-Net. Do not run it while the node service owns the strip.
func CreateTestPatternCmd() *cobra.Command {
	var driver string
	var spiPort string
	var length int
	var color string

	cmd := &cobra.Command{
		Use:   "test-pattern",
		Short: "Fill the strip with a solid color",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			initLogging("info", false)
			logger := logging.GetLogger("strip")

			rgb, err := strip.ParseColor(color)
			if err != nil {
				return err
			}
			buf, err := pixel.New(length)
			if err != nil {
				return err
			}
			drv, err := strip.New(driver, spiPort, length, logger)
			if err != nil {
				return fmt.Errorf("failed to open strip: %w", err)
			}
			defer drv.Close()

			buf.Fill(rgb)
			if err := drv.Present(buf.Pixels()); err != nil {
				return fmt.Errorf("failed to present: %w", err)
			}
			logger.Info("Test pattern shown", "color", color, "leds", length)
			return nil
		},
	}

	cmd.Flags().StringVar(&driver, "driver", "spi", "Strip driver (spi, log)")
	cmd.Flags().StringVar(&spiPort, "spi-port", "", "SPI port, empty for the first one")
	cmd.Flags().IntVarP(&length, "length", "n", 120, "Number of LEDs")
	cmd.Flags().StringVar(&color, "color", "white", "r, g, b, white or off")

	return cmd
}
