package cmd

import (
	"context"
	"encoding/hex"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/smazurov/lightnode/internal/artnet"
	"github.com/smazurov/lightnode/internal/logging"
	"github.com/smazurov/lightnode/internal/pixel"
	"github.com/smazurov/lightnode/internal/strip"
)

// CreateSendCmd creates the Art-Net bench sender.
func CreateSendCmd() *cobra.Command {
	var target string
	var universe int
	var color string
	var count int
	var fps float64

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send solid-color Art-Net frames",
		Long: `Sends ArtDmx frames filling count pixels with one color. With --fps 0 a single frame ` +
			`is sent; otherwise frames repeat at that rate until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			initLogging("info", false)
			logger := logging.GetLogger("send")

			rgb, err := parseColor(color)
			if err != nil {
				return err
			}
			if universe < 0 || universe > 0x7fff {
				return fmt.Errorf("universe %d out of range", universe)
			}
			if count < 1 || count > 170 {
				return fmt.Errorf("count %d out of range 1..170", count)
			}
			if !strings.Contains(target, ":") {
				target = net.JoinHostPort(target, fmt.Sprint(artnet.Port))
			}

			conn, err := net.Dial("udp4", target)
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", target, err)
			}
			defer conn.Close()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			var seq uint8
			send := func() error {
				seq = nextSequence(seq)
				_, writeErr := conn.Write(artnet.Encode(buildFrame(uint16(universe), rgb, count, seq)))
				return writeErr
			}

			if fps <= 0 {
				if err := send(); err != nil {
					return fmt.Errorf("failed to send frame: %w", err)
				}
				logger.Info("Frame sent", "target", target, "universe", universe, "color", color)
				return nil
			}

			ticker := time.NewTicker(time.Duration(float64(time.Second) / fps))
			defer ticker.Stop()
			logger.Info("Sending frames", "target", target, "universe", universe, "fps", fps)

			var sent int
			for {
				select {
				case <-ctx.Done():
					logger.Info("Stopped", "frames", sent)
					return nil
				case <-ticker.C:
					if err := send(); err != nil {
						return fmt.Errorf("failed to send frame: %w", err)
					}
					sent++
				}
			}
		},
	}

	cmd.Flags().StringVarP(&target, "target", "t", "127.0.0.1:6454", "Destination host:port")
	cmd.Flags().IntVarP(&universe, "universe", "u", 0, "Art-Net universe")
	cmd.Flags().StringVar(&color, "color", "ff0000", "Hex RRGGBB or a test color name")
	cmd.Flags().IntVarP(&count, "count", "n", 120, "Number of pixels to fill")
	cmd.Flags().Float64Var(&fps, "fps", 0, "Frames per second, 0 sends once")

	return cmd
}

// parseColor accepts RRGGBB hex (optionally #-prefixed) or a test color name.
func parseColor(s string) (pixel.RGB, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) == 6 {
		if b, err := hex.DecodeString(h); err == nil {
			return pixel.RGB{R: b[0], G: b[1], B: b[2]}, nil
		}
	}
	return strip.ParseColor(s)
}

// buildFrame fills count pixels with c.
func buildFrame(universe uint16, c pixel.RGB, count int, seq uint8) artnet.Frame {
	payload := make([]byte, 0, count*3)
	for range count {
		payload = append(payload, c.R, c.G, c.B)
	}
	return artnet.Frame{Universe: universe, Sequence: seq, Payload: payload}
}

// nextSequence advances an ArtDmx sequence number, skipping 0 which means
// "sequencing disabled".
func nextSequence(seq uint8) uint8 {
	seq++
	if seq == 0 {
		seq = 1
	}
	return seq
}
