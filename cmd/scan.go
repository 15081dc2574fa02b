package cmd

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/smazurov/lightnode/internal/logging"
	"github.com/smazurov/lightnode/internal/netsup"
	"github.com/smazurov/lightnode/internal/wifi"
)

// CreateScanCmd creates the Wi-Fi scan command.
func CreateScanCmd() *cobra.Command {
	var radioName string
	var iface string

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "List visible Wi-Fi networks",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			initLogging("warn", false)

			radio, err := wifi.New(radioName, iface, logging.GetLogger("wifi"))
			if err != nil {
				return err
			}
			networks, err := radio.Scan()
			if err != nil {
				return fmt.Errorf("scan failed: %w", err)
			}
			return printNetworks(os.Stdout, networks)
		},
	}

	cmd.Flags().StringVar(&radioName, "radio", "nmcli", "Wi-Fi radio (nmcli, sim)")
	cmd.Flags().StringVarP(&iface, "interface", "i", "wlan0", "Wi-Fi interface")

	return cmd
}

func printNetworks(out io.Writer, networks []netsup.Network) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SSID\tSIGNAL\tSECURE")
	for _, n := range networks {
		fmt.Fprintf(w, "%s\t%d dBm\t%t\n", n.SSID, n.RSSI, n.Secure)
	}
	return w.Flush()
}
