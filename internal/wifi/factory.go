package wifi

import (
	"fmt"
	"log/slog"

	"github.com/smazurov/lightnode/internal/netsup"
)

// New returns the radio selected by name: "nmcli" or "sim".
func New(name, iface string, logger *slog.Logger) (netsup.Radio, error) {
	switch name {
	case "", "nmcli":
		return NewNMCLI(iface, logger), nil
	case "sim", "simulated":
		logger.Warn("Using simulated Wi-Fi radio")
		return NewSimulated(map[string]string{"lightnode-lab": "lightnode"}), nil
	}
	return nil, fmt.Errorf("unknown radio %q", name)
}
