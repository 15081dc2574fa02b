package led

import (
	"os"
	"strings"

	"github.com/smazurov/lightnode/internal/logging"
)

const deviceTreeModelPath = "/proc/device-tree/model"

// New creates an LED controller for the detected board, falling back to a
// no-op controller on boards without known LEDs.
func New(logger logging.Logger) Controller {
	return forBoard(detectBoard(), logger)
}

func forBoard(model string, logger logging.Logger) Controller {
	logger.Info("Detecting board for LED control", "board_model", model)

	switch {
	case strings.Contains(model, "Raspberry Pi"):
		return newSysfs(sysfsLEDPath, map[string]string{
			"status": "ACT",
			"power":  "PWR",
		})
	case strings.Contains(model, "NanoPC-T6"):
		return newSysfs(sysfsLEDPath, map[string]string{
			"status": "usr_led",
			"power":  "sys_led",
		})
	case strings.Contains(model, "Orange Pi"):
		return newSysfs(sysfsLEDPath, map[string]string{
			"status": "green_led",
			"power":  "blue_led",
		})
	}

	logger.Info("No LED support detected, using no-op controller", "board_model", model)
	return newNoop(logger)
}

// detectBoard reads the device tree model.
func detectBoard() string {
	data, err := os.ReadFile(deviceTreeModelPath)
	if err != nil {
		return "unknown"
	}
	return strings.TrimRight(string(data), "\x00")
}
