package display

import (
	"fmt"
	"log/slog"
)

// New returns the renderer selected by driver: "ssd1306", "log" or "none".
func New(driver, i2cBus string, logger *slog.Logger) (Renderer, error) {
	switch driver {
	case "ssd1306", "oled":
		return NewSSD1306(i2cBus)
	case "", "log":
		return newLog(logger), nil
	case "none":
		return nopRenderer{}, nil
	}
	return nil, fmt.Errorf("unknown display driver %q", driver)
}
