package strip

import (
	"fmt"
	"log/slog"
)

// New creates the strip driver selected by name ("spi" or "log").
func New(driver, spiPort string, length int, logger *slog.Logger) (Driver, error) {
	switch driver {
	case "spi", "ws2812":
		logger.Info("Using WS2812 SPI strip driver", "port", spiPort, "leds", length)
		return NewWS2812(spiPort, length)
	case "", "log":
		logger.Info("Using log strip driver", "leds", length)
		return newLog(logger), nil
	default:
		return nil, fmt.Errorf("unknown strip driver %q", driver)
	}
}
