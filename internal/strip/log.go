package strip

import (
	"log/slog"

	"github.com/smazurov/lightnode/internal/pixel"
)

// logDriver stands in for the strip on machines without SPI.
type logDriver struct {
	logger   *slog.Logger
	presents uint64
}

func newLog(logger *slog.Logger) *logDriver {
	return &logDriver{logger: logger}
}

// Present logs the first pixel at debug level.
func (d *logDriver) Present(pixels []pixel.RGB) error {
	d.presents++
	if len(pixels) > 0 {
		d.logger.Debug("Strip present (log driver)",
			"count", d.presents,
			"leds", len(pixels),
			"first", pixels[0])
	}
	return nil
}

func (d *logDriver) Close() error {
	return nil
}
