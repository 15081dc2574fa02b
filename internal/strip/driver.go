// Package strip presents the pixel buffer on a physical LED strip.
package strip

import (
	"fmt"
	"strings"

	"github.com/smazurov/lightnode/internal/pixel"
)

// Driver pushes pixel data to the strip. Present is synchronous: when it
// returns, the strip shows the given colors.
type Driver interface {
	Present(pixels []pixel.RGB) error
	Close() error
}

// ParseColor maps a test pattern name to a color.
// Accepted names: r, g, b, white, off (and their long forms).
func ParseColor(name string) (pixel.RGB, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "r", "red":
		return pixel.Red, nil
	case "g", "green":
		return pixel.Green, nil
	case "b", "blue":
		return pixel.Blue, nil
	case "w", "white":
		return pixel.White, nil
	case "", "off", "black":
		return pixel.Off, nil
	default:
		return pixel.Off, fmt.Errorf("unknown test color %q", name)
	}
}
