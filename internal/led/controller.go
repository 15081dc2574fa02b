// Package led drives the board status LED from connectivity events.
package led

// Status LED patterns.
const (
	PatternSolid     = "solid"
	PatternBlink     = "blink"
	PatternHeartbeat = "heartbeat"
)

// Controller abstracts board LEDs. Implementations map the logical LED
// names ("status", "power") to whatever the board calls them.
type Controller interface {
	// Set switches an LED and optionally changes its pattern. An empty
	// pattern leaves the pattern unchanged.
	Set(ledType string, enabled bool, pattern string) error

	// Available returns the logical LED names this board supports.
	Available() []string

	// Patterns returns the supported patterns.
	Patterns() []string
}
