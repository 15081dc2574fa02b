package input

import "fmt"

// Page is one entry of the on-device menu ring.
type Page int

// Menu pages in ring order.
const (
	Home Page = iota
	NetworkInfo
	ProtocolSettings
	Diagnostics
	WebInterface

	// PageCount is the number of pages in the ring.
	PageCount = int(WebInterface) + 1
)

// String returns the page title shown in logs and the status API.
func (p Page) String() string {
	switch p {
	case Home:
		return "home"
	case NetworkInfo:
		return "network"
	case ProtocolSettings:
		return "artnet"
	case Diagnostics:
		return "diagnostics"
	case WebInterface:
		return "web"
	}
	return "unknown"
}

// MarshalText encodes the page by name.
func (p Page) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText accepts the names produced by String.
func (p *Page) UnmarshalText(b []byte) error {
	for q := Home; q.Valid(); q++ {
		if q.String() == string(b) {
			*p = q
			return nil
		}
	}
	return fmt.Errorf("unknown page %q", b)
}

// Valid reports whether p is one of the defined pages.
func (p Page) Valid() bool {
	return p >= Home && p <= WebInterface
}

// Step moves dir pages around the ring, wrapping in both directions.
func (p Page) Step(dir int) Page {
	n := (int(p) + dir) % PageCount
	if n < 0 {
		n += PageCount
	}
	return Page(n)
}
