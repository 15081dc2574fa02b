// Package display turns node state into screens and paints them.
package display

import (
	"fmt"
	"time"

	"github.com/smazurov/lightnode/internal/input"
	"github.com/smazurov/lightnode/internal/netsup"
	"github.com/smazurov/lightnode/internal/settings"
)

// BlinkInterval is the idle cursor phase length.
const BlinkInterval = 500 * time.Millisecond

// Model is everything a screen may show.
type Model struct {
	Input         input.State
	Network       netsup.Status
	Blink         bool
	PixelCount    int
	FramesApplied uint64
	LastSequence  uint8
	Uptime        time.Duration
	HTTPPort      int
}

// Screen is a composed page: a title, body lines and an optional cursor at
// the bottom edge.
type Screen struct {
	Title  string
	Lines  []string
	Cursor bool
}

// Renderer paints screens. Render must be idempotent.
type Renderer interface {
	Render(s Screen) error
	Close() error
}

// Compose builds the screen for the current page.
func Compose(m Model) Screen {
	var s Screen
	switch m.Input.Page {
	case input.Home:
		s = composeHome(m)
	case input.NetworkInfo:
		s = composeNetwork(m)
	case input.ProtocolSettings:
		s = composeProtocol(m)
	case input.Diagnostics:
		s = composeDiagnostics(m)
	case input.WebInterface:
		s = composeWeb(m)
	default:
		s = Screen{Title: "?", Lines: []string{fmt.Sprintf("page %d", m.Input.Page)}}
	}
	s.Cursor = !m.Input.Editing && m.Blink
	return s
}

func composeHome(m Model) Screen {
	return Screen{
		Title: "LightNode",
		Lines: []string{
			connectionLine(m.Network),
			"IP: " + orNA(m.Network.IP),
			fmt.Sprintf("Universe: %d", m.Input.Universe),
		},
	}
}

func composeNetwork(m Model) Screen {
	return Screen{
		Title: "Wi-Fi",
		Lines: []string{
			"SSID: " + orNA(m.Network.SSID),
			"IP: " + orNA(m.Network.IP),
			signalLine(m.Network),
			"State: " + m.Network.State,
		},
	}
}

func composeProtocol(m Model) Screen {
	line := fmt.Sprintf("Universe: %d", m.Input.Universe)
	if m.Input.Editing {
		line += " <"
	}
	hint := "Press to edit"
	if m.Input.Editing {
		hint = "Turn, press to save"
	}
	return Screen{
		Title: "Art-Net",
		Lines: []string{line, hint},
	}
}

func composeDiagnostics(m Model) Screen {
	return Screen{
		Title: "Diagnostics",
		Lines: []string{
			fmt.Sprintf("LEDs: %d", m.PixelCount),
			fmt.Sprintf("Frames: %d", m.FramesApplied),
			fmt.Sprintf("Seq: %d", m.LastSequence),
			"Up: " + m.Uptime.Truncate(time.Second).String(),
		},
	}
}

func composeWeb(m Model) Screen {
	url := "n/a"
	if m.Network.IP != "" {
		url = "http://" + m.Network.IP
		if m.HTTPPort != 0 && m.HTTPPort != 80 {
			url = fmt.Sprintf("%s:%d", url, m.HTTPPort)
		}
	}
	return Screen{
		Title: "Web",
		Lines: []string{url},
	}
}

func connectionLine(st netsup.Status) string {
	switch st.State {
	case netsup.AccessPointActive.String(), netsup.StartingAccessPoint.String():
		return "AP: " + orNA(st.SSID)
	case netsup.ClientConnected.String():
		return "WLAN: " + orNA(st.SSID)
	case netsup.JoiningClient.String(), netsup.Reconnecting.String():
		return "Joining..."
	}
	if st.Mode == settings.ModeAccessPoint {
		return "AP"
	}
	return "Offline"
}

func signalLine(st netsup.Status) string {
	if !st.RSSIValid {
		return "Signal: n/a"
	}
	return fmt.Sprintf("Signal: %d dBm", st.RSSI)
}

func orNA(s string) string {
	if s == "" {
		return "n/a"
	}
	return s
}
