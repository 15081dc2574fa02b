// Package input implements the local menu state machine and the
// interrupt-safe primitives that feed it.
package input

import (
	"log/slog"
)

// UniverseCount is the number of addressable universes. Universe values are
// always kept in [0, UniverseCount).
const UniverseCount = 512

// State is the menu state shown by the display.
type State struct {
	Page     Page   `json:"page"`
	Editing  bool   `json:"editing"`
	Universe uint16 `json:"universe"`
}

// Committer persists a universe confirmed by the operator and applies it to
// the frame filter.
type Committer interface {
	CommitUniverse(u uint16)
}

// Controller consumes encoder deltas and button edges. It is owned by the
// main loop and is not safe for concurrent use.
type Controller struct {
	state     State
	committer Committer
	logger    *slog.Logger
}

// NewController creates a controller on the home page showing universe.
func NewController(universe uint16, committer Committer, logger *slog.Logger) *Controller {
	return &Controller{
		state:     State{Page: Home, Universe: wrapUniverse(int(universe))},
		committer: committer,
		logger:    logger,
	}
}

// State returns a copy of the current state.
func (c *Controller) State() State {
	return c.state
}

// ConsumeEncoderDelta applies the net encoder movement since the last poll.
// It returns true when the state changed.
func (c *Controller) ConsumeEncoderDelta(delta int) bool {
	if delta == 0 {
		return false
	}

	if c.state.Editing {
		c.state.Universe = wrapUniverse(int(c.state.Universe) + delta)
		c.logger.Debug("Universe edited", "universe", c.state.Universe)
		return true
	}

	dir := 1
	if delta < 0 {
		dir = -1
	}
	c.setPage(c.state.Page.Step(dir))
	return true
}

// ConsumeButtonEdge handles one debounced button press. It returns true when
// the state changed.
func (c *Controller) ConsumeButtonEdge() bool {
	if c.state.Editing {
		c.state.Editing = false
		c.logger.Info("Universe committed", "universe", c.state.Universe)
		if c.committer != nil {
			c.committer.CommitUniverse(c.state.Universe)
		}
		return true
	}

	switch c.state.Page {
	case ProtocolSettings:
		c.state.Editing = true
		c.logger.Debug("Universe edit started", "universe", c.state.Universe)
		return true
	case Home, NetworkInfo, Diagnostics, WebInterface:
		return false
	}
	return false
}

// SetUniverse applies a universe written from outside the menu. A pending
// edit is discarded.
func (c *Controller) SetUniverse(u uint16) bool {
	u = wrapUniverse(int(u))
	if u == c.state.Universe && !c.state.Editing {
		return false
	}
	if c.state.Editing {
		c.logger.Info("Universe edit cancelled by external change", "universe", u)
	}
	c.state.Universe = u
	c.state.Editing = false
	return true
}

func (c *Controller) setPage(p Page) {
	if p != ProtocolSettings {
		c.state.Editing = false
	}
	c.state.Page = p
	c.logger.Debug("Page changed", "page", p.String())
}

func wrapUniverse(v int) uint16 {
	v %= UniverseCount
	if v < 0 {
		v += UniverseCount
	}
	return uint16(v)
}
