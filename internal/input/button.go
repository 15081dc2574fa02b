package input

import (
	"sync/atomic"
	"time"
)

// DebounceWindow is the minimum spacing between two edges for both to count.
const DebounceWindow = 200 * time.Millisecond

// Button is a debounced sticky edge flag. Edge is called from the edge
// handler goroutine, Consume from the main loop.
type Button struct {
	pending  atomic.Bool
	lastEdge atomic.Int64
	seen     atomic.Bool
	window   time.Duration
}

// NewButton creates a button with the default debounce window.
func NewButton() *Button {
	return &Button{window: DebounceWindow}
}

// Edge records a physical edge observed at device time at. Edges closer than
// the debounce window to the previous edge are coalesced; each edge restarts
// the window.
func (b *Button) Edge(at time.Duration) {
	prev := b.lastEdge.Swap(int64(at))
	if b.seen.Swap(true) && at-time.Duration(prev) < b.window {
		return
	}
	b.pending.Store(true)
}

// Consume reports and clears a pending logical edge.
func (b *Button) Consume() bool {
	return b.pending.Swap(false)
}
