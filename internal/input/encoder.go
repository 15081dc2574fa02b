package input

import "sync/atomic"

// DefaultStepsPerDetent matches half-quad encoders: two counted transitions
// per mechanical click.
const DefaultStepsPerDetent = 2

// Encoder accumulates raw quadrature steps from the edge handler and hands
// whole detents to the main loop.
type Encoder struct {
	raw            atomic.Int64
	consumed       int64
	stepsPerDetent int64
}

// NewEncoder creates an encoder. Values below 1 select DefaultStepsPerDetent.
func NewEncoder(stepsPerDetent int) *Encoder {
	if stepsPerDetent < 1 {
		stepsPerDetent = DefaultStepsPerDetent
	}
	return &Encoder{stepsPerDetent: int64(stepsPerDetent)}
}

// Add records raw steps. Safe for use from any goroutine.
func (e *Encoder) Add(steps int) {
	e.raw.Add(int64(steps))
}

// Delta returns whole detents moved since the previous call. Partial detents
// carry over. Only the main loop may call Delta.
func (e *Encoder) Delta() int {
	diff := e.raw.Load() - e.consumed
	detents := diff / e.stepsPerDetent
	e.consumed += detents * e.stepsPerDetent
	return int(detents)
}

// Quadrature decodes A/B channel levels into steps.
type Quadrature struct {
	state uint8
	init  bool
}

// Indexed by prev<<2 | next; invalid double transitions map to 0.
var quadTable = [16]int8{
	0, -1, 1, 0,
	1, 0, 0, -1,
	-1, 0, 0, 1,
	0, 1, -1, 0,
}

// Update takes the current levels of A and B and returns the step implied
// by the transition from the previous levels: -1, 0 or 1.
func (q *Quadrature) Update(a, b int) int {
	next := uint8(a&1)<<1 | uint8(b&1)
	if !q.init {
		q.state = next
		q.init = true
		return 0
	}
	step := quadTable[q.state<<2|next]
	q.state = next
	return int(step)
}
