package gpio

import (
	"testing"
	"time"

	"github.com/warthog618/go-gpiocdev"

	"github.com/smazurov/lightnode/internal/input"
)

func edge(offset int, rising bool) gpiocdev.LineEvent {
	typ := gpiocdev.LineEventFallingEdge
	if rising {
		typ = gpiocdev.LineEventRisingEdge
	}
	return gpiocdev.LineEvent{Offset: offset, Type: typ, Timestamp: time.Millisecond}
}

func TestEncoderFeed_OneDetentEachWay(t *testing.T) {
	enc := input.NewEncoder(2)
	f := newEncoderFeed(17, 27, enc)

	// From rest (1,1): B falls, A falls -> two steps one way.
	f.onEvent(edge(27, false))
	f.onEvent(edge(17, false))
	first := enc.Delta()
	if first != 1 && first != -1 {
		t.Fatalf("delta = %d, want one detent", first)
	}

	// Retrace back to rest.
	f.onEvent(edge(17, true))
	f.onEvent(edge(27, true))
	if d := enc.Delta(); d != -first {
		t.Errorf("reverse delta = %d, want %d", d, -first)
	}
}

func TestEncoderFeed_IgnoresOtherOffsets(t *testing.T) {
	enc := input.NewEncoder(1)
	f := newEncoderFeed(1, 2, enc)
	f.onEvent(edge(9, false))
	if d := enc.Delta(); d != 0 {
		t.Errorf("delta = %d", d)
	}
}

func TestEncoderFeed_Seed(t *testing.T) {
	enc := input.NewEncoder(1)
	f := newEncoderFeed(1, 2, enc)
	f.seed(0, 0)
	// (0,0) -> (1,0) is one step.
	f.onEvent(edge(1, true))
	if d := enc.Delta(); d != 1 && d != -1 {
		t.Errorf("delta = %d", d)
	}
}
