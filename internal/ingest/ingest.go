// Package ingest maps inbound lighting frames onto the pixel buffer.
package ingest

import (
	"log/slog"

	"github.com/smazurov/lightnode/internal/metrics"
	"github.com/smazurov/lightnode/internal/pixel"
)

// Presenter shows the current buffer contents on the strip.
type Presenter interface {
	Present(pixels []pixel.RGB) error
}

// Ingestor owns every write to the pixel buffer. It is not safe for
// concurrent use; the main loop is its only caller.
type Ingestor struct {
	buffer    *pixel.Buffer
	presenter Presenter
	universe  uint16
	lastSeq   uint8
	logger    *slog.Logger
}

// New creates an ingestor listening on universe.
func New(buffer *pixel.Buffer, presenter Presenter, universe uint16, logger *slog.Logger) *Ingestor {
	return &Ingestor{
		buffer:    buffer,
		presenter: presenter,
		universe:  universe,
		logger:    logger,
	}
}

// Universe returns the active universe filter.
func (in *Ingestor) Universe() uint16 {
	return in.universe
}

// SetUniverse changes the active universe filter.
func (in *Ingestor) SetUniverse(u uint16) {
	if u != in.universe {
		in.logger.Info("Universe filter changed", "from", in.universe, "to", u)
	}
	in.universe = u
}

// LastSequence returns the sequence number of the last applied frame.
// It is informational only; ordering is not enforced.
func (in *Ingestor) LastSequence() uint8 {
	return in.lastSeq
}

// OnFrame applies a frame to the buffer and presents it. Frames for other
// universes are dropped without effect. Payloads shorter than the strip
// update only the LEDs they fully cover.
func (in *Ingestor) OnFrame(universe uint16, sequence uint8, payload []byte) {
	if universe != in.universe {
		metrics.ObserveFrame(false)
		return
	}

	n := in.buffer.Len()
	for i := 0; i < n; i++ {
		off := 3 * i
		if off+3 > len(payload) {
			break
		}
		in.buffer.Set(i, pixel.RGB{R: payload[off], G: payload[off+1], B: payload[off+2]})
	}
	in.lastSeq = sequence
	metrics.ObserveFrame(true)

	in.present()
}

// Fill sets the whole strip to c and presents it.
func (in *Ingestor) Fill(c pixel.RGB) {
	in.buffer.Fill(c)
	in.logger.Info("Test pattern", "color", c)
	in.present()
}

func (in *Ingestor) present() {
	err := in.presenter.Present(in.buffer.Pixels())
	metrics.ObservePresent(err)
	if err != nil {
		in.logger.Warn("Strip present failed", "error", err)
	}
}
