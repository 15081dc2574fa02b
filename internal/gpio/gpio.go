// Package gpio wires the encoder and push button lines to the input
// primitives through the Linux GPIO character device.
package gpio

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/warthog618/go-gpiocdev"

	"github.com/smazurov/lightnode/internal/input"
)

// Config names the chip and line offsets.
type Config struct {
	Chip         string
	ButtonLine   int
	EncoderALine int
	EncoderBLine int
}

// Inputs holds the requested lines. Close releases them.
type Inputs struct {
	button  *gpiocdev.Line
	encoder *gpiocdev.Lines
	logger  *slog.Logger
}

// Open requests the lines and starts feeding button and encoder. Edge
// handlers run on the gpiocdev event goroutine.
func Open(cfg Config, button *input.Button, encoder *input.Encoder, logger *slog.Logger) (*Inputs, error) {
	if cfg.Chip == "" {
		cfg.Chip = "gpiochip0"
	}

	btn, err := gpiocdev.RequestLine(cfg.Chip, cfg.ButtonLine,
		gpiocdev.AsInput,
		gpiocdev.WithPullUp,
		gpiocdev.WithFallingEdge,
		gpiocdev.WithConsumer("lightnode-button"),
		gpiocdev.WithEventHandler(func(evt gpiocdev.LineEvent) {
			button.Edge(evt.Timestamp)
		}))
	if err != nil {
		return nil, fmt.Errorf("failed to request button line %s:%d: %w", cfg.Chip, cfg.ButtonLine, err)
	}

	feed := newEncoderFeed(cfg.EncoderALine, cfg.EncoderBLine, encoder)
	enc, err := gpiocdev.RequestLines(cfg.Chip, []int{cfg.EncoderALine, cfg.EncoderBLine},
		gpiocdev.AsInput,
		gpiocdev.WithPullUp,
		gpiocdev.WithBothEdges,
		gpiocdev.WithConsumer("lightnode-encoder"),
		gpiocdev.WithEventHandler(feed.onEvent))
	if err != nil {
		btn.Close()
		return nil, fmt.Errorf("failed to request encoder lines %s:%d,%d: %w",
			cfg.Chip, cfg.EncoderALine, cfg.EncoderBLine, err)
	}

	levels := make([]int, 2)
	if valErr := enc.Values(levels); valErr != nil {
		logger.Warn("Failed to read initial encoder levels", "error", valErr)
	} else {
		feed.seed(levels[0], levels[1])
	}

	logger.Info("GPIO input ready",
		"chip", cfg.Chip,
		"button", cfg.ButtonLine,
		"encoder_a", cfg.EncoderALine,
		"encoder_b", cfg.EncoderBLine)

	return &Inputs{button: btn, encoder: enc, logger: logger}, nil
}

// Close releases every line.
func (in *Inputs) Close() error {
	return errors.Join(in.button.Close(), in.encoder.Close())
}

// encoderFeed tracks A/B levels from edge events and feeds the decoder.
type encoderFeed struct {
	mu      sync.Mutex
	a, b    int
	levels  [2]int
	quad    input.Quadrature
	encoder *input.Encoder
}

func newEncoderFeed(a, b int, encoder *input.Encoder) *encoderFeed {
	f := &encoderFeed{a: a, b: b, encoder: encoder}
	// Pulled up at rest.
	f.levels = [2]int{1, 1}
	f.quad.Update(1, 1)
	return f
}

func (f *encoderFeed) seed(a, b int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.levels = [2]int{a, b}
	f.quad = input.Quadrature{}
	f.quad.Update(a, b)
}

func (f *encoderFeed) onEvent(evt gpiocdev.LineEvent) {
	level := 0
	if evt.Type == gpiocdev.LineEventRisingEdge {
		level = 1
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	switch evt.Offset {
	case f.a:
		f.levels[0] = level
	case f.b:
		f.levels[1] = level
	default:
		return
	}
	if step := f.quad.Update(f.levels[0], f.levels[1]); step != 0 {
		f.encoder.Add(step)
	}
}
