// Package pixel holds the in-memory state of the LED strip.
package pixel

import "fmt"

// MaxLength bounds the strip length accepted at startup.
const MaxLength = 4096

// RGB is the color of a single LED.
type RGB struct {
	R, G, B uint8
}

// Common colors used by test patterns.
var (
	Off   = RGB{}
	Red   = RGB{R: 255}
	Green = RGB{G: 255}
	Blue  = RGB{B: 255}
	White = RGB{R: 255, G: 255, B: 255}
)

// Buffer is a fixed-length sequence of RGB triplets. Its length never changes
// after construction.
type Buffer struct {
	pixels []RGB
}

// New allocates a buffer for a strip of n LEDs, all off.
func New(n int) (*Buffer, error) {
	if n <= 0 || n > MaxLength {
		return nil, fmt.Errorf("strip length %d out of range [1, %d]", n, MaxLength)
	}
	return &Buffer{pixels: make([]RGB, n)}, nil
}

// Len returns the number of LEDs.
func (b *Buffer) Len() int {
	return len(b.pixels)
}

// At returns the color at index i. Out of range indices return Off.
func (b *Buffer) At(i int) RGB {
	if i < 0 || i >= len(b.pixels) {
		return Off
	}
	return b.pixels[i]
}

// Set writes the color at index i and reports whether i was in range.
func (b *Buffer) Set(i int, c RGB) bool {
	if i < 0 || i >= len(b.pixels) {
		return false
	}
	b.pixels[i] = c
	return true
}

// Fill sets every LED to c.
func (b *Buffer) Fill(c RGB) {
	for i := range b.pixels {
		b.pixels[i] = c
	}
}

// Pixels exposes the backing slice for drivers. Callers must not retain it
// across loop iterations or change its length.
func (b *Buffer) Pixels() []RGB {
	return b.pixels
}

// Snapshot returns a copy of the current contents.
func (b *Buffer) Snapshot() []RGB {
	out := make([]RGB, len(b.pixels))
	copy(out, b.pixels)
	return out
}
