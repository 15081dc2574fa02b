package strip

import (
	"log/slog"
	"os"
	"testing"

	"github.com/smazurov/lightnode/internal/pixel"
)

func TestParseColor(t *testing.T) {
	tests := []struct {
		in      string
		want    pixel.RGB
		wantErr bool
	}{
		{"r", pixel.Red, false},
		{"G", pixel.Green, false},
		{"blue", pixel.Blue, false},
		{"white", pixel.White, false},
		{"", pixel.Off, false},
		{"off", pixel.Off, false},
		{"purple", pixel.Off, true},
	}
	for _, tt := range tests {
		got, err := ParseColor(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseColor(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseColor(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestExpandByte(t *testing.T) {
	tests := []struct {
		in   uint8
		want [3]byte
	}{
		// 0 -> 100 100 100 100 100 100 100 100
		{0x00, [3]byte{0x92, 0x49, 0x24}},
		// 1 -> 110 x8
		{0xff, [3]byte{0xdb, 0x6d, 0xb6}},
		// 1000 0000 -> 110 100 100 ...
		{0x80, [3]byte{0xd2, 0x49, 0x24}},
	}
	for _, tt := range tests {
		var got [3]byte
		expandByte(got[:], tt.in)
		if got != tt.want {
			t.Errorf("expandByte(%#x) = %x, want %x", tt.in, got, tt.want)
		}
	}
}

func TestEncodeWS2812_GRBOrderAndReset(t *testing.T) {
	buf := make([]byte, 2*9+ws2812ResetBytes)
	n := encodeWS2812(buf, []pixel.RGB{{R: 0xff}, {G: 0xff}})
	if n != len(buf) {
		t.Fatalf("encoded %d bytes, want %d", n, len(buf))
	}

	var zero, full [3]byte
	expandByte(zero[:], 0)
	expandByte(full[:], 0xff)

	// First LED: G=0, R=ff, B=0.
	if [3]byte(buf[0:3]) != zero || [3]byte(buf[3:6]) != full || [3]byte(buf[6:9]) != zero {
		t.Errorf("first LED not encoded as GRB: %x", buf[:9])
	}
	// Second LED: G=ff first.
	if [3]byte(buf[9:12]) != full {
		t.Errorf("second LED green not first: %x", buf[9:18])
	}
	for i := 18; i < n; i++ {
		if buf[i] != 0 {
			t.Fatalf("reset byte %d = %#x, want 0", i, buf[i])
		}
	}
}

func TestNew_LogDriver(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	d, err := New("log", "", 10, logger)
	if err != nil {
		t.Fatal(err)
	}
	if err := d.Present(make([]pixel.RGB, 10)); err != nil {
		t.Errorf("Present() error = %v", err)
	}
	if _, err := New("dmx", "", 10, logger); err == nil {
		t.Error("unknown driver should fail")
	}
}
