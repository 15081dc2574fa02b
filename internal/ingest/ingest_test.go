package ingest

import (
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/smazurov/lightnode/internal/pixel"
)

type mockPresenter struct {
	calls int
	last  []pixel.RGB
	err   error
}

func (m *mockPresenter) Present(pixels []pixel.RGB) error {
	m.calls++
	m.last = append(m.last[:0], pixels...)
	return m.err
}

func newTestIngestor(t *testing.T, n int, universe uint16) (*Ingestor, *pixel.Buffer, *mockPresenter) {
	t.Helper()
	buf, err := pixel.New(n)
	if err != nil {
		t.Fatal(err)
	}
	p := &mockPresenter{}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return New(buf, p, universe, logger), buf, p
}

func TestOnFrame_OtherUniverseLeavesBufferUnchanged(t *testing.T) {
	in, buf, p := newTestIngestor(t, 8, 2)
	buf.Fill(pixel.RGB{R: 1, G: 2, B: 3})
	before := buf.Snapshot()

	for _, u := range []uint16{0, 1, 3, 511, 0x7fff} {
		in.OnFrame(u, 0, make([]byte, 24))
	}

	for i, c := range buf.Pixels() {
		if c != before[i] {
			t.Fatalf("pixel %d changed to %v", i, c)
		}
	}
	if p.calls != 0 {
		t.Errorf("Present called %d times for foreign frames", p.calls)
	}
}

func TestOnFrame_FullPayload(t *testing.T) {
	const n = 5
	in, buf, p := newTestIngestor(t, n, 0)

	payload := make([]byte, 3*n+6) // longer than the strip
	for i := range payload {
		payload[i] = byte(i)
	}
	in.OnFrame(0, 9, payload)

	for i := 0; i < n; i++ {
		want := pixel.RGB{R: payload[3*i], G: payload[3*i+1], B: payload[3*i+2]}
		if buf.At(i) != want {
			t.Errorf("pixel %d = %v, want %v", i, buf.At(i), want)
		}
	}
	if p.calls != 1 {
		t.Errorf("Present called %d times, want 1", p.calls)
	}
	if in.LastSequence() != 9 {
		t.Errorf("LastSequence = %d, want 9", in.LastSequence())
	}
}

func TestOnFrame_ScenarioPartialUpdate(t *testing.T) {
	in, buf, p := newTestIngestor(t, 120, 0)
	marker := pixel.RGB{R: 7, G: 7, B: 7}
	buf.Fill(marker)

	in.OnFrame(0, 1, []byte{255, 0, 0, 0, 255, 0})

	if buf.At(0) != (pixel.RGB{R: 255}) {
		t.Errorf("pixel 0 = %v", buf.At(0))
	}
	if buf.At(1) != (pixel.RGB{G: 255}) {
		t.Errorf("pixel 1 = %v", buf.At(1))
	}
	for i := 2; i < 120; i++ {
		if buf.At(i) != marker {
			t.Fatalf("pixel %d = %v, want unchanged %v", i, buf.At(i), marker)
		}
	}
	if p.calls != 1 {
		t.Errorf("Present called %d times, want 1", p.calls)
	}
}

func TestOnFrame_IncompleteTriplet(t *testing.T) {
	in, buf, _ := newTestIngestor(t, 4, 0)
	marker := pixel.RGB{B: 9}
	buf.Fill(marker)

	// 3 full triplets plus two dangling bytes.
	in.OnFrame(0, 0, []byte{1, 1, 1, 2, 2, 2, 3, 3, 3, 4, 4})

	if buf.At(2) != (pixel.RGB{R: 3, G: 3, B: 3}) {
		t.Errorf("pixel 2 = %v", buf.At(2))
	}
	if buf.At(3) != marker {
		t.Errorf("pixel 3 = %v, want unchanged", buf.At(3))
	}
}

func TestOnFrame_EmptyPayloadStillPresents(t *testing.T) {
	in, buf, p := newTestIngestor(t, 3, 0)
	buf.Fill(pixel.White)

	in.OnFrame(0, 0, nil)

	if p.calls != 1 {
		t.Errorf("Present called %d times, want 1", p.calls)
	}
	if buf.At(0) != pixel.White {
		t.Error("empty payload must not modify the buffer")
	}
}

func TestOnFrame_PresentErrorIsAbsorbed(t *testing.T) {
	in, buf, p := newTestIngestor(t, 2, 0)
	p.err = errors.New("spi gone")

	in.OnFrame(0, 0, []byte{1, 2, 3})

	if buf.At(0) != (pixel.RGB{R: 1, G: 2, B: 3}) {
		t.Error("buffer should be updated even if present fails")
	}
}

func TestSetUniverse(t *testing.T) {
	in, buf, _ := newTestIngestor(t, 1, 0)
	in.SetUniverse(13)

	in.OnFrame(0, 0, []byte{9, 9, 9})
	if buf.At(0) != pixel.Off {
		t.Error("frame for old universe should be ignored")
	}

	in.OnFrame(13, 0, []byte{9, 9, 9})
	if buf.At(0) != (pixel.RGB{R: 9, G: 9, B: 9}) {
		t.Error("frame for new universe should apply")
	}
}

func TestFill(t *testing.T) {
	in, buf, p := newTestIngestor(t, 3, 0)
	in.Fill(pixel.Green)

	for i := 0; i < 3; i++ {
		if buf.At(i) != pixel.Green {
			t.Errorf("pixel %d = %v", i, buf.At(i))
		}
	}
	if p.calls != 1 {
		t.Errorf("Present called %d times, want 1", p.calls)
	}
}
