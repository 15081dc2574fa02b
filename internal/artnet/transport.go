package artnet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"github.com/smazurov/lightnode/internal/metrics"
)

const defaultQueueSize = 4

// Transport receives ArtDmx frames on a UDP socket. A reader goroutine
// decodes datagrams and hands them to the polling loop through a small
// queue; frames arriving while the queue is full are dropped.
type Transport struct {
	addr   string
	conn   *net.UDPConn
	frames chan Frame
	logger *slog.Logger
	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// NewTransport creates a transport that will listen on addr (e.g. ":6454").
func NewTransport(addr string, logger *slog.Logger) *Transport {
	if addr == "" {
		addr = fmt.Sprintf(":%d", Port)
	}
	return &Transport{
		addr:   addr,
		frames: make(chan Frame, defaultQueueSize),
		logger: logger,
	}
}

// Start opens the socket and starts the reader goroutine.
func (t *Transport) Start(ctx context.Context) error {
	udpAddr, err := net.ResolveUDPAddr("udp4", t.addr)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", t.addr, err)
	}
	conn, err := net.ListenUDP("udp4", udpAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", t.addr, err)
	}
	t.conn = conn

	ctx, t.cancel = context.WithCancel(ctx)
	t.wg.Add(1)
	go t.read(ctx)

	t.logger.Info("Art-Net transport listening", "addr", conn.LocalAddr().String())
	return nil
}

// Addr returns the bound local address, or nil before Start.
func (t *Transport) Addr() net.Addr {
	if t.conn == nil {
		return nil
	}
	return t.conn.LocalAddr()
}

// Poll returns the next queued frame without blocking.
func (t *Transport) Poll() (Frame, bool) {
	select {
	case f := <-t.frames:
		return f, true
	default:
		return Frame{}, false
	}
}

// Stop closes the socket and waits for the reader to exit.
func (t *Transport) Stop() error {
	if t.cancel != nil {
		t.cancel()
	}
	var err error
	if t.conn != nil {
		err = t.conn.Close()
	}
	t.wg.Wait()
	return err
}

func (t *Transport) read(ctx context.Context) {
	defer t.wg.Done()
	buf := make([]byte, 1024)

	for {
		n, from, err := t.conn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return
			}
			t.logger.Warn("Art-Net read failed", "error", err)
			continue
		}

		frame, err := Decode(buf[:n])
		if err != nil {
			// Other Art-Net opcodes (ArtPoll, ArtSync) are common and harmless.
			if !errors.Is(err, ErrNotDMX) {
				metrics.IncDecodeErrors()
				t.logger.Debug("Dropping malformed datagram", "from", from.String(), "error", err)
			}
			continue
		}

		select {
		case t.frames <- frame:
		default:
			metrics.IncFramesDropped()
		}
	}
}
