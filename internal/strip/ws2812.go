package strip

import (
	"fmt"

	"github.com/smazurov/lightnode/internal/pixel"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

// WS2812 bit timing over SPI: at 2.4 MHz every data bit is sent as three SPI
// bits, 0 -> 100 and 1 -> 110. Each color byte becomes three SPI bytes.
const (
	ws2812SPIFreq = 2400 * physic.KiloHertz
	// 50us of low line at 2.4 MHz latches the data.
	ws2812ResetBytes = 16
)

// ws2812 drives a WS2812/WS2812B strip through an SPI MOSI line.
type ws2812 struct {
	port spi.PortCloser
	conn spi.Conn
	buf  []byte
}

// NewWS2812 opens the SPI port (e.g. "SPI0.0", or "" for the first one)
// and prepares a transmit buffer for n LEDs.
func NewWS2812(portName string, n int) (Driver, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialise periph host: %w", err)
	}

	port, err := spireg.Open(portName)
	if err != nil {
		return nil, fmt.Errorf("failed to open SPI port %q: %w", portName, err)
	}

	c, err := port.Connect(ws2812SPIFreq, spi.Mode0, 8)
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to configure SPI port %q: %w", portName, err)
	}

	return &ws2812{
		port: port,
		conn: c,
		buf:  make([]byte, n*9+ws2812ResetBytes),
	}, nil
}

// Present encodes pixels in GRB order and transmits them.
func (d *ws2812) Present(pixels []pixel.RGB) error {
	n := encodeWS2812(d.buf, pixels)
	return d.conn.Tx(d.buf[:n], nil)
}

func (d *ws2812) Close() error {
	return d.port.Close()
}

// encodeWS2812 writes the SPI bit stream for pixels into dst and returns the
// number of bytes used, including the trailing reset.
func encodeWS2812(dst []byte, pixels []pixel.RGB) int {
	i := 0
	for _, p := range pixels {
		for _, c := range [3]uint8{p.G, p.R, p.B} {
			if i+3 > len(dst) {
				return i
			}
			expandByte(dst[i:i+3], c)
			i += 3
		}
	}
	for r := 0; r < ws2812ResetBytes && i < len(dst); r++ {
		dst[i] = 0
		i++
	}
	return i
}

// expandByte spreads the 8 bits of c over 24 SPI bits, MSB first.
func expandByte(dst []byte, c uint8) {
	var bits uint32
	for b := 7; b >= 0; b-- {
		bits <<= 3
		if c&(1<<uint(b)) != 0 {
			bits |= 0b110
		} else {
			bits |= 0b100
		}
	}
	dst[0] = byte(bits >> 16)
	dst[1] = byte(bits >> 8)
	dst[2] = byte(bits)
}
