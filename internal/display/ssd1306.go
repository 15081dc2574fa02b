package display

import (
	"fmt"
	"image"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"
)

const lineHeight = 13

// oled paints screens on a 128x64 SSD1306 over I2C.
type oled struct {
	bus i2c.BusCloser
	dev *ssd1306.Dev
	img *image1bit.VerticalLSB
}

// NewSSD1306 opens the panel on the named I2C bus ("" for the first one).
func NewSSD1306(busName string) (Renderer, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph host: %w", err)
	}
	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("failed to open I2C bus %q: %w", busName, err)
	}
	opts := ssd1306.DefaultOpts
	dev, err := ssd1306.NewI2C(bus, &opts)
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("failed to initialize SSD1306: %w", err)
	}
	return &oled{
		bus: bus,
		dev: dev,
		img: image1bit.NewVerticalLSB(dev.Bounds()),
	}, nil
}

func (o *oled) Render(s Screen) error {
	paint(o.img, s)
	return o.dev.Draw(o.img.Bounds(), o.img, image.Point{})
}

func (o *oled) Close() error {
	haltErr := o.dev.Halt()
	if err := o.bus.Close(); err != nil {
		return err
	}
	return haltErr
}

// paint draws s onto img with the 7x13 bitmap font.
func paint(img *image1bit.VerticalLSB, s Screen) {
	b := img.Bounds()
	for i := range img.Pix {
		img.Pix[i] = 0
	}

	d := font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{C: image1bit.On},
		Face: basicfont.Face7x13,
	}
	y := lineHeight - 2
	for _, line := range append([]string{s.Title}, s.Lines...) {
		if y > b.Dy() {
			break
		}
		d.Dot = fixed.P(0, y)
		d.DrawString(line)
		y += lineHeight - 1
	}
	if s.Cursor {
		d.Dot = fixed.P(b.Dx()/2-3, b.Dy()-1)
		d.DrawString("_")
	}
}
