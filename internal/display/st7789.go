package display

import (
	"fmt"
	"image"
	"log/slog"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
)

// ST7789 command set (subset).
const (
	cmdSWReset = 0x01
	cmdSlpOut  = 0x11
	cmdNorOn   = 0x13
	cmdInvOn   = 0x21
	cmdDispOff = 0x28
	cmdDispOn  = 0x29
	cmdCASet   = 0x2a
	cmdRASet   = 0x2b
	cmdRAMWr   = 0x2c
	cmdMadCtl  = 0x36
	cmdColMod  = 0x3a
)

// SPI transfers are chunked to stay under the kernel's transfer limit.
const maxTransfer = 4096

// Config describes the panel wiring and geometry.
type Config struct {
	Port         string // SPI port name, e.g. "SPI0.0"
	DCPin        string // data/command select
	ResetPin     string // optional hardware reset
	BacklightPin string
	Width        int
	Height       int
	Rotation     int // 0, 90, 180, 270
	XOffset      int
	YOffset      int
	HZ           int64 // SPI clock
}

// ST7789 is the Mini PiTFT panel driver over periph.io SPI.
type ST7789 struct {
	conn      spi.Conn
	port      spi.PortCloser
	dc        gpio.PinOut
	backlight gpio.PinOut
	width     int
	height    int
	xoff      int
	yoff      int

	// pix is the reusable RGB565 transfer buffer.
	pix []byte
}

// Open connects to the panel, runs the init sequence and clears it to
// black with the backlight on. Any failure here is fatal to startup.
func Open(cfg Config) (*ST7789, error) {
	port, err := spireg.Open(cfg.Port)
	if err != nil {
		return nil, fmt.Errorf("failed to open spi port %s: %w", cfg.Port, err)
	}

	conn, err := port.Connect(physic.Frequency(cfg.HZ)*physic.Hertz, spi.Mode0, 8)
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to connect spi: %w", err)
	}

	dc := gpioreg.ByName(cfg.DCPin)
	if dc == nil {
		port.Close()
		return nil, fmt.Errorf("dc pin %s not found", cfg.DCPin)
	}
	backlight := gpioreg.ByName(cfg.BacklightPin)
	if backlight == nil {
		port.Close()
		return nil, fmt.Errorf("backlight pin %s not found", cfg.BacklightPin)
	}

	d := &ST7789{
		conn:      conn,
		port:      port,
		dc:        dc,
		backlight: backlight,
		width:     cfg.Width,
		height:    cfg.Height,
		xoff:      cfg.XOffset,
		yoff:      cfg.YOffset,
		pix:       make([]byte, cfg.Width*cfg.Height*2),
	}

	if cfg.ResetPin != "" {
		rst := gpioreg.ByName(cfg.ResetPin)
		if rst == nil {
			port.Close()
			return nil, fmt.Errorf("reset pin %s not found", cfg.ResetPin)
		}
		rst.Out(gpio.Low)
		time.Sleep(10 * time.Millisecond)
		rst.Out(gpio.High)
		time.Sleep(10 * time.Millisecond)
	}

	if err := d.init(cfg.Rotation); err != nil {
		port.Close()
		return nil, err
	}

	if err := d.Render(image.NewRGBA(d.Bounds())); err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to clear panel: %w", err)
	}
	if err := d.SetBacklight(true); err != nil {
		port.Close()
		return nil, err
	}

	slog.Info("st7789 initialized",
		"port", cfg.Port,
		"resolution", fmt.Sprintf("%dx%d", cfg.Width, cfg.Height),
		"rotation", cfg.Rotation,
		"spi_hz", cfg.HZ,
	)
	return d, nil
}

func (d *ST7789) init(rotation int) error {
	steps := []struct {
		cmd   byte
		data  []byte
		delay time.Duration
	}{
		{cmd: cmdSWReset, delay: 150 * time.Millisecond},
		{cmd: cmdSlpOut, delay: 10 * time.Millisecond},
		{cmd: cmdColMod, data: []byte{0x55}}, // 16 bpp
		{cmd: cmdMadCtl, data: []byte{madctl(rotation)}},
		{cmd: cmdInvOn},
		{cmd: cmdNorOn},
		{cmd: cmdDispOn, delay: 10 * time.Millisecond},
	}
	for _, s := range steps {
		if err := d.command(s.cmd, s.data...); err != nil {
			return fmt.Errorf("init command 0x%02x: %w", s.cmd, err)
		}
		if s.delay > 0 {
			time.Sleep(s.delay)
		}
	}
	return nil
}

func madctl(rotation int) byte {
	switch rotation {
	case 90:
		return 0x60
	case 180:
		return 0xc0
	case 270:
		return 0xa0
	default:
		return 0x00
	}
}

// Render packs the image to RGB565 and pushes it in one addressed window
// write. The transfer is chunked but never blocks beyond the SPI clock.
func (d *ST7789) Render(img *image.RGBA) error {
	b := img.Bounds()
	if b.Dx() != d.width || b.Dy() != d.height {
		return fmt.Errorf("image size %dx%d does not match panel %dx%d",
			b.Dx(), b.Dy(), d.width, d.height)
	}

	for y := 0; y < d.height; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+d.width*4]
		for x := 0; x < d.width; x++ {
			r, g, bl := row[x*4], row[x*4+1], row[x*4+2]
			v := uint16(r&0xf8)<<8 | uint16(g&0xfc)<<3 | uint16(bl)>>3
			i := (y*d.width + x) * 2
			d.pix[i] = byte(v >> 8)
			d.pix[i+1] = byte(v)
		}
	}

	if err := d.setWindow(); err != nil {
		return err
	}
	return d.data(d.pix)
}

func (d *ST7789) setWindow() error {
	x0 := d.xoff
	x1 := d.xoff + d.width - 1
	y0 := d.yoff
	y1 := d.yoff + d.height - 1

	if err := d.command(cmdCASet,
		byte(x0>>8), byte(x0), byte(x1>>8), byte(x1)); err != nil {
		return err
	}
	if err := d.command(cmdRASet,
		byte(y0>>8), byte(y0), byte(y1>>8), byte(y1)); err != nil {
		return err
	}
	return d.command(cmdRAMWr)
}

// SetBacklight switches the panel light source.
func (d *ST7789) SetBacklight(on bool) error {
	if err := d.backlight.Out(gpio.Level(on)); err != nil {
		return fmt.Errorf("failed to set backlight: %w", err)
	}
	return nil
}

// Bounds returns the panel dimensions.
func (d *ST7789) Bounds() image.Rectangle {
	return image.Rect(0, 0, d.width, d.height)
}

// Close blanks the panel, turns the display and backlight off and
// releases the SPI port.
func (d *ST7789) Close() error {
	if err := d.Render(image.NewRGBA(d.Bounds())); err != nil {
		slog.Warn("failed to blank panel on close", "error", err)
	}
	if err := d.command(cmdDispOff); err != nil {
		slog.Warn("failed to switch display off", "error", err)
	}
	if err := d.SetBacklight(false); err != nil {
		slog.Warn("failed to switch backlight off", "error", err)
	}
	return d.port.Close()
}

// command sends one command byte with DC low, then any parameters with
// DC high.
func (d *ST7789) command(cmd byte, params ...byte) error {
	if err := d.dc.Out(gpio.Low); err != nil {
		return err
	}
	if err := d.conn.Tx([]byte{cmd}, nil); err != nil {
		return err
	}
	if len(params) == 0 {
		return nil
	}
	return d.data(params)
}

// data sends a payload with DC high, chunked to the SPI transfer limit.
func (d *ST7789) data(p []byte) error {
	if err := d.dc.Out(gpio.High); err != nil {
		return err
	}
	for len(p) > 0 {
		n := len(p)
		if n > maxTransfer {
			n = maxTransfer
		}
		if err := d.conn.Tx(p[:n], nil); err != nil {
			return err
		}
		p = p[n:]
	}
	return nil
}
