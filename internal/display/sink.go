// Package display drives the SPI-attached TFT panel.
package display

import "image"

// Sink is the contract for the render target.
//
// Implementations must guarantee:
//   - Render performs a full-frame transfer with bounded duration
//   - Render while the backlight is off is safe (only wasteful; the
//     pipeline controller avoids it)
//   - SetBacklight is independent of rendering
type Sink interface {
	// Render pushes a panel-sized image to the screen.
	Render(img *image.RGBA) error
	// SetBacklight switches the panel light source.
	SetBacklight(on bool) error
	// Bounds returns the panel dimensions.
	Bounds() image.Rectangle
	// Close blanks and powers down the panel.
	Close() error
}
