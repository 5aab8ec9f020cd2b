// Package colormap builds and applies the 256-entry false-color lookup
// tables used to render thermal intensity frames.
package colormap

import "github.com/dannen/lepton-viewer-rpi/internal/types"

// Entries is the fixed length of every colormap table.
const Entries = 256

// RGB is one colormap entry.
type RGB struct {
	R, G, B uint8
}

// Map is an immutable 256-entry intensity→color table.
type Map struct {
	name  string
	table [Entries]RGB
}

// Name returns the display name of the colormap.
func (m *Map) Name() string { return m.name }

// Lookup returns the color for an intensity value.
func (m *Map) Lookup(intensity uint8) RGB {
	return m.table[intensity]
}

// Normalize applies automatic gain control to a GRAY8 frame: a linear
// min/max stretch of the intensity plane to the full 0-255 range.
// A flat frame is returned unchanged. The input is never modified.
func Normalize(frame types.Frame) []byte {
	out := make([]byte, len(frame.Data))
	if len(frame.Data) == 0 {
		return out
	}

	lo, hi := frame.Data[0], frame.Data[0]
	for _, v := range frame.Data {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}

	if hi == lo {
		copy(out, frame.Data)
		return out
	}

	span := int(hi) - int(lo)
	for i, v := range frame.Data {
		out[i] = uint8((int(v) - int(lo)) * 255 / span)
	}
	return out
}

// Apply colorizes a GRAY8 plane through the map, producing a tightly
// packed RGBA buffer (4 bytes per pixel, alpha always 0xff).
func Apply(m *Map, gray []byte) []byte {
	out := make([]byte, len(gray)*4)
	for i, v := range gray {
		c := m.table[v]
		out[i*4+0] = c.R
		out[i*4+1] = c.G
		out[i*4+2] = c.B
		out[i*4+3] = 0xff
	}
	return out
}
