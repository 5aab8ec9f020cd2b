// Package stream acquires raw thermal frames from the UVC camera.
package stream

import (
	"context"
	"errors"

	"github.com/dannen/lepton-viewer-rpi/internal/types"
)

// ErrDeviceNotFound is returned when no video device matches the
// configured vendor/product identifiers. Fatal at startup.
var ErrDeviceNotFound = errors.New("camera device not found")

// ErrStreamError marks a failure of a running stream. Recoverable: the
// pipeline controller attempts one stop/restart cycle, then degrades.
var ErrStreamError = errors.New("stream error")

// Provider is the contract for frame acquisition.
//
// Implementations must guarantee:
//   - Start() returns quickly; frames arrive asynchronously on Frames()
//   - Stop() is idempotent and leaves the provider restartable without
//     re-enumerating the device (power saving toggles this at will)
//   - channel sends never block the capture path (drop on full buffer)
//   - Errors() carries stream failures without closing Frames()
type Provider interface {
	// Start begins streaming frames.
	Start(ctx context.Context) error
	// Frames returns the channel of captured frames.
	Frames() <-chan types.Frame
	// Errors returns the channel of stream failures.
	Errors() <-chan error
	// Stop stops the stream.
	Stop() error
	// Stats returns stream statistics.
	Stats() types.StreamStats
}
