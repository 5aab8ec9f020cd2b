// Package power owns the display-on/off state machine: stream activity,
// panel backlight and CPU governor move together, always in lockstep.
package power

import (
	"context"
	"image"
	"log/slog"
	"sync"

	"github.com/dannen/lepton-viewer-rpi/internal/display"
	"github.com/dannen/lepton-viewer-rpi/internal/hostctl"
	"github.com/dannen/lepton-viewer-rpi/internal/stream"
)

// State is the process-wide power state. The invariants hold in every
// reachable state:
//
//	StreamActive == DisplayOn
//	(Governor == GovernorPowersave) == !DisplayOn
type State struct {
	DisplayOn    bool
	Governor     hostctl.Governor
	StreamActive bool
}

// Manager executes the DISPLAY_ON / DISPLAY_OFF transitions. Transitions
// are atomic under the manager's lock; no caller can observe a partial
// state such as stream stopped with the backlight still on.
type Manager struct {
	mu     sync.Mutex
	state  State
	stream stream.Provider
	sink   display.Sink
	host   hostctl.Controller

	// black is rendered on toggle-off so no ghost frame sits behind the
	// dark backlight.
	black *image.RGBA
}

// NewManager creates a manager in the DISPLAY_ON state. ApplyInitial must
// run before the pipeline loop starts.
func NewManager(src stream.Provider, sink display.Sink, host hostctl.Controller) *Manager {
	return &Manager{
		state: State{
			DisplayOn:    true,
			Governor:     hostctl.GovernorOndemand,
			StreamActive: true,
		},
		stream: src,
		sink:   sink,
		host:   host,
		black:  image.NewRGBA(sink.Bounds()),
	}
}

// State returns a copy of the current power state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// ApplyInitial realizes the initial DISPLAY_ON state on the hardware:
// governor ondemand (best effort), backlight on, stream started.
func (m *Manager) ApplyInitial(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.host.SetGovernor(ctx, hostctl.GovernorOndemand); err != nil {
		slog.Warn("governor change failed, continuing", "error", err)
	}
	if err := m.sink.SetBacklight(true); err != nil {
		slog.Warn("backlight on failed", "error", err)
	}
	return m.stream.Start(ctx)
}

// Toggle flips between DISPLAY_ON and DISPLAY_OFF and returns the new
// state. Governor command failure is logged but never blocks the
// display/backlight/stream transition. A stream start failure on
// toggle-on does not block the transition either; it is returned so the
// controller can enter its degrade path.
func (m *Manager) Toggle(ctx context.Context) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var startErr error
	if m.state.DisplayOn {
		if err := m.stream.Stop(); err != nil {
			slog.Warn("stream stop failed during power-off", "error", err)
		}
		if err := m.sink.Render(m.black); err != nil {
			slog.Warn("failed to blank panel", "error", err)
		}
		if err := m.sink.SetBacklight(false); err != nil {
			slog.Warn("backlight off failed", "error", err)
		}
		if err := m.host.SetGovernor(ctx, hostctl.GovernorPowersave); err != nil {
			slog.Warn("governor change failed, continuing", "error", err)
		}
		m.state = State{
			DisplayOn:    false,
			Governor:     hostctl.GovernorPowersave,
			StreamActive: false,
		}
	} else {
		if err := m.host.SetGovernor(ctx, hostctl.GovernorOndemand); err != nil {
			slog.Warn("governor change failed, continuing", "error", err)
		}
		if err := m.stream.Start(ctx); err != nil {
			slog.Error("stream start failed during power-on", "error", err)
			startErr = err
		}
		if err := m.sink.SetBacklight(true); err != nil {
			slog.Warn("backlight on failed", "error", err)
		}
		m.state = State{
			DisplayOn:    true,
			Governor:     hostctl.GovernorOndemand,
			StreamActive: true,
		}
	}

	slog.Info("power state toggled",
		"display_on", m.state.DisplayOn,
		"governor", m.state.Governor,
		"stream_active", m.state.StreamActive,
	)
	return m.state, startErr
}
