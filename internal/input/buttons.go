// Package input turns the panel's two momentary buttons into debounced
// press events.
package input

import (
	"fmt"
	"log/slog"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
)

// Button identifies one of the two panel buttons.
type Button int

const (
	ButtonA Button = iota // cycles the colormap
	ButtonB               // toggles display power
)

func (b Button) String() string {
	switch b {
	case ButtonA:
		return "A"
	case ButtonB:
		return "B"
	default:
		return "?"
	}
}

// Event is one debounced button press.
type Event struct {
	Button Button
	At     time.Time
}

// Source produces pending button events. Poll must return immediately;
// it is called once per controller tick and never blocks the render path.
type Source interface {
	Poll(now time.Time) []Event
}

// Config describes the button wiring.
type Config struct {
	PinA     string
	PinB     string
	Debounce time.Duration
}

// GPIOSource reads two pull-up, active-low pins. A press is the falling
// edge; mechanical bounce is suppressed by a minimum inter-event spacing.
type GPIOSource struct {
	pins [2]gpio.PinIn
	deb  [2]debouncer
}

// NewGPIOSource configures both pins with the internal pull-up.
func NewGPIOSource(cfg Config) (*GPIOSource, error) {
	s := &GPIOSource{}
	for i, name := range []string{cfg.PinA, cfg.PinB} {
		pin := gpioreg.ByName(name)
		if pin == nil {
			return nil, fmt.Errorf("button pin %s not found", name)
		}
		if err := pin.In(gpio.PullUp, gpio.NoEdge); err != nil {
			return nil, fmt.Errorf("failed to configure pin %s: %w", name, err)
		}
		s.pins[i] = pin
		s.deb[i] = newDebouncer(cfg.Debounce)
	}

	slog.Info("buttons initialized",
		"pin_a", cfg.PinA,
		"pin_b", cfg.PinB,
		"debounce", cfg.Debounce,
	)
	return s, nil
}

// Poll samples both pins and returns any presses since the last call.
func (s *GPIOSource) Poll(now time.Time) []Event {
	var events []Event
	for i := range s.pins {
		pressed := s.pins[i].Read() == gpio.Low // active low
		if s.deb[i].sample(pressed, now) {
			events = append(events, Event{Button: Button(i), At: now})
		}
	}
	return events
}
