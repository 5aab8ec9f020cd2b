package input

import "time"

// debouncer collapses the electrical bounce of one physical press into a
// single event: only a released→pressed transition fires, and no two
// events may be closer than the minimum spacing.
type debouncer struct {
	minSpacing time.Duration
	wasPressed bool
	lastFired  time.Time
}

func newDebouncer(minSpacing time.Duration) debouncer {
	return debouncer{minSpacing: minSpacing}
}

// sample feeds one level reading and reports whether a press fired.
func (d *debouncer) sample(pressed bool, now time.Time) bool {
	fire := pressed && !d.wasPressed &&
		(d.lastFired.IsZero() || now.Sub(d.lastFired) >= d.minSpacing)
	d.wasPressed = pressed
	if fire {
		d.lastFired = now
	}
	return fire
}
