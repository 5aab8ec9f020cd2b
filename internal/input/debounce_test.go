package input

import (
	"testing"
	"time"
)

func TestDebouncerSinglePressFiresOnce(t *testing.T) {
	d := newDebouncer(150 * time.Millisecond)
	now := time.Now()

	if !d.sample(true, now) {
		t.Fatal("first falling edge did not fire")
	}
	// Held down: no repeat.
	for i := 1; i <= 5; i++ {
		if d.sample(true, now.Add(time.Duration(i)*time.Millisecond)) {
			t.Fatal("held button fired again")
		}
	}
	if d.sample(false, now.Add(10*time.Millisecond)) {
		t.Fatal("release fired an event")
	}
}

func TestDebouncerSuppressesBounce(t *testing.T) {
	d := newDebouncer(150 * time.Millisecond)
	now := time.Now()

	fired := 0
	// Simulated contact bounce: rapid press/release flutter within 20ms.
	levels := []bool{true, false, true, false, true, true, false}
	for i, level := range levels {
		if d.sample(level, now.Add(time.Duration(i*3)*time.Millisecond)) {
			fired++
		}
	}
	if fired != 1 {
		t.Fatalf("bounce produced %d events, want 1", fired)
	}
}

func TestDebouncerEnforcesSpacing(t *testing.T) {
	d := newDebouncer(150 * time.Millisecond)
	now := time.Now()

	if !d.sample(true, now) {
		t.Fatal("first press did not fire")
	}
	d.sample(false, now.Add(50*time.Millisecond))
	if d.sample(true, now.Add(100*time.Millisecond)) {
		t.Fatal("press inside the spacing window fired")
	}
	d.sample(false, now.Add(120*time.Millisecond))
	if !d.sample(true, now.Add(200*time.Millisecond)) {
		t.Fatal("press after the spacing window did not fire")
	}
}
