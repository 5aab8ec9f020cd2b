package stream

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMockSourceDeliversFrames(t *testing.T) {
	src := NewMockSource(4, 3, 100)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := src.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer src.Stop()

	select {
	case frame := <-src.Frames():
		if frame.Width != 4 || frame.Height != 3 {
			t.Errorf("frame size = %dx%d, want 4x3", frame.Width, frame.Height)
		}
		if len(frame.Data) != 12 {
			t.Errorf("frame data length = %d, want 12", len(frame.Data))
		}
		if frame.TraceID == "" {
			t.Error("frame missing trace id")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for frame")
	}
}

func TestMockSourceStopIsIdempotentAndRestartable(t *testing.T) {
	src := NewMockSource(4, 3, 100)
	ctx := context.Background()

	for cycle := 0; cycle < 3; cycle++ {
		if err := src.Start(ctx); err != nil {
			t.Fatalf("Start (cycle %d) failed: %v", cycle, err)
		}

		select {
		case <-src.Frames():
		case <-time.After(time.Second):
			t.Fatalf("no frame after restart %d", cycle)
		}

		if err := src.Stop(); err != nil {
			t.Fatalf("Stop (cycle %d) failed: %v", cycle, err)
		}
		if err := src.Stop(); err != nil {
			t.Fatalf("second Stop (cycle %d) failed: %v", cycle, err)
		}
	}
}

func TestMockSourceErrorInjection(t *testing.T) {
	src := NewMockSource(4, 3, 100)
	src.FailOn = 1

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := src.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer src.Stop()

	select {
	case err := <-src.Errors():
		if !errors.Is(err, ErrStreamError) {
			t.Errorf("error = %v, want ErrStreamError", err)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for injected error")
	}
}
