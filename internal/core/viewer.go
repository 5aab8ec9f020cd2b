// Package core runs the viewer pipeline: frames in, colorized pixels out,
// buttons and power transitions in between.
package core

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/dannen/lepton-viewer-rpi/internal/colormap"
	"github.com/dannen/lepton-viewer-rpi/internal/display"
	"github.com/dannen/lepton-viewer-rpi/internal/emitter"
	"github.com/dannen/lepton-viewer-rpi/internal/input"
	"github.com/dannen/lepton-viewer-rpi/internal/power"
	"github.com/dannen/lepton-viewer-rpi/internal/stream"
	"github.com/dannen/lepton-viewer-rpi/internal/thermal"
	"github.com/dannen/lepton-viewer-rpi/internal/types"
)

// Options tunes the controller loop.
type Options struct {
	InstanceID   string
	FrameTimeout time.Duration // max wait for one frame before skipping the render
	IdleTick     time.Duration // loop cadence while the display is off or degraded
	StatsEvery   time.Duration // spacing of the periodic stats log
}

// Deps are the components the controller drives.
type Deps struct {
	Stream   stream.Provider
	Sink     display.Sink
	Power    *power.Manager
	Buttons  input.Source
	Registry *colormap.Registry
	Watchdog *thermal.Watchdog
	Emitter  emitter.Publisher
}

// Stats are the controller's counters, exposed for the periodic debug log.
type Stats struct {
	FramesRendered uint64
	SkippedRenders uint64
	Restarts       uint64
	Cursor         int
	Degraded       bool
}

// Viewer is the single-goroutine pipeline controller. All pixel work and
// every power transition happen on the loop in Run; the thermal watchdog
// is the only concurrent schedule and talks back solely through its
// write-once trigger channel.
type Viewer struct {
	opts Options
	deps Deps

	// canvas is the reusable panel-sized render target.
	canvas *image.RGBA

	mu       sync.Mutex
	cursor   int
	degraded bool
	stats    Stats

	lastStats time.Time
}

// NewViewer creates the controller. Zero-value option fields get the
// production defaults.
func NewViewer(opts Options, deps Deps) *Viewer {
	if opts.FrameTimeout <= 0 {
		opts.FrameTimeout = 500 * time.Millisecond
	}
	if opts.IdleTick <= 0 {
		opts.IdleTick = 250 * time.Millisecond
	}
	if opts.StatsEvery <= 0 {
		opts.StatsEvery = 10 * time.Second
	}
	if deps.Emitter == nil {
		deps.Emitter = emitter.Noop{}
	}

	return &Viewer{
		opts:   opts,
		deps:   deps,
		canvas: image.NewRGBA(deps.Sink.Bounds()),
	}
}

// Run drives the pipeline until the context is cancelled or the thermal
// watchdog requests a shutdown. Clean exit stops the stream and turns
// the backlight off.
func (v *Viewer) Run(ctx context.Context) error {
	// The watchdog gets its own cancel so every return path below can
	// release it; otherwise a startup failure would wait on it forever.
	wdCtx, wdCancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		v.deps.Watchdog.Run(wdCtx)
	}()
	defer wg.Wait()
	defer wdCancel()

	if err := v.deps.Power.ApplyInitial(ctx); err != nil {
		return fmt.Errorf("failed to start pipeline: %w", err)
	}
	v.publishStatus(v.deps.Power.State())

	slog.Info("viewer running",
		"colormaps", v.deps.Registry.Len(),
		"frame_timeout", v.opts.FrameTimeout,
	)

	for {
		select {
		case <-ctx.Done():
			v.shutdown()
			return nil
		case <-v.deps.Watchdog.Triggered():
			v.publishAlert()
			slog.Warn("thermal shutdown requested, unwinding pipeline")
			v.shutdown()
			return nil
		default:
		}

		v.handleButtons(ctx, time.Now())
		v.logStats()

		if v.deps.Power.State().DisplayOn {
			v.cycle(ctx)
		} else {
			v.sleep(ctx, v.opts.IdleTick)
		}
	}
}

// Stats returns a copy of the controller counters.
func (v *Viewer) Stats() Stats {
	v.mu.Lock()
	defer v.mu.Unlock()
	s := v.stats
	s.Cursor = v.cursor
	s.Degraded = v.degraded
	return s
}

// cycle runs one render attempt while the display is on.
func (v *Viewer) cycle(ctx context.Context) {
	if v.isDegraded() {
		v.mu.Lock()
		v.stats.SkippedRenders++
		v.mu.Unlock()
		v.sleep(ctx, v.opts.IdleTick)
		return
	}

	timeout := time.NewTimer(v.opts.FrameTimeout)
	defer timeout.Stop()

	select {
	case <-ctx.Done():
	case <-v.deps.Watchdog.Triggered():
	case frame, ok := <-v.deps.Stream.Frames():
		if ok {
			v.render(frame)
		}
	case err := <-v.deps.Stream.Errors():
		v.recoverStream(ctx, err)
	case <-timeout.C:
		// No frame this cycle; skip the render quietly.
	}
}

// render colorizes and scales one frame onto the panel.
func (v *Viewer) render(frame types.Frame) {
	gray := colormap.Normalize(frame)

	v.mu.Lock()
	m := v.deps.Registry.At(v.cursor)
	v.mu.Unlock()

	rgba := colormap.Apply(m, gray)
	scaleNearest(v.canvas, rgba, frame.Width, frame.Height)

	if err := v.deps.Sink.Render(v.canvas); err != nil {
		slog.Warn("panel render failed", "error", err, "trace_id", frame.TraceID)
		return
	}

	v.mu.Lock()
	v.stats.FramesRendered++
	v.mu.Unlock()
}

// recoverStream gives a failed stream exactly one stop/start cycle. A
// failed restart parks the pipeline in degraded mode until the next
// power toggle; no further retries happen on their own.
func (v *Viewer) recoverStream(ctx context.Context, cause error) {
	slog.Warn("stream error, attempting restart", "error", cause)

	if err := v.deps.Stream.Stop(); err != nil {
		slog.Warn("stream stop failed during recovery", "error", err)
	}
	if err := v.deps.Stream.Start(ctx); err != nil {
		slog.Error("stream restart failed, entering degraded mode", "error", err)
		v.setDegraded(true)
		return
	}

	v.mu.Lock()
	v.stats.Restarts++
	v.mu.Unlock()
	slog.Info("stream restarted")
}

func (v *Viewer) handleButtons(ctx context.Context, now time.Time) {
	for _, ev := range v.deps.Buttons.Poll(now) {
		switch ev.Button {
		case input.ButtonA:
			v.mu.Lock()
			v.cursor = v.deps.Registry.Advance(v.cursor)
			name := v.deps.Registry.At(v.cursor).Name()
			cursor := v.cursor
			v.mu.Unlock()
			slog.Info("colormap changed", "name", name, "index", cursor)

		case input.ButtonB:
			st, err := v.deps.Power.Toggle(ctx)
			if err != nil {
				slog.Error("stream did not come back after power-on, entering degraded mode",
					"error", err)
				v.setDegraded(true)
			} else {
				v.setDegraded(false)
			}
			v.publishStatus(st)
		}
	}
}

// sleep waits for the tick, cancellation or the watchdog, whichever
// comes first.
func (v *Viewer) sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-v.deps.Watchdog.Triggered():
	case <-t.C:
	}
}

func (v *Viewer) shutdown() {
	if err := v.deps.Stream.Stop(); err != nil {
		slog.Warn("stream stop failed during shutdown", "error", err)
	}
	if err := v.deps.Sink.SetBacklight(false); err != nil {
		slog.Warn("backlight off failed during shutdown", "error", err)
	}
	slog.Info("viewer stopped")
}

func (v *Viewer) isDegraded() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.degraded
}

func (v *Viewer) setDegraded(d bool) {
	v.mu.Lock()
	if v.degraded && !d {
		slog.Info("degraded mode cleared")
	}
	v.degraded = d
	v.mu.Unlock()
}

func (v *Viewer) publishStatus(st power.State) {
	v.mu.Lock()
	palette := v.deps.Registry.At(v.cursor).Name()
	v.mu.Unlock()

	v.deps.Emitter.PublishStatus(emitter.StatusEvent{
		InstanceID:  v.opts.InstanceID,
		DisplayOn:   st.DisplayOn,
		Governor:    string(st.Governor),
		StreamUp:    st.StreamActive,
		PaletteName: palette,
		Timestamp:   time.Now(),
	})
}

func (v *Viewer) publishAlert() {
	sample := v.deps.Watchdog.TriggerSample()
	v.deps.Emitter.PublishAlert(emitter.AlertEvent{
		InstanceID: v.opts.InstanceID,
		Kind:       "thermal_shutdown",
		Celsius:    sample.Celsius,
		Timestamp:  time.Now(),
	})
}

// logStats emits the periodic controller counters at Debug.
func (v *Viewer) logStats() {
	if time.Since(v.lastStats) < v.opts.StatsEvery {
		return
	}
	v.lastStats = time.Now()

	s := v.Stats()
	ss := v.deps.Stream.Stats()
	slog.Debug("pipeline stats",
		"frames_rendered", s.FramesRendered,
		"skipped_renders", s.SkippedRenders,
		"restarts", s.Restarts,
		"cursor", s.Cursor,
		"degraded", s.Degraded,
		"stream_frames", ss.FrameCount,
		"stream_fps", ss.FPSReal,
		"stream_connected", ss.IsConnected,
	)
}
