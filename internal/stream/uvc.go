package stream

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/tinyzimmer/go-gst/gst"
	"github.com/tinyzimmer/go-gst/gst/app"

	"github.com/dannen/lepton-viewer-rpi/internal/types"
)

// UVCSource implements Provider using a GStreamer v4l2 capture pipeline.
// The camera delivers UYVY; the pipeline converts to GRAY8 so the rest of
// the system only ever sees an intensity plane.
//
// The source does not reconnect on its own: a pipeline failure is pushed
// to Errors() and the run loop exits. The pipeline controller owns the
// retry policy (one stop/restart, then degrade).
type UVCSource struct {
	device string
	width  int
	height int
	fps    int

	frames chan types.Frame
	errs   chan error
	mu     sync.Mutex

	cancel context.CancelFunc
	wg     sync.WaitGroup

	// stopTimeout bounds how long Stop waits for the pipeline goroutine.
	stopTimeout time.Duration

	frameCount uint64
	bytesRead  uint64
	restarts   uint32
	errCount   uint64
	started    time.Time
	running    bool
	stopping   bool
}

// UVCConfig contains camera capture configuration.
type UVCConfig struct {
	Device string
	Width  int
	Height int
	FPS    int
}

// NewUVCSource creates a UVC frame source for an already-discovered device.
func NewUVCSource(cfg UVCConfig) (*UVCSource, error) {
	if cfg.Device == "" {
		return nil, fmt.Errorf("device path is required")
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("invalid resolution: %dx%d", cfg.Width, cfg.Height)
	}
	if cfg.FPS <= 0 {
		return nil, fmt.Errorf("invalid fps: %d", cfg.FPS)
	}

	return &UVCSource{
		device:      cfg.Device,
		width:       cfg.Width,
		height:      cfg.Height,
		fps:         cfg.FPS,
		frames:      make(chan types.Frame, 2),
		errs:        make(chan error, 1),
		stopTimeout: 3 * time.Second,
	}, nil
}

// Start initializes GStreamer and starts the capture pipeline.
func (s *UVCSource) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopping {
		return fmt.Errorf("%w: previous pipeline still tearing down", ErrStreamError)
	}
	if s.running {
		return nil
	}

	gst.Init(nil)

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	if !s.started.IsZero() {
		atomic.AddUint32(&s.restarts, 1)
	}
	s.started = time.Now()
	s.running = true

	s.wg.Add(1)
	go s.runPipeline(runCtx)

	slog.Info("uvc stream starting",
		"device", s.device,
		"resolution", fmt.Sprintf("%dx%d", s.width, s.height),
		"fps", s.fps,
	)

	return nil
}

// Frames returns the channel of captured frames.
func (s *UVCSource) Frames() <-chan types.Frame {
	return s.frames
}

// Errors returns the channel of stream failures.
func (s *UVCSource) Errors() <-chan error {
	return s.errs
}

// runPipeline builds and pumps the capture pipeline until it fails or the
// source is stopped. The context and pipeline handle belong to this
// goroutine alone; Stop only ever signals through the cancel func.
func (s *UVCSource) runPipeline(ctx context.Context) {
	defer s.wg.Done()

	if err := s.captureLoop(ctx); err != nil {
		slog.Error("uvc pipeline failed", "device", s.device, "error", err)
		atomic.AddUint64(&s.errCount, 1)
		s.pushError(fmt.Errorf("%w: %v", ErrStreamError, err))
	}
}

// pushError delivers a stream error without ever blocking the capture path.
func (s *UVCSource) pushError(err error) {
	select {
	case s.errs <- err:
	default:
		slog.Debug("error channel full, dropping stream error", "error", err)
	}
}

func (s *UVCSource) captureLoop(ctx context.Context) error {
	pipeline, err := gst.NewPipeline("")
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}

	v4l2src, err := gst.NewElement("v4l2src")
	if err != nil {
		return fmt.Errorf("failed to create v4l2src: %w", err)
	}
	v4l2src.SetProperty("device", s.device)

	// Camera-native caps first, then convert down to the GRAY8 plane the
	// colorizer consumes.
	srcCaps, _ := gst.NewElement("capsfilter")
	srcCaps.SetProperty("caps", gst.NewCapsFromString(fmt.Sprintf(
		"video/x-raw,format=UYVY,width=%d,height=%d,framerate=%d/1",
		s.width, s.height, s.fps,
	)))

	videoconvert, _ := gst.NewElement("videoconvert")

	grayCaps, _ := gst.NewElement("capsfilter")
	grayCaps.SetProperty("caps", gst.NewCapsFromString(fmt.Sprintf(
		"video/x-raw,format=GRAY8,width=%d,height=%d",
		s.width, s.height,
	)))

	appsink, err := app.NewAppSink()
	if err != nil {
		return fmt.Errorf("failed to create appsink: %w", err)
	}

	appsink.SetProperty("sync", false)
	appsink.SetProperty("max-buffers", 1)
	appsink.SetProperty("drop", true)

	appsink.SetCallbacks(&app.SinkCallbacks{
		NewSampleFunc: func(sink *app.Sink) gst.FlowReturn {
			return s.onNewSample(sink)
		},
	})

	pipeline.AddMany(v4l2src, srcCaps, videoconvert, grayCaps, appsink.Element)
	gst.ElementLinkMany(v4l2src, srcCaps, videoconvert, grayCaps, appsink.Element)

	if err := pipeline.SetState(gst.StatePlaying); err != nil {
		return fmt.Errorf("failed to set pipeline to playing: %w", err)
	}
	defer pipeline.SetState(gst.StateNull)

	bus := pipeline.GetPipelineBus()
	for {
		select {
		case <-ctx.Done():
			slog.Debug("uvc pipeline context cancelled")
			return nil
		default:
		}

		msg := bus.TimedPop(50 * time.Millisecond)
		if msg == nil {
			continue
		}

		switch msg.Type() {
		case gst.MessageEOS:
			return fmt.Errorf("unexpected end of stream")

		case gst.MessageError:
			gerr := msg.ParseError()
			return fmt.Errorf("pipeline error: %s (%s)", gerr.Error(), gerr.DebugString())

		case gst.MessageStateChanged:
			if msg.Source() == pipeline.GetName() {
				old, next := msg.ParseStateChanged()
				slog.Debug("pipeline state changed", "from", old, "to", next)
				if next == gst.StatePlaying {
					slog.Info("uvc stream playing", "device", s.device)
				}
			}
		}
	}
}

// onNewSample copies a GRAY8 buffer out of GStreamer into a Frame.
func (s *UVCSource) onNewSample(sink *app.Sink) gst.FlowReturn {
	sample := sink.PullSample()
	if sample == nil {
		return gst.FlowEOS
	}

	buffer := sample.GetBuffer()
	if buffer == nil {
		return gst.FlowError
	}

	mapInfo := buffer.Map(gst.MapRead)
	data := mapInfo.Bytes()
	defer buffer.Unmap()

	if len(data) != s.width*s.height {
		slog.Debug("dropping buffer with unexpected size",
			"got", len(data),
			"want", s.width*s.height,
		)
		return gst.FlowOK
	}

	frameData := make([]byte, len(data))
	copy(frameData, data)

	frame := types.Frame{
		Seq:       atomic.AddUint64(&s.frameCount, 1),
		Timestamp: time.Now(),
		Width:     s.width,
		Height:    s.height,
		Data:      frameData,
		TraceID:   uuid.New().String(),
	}
	atomic.AddUint64(&s.bytesRead, uint64(len(data)))

	select {
	case s.frames <- frame:
	default:
		slog.Debug("dropping frame, channel full", "seq", frame.Seq)
	}

	return gst.FlowOK
}

// Stop stops the capture pipeline. Idempotent; the source stays
// restartable on the same device handle. When gst teardown outlives the
// stop timeout, Stop returns an error and the source keeps refusing a
// restart until the old pipeline goroutine has actually exited; the
// bookkeeping is finished in the background at that point.
func (s *UVCSource) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	slog.Info("stopping uvc stream", "device", s.device)
	s.stopping = true
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.finishStopLocked()
		slog.Info("uvc stream stopped",
			"frames_received", atomic.LoadUint64(&s.frameCount),
			"uptime", time.Since(s.started),
		)
		return nil
	case <-time.After(s.stopTimeout):
		slog.Warn("uvc stream stop timeout, pipeline teardown still in progress")
		go func() {
			<-done
			s.mu.Lock()
			s.finishStopLocked()
			s.mu.Unlock()
			slog.Info("uvc stream stopped after delayed teardown")
		}()
		return fmt.Errorf("uvc stream stop timed out after %s", s.stopTimeout)
	}
}

// finishStopLocked resets the source for a later Start. Callers hold
// s.mu and must know the pipeline goroutine has exited.
func (s *UVCSource) finishStopLocked() {
	// Drain any stale frames so a restart begins fresh.
	for {
		select {
		case <-s.frames:
			continue
		default:
		}
		break
	}

	s.cancel = nil
	s.running = false
	s.stopping = false
}

// Stats returns current stream statistics.
func (s *UVCSource) Stats() types.StreamStats {
	s.mu.Lock()
	running := s.running
	started := s.started
	s.mu.Unlock()

	frameCount := atomic.LoadUint64(&s.frameCount)
	var fpsReal float64
	if running {
		if uptime := time.Since(started).Seconds(); uptime > 0 {
			fpsReal = float64(frameCount) / uptime
		}
	}

	return types.StreamStats{
		FrameCount:  frameCount,
		FPSTarget:   s.fps,
		FPSReal:     fpsReal,
		Resolution:  fmt.Sprintf("%dx%d", s.width, s.height),
		Restarts:    atomic.LoadUint32(&s.restarts),
		BytesRead:   atomic.LoadUint64(&s.bytesRead),
		IsConnected: running,
		Errors:      atomic.LoadUint64(&s.errCount),
	}
}
