package stream

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dannen/lepton-viewer-rpi/internal/types"
)

// MockSource generates synthetic GRAY8 frames for development without a
// camera and for tests. FailOn injects a stream error in place of the
// frame with that sequence number.
type MockSource struct {
	width  int
	height int
	fps    int

	// FailOn, when non-zero, replaces frame number FailOn with a stream
	// error. Set before Start.
	FailOn uint64

	frames chan types.Frame
	errs   chan error
	stopCh chan struct{}
	wg     sync.WaitGroup

	mu            sync.Mutex
	seq           uint64
	framesEmitted uint64
	running       bool
	startTime     time.Time
}

// NewMockSource creates a mock frame source.
func NewMockSource(width, height, fps int) *MockSource {
	return &MockSource{
		width:  width,
		height: height,
		fps:    fps,
		frames: make(chan types.Frame, 2),
		errs:   make(chan error, 1),
	}
}

// Start begins generating frames.
func (m *MockSource) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return nil
	}
	m.running = true
	m.startTime = time.Now()
	m.stopCh = make(chan struct{})
	m.mu.Unlock()

	slog.Info("mock stream starting",
		"resolution", fmt.Sprintf("%dx%d", m.width, m.height),
		"fps", m.fps,
	)

	m.wg.Add(1)
	go m.generateFrames(ctx)

	return nil
}

// Frames returns the frames channel.
func (m *MockSource) Frames() <-chan types.Frame {
	return m.frames
}

// Errors returns the error channel.
func (m *MockSource) Errors() <-chan error {
	return m.errs
}

// Stop stops the generator. Idempotent and restartable.
func (m *MockSource) Stop() error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return nil
	}
	stopCh := m.stopCh
	m.mu.Unlock()

	close(stopCh)
	m.wg.Wait()

	m.mu.Lock()
	m.running = false
	m.mu.Unlock()

	slog.Info("mock stream stopped", "frames_emitted", m.framesEmitted)
	return nil
}

// Stats returns stream statistics.
func (m *MockSource) Stats() types.StreamStats {
	m.mu.Lock()
	defer m.mu.Unlock()

	var fpsReal float64
	if m.running && m.framesEmitted > 0 {
		if elapsed := time.Since(m.startTime).Seconds(); elapsed > 0 {
			fpsReal = float64(m.framesEmitted) / elapsed
		}
	}

	return types.StreamStats{
		FrameCount:  m.framesEmitted,
		FPSTarget:   m.fps,
		FPSReal:     fpsReal,
		Resolution:  fmt.Sprintf("%dx%d", m.width, m.height),
		IsConnected: m.running,
	}
}

func (m *MockSource) generateFrames(ctx context.Context) {
	defer m.wg.Done()

	m.mu.Lock()
	stopCh := m.stopCh
	m.mu.Unlock()

	ticker := time.NewTicker(time.Second / time.Duration(m.fps))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case <-ticker.C:
			frame := m.createFrame()

			if m.FailOn != 0 && frame.Seq == m.FailOn {
				select {
				case m.errs <- fmt.Errorf("%w: injected failure at frame %d", ErrStreamError, frame.Seq):
				default:
				}
				continue
			}

			select {
			case m.frames <- frame:
				m.mu.Lock()
				m.framesEmitted++
				m.mu.Unlock()
			default:
				// drop: consumer is behind
			}
		}
	}
}

// createFrame builds a moving diagonal ramp so the display shows motion.
func (m *MockSource) createFrame() types.Frame {
	m.mu.Lock()
	m.seq++
	seq := m.seq
	m.mu.Unlock()

	data := make([]byte, m.width*m.height)
	for y := 0; y < m.height; y++ {
		for x := 0; x < m.width; x++ {
			data[y*m.width+x] = uint8(x + y + int(seq))
		}
	}

	return types.Frame{
		Seq:       seq,
		Timestamp: time.Now(),
		Width:     m.width,
		Height:    m.height,
		Data:      data,
		TraceID:   uuid.New().String(),
	}
}
