package thermal

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/dannen/lepton-viewer-rpi/internal/hostctl"
	"github.com/dannen/lepton-viewer-rpi/internal/types"
)

type scriptedReader struct {
	mu      sync.Mutex
	samples []float64
	errs    []error
	idx     int
}

func (r *scriptedReader) Read() (types.ThermalSample, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.idx
	if i >= len(r.samples) {
		i = len(r.samples) - 1
	} else {
		r.idx++
	}
	if i < len(r.errs) && r.errs[i] != nil {
		return types.ThermalSample{}, r.errs[i]
	}
	return types.ThermalSample{Celsius: r.samples[i], SampledAt: time.Now()}, nil
}

type countingHost struct {
	mu        sync.Mutex
	powerOffs int
}

func (h *countingHost) SetGovernor(ctx context.Context, g hostctl.Governor) error { return nil }

func (h *countingHost) PowerOff(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.powerOffs++
	return nil
}

func (h *countingHost) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.powerOffs
}

func testConfig() Config {
	return Config{
		ThresholdC:  75.0,
		Interval:    5 * time.Millisecond,
		LogInterval: time.Hour,
	}
}

func TestBelowThresholdNeverTriggers(t *testing.T) {
	reader := &scriptedReader{samples: []float64{40, 55, 74.9}}
	host := &countingHost{}
	wd := NewWatchdog(testConfig(), reader, host)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		wd.Run(ctx)
		close(done)
	}()

	select {
	case <-wd.Triggered():
		t.Fatal("triggered below threshold")
	case <-time.After(100 * time.Millisecond):
	}
	cancel()
	<-done

	if host.count() != 0 {
		t.Fatalf("expected no power-off, got %d", host.count())
	}
}

func TestOverThresholdFiresExactlyOnce(t *testing.T) {
	reader := &scriptedReader{samples: []float64{70, 76.2, 90, 90}}
	host := &countingHost{}
	wd := NewWatchdog(testConfig(), reader, host)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		wd.Run(ctx)
		close(done)
	}()

	select {
	case <-wd.Triggered():
	case <-time.After(2 * time.Second):
		t.Fatal("watchdog never triggered")
	}
	<-done

	if host.count() != 1 {
		t.Fatalf("expected exactly one power-off, got %d", host.count())
	}
}

func TestReadFailureSkipsSample(t *testing.T) {
	readErr := errors.New("sensor unavailable")
	reader := &scriptedReader{
		samples: []float64{0, 80},
		errs:    []error{readErr, nil},
	}
	host := &countingHost{}
	wd := NewWatchdog(testConfig(), reader, host)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		wd.Run(ctx)
		close(done)
	}()

	// The failed read is skipped; the next good sample still triggers.
	select {
	case <-wd.Triggered():
	case <-time.After(2 * time.Second):
		t.Fatal("watchdog never triggered")
	}
	<-done

	if host.count() != 1 {
		t.Fatalf("expected exactly one power-off, got %d", host.count())
	}
}

func TestSysfsReaderParsesMilliCelsius(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "temp")
	if err := os.WriteFile(path, []byte("48312\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	r := &SysfsReader{Path: path}
	sample, err := r.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if sample.Celsius != 48.312 {
		t.Fatalf("expected 48.312, got %v", sample.Celsius)
	}
}

func TestSysfsReaderRejectsGarbage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "temp")
	if err := os.WriteFile(path, []byte("not-a-number\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	r := &SysfsReader{Path: path}
	if _, err := r.Read(); err == nil {
		t.Fatal("expected parse error")
	}
}
