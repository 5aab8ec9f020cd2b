// Package thermal monitors the host CPU temperature on its own schedule
// and powers the host down past the shutdown threshold.
package thermal

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/dannen/lepton-viewer-rpi/internal/hostctl"
	"github.com/dannen/lepton-viewer-rpi/internal/types"
)

// Reader samples the host temperature.
type Reader interface {
	Read() (types.ThermalSample, error)
}

// Config tunes the watchdog schedule and threshold.
type Config struct {
	ThresholdC  float64
	Interval    time.Duration // sample period
	LogInterval time.Duration // spacing of Info-level temperature lines
}

// Watchdog periodically samples the temperature and requests an orderly
// host power-off the first time a sample reaches the threshold. The
// request fires at most once per process; subsequent over-threshold
// samples are suppressed.
type Watchdog struct {
	cfg    Config
	reader Reader
	host   hostctl.Controller

	once       sync.Once
	triggered  chan struct{}
	trigSample types.ThermalSample
	lastInfo   time.Time
}

// NewWatchdog creates a watchdog. Run must be started on its own
// goroutine; it shares nothing with the pipeline beyond Triggered.
func NewWatchdog(cfg Config, reader Reader, host hostctl.Controller) *Watchdog {
	return &Watchdog{
		cfg:       cfg,
		reader:    reader,
		host:      host,
		triggered: make(chan struct{}),
	}
}

// Triggered is the one-way shutdown signal: closed exactly once, when a
// power-off has been requested.
func (w *Watchdog) Triggered() <-chan struct{} {
	return w.triggered
}

// TriggerSample returns the sample that fired the shutdown. Valid only
// after Triggered is closed.
func (w *Watchdog) TriggerSample() types.ThermalSample {
	return w.trigSample
}

// Run samples until the context is cancelled or a shutdown fires.
func (w *Watchdog) Run(ctx context.Context) {
	slog.Info("thermal watchdog started",
		"threshold_c", w.cfg.ThresholdC,
		"interval", w.cfg.Interval,
	)

	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("thermal watchdog stopped")
			return
		case <-w.triggered:
			return
		case <-ticker.C:
			w.check(ctx)
		}
	}
}

func (w *Watchdog) check(ctx context.Context) {
	sample, err := w.reader.Read()
	if err != nil {
		// A failed read is never a trigger; skip this sample.
		slog.Warn("temperature read failed, skipping sample", "error", err)
		return
	}

	slog.Debug("cpu temperature sampled", "celsius", sample.Celsius)
	if time.Since(w.lastInfo) >= w.cfg.LogInterval {
		slog.Info("cpu temperature", "celsius", sample.Celsius)
		w.lastInfo = time.Now()
	}

	if sample.Celsius < w.cfg.ThresholdC {
		return
	}

	w.once.Do(func() {
		w.trigSample = sample
		slog.Error("cpu temperature over threshold, shutting host down",
			"celsius", sample.Celsius,
			"threshold_c", w.cfg.ThresholdC,
		)
		if err := w.host.PowerOff(ctx); err != nil {
			slog.Error("shutdown command failed, manual intervention required",
				"error", err)
		}
		close(w.triggered)
	})
}
