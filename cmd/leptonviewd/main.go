package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"periph.io/x/host/v3"

	"github.com/dannen/lepton-viewer-rpi/internal/colormap"
	"github.com/dannen/lepton-viewer-rpi/internal/config"
	"github.com/dannen/lepton-viewer-rpi/internal/core"
	"github.com/dannen/lepton-viewer-rpi/internal/display"
	"github.com/dannen/lepton-viewer-rpi/internal/emitter"
	"github.com/dannen/lepton-viewer-rpi/internal/hostctl"
	"github.com/dannen/lepton-viewer-rpi/internal/input"
	"github.com/dannen/lepton-viewer-rpi/internal/power"
	"github.com/dannen/lepton-viewer-rpi/internal/stream"
	"github.com/dannen/lepton-viewer-rpi/internal/thermal"
)

const defaultConfigPath = "config/leptonviewd.yaml"

func main() {
	// All resource teardown happens via defers inside run; main is the
	// only place allowed to call os.Exit.
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err, "path", *configPath)
		return 1
	}

	setupLogger(cfg.LogFile, *debug)

	slog.Info("starting lepton viewer",
		"instance_id", cfg.InstanceID,
		"config", *configPath,
		"debug", *debug,
	)

	// GPIO and SPI drivers need host initialization before any port opens.
	if _, err := host.Init(); err != nil {
		slog.Error("host peripheral init failed", "error", err)
		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	viewer, cleanup, err := buildViewer(cfg)
	if err != nil {
		slog.Error("failed to build viewer", "error", err)
		return 1
	}
	defer cleanup()

	errChan := make(chan error, 1)
	go func() {
		errChan <- viewer.Run(ctx)
	}()

	var runErr error
	select {
	case sig := <-sigChan:
		slog.Info("received shutdown signal", "signal", sig)
		cancel()
		shutdownTimeout := time.Duration(cfg.ShutdownTimeoutS) * time.Second
		select {
		case runErr = <-errChan:
		case <-time.After(shutdownTimeout):
			slog.Error("shutdown timed out", "timeout", shutdownTimeout)
			return 1
		}
	case runErr = <-errChan:
	}

	if runErr != nil {
		slog.Error("viewer error", "error", runErr)
		return 1
	}

	slog.Info("lepton viewer stopped successfully")
	return 0
}

// buildViewer constructs the full pipeline from configuration. The
// returned cleanup closes hardware handles and the MQTT session.
func buildViewer(cfg *config.Config) (*core.Viewer, func(), error) {
	src, err := buildStream(cfg)
	if err != nil {
		return nil, nil, err
	}

	sink, err := display.Open(display.Config{
		Port:         cfg.Display.SPIPort,
		DCPin:        cfg.Display.DCPin,
		ResetPin:     cfg.Display.ResetPin,
		BacklightPin: cfg.Display.BacklightPin,
		Width:        cfg.Display.Width,
		Height:       cfg.Display.Height,
		Rotation:     cfg.Display.Rotation,
		XOffset:      cfg.Display.XOffset,
		YOffset:      cfg.Display.YOffset,
		HZ:           int64(cfg.Display.SPIHz),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("display init failed: %w", err)
	}

	buttons, err := input.NewGPIOSource(input.Config{
		PinA:     cfg.Buttons.PinA,
		PinB:     cfg.Buttons.PinB,
		Debounce: time.Duration(cfg.Buttons.DebounceMs) * time.Millisecond,
	})
	if err != nil {
		sink.Close()
		return nil, nil, fmt.Errorf("button init failed: %w", err)
	}

	hostCtl := hostctl.NewExecController()

	watchdog := thermal.NewWatchdog(thermal.Config{
		ThresholdC:  cfg.Thermal.ShutdownThresholdC,
		Interval:    time.Duration(cfg.Thermal.CheckIntervalS) * time.Second,
		LogInterval: time.Duration(cfg.Thermal.LogIntervalS) * time.Second,
	}, &thermal.SysfsReader{Path: cfg.Thermal.SensorPath}, hostCtl)

	pub, err := buildPublisher(cfg)
	if err != nil {
		// Publishing is an optional surface; the viewer runs without it.
		slog.Warn("mqtt unavailable, continuing without publishing", "error", err)
		pub = emitter.Noop{}
	}

	viewer := core.NewViewer(core.Options{
		InstanceID:   cfg.InstanceID,
		FrameTimeout: time.Duration(cfg.FrameTimeoutMs) * time.Millisecond,
	}, core.Deps{
		Stream:   src,
		Sink:     sink,
		Power:    power.NewManager(src, sink, hostCtl),
		Buttons:  buttons,
		Registry: colormap.Build(cfg.LUTs.Dir),
		Watchdog: watchdog,
		Emitter:  pub,
	})

	cleanup := func() {
		pub.Close()
		if err := sink.Close(); err != nil {
			slog.Warn("display close failed", "error", err)
		}
	}
	return viewer, cleanup, nil
}

func buildStream(cfg *config.Config) (stream.Provider, error) {
	if cfg.Camera.Mock {
		slog.Info("using mock camera (camera.mock enabled)")
		return stream.NewMockSource(cfg.Camera.Width, cfg.Camera.Height, cfg.Camera.FPS), nil
	}

	device, err := stream.Discover(cfg.Camera.VendorID, cfg.Camera.ProductID, cfg.Camera.Device)
	if err != nil {
		if errors.Is(err, stream.ErrDeviceNotFound) {
			return nil, fmt.Errorf("no camera at %04x:%04x: %w",
				cfg.Camera.VendorID, cfg.Camera.ProductID, err)
		}
		return nil, fmt.Errorf("camera discovery failed: %w", err)
	}
	slog.Info("camera found", "device", device)

	return stream.NewUVCSource(stream.UVCConfig{
		Device: device,
		Width:  cfg.Camera.Width,
		Height: cfg.Camera.Height,
		FPS:    cfg.Camera.FPS,
	})
}

func buildPublisher(cfg *config.Config) (emitter.Publisher, error) {
	if cfg.MQTT.Broker == "" {
		return emitter.Noop{}, nil
	}

	pub := emitter.NewMQTTPublisher(emitter.Options{
		Broker:      cfg.MQTT.Broker,
		ClientID:    cfg.InstanceID,
		StatusTopic: cfg.MQTT.Topics.Status,
		EventsTopic: cfg.MQTT.Topics.Events,
		QoS:         cfg.MQTT.QoS,
	})
	connectCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := pub.Connect(connectCtx); err != nil {
		return nil, err
	}
	return pub, nil
}

// setupLogger installs the JSON slog handler, optionally teeing to a
// log file next to stdout.
func setupLogger(logFile string, debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	var out io.Writer = os.Stdout
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			slog.Error("failed to open log file, using stdout only",
				"path", logFile, "error", err)
		} else {
			out = io.MultiWriter(os.Stdout, f)
		}
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level: level,
	})))
}
