package config

import (
	"fmt"
	"regexp"
)

var instanceIDPattern = regexp.MustCompile(`^[a-z0-9\-]+$`)

// Validate checks the configuration and fills in defaults.
func Validate(cfg *Config) error {
	if cfg.InstanceID == "" {
		cfg.InstanceID = "lepton-viewer"
	}
	if !instanceIDPattern.MatchString(cfg.InstanceID) {
		return fmt.Errorf("instance_id must match pattern [a-z0-9-]+")
	}

	if cfg.ShutdownTimeoutS <= 0 {
		cfg.ShutdownTimeoutS = 5
	}
	if cfg.FrameTimeoutMs <= 0 {
		cfg.FrameTimeoutMs = 500
	}

	// Camera defaults target the GroupGets PureThermal carrier board.
	if cfg.Camera.VendorID == 0 {
		cfg.Camera.VendorID = 0x1e4e
	}
	if cfg.Camera.ProductID == 0 {
		cfg.Camera.ProductID = 0x0100
	}
	if cfg.Camera.Width <= 0 {
		cfg.Camera.Width = 160
	}
	if cfg.Camera.Height <= 0 {
		cfg.Camera.Height = 120
	}
	if cfg.Camera.FPS <= 0 {
		cfg.Camera.FPS = 9
	}

	if err := validateDisplay(&cfg.Display); err != nil {
		return fmt.Errorf("display validation failed: %w", err)
	}

	if cfg.Buttons.PinA == "" {
		cfg.Buttons.PinA = "GPIO23"
	}
	if cfg.Buttons.PinB == "" {
		cfg.Buttons.PinB = "GPIO24"
	}
	if cfg.Buttons.DebounceMs <= 0 {
		cfg.Buttons.DebounceMs = 300
	}
	if cfg.Buttons.PinA == cfg.Buttons.PinB {
		return fmt.Errorf("buttons.pin_a and buttons.pin_b must differ")
	}

	if cfg.Thermal.CheckIntervalS <= 0 {
		cfg.Thermal.CheckIntervalS = 30
	}
	if cfg.Thermal.LogIntervalS <= 0 {
		cfg.Thermal.LogIntervalS = 300
	}
	if cfg.Thermal.ShutdownThresholdC <= 0 {
		cfg.Thermal.ShutdownThresholdC = 75.0
	}

	if cfg.MQTT.Broker != "" {
		if cfg.MQTT.Topics.Status == "" {
			cfg.MQTT.Topics.Status = fmt.Sprintf("thermal/status/%s", cfg.InstanceID)
		}
		if cfg.MQTT.Topics.Events == "" {
			cfg.MQTT.Topics.Events = fmt.Sprintf("thermal/events/%s", cfg.InstanceID)
		}
	}

	return nil
}

func validateDisplay(d *DisplayConfig) error {
	if d.SPIPort == "" {
		d.SPIPort = "SPI0.0"
	}
	if d.DCPin == "" {
		d.DCPin = "GPIO25"
	}
	if d.BacklightPin == "" {
		d.BacklightPin = "GPIO22"
	}
	if d.Width <= 0 {
		d.Width = 240
	}
	if d.Height <= 0 {
		d.Height = 240
	}
	if d.SPIHz <= 0 {
		d.SPIHz = 24000000
	}
	switch d.Rotation {
	case 0, 90, 180, 270:
	default:
		return fmt.Errorf("rotation must be one of 0, 90, 180, 270, got %d", d.Rotation)
	}
	return nil
}
