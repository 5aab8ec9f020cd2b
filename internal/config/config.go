package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the complete viewer configuration
type Config struct {
	InstanceID       string        `yaml:"instance_id"`
	ShutdownTimeoutS int           `yaml:"shutdown_timeout_s"` // Graceful shutdown timeout in seconds (default: 5)
	Camera           CameraConfig  `yaml:"camera"`
	Display          DisplayConfig `yaml:"display"`
	Buttons          ButtonsConfig `yaml:"buttons"`
	Thermal          ThermalConfig `yaml:"thermal"`
	LUTs             LUTsConfig    `yaml:"luts"`
	MQTT             MQTTConfig    `yaml:"mqtt"`
	FrameTimeoutMs   int           `yaml:"frame_timeout_ms"` // Max wait for a frame before skipping a render cycle
	LogFile          string        `yaml:"log_file,omitempty"`
}

// CameraConfig identifies the USB thermal camera and its video mode
type CameraConfig struct {
	VendorID  uint16 `yaml:"vendor_id"`  // USB vendor id (default: 0x1e4e, GroupGets PureThermal)
	ProductID uint16 `yaml:"product_id"` // USB product id (default: 0x0100)
	Device    string `yaml:"device"`     // explicit /dev/videoN, skips discovery
	Width     int    `yaml:"width"`
	Height    int    `yaml:"height"`
	FPS       int    `yaml:"fps"`
	Mock      bool   `yaml:"mock"` // synthetic frames, no hardware needed
}

// DisplayConfig contains ST7789 panel wiring and geometry
type DisplayConfig struct {
	SPIPort      string `yaml:"spi_port"` // e.g. SPI0.0
	DCPin        string `yaml:"dc_pin"`   // data/command select
	BacklightPin string `yaml:"backlight_pin"`
	ResetPin     string `yaml:"reset_pin,omitempty"`
	Width        int    `yaml:"width"`
	Height       int    `yaml:"height"`
	Rotation     int    `yaml:"rotation"` // 0, 90, 180, 270
	XOffset      int    `yaml:"x_offset"`
	YOffset      int    `yaml:"y_offset"`
	SPIHz        int    `yaml:"spi_hz"`
}

// ButtonsConfig contains GPIO button wiring
type ButtonsConfig struct {
	PinA       string `yaml:"pin_a"` // palette advance
	PinB       string `yaml:"pin_b"` // power toggle
	DebounceMs int    `yaml:"debounce_ms"`
}

// ThermalConfig tunes the CPU temperature watchdog
type ThermalConfig struct {
	SensorPath         string  `yaml:"sensor_path"`
	CheckIntervalS     int     `yaml:"check_interval_s"`
	LogIntervalS       int     `yaml:"log_interval_s"`
	ShutdownThresholdC float64 `yaml:"shutdown_threshold_c"`
}

// LUTsConfig locates user palette files
type LUTsConfig struct {
	Dir string `yaml:"dir"` // directory scanned for *.lut files, empty disables
}

// MQTTConfig contains MQTT broker settings. An empty broker disables
// publishing entirely.
type MQTTConfig struct {
	Broker string     `yaml:"broker"`
	Topics MQTTTopics `yaml:"topics"`
	QoS    byte       `yaml:"qos"`
}

// MQTTTopics contains topic templates
type MQTTTopics struct {
	Status string `yaml:"status"`
	Events string `yaml:"events"`
}

// Load reads and parses a YAML configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}
