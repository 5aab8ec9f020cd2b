package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "viewer.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFillsDefaults(t *testing.T) {
	path := writeConfig(t, "instance_id: bench-unit\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Camera.VendorID != 0x1e4e || cfg.Camera.ProductID != 0x0100 {
		t.Errorf("unexpected camera ids: %04x:%04x", cfg.Camera.VendorID, cfg.Camera.ProductID)
	}
	if cfg.Camera.Width != 160 || cfg.Camera.Height != 120 || cfg.Camera.FPS != 9 {
		t.Errorf("unexpected camera mode: %dx%d@%d", cfg.Camera.Width, cfg.Camera.Height, cfg.Camera.FPS)
	}
	if cfg.Display.SPIPort != "SPI0.0" || cfg.Display.DCPin != "GPIO25" || cfg.Display.BacklightPin != "GPIO22" {
		t.Errorf("unexpected display wiring: %+v", cfg.Display)
	}
	if cfg.Buttons.PinA != "GPIO23" || cfg.Buttons.PinB != "GPIO24" || cfg.Buttons.DebounceMs != 300 {
		t.Errorf("unexpected button wiring: %+v", cfg.Buttons)
	}
	if cfg.Thermal.ShutdownThresholdC != 75.0 {
		t.Errorf("unexpected threshold: %v", cfg.Thermal.ShutdownThresholdC)
	}
	if cfg.FrameTimeoutMs != 500 {
		t.Errorf("unexpected frame timeout: %d", cfg.FrameTimeoutMs)
	}
	if cfg.ShutdownTimeoutS != 5 {
		t.Errorf("unexpected shutdown timeout: %d", cfg.ShutdownTimeoutS)
	}
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, `
instance_id: bench-unit
camera:
  device: /dev/video2
  mock: true
display:
  rotation: 270
  y_offset: 80
buttons:
  debounce_ms: 150
thermal:
  shutdown_threshold_c: 68.5
mqtt:
  broker: "127.0.0.1:1883"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Camera.Device != "/dev/video2" || !cfg.Camera.Mock {
		t.Errorf("camera overrides not applied: %+v", cfg.Camera)
	}
	if cfg.Display.Rotation != 270 || cfg.Display.YOffset != 80 {
		t.Errorf("display overrides not applied: %+v", cfg.Display)
	}
	if cfg.Buttons.DebounceMs != 150 {
		t.Errorf("debounce override not applied: %d", cfg.Buttons.DebounceMs)
	}
	if cfg.Thermal.ShutdownThresholdC != 68.5 {
		t.Errorf("threshold override not applied: %v", cfg.Thermal.ShutdownThresholdC)
	}
	if cfg.MQTT.Topics.Status != "thermal/status/bench-unit" {
		t.Errorf("status topic default not derived: %q", cfg.MQTT.Topics.Status)
	}
	if cfg.MQTT.Topics.Events != "thermal/events/bench-unit" {
		t.Errorf("events topic default not derived: %q", cfg.MQTT.Topics.Events)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"bad instance id", "instance_id: Not_Valid!\n"},
		{"bad rotation", "display:\n  rotation: 45\n"},
		{"duplicate button pins", "buttons:\n  pin_a: GPIO5\n  pin_b: GPIO5\n"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfig(t, tc.body)
			if _, err := Load(path); err == nil {
				t.Fatalf("expected error for %s", tc.name)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
