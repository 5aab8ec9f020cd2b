package thermal

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dannen/lepton-viewer-rpi/internal/types"
)

// DefaultSensorPath is the Raspberry Pi SoC thermal zone.
const DefaultSensorPath = "/sys/class/thermal/thermal_zone0/temp"

// SysfsReader reads a kernel thermal zone that reports milli-degrees
// Celsius as decimal ASCII.
type SysfsReader struct {
	Path string
}

func (r *SysfsReader) Read() (types.ThermalSample, error) {
	path := r.Path
	if path == "" {
		path = DefaultSensorPath
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return types.ThermalSample{}, fmt.Errorf("read thermal zone: %w", err)
	}

	milli, err := strconv.ParseInt(strings.TrimSpace(string(raw)), 10, 64)
	if err != nil {
		return types.ThermalSample{}, fmt.Errorf("parse thermal zone %q: %w", path, err)
	}

	return types.ThermalSample{
		Celsius:   float64(milli) / 1000.0,
		SampledAt: time.Now(),
	}, nil
}
