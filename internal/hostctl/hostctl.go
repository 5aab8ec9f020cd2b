// Package hostctl wraps the host control surface: CPU frequency governor
// and system power-off. Both are fire-and-forget external commands whose
// failures are logged by callers, never propagated as pipeline failures.
package hostctl

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

// Governor is a CPU frequency scaling policy.
type Governor string

const (
	GovernorPowersave Governor = "powersave"
	GovernorOndemand  Governor = "ondemand"
)

// Controller is the host control contract.
type Controller interface {
	// SetGovernor applies a CPU frequency governor. Best effort.
	SetGovernor(ctx context.Context, g Governor) error
	// PowerOff requests an orderly host shutdown.
	PowerOff(ctx context.Context) error
}

// ExecController shells out to the host utilities.
type ExecController struct {
	// GovernorCmd is the frequency utility, default "cpufreq-set".
	GovernorCmd string
	// ShutdownCmd is the power-off utility, default "shutdown".
	ShutdownCmd string
}

// NewExecController returns a controller using the standard utilities.
func NewExecController() *ExecController {
	return &ExecController{
		GovernorCmd: "cpufreq-set",
		ShutdownCmd: "shutdown",
	}
}

// SetGovernor runs `cpufreq-set -g <governor>`.
func (c *ExecController) SetGovernor(ctx context.Context, g Governor) error {
	out, err := exec.CommandContext(ctx, c.GovernorCmd, "-g", string(g)).CombinedOutput()
	if err != nil {
		return fmt.Errorf("failed to set governor %s: %w (%s)",
			g, err, strings.TrimSpace(string(out)))
	}
	slog.Info("cpu governor set", "governor", g)
	return nil
}

// PowerOff runs `shutdown -h now`.
func (c *ExecController) PowerOff(ctx context.Context) error {
	out, err := exec.CommandContext(ctx, c.ShutdownCmd, "-h", "now").CombinedOutput()
	if err != nil {
		return fmt.Errorf("failed to request shutdown: %w (%s)",
			err, strings.TrimSpace(string(out)))
	}
	return nil
}
