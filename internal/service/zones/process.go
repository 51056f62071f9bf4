package zones

import (
	"context"
	"os"
	"strings"

	"github.com/mitchellh/go-ps"

	"github.com/oshokin/zone-intrusion/internal/logger"
)

// monitorExecutable is the monitor binary name without platform extension.
const monitorExecutable = "intrusion-monitor"

// listProcesses is replaced in tests.
var listProcesses = ps.Processes

// monitorRunning reports whether another process runs the monitor binary.
func monitorRunning() (bool, error) {
	processList, err := listProcesses()
	if err != nil {
		return false, err
	}

	thisProcessID := os.Getpid()

	for _, process := range processList {
		if process.Pid() == thisProcessID {
			continue
		}

		if strings.TrimSuffix(process.Executable(), ".exe") == monitorExecutable {
			return true, nil
		}
	}

	return false, nil
}

// warnIfMonitorRunning reminds the operator that a running monitor must be restarted.
func warnIfMonitorRunning(ctx context.Context) {
	running, err := monitorRunning()
	if err != nil {
		logger.DebugKV(ctx, "Cannot list processes", "error", err)

		return
	}

	if running {
		logger.Warn(ctx, "intrusion-monitor is running, restart it to apply zone changes")
	}
}
