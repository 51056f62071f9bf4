package integration

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/zone-intrusion/internal/config"
	"github.com/oshokin/zone-intrusion/internal/domain/zone"
	zonerepo "github.com/oshokin/zone-intrusion/internal/repository/zone"
	"github.com/oshokin/zone-intrusion/internal/service/monitor"
)

// intruderLine is a replay frame with one tracked person inside the test zone.
const intruderLine = `{"detections": [{"track_id": 7, "confidence": 0.9, "bbox": [40, 40, 60, 60]}]}`

// passerbyLine is a replay frame with one person outside the test zone.
const passerbyLine = `{"detections": [{"track_id": 8, "confidence": 0.9, "bbox": [500, 500, 520, 520]}]}`

// reservePort returns address on a free TCP port and closes it.
func reservePort(t *testing.T) string {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	addr := l.Addr().String()
	_ = l.Close()

	return addr
}

// writeZones stores a 100x100 "gate" zone at the origin and returns the file path.
func writeZones(t *testing.T, dir string) string {
	t.Helper()

	path := filepath.Join(dir, "zones.json")
	gate := zone.New("gate", []zone.Point{{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 100}, {X: 0, Y: 100}})

	require.NoError(t, zonerepo.NewFileRepository(path).Save(context.Background(), []*zone.Zone{gate}))

	return path
}

// writeReplay writes intruders frames with a person inside followed by passersby frames outside.
func writeReplay(t *testing.T, dir string, intruders, passersby int) string {
	t.Helper()

	var b strings.Builder

	for range intruders {
		b.WriteString(intruderLine + "\n")
	}

	for range passersby {
		b.WriteString(passerbyLine + "\n")
	}

	path := filepath.Join(dir, "recording.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o600))

	return path
}

// startMonitor runs the monitor with the verdict service on addr.
// Returns a stop function that cancels the monitor and waits for it to exit.
func startMonitor(t *testing.T, addr string, options *monitor.Options) (stop func() error) {
	t.Helper()

	// Create cancellable context for monitor lifecycle.
	ctx, cancel := context.WithCancel(context.Background())
	cfgPath := filepath.Join(t.TempDir(), "settings.yaml")

	// Create temporary configuration file.
	require.NoError(
		t,
		config.Save(cfgPath, &config.Config{
			ListenAddress: addr,
			ServerAddress: addr,
			Timeout:       5 * time.Second,
		}),
	)

	options.ConfigPath = cfgPath

	done := make(chan error, 1)

	go func() {
		done <- monitor.Run(ctx, options)
	}()

	// Wait briefly for the monitor to start listening.
	time.Sleep(150 * time.Millisecond)

	return func() error {
		cancel()

		return <-done
	}
}
