package watcher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap/zapcore"
	"google.golang.org/protobuf/encoding/protojson"

	api "github.com/oshokin/zone-intrusion/internal/api/grpc/monitor"
	"github.com/oshokin/zone-intrusion/internal/config"
	"github.com/oshokin/zone-intrusion/internal/logger"
	"github.com/oshokin/zone-intrusion/internal/service/common"
)

// Options controls the watcher.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// ServerAddress provides an optional monitor address override.
	ServerAddress string
	// Once prints the current alarm state and exits instead of streaming.
	Once bool
	// RetryInterval is the delay before reconnecting after the stream ends.
	RetryInterval time.Duration
}

// DefaultRetryInterval is the reconnect delay when none is configured.
const DefaultRetryInterval = 5 * time.Second

// ErrNoServerAddress indicates missing monitor address configuration.
var ErrNoServerAddress = errors.New("no server address configured")

// Run streams verdicts from the monitor and logs every alarm transition.
// It reconnects after failures until the context is canceled.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "intrusion-watch")

	// Load settings, falling back to defaults when no file exists.
	cfg, err := config.LoadOrDefault(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	// Determine server address: command line argument overrides config.
	serverAddress := cfg.ServerAddress
	if opts.ServerAddress != "" {
		serverAddress = opts.ServerAddress
	}

	if serverAddress == "" {
		return ErrNoServerAddress
	}

	retryInterval := opts.RetryInterval
	if retryInterval <= 0 {
		retryInterval = DefaultRetryInterval
	}

	// Identify the watcher in the monitor's logs; not fatal when unavailable.
	actor, err := common.DetectActor()
	if err != nil {
		logger.WarnKV(ctx, "Cannot detect actor", "error", err)
	}

	client, err := common.Dial(ctx, serverAddress, common.WithCallTimeout(cfg.Timeout), common.WithActor(actor))
	if err != nil {
		return fmt.Errorf("dial server: %w", err)
	}

	// Ensure connection cleanup on function exit.
	defer func() {
		_ = client.Close()
	}()

	if opts.Once {
		state, stateErr := client.GetAlarmState(ctx)
		if stateErr != nil {
			return stateErr
		}

		logSnapshot(ctx, api.FromProto(state))

		return nil
	}

	logger.InfoKV(ctx, "Watching verdicts", "server_address", serverAddress)

	tracker := newTracker()

	for {
		err = watch(ctx, client, tracker)
		if ctx.Err() != nil {
			logger.Info(ctx, "Context canceled, exiting")

			return nil
		}

		logger.WarnKV(ctx, "Verdict stream ended, reconnecting", "error", err, "retry_in", retryInterval.String())

		timer := time.NewTimer(retryInterval)

		select {
		case <-ctx.Done():
			timer.Stop()
			logger.Info(ctx, "Context canceled, exiting")

			return nil
		case <-timer.C:
		}
	}
}

// watch consumes one verdict stream until it fails.
func watch(ctx context.Context, client *common.Client, t *tracker) error {
	stream, err := client.WatchVerdicts(ctx)
	if err != nil {
		return err
	}

	for {
		msg, err := stream.Recv()
		if err != nil {
			return fmt.Errorf("receive verdict: %w", err)
		}

		if logger.FromContext(ctx).Desugar().Core().Enabled(zapcore.DebugLevel) {
			if raw, marshalErr := protojson.Marshal(msg); marshalErr == nil {
				logger.Debugf(ctx, "Verdict: %s", raw)
			}
		}

		t.observe(ctx, api.FromProto(msg))
	}
}

// logSnapshot prints the state of every zone.
func logSnapshot(ctx context.Context, s *api.Snapshot) {
	if s.Frame < 0 {
		logger.InfoKV(ctx, "Monitor has not processed any frame yet", "session_id", s.SessionID)

		return
	}

	logger.InfoKV(ctx, "Alarm state",
		"session_id", s.SessionID,
		"frame", s.Frame,
		"timestamp", s.Timestamp.Format(time.RFC3339),
		"alarm_active", s.AlarmActive)

	for _, z := range s.Zones {
		logger.InfoKV(ctx, "Zone state",
			"zone", z.Name,
			"alarm_active", z.AlarmActive,
			"intruders", formatIntruders(z))
	}
}
