package monitor

import (
	"context"

	"github.com/oshokin/zone-intrusion/internal/domain/verdict"
	"github.com/oshokin/zone-intrusion/internal/logger"
)

// LogSink writes alarm transitions at info level and per-frame summaries at debug level.
type LogSink struct{}

// Publish logs the verdict.
func (LogSink) Publish(ctx context.Context, frame *verdict.Frame) error {
	for i := range frame.Zones {
		z := &frame.Zones[i]

		switch {
		case z.Raised:
			logger.WarnKV(ctx, "Alarm raised",
				"zone", z.Zone.Name(),
				"frame", frame.Index,
				"intruders", z.Intruders.String())
		case z.Cleared:
			logger.InfoKV(ctx, "Alarm cleared",
				"zone", z.Zone.Name(),
				"frame", frame.Index)
		}
	}

	logger.DebugKV(ctx, "Frame processed",
		"frame", frame.Index,
		"detections", len(frame.Detections),
		"intruders", frame.Intruders().String(),
		"alarm_active", frame.AlarmActive())

	return nil
}

// Close is a no-op.
func (LogSink) Close() error {
	return nil
}
