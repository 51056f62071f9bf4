package verdict

import (
	"context"
	"errors"
	"time"

	"github.com/oshokin/zone-intrusion/internal/domain/detection"
	"github.com/oshokin/zone-intrusion/internal/domain/zone"
)

// ErrStopRequested is returned by a sink that wants the frame loop to stop,
// for example when the operator closes the display window.
var ErrStopRequested = errors.New("stop requested")

// Zone is the outcome of one zone for one frame.
type Zone struct {
	// Zone is the evaluated zone.
	Zone *zone.Zone
	// Intruders are the identities whose box center lies inside the zone.
	Intruders detection.IdentitySet
	// AlarmActive is the debounced alarm output for the zone.
	AlarmActive bool
	// Raised is true on the frame the alarm went from idle to active.
	Raised bool
	// Cleared is true on the frame the alarm went from active to idle.
	Cleared bool
}

// Intrusion reports whether any detection was inside the zone this frame.
func (z *Zone) Intrusion() bool {
	return z.Intruders.Len() > 0
}

// Frame is the verdict for a processed frame.
type Frame struct {
	// SessionID identifies the monitoring session.
	SessionID string
	// Index is the frame position in the stream.
	Index int
	// At is when the frame was processed.
	At time.Time
	// Detections are all detections of the frame, for rendering.
	Detections []detection.Detection
	// Zones holds one verdict per monitored zone, in zone order.
	Zones []Zone
	// Image is the source frame payload, for renderers that understand it.
	Image any
}

// AlarmActive reports whether any zone alarm is active.
func (f *Frame) AlarmActive() bool {
	for i := range f.Zones {
		if f.Zones[i].AlarmActive {
			return true
		}
	}

	return false
}

// Intruders returns the union of intruding identities over all zones.
func (f *Frame) Intruders() detection.IdentitySet {
	all := make(detection.IdentitySet)

	for i := range f.Zones {
		for id := range f.Zones[i].Intruders {
			all[id] = struct{}{}
		}
	}

	return all
}

// Sink consumes frame verdicts. Publish must not retain the frame Image.
type Sink interface {
	Publish(ctx context.Context, frame *Frame) error
	Close() error
}
