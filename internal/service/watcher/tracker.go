package watcher

import (
	"context"

	api "github.com/oshokin/zone-intrusion/internal/api/grpc/monitor"
	"github.com/oshokin/zone-intrusion/internal/domain/detection"
	"github.com/oshokin/zone-intrusion/internal/logger"
)

// Transition is a change of a zone alarm seen by the watcher.
type Transition struct {
	// Zone is the zone name.
	Zone string
	// Active is the new alarm state.
	Active bool
	// Frame is the frame on which the change was observed.
	Frame int
	// Intruders lists the intruders at that frame.
	Intruders string
}

// tracker remembers the last alarm state per zone to report only transitions.
type tracker struct {
	// sessionID is the monitor session being followed.
	sessionID string
	// alarms holds the last seen alarm output per zone name.
	alarms map[string]bool
}

// newTracker creates an empty tracker.
func newTracker() *tracker {
	return &tracker{
		alarms: make(map[string]bool),
	}
}

// observe logs and returns the transitions between the previous and the given snapshot.
// A new session resets the tracker; zones seen for the first time report only an active alarm.
func (t *tracker) observe(ctx context.Context, s *api.Snapshot) []Transition {
	if s.SessionID != t.sessionID {
		logger.InfoKV(ctx, "Following monitor session", "session_id", s.SessionID)

		t.sessionID = s.SessionID
		clear(t.alarms)
	}

	if s.Frame < 0 {
		return nil
	}

	var transitions []Transition

	for _, z := range s.Zones {
		previous, seen := t.alarms[z.Name]
		t.alarms[z.Name] = z.AlarmActive

		if previous == z.AlarmActive && (seen || !z.AlarmActive) {
			continue
		}

		transition := Transition{
			Zone:      z.Name,
			Active:    z.AlarmActive,
			Frame:     s.Frame,
			Intruders: formatIntruders(z),
		}
		transitions = append(transitions, transition)

		if transition.Active {
			logger.WarnKV(ctx, "Alarm raised", "zone", z.Name, "frame", s.Frame, "intruders", transition.Intruders)
		} else {
			logger.InfoKV(ctx, "Alarm cleared", "zone", z.Name, "frame", s.Frame)
		}
	}

	return transitions
}

// formatIntruders renders the zone's intruders like the monitor logs do.
func formatIntruders(z api.ZoneSnapshot) string {
	ids := make(detection.IdentitySet, len(z.Intruders))
	for _, id := range z.Intruders {
		ids[id] = struct{}{}
	}

	return ids.String()
}
