package monitor

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/oshokin/zone-intrusion/internal/domain/alarm"
	"github.com/oshokin/zone-intrusion/internal/domain/detection"
	"github.com/oshokin/zone-intrusion/internal/domain/verdict"
	"github.com/oshokin/zone-intrusion/internal/domain/zone"
	"github.com/oshokin/zone-intrusion/internal/logger"
)

// ErrNoZones indicates that monitoring cannot start without a configured zone.
var ErrNoZones = errors.New("cannot proceed without a configured zone")

// guard pairs a zone with the alarm controller it owns.
type guard struct {
	// zone is the evaluated polygon.
	zone *zone.Zone
	// alarm debounces the zone's intrusion signal.
	alarm *alarm.Controller
}

// Pipeline classifies each frame against every zone and updates the zone alarms.
// Zones are evaluated independently; each has its own alarm controller.
// A Pipeline is driven by a single frame loop and is not safe for concurrent use.
type Pipeline struct {
	// sessionID identifies this monitoring session in verdicts and logs.
	sessionID string
	// clock timestamps verdicts and drives the alarm controllers.
	clock alarm.Clock
	// guards holds one entry per zone, in zone order.
	guards []guard
}

// pipelineOptions collects PipelineOption values.
type pipelineOptions struct {
	cooldown  time.Duration
	clock     alarm.Clock
	sessionID string
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*pipelineOptions)

// WithCooldown sets the alarm cooldown for every zone.
func WithCooldown(cooldown time.Duration) PipelineOption {
	return func(o *pipelineOptions) {
		o.cooldown = cooldown
	}
}

// WithClock replaces the system clock.
func WithClock(clock alarm.Clock) PipelineOption {
	return func(o *pipelineOptions) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithSessionID sets the session identifier instead of a random one.
func WithSessionID(id string) PipelineOption {
	return func(o *pipelineOptions) {
		if id != "" {
			o.sessionID = id
		}
	}
}

// NewPipeline creates a pipeline for the given zones.
//
// Zones that fail validation are kept, so verdicts still list them, but they
// never report an intrusion; each is logged once here.
func NewPipeline(ctx context.Context, zones []*zone.Zone, opts ...PipelineOption) (*Pipeline, error) {
	if len(zones) == 0 {
		return nil, ErrNoZones
	}

	options := pipelineOptions{
		cooldown:  alarm.DefaultCooldown,
		clock:     alarm.SystemClock{},
		sessionID: uuid.NewString(),
	}

	for _, opt := range opts {
		opt(&options)
	}

	p := &Pipeline{
		sessionID: options.sessionID,
		clock:     options.clock,
		guards:    make([]guard, 0, len(zones)),
	}

	for _, z := range zones {
		if err := z.Validate(); err != nil {
			logger.WarnKV(ctx, "Zone will never report intrusions", "zone", z.Name(), "error", err)
		}

		p.guards = append(p.guards, guard{
			zone:  z,
			alarm: alarm.NewController(options.cooldown, alarm.WithClock(options.clock)),
		})
	}

	return p, nil
}

// SessionID returns the session identifier.
func (p *Pipeline) SessionID() string {
	return p.sessionID
}

// Zones returns the monitored zones in evaluation order.
func (p *Pipeline) Zones() []*zone.Zone {
	zones := make([]*zone.Zone, 0, len(p.guards))
	for _, g := range p.guards {
		zones = append(zones, g.zone)
	}

	return zones
}

// Process evaluates one frame's detections and returns the frame verdict.
func (p *Pipeline) Process(_ context.Context, index int, detections []detection.Detection) *verdict.Frame {
	frame := &verdict.Frame{
		SessionID:  p.sessionID,
		Index:      index,
		At:         p.clock.Now(),
		Detections: detections,
		Zones:      make([]verdict.Zone, 0, len(p.guards)),
	}

	for _, g := range p.guards {
		intruders := detection.Classify(g.zone, detections)

		wasActive := g.alarm.Active()
		active := g.alarm.Update(intruders.Len() > 0)

		frame.Zones = append(frame.Zones, verdict.Zone{
			Zone:        g.zone,
			Intruders:   intruders,
			AlarmActive: active,
			Raised:      active && !wasActive,
			Cleared:     !active && wasActive,
		})
	}

	return frame
}

// selectZones keeps the zone with the given name, or all zones when name is empty.
func selectZones(zones []*zone.Zone, name string) []*zone.Zone {
	if name == "" {
		return zones
	}

	for _, z := range zones {
		if z.Name() == name {
			return []*zone.Zone{z}
		}
	}

	return nil
}
