package monitor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/oshokin/zone-intrusion/internal/domain/alarm"
	"github.com/oshokin/zone-intrusion/internal/domain/detection"
	"github.com/oshokin/zone-intrusion/internal/domain/zone"
	"github.com/oshokin/zone-intrusion/internal/logger"
)

// manualClock is a clock moved forward explicitly by tests.
type manualClock struct {
	// now is the current reading.
	now time.Time
}

// Now returns the current reading.
func (c *manualClock) Now() time.Time {
	return c.now
}

// advance moves the clock forward by the given number of seconds.
func (c *manualClock) advance(seconds float64) {
	c.now = c.now.Add(time.Duration(seconds * float64(time.Second)))
}

// square returns a 100x100 zone with its corner at (x, y).
func square(name string, x, y int) *zone.Zone {
	return zone.New(name, []zone.Point{{X: x, Y: y}, {X: x + 100, Y: y}, {X: x + 100, Y: y + 100}, {X: x, Y: y + 100}})
}

// person returns a detection centered at (x, y).
func person(id detection.TrackID, x, y float64) detection.Detection {
	return detection.Detection{
		TrackID:    id,
		Confidence: 0.9,
		BBox:       detection.BBox{X1: x - 5, Y1: y - 5, X2: x + 5, Y2: y + 5},
	}
}

// TestNewPipeline_NoZones refuses to start without zones.
func TestNewPipeline_NoZones(t *testing.T) {
	t.Parallel()

	_, err := NewPipeline(context.Background(), nil)
	require.ErrorIs(t, err, ErrNoZones)
}

// TestPipeline_Hysteresis follows a zone alarm through raise, hold and clear.
func TestPipeline_Hysteresis(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clock := &manualClock{now: time.Unix(1_700_000_000, 0)}

	p, err := NewPipeline(ctx, []*zone.Zone{square("gate", 0, 0)},
		WithCooldown(3*time.Second), WithClock(clock), WithSessionID("session-1"))
	require.NoError(t, err)
	require.Equal(t, "session-1", p.SessionID())

	report := p.Process(ctx, 0, []detection.Detection{person(detection.Tracked(1), 50, 50)})
	require.Equal(t, "session-1", report.SessionID)
	require.Equal(t, clock.now, report.At)
	require.True(t, report.Zones[0].AlarmActive)
	require.True(t, report.Zones[0].Raised)
	require.True(t, report.Zones[0].Intruders.Has(detection.Tracked(1)))

	clock.advance(1)

	report = p.Process(ctx, 1, nil)
	require.True(t, report.Zones[0].AlarmActive)
	require.False(t, report.Zones[0].Raised)
	require.False(t, report.Zones[0].Intrusion())

	clock.advance(2.5)

	report = p.Process(ctx, 2, []detection.Detection{person(detection.Tracked(1), 500, 500)})
	require.False(t, report.Zones[0].AlarmActive)
	require.True(t, report.Zones[0].Cleared)
	require.Len(t, report.Detections, 1)

	clock.advance(1)

	report = p.Process(ctx, 3, nil)
	require.False(t, report.Zones[0].Cleared)
	require.False(t, report.AlarmActive())
}

// TestPipeline_IndependentZones keeps one alarm per zone.
func TestPipeline_IndependentZones(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clock := &manualClock{now: time.Unix(0, 0)}

	p, err := NewPipeline(ctx, []*zone.Zone{square("gate", 0, 0), square("yard", 200, 0)}, WithClock(clock))
	require.NoError(t, err)
	require.Len(t, p.Zones(), 2)

	report := p.Process(ctx, 0, []detection.Detection{
		person(detection.Untracked, 250, 50),
		person(detection.Tracked(3), 250, 60),
	})

	require.False(t, report.Zones[0].AlarmActive)
	require.True(t, report.Zones[1].AlarmActive)
	require.Equal(t, "3,untracked", report.Zones[1].Intruders.String())
	require.True(t, report.AlarmActive())

	// A point on the right edge of the first zone.
	clock.advance(0.5)

	report = p.Process(ctx, 1, []detection.Detection{person(detection.Tracked(3), 100, 50)})
	require.True(t, report.Zones[0].Raised, "boundary counts as inside")
	require.True(t, report.Zones[1].AlarmActive)
}

// TestPipeline_InvalidZone logs the zone once and never reports an intrusion for it.
func TestPipeline_InvalidZone(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.WarnLevel)
	ctx := logger.ToContext(context.Background(), zap.New(core).Sugar())

	line := zone.New("line", []zone.Point{{X: 0, Y: 0}, {X: 100, Y: 100}})

	p, err := NewPipeline(ctx, []*zone.Zone{line}, WithClock(alarm.ClockFunc(func() time.Time { return time.Unix(0, 0) })))
	require.NoError(t, err)

	for i := range 3 {
		report := p.Process(ctx, i, []detection.Detection{person(detection.Tracked(1), 50, 50)})
		require.False(t, report.Zones[0].Intrusion())
		require.False(t, report.AlarmActive())
	}

	require.Equal(t, 1, logs.FilterMessage("Zone will never report intrusions").Len())
}

// TestSelectZones filters by name.
func TestSelectZones(t *testing.T) {
	t.Parallel()

	zones := []*zone.Zone{square("gate", 0, 0), square("yard", 200, 0)}

	require.Len(t, selectZones(zones, ""), 2)
	require.Equal(t, "yard", selectZones(zones, "yard")[0].Name())
	require.Empty(t, selectZones(zones, "roof"))
}
