package zone

import (
	"errors"
	"fmt"
)

// DefaultName is used for zones stored or created without a name.
const DefaultName = "restricted_area"

// MinPoints is the smallest number of vertices a zone needs to enclose an area.
const MinPoints = 3

// ErrTooFewPoints indicates a zone that cannot be used for containment tests.
var ErrTooFewPoints = errors.New("zone needs at least 3 points")

// Point is an integer pixel coordinate.
type Point struct {
	// X is the horizontal pixel offset from the left edge of the frame.
	X int
	// Y is the vertical pixel offset from the top edge of the frame.
	Y int
}

// Zone is a named polygon in frame-pixel coordinates.
// Zones are immutable once constructed, so they can be shared between
// per-zone pipelines without copying.
type Zone struct {
	// name identifies the zone in logs, verdicts and the zone file.
	name string
	// points are the polygon vertices in drawing order.
	points []Point
}

// ValidationError describes a zone that is unusable for containment tests.
type ValidationError struct {
	// Zone is the name of the offending zone.
	Zone string
	// Points is the number of vertices the zone has.
	Points int
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("zone %q has %d points: %v", e.Zone, e.Points, ErrTooFewPoints)
}

// Unwrap allows errors.Is(err, ErrTooFewPoints).
func (e *ValidationError) Unwrap() error {
	return ErrTooFewPoints
}

// New creates a zone from a copy of the given vertices.
// An empty name is replaced with DefaultName.
func New(name string, points []Point) *Zone {
	if name == "" {
		name = DefaultName
	}

	return &Zone{
		name:   name,
		points: append([]Point(nil), points...),
	}
}

// Name returns the zone name.
func (z *Zone) Name() string {
	return z.name
}

// Points returns a copy of the zone vertices.
func (z *Zone) Points() []Point {
	return append([]Point(nil), z.points...)
}

// Len returns the number of vertices.
func (z *Zone) Len() int {
	return len(z.points)
}

// Validate reports whether the zone can be used for containment tests.
func (z *Zone) Validate() error {
	if len(z.points) < MinPoints {
		return &ValidationError{
			Zone:   z.name,
			Points: len(z.points),
		}
	}

	return nil
}

// Equal reports whether both zones have the same name and vertex sequence.
func (z *Zone) Equal(other *Zone) bool {
	if z == nil || other == nil {
		return z == other
	}

	if z.name != other.name || len(z.points) != len(other.points) {
		return false
	}

	for i := range z.points {
		if z.points[i] != other.points[i] {
			return false
		}
	}

	return true
}

// String renders the zone for logs.
func (z *Zone) String() string {
	return fmt.Sprintf("%s%v", z.name, z.points)
}
