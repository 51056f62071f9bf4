package detection

import "strconv"

// TrackID is an optional persistent identity assigned by an external tracker.
// The zero value is Untracked.
type TrackID struct {
	// ID is the tracker identity, meaningful only when Valid is true.
	ID int64
	// Valid reports whether the tracker supplied an identity.
	Valid bool
}

// Untracked marks detections without a tracker identity.
//
//nolint:gochecknoglobals // Zero value sentinel, never mutated.
var Untracked = TrackID{}

// Tracked returns a valid track identity.
func Tracked(id int64) TrackID {
	return TrackID{
		ID:    id,
		Valid: true,
	}
}

// String renders the identity for logs and labels.
func (t TrackID) String() string {
	if !t.Valid {
		return "untracked"
	}

	return strconv.FormatInt(t.ID, 10)
}

// BBox is an axis-aligned bounding box with X1 <= X2 and Y1 <= Y2.
type BBox struct {
	X1 float64
	Y1 float64
	X2 float64
	Y2 float64
}

// Center returns the midpoint of the box.
func (b BBox) Center() (x, y float64) {
	return (b.X1 + b.X2) / 2, (b.Y1 + b.Y2) / 2
}

// Detection is a single person detection in one frame.
type Detection struct {
	// TrackID is the tracker identity, Untracked if tracking is off.
	TrackID TrackID
	// Confidence is the detector score in [0, 1].
	Confidence float64
	// BBox is the detection box in frame-pixel coordinates.
	BBox BBox
}

// Center returns the midpoint of the detection box.
func (d Detection) Center() (x, y float64) {
	return d.BBox.Center()
}
