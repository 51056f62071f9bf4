package source

import (
	"cmp"
	"context"
	"slices"

	"github.com/oshokin/zone-intrusion/internal/domain/detection"
)

const (
	// DefaultMatchIoU is the minimum box overlap for a detection to continue a track.
	DefaultMatchIoU = 0.3
	// DefaultTrackBuffer is how many frames a track survives without a match.
	DefaultTrackBuffer = 30
)

// track is an identity followed across frames.
type track struct {
	// id is the identity handed out for the track.
	id int64
	// box is the last matched box.
	box detection.BBox
	// missed counts consecutive frames without a match.
	missed int
}

// candidate is a possible track to detection assignment.
type candidate struct {
	track     int
	detection int
	iou       float64
}

// Tracker wraps a Detector and assigns persistent identities to its detections
// by greedy box-overlap matching against the tracks of previous frames.
// It is driven by a single frame loop and is not safe for concurrent use.
type Tracker struct {
	// next is the wrapped detector.
	next Detector
	// minIoU is the overlap needed to continue a track.
	minIoU float64
	// buffer is the number of unmatched frames before a track is dropped.
	buffer int
	// tracks are the live tracks.
	tracks []*track
	// lastID is the most recently issued identity.
	lastID int64
}

// NewTracker wraps next with default matching parameters.
func NewTracker(next Detector) *Tracker {
	return &Tracker{
		next:   next,
		minIoU: DefaultMatchIoU,
		buffer: DefaultTrackBuffer,
	}
}

// Detect runs the wrapped detector and labels every detection with a track identity.
func (t *Tracker) Detect(ctx context.Context, frame *Frame) ([]detection.Detection, error) {
	detections, err := t.next.Detect(ctx, frame)
	if err != nil {
		return nil, err
	}

	result := slices.Clone(detections)

	var candidates []candidate

	for ti, tr := range t.tracks {
		for di := range result {
			if iou := overlap(tr.box, result[di].BBox); iou >= t.minIoU {
				candidates = append(candidates, candidate{track: ti, detection: di, iou: iou})
			}
		}
	}

	// Best overlaps claim first; ties keep the older track.
	slices.SortStableFunc(candidates, func(a, b candidate) int {
		return cmp.Compare(b.iou, a.iou)
	})

	matchedTracks := make([]bool, len(t.tracks))
	matchedDetections := make([]bool, len(result))

	for _, c := range candidates {
		if matchedTracks[c.track] || matchedDetections[c.detection] {
			continue
		}

		matchedTracks[c.track] = true
		matchedDetections[c.detection] = true

		tr := t.tracks[c.track]
		tr.box = result[c.detection].BBox
		tr.missed = 0
		result[c.detection].TrackID = detection.Tracked(tr.id)
	}

	live := t.tracks[:0]

	for ti, tr := range t.tracks {
		if !matchedTracks[ti] {
			tr.missed++
		}

		if tr.missed <= t.buffer {
			live = append(live, tr)
		}
	}

	t.tracks = live

	for di := range result {
		if matchedDetections[di] {
			continue
		}

		t.lastID++
		t.tracks = append(t.tracks, &track{id: t.lastID, box: result[di].BBox})
		result[di].TrackID = detection.Tracked(t.lastID)
	}

	return result, nil
}

// Close closes the wrapped detector.
func (t *Tracker) Close() error {
	return t.next.Close()
}

// overlap returns the intersection over union of two boxes.
func overlap(a, b detection.BBox) float64 {
	w := min(a.X2, b.X2) - max(a.X1, b.X1)
	h := min(a.Y2, b.Y2) - max(a.Y1, b.Y1)

	if w <= 0 || h <= 0 {
		return 0
	}

	inter := w * h
	union := (a.X2-a.X1)*(a.Y2-a.Y1) + (b.X2-b.X1)*(b.Y2-b.Y1) - inter

	if union <= 0 {
		return 0
	}

	return inter / union
}
