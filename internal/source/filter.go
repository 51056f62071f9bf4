package source

import (
	"context"

	"github.com/oshokin/zone-intrusion/internal/domain/detection"
)

// Filter wraps a Detector, dropping low-confidence detections and optionally
// discarding tracker identities.
type Filter struct {
	// next is the wrapped detector.
	next Detector
	// threshold is the minimum confidence kept.
	threshold float64
	// untracked strips track identities when true.
	untracked bool
}

// NewFilter wraps next with a confidence threshold and tracking switch.
func NewFilter(next Detector, threshold float64, noTracking bool) *Filter {
	return &Filter{
		next:      next,
		threshold: threshold,
		untracked: noTracking,
	}
}

// Detect runs the wrapped detector and filters its output.
func (f *Filter) Detect(ctx context.Context, frame *Frame) ([]detection.Detection, error) {
	detections, err := f.next.Detect(ctx, frame)
	if err != nil {
		return nil, err
	}

	kept := detections[:0:0]

	for _, d := range detections {
		if d.Confidence < f.threshold {
			continue
		}

		if f.untracked {
			d.TrackID = detection.Untracked
		}

		kept = append(kept, d)
	}

	return kept, nil
}

// Close closes the wrapped detector.
func (f *Filter) Close() error {
	return f.next.Close()
}
