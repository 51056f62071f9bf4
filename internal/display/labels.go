package display

import (
	"fmt"

	"github.com/oshokin/zone-intrusion/internal/domain/detection"
	"github.com/oshokin/zone-intrusion/internal/domain/verdict"
)

// Keys that close the window.
const (
	keyQuit   = 'q'
	keyEscape = 27
)

// DefaultTitle is the window title.
const DefaultTitle = "Restricted zone monitor"

// statusText is the banner drawn in the top-left corner.
func statusText(frame *verdict.Frame) string {
	if frame.AlarmActive() {
		return "ALARM: INTRUSION DETECTED"
	}

	return "Monitoring"
}

// detectionLabel is the caption drawn above a detection box.
func detectionLabel(d *detection.Detection) string {
	return fmt.Sprintf("%s %.2f", d.TrackID, d.Confidence)
}

// zoneLabel is the caption drawn at the first vertex of a zone.
func zoneLabel(z *verdict.Zone) string {
	if z.AlarmActive {
		return z.Zone.Name() + " [ALARM]"
	}

	return z.Zone.Name()
}

// isQuitKey reports whether the pressed key asks to close the window.
func isQuitKey(key int) bool {
	return key == keyQuit || key == keyEscape
}
