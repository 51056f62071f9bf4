package source

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/oshokin/zone-intrusion/internal/domain/detection"
)

// maxReplayLine bounds a single JSON line of a replay file.
const maxReplayLine = 4 << 20

// Replay plays back recorded detections from a JSON lines file.
// Each line is one frame:
//
//	{"frame": 0, "detections": [{"track_id": 7, "confidence": 0.91, "bbox": [10, 20, 50, 120]}]}
//
// It is both the FrameSource and the Detector for its frames.
type Replay struct {
	// closer releases the underlying file.
	closer io.Closer
	// scanner reads one frame per line.
	scanner *bufio.Scanner
	// line is the current line number for error messages.
	line int
	// next is the index given to the next frame without an explicit "frame" field.
	next int
}

// replayFrame is one line of a replay file.
type replayFrame struct {
	Frame      *int              `json:"frame"`
	Detections []replayDetection `json:"detections"`
}

// replayDetection is one recorded detection.
type replayDetection struct {
	TrackID    *int64     `json:"track_id"`
	Confidence float64    `json:"confidence"`
	BBox       []float64 `json:"bbox"`
}

// bboxValues is the number of values in a recorded box: x1, y1, x2, y2.
const bboxValues = 4

var (
	// errBadBBox is returned for boxes with inverted corners.
	errBadBBox = errors.New("bbox corners are inverted")
	// errBBoxLength is returned for boxes without exactly four values.
	errBBoxLength = errors.New("bbox must have 4 values")
	// errConfidence is returned for confidences outside [0, 1].
	errConfidence = errors.New("confidence must be within [0, 1]")
)

// OpenReplay opens a replay file.
func OpenReplay(path string) (*Replay, error) {
	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, err
	}

	return NewReplay(file), nil
}

// NewReplay plays back frames from r. If r is an io.Closer, Close closes it.
func NewReplay(r io.Reader) *Replay {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64<<10), maxReplayLine)

	replay := &Replay{
		scanner: scanner,
	}

	if c, ok := r.(io.Closer); ok {
		replay.closer = c
	}

	return replay
}

// Next returns the next recorded frame or io.EOF.
func (r *Replay) Next(ctx context.Context) (*Frame, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if !r.scanner.Scan() {
			if err := r.scanner.Err(); err != nil {
				return nil, fmt.Errorf("read replay: %w", err)
			}

			return nil, io.EOF
		}

		r.line++

		raw := bytes.TrimSpace(r.scanner.Bytes())
		if len(raw) == 0 {
			continue
		}

		var recorded replayFrame
		if err := json.Unmarshal(raw, &recorded); err != nil {
			return nil, fmt.Errorf("replay line %d: %w", r.line, err)
		}

		detections, err := recorded.toDomain()
		if err != nil {
			return nil, fmt.Errorf("replay line %d: %w", r.line, err)
		}

		index := r.next
		if recorded.Frame != nil {
			index = *recorded.Frame
		}

		r.next = index + 1

		return &Frame{
			Index:   index,
			Payload: detections,
		}, nil
	}
}

// Detect returns the detections recorded for the frame.
func (r *Replay) Detect(_ context.Context, frame *Frame) ([]detection.Detection, error) {
	detections, ok := frame.Payload.([]detection.Detection)
	if !ok {
		return nil, fmt.Errorf("%w: %T", errPayloadType, frame.Payload)
	}

	return detections, nil
}

// Close releases the replay file. It is safe to call more than once.
func (r *Replay) Close() error {
	if r.closer == nil {
		return nil
	}

	closer := r.closer
	r.closer = nil

	return closer.Close()
}

// toDomain converts the recorded detections.
func (f *replayFrame) toDomain() ([]detection.Detection, error) {
	result := make([]detection.Detection, 0, len(f.Detections))

	for i, d := range f.Detections {
		if len(d.BBox) != bboxValues {
			return nil, fmt.Errorf("detection %d: %w, got %d", i, errBBoxLength, len(d.BBox))
		}

		if d.Confidence < 0 || d.Confidence > 1 {
			return nil, fmt.Errorf("detection %d: %w, got %g", i, errConfidence, d.Confidence)
		}

		box := detection.BBox{X1: d.BBox[0], Y1: d.BBox[1], X2: d.BBox[2], Y2: d.BBox[3]}
		if box.X1 > box.X2 || box.Y1 > box.Y2 {
			return nil, fmt.Errorf("detection %d: %w", i, errBadBBox)
		}

		trackID := detection.Untracked
		if d.TrackID != nil {
			trackID = detection.Tracked(*d.TrackID)
		}

		result = append(result, detection.Detection{
			TrackID:    trackID,
			Confidence: d.Confidence,
			BBox:       box,
		})
	}

	return result, nil
}
