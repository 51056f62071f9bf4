package source

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/oshokin/zone-intrusion/internal/domain/detection"
)

// Frame is a single frame handed from a FrameSource to a Detector.
type Frame struct {
	// Index is the zero-based position of the frame in the stream.
	Index int
	// Payload is source-specific data (decoded pixels or recorded detections).
	// It stays valid until the next call to Next on the same source.
	Payload any
}

// FrameSource produces frames in order. Next returns io.EOF when the stream is exhausted.
type FrameSource interface {
	Next(ctx context.Context) (*Frame, error)
	Close() error
}

// Detector turns a frame into person detections.
type Detector interface {
	Detect(ctx context.Context, frame *Frame) ([]detection.Detection, error)
	Close() error
}

// Options selects and configures a source/detector pair.
type Options struct {
	// Path is a replay file (.jsonl/.ndjson), a video file or a camera index.
	Path string
	// Model is the ONNX model used by the video detector.
	Model string
	// ConfidenceThreshold drops detections scoring below it.
	ConfidenceThreshold float64
	// NoTracking strips tracker identities from detections.
	NoTracking bool
}

var (
	// ErrUnsupported is returned when a source needs a build feature that is not compiled in.
	ErrUnsupported = errors.New("source is not supported by this build")
	// errNoPath is returned when no source path is configured.
	errNoPath = errors.New("source path must be provided")
	// errPayloadType is returned when a detector receives a frame from a foreign source.
	errPayloadType = errors.New("unexpected frame payload")
)

// IsReplay reports whether the path names a recorded detections file.
func IsReplay(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonl", ".ndjson":
		return true
	default:
		return false
	}
}

// Open creates the frame source and the detector for the given options.
// Replay files carry their own detections; anything else is decoded as video
// and, unless tracking is off, labeled by a Tracker.
//
//nolint:ireturn // Callers only depend on the interfaces.
func Open(ctx context.Context, opts *Options) (FrameSource, Detector, error) {
	if opts.Path == "" {
		return nil, nil, errNoPath
	}

	var (
		src FrameSource
		det Detector
		err error
	)

	if IsReplay(opts.Path) {
		var replay *Replay

		replay, err = OpenReplay(opts.Path)
		src, det = replay, replay
	} else {
		src, det, err = openVideo(ctx, opts)
		if err == nil && !opts.NoTracking {
			det = NewTracker(det)
		}
	}

	if err != nil {
		return nil, nil, fmt.Errorf("open source %s: %w", opts.Path, err)
	}

	return src, NewFilter(det, opts.ConfidenceThreshold, opts.NoTracking), nil
}
