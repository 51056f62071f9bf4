package source

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/zone-intrusion/internal/domain/detection"
)

// replayFixture is a three-frame recording with a blank line and an untracked detection.
const replayFixture = `{"frame": 0, "detections": [{"track_id": 1, "confidence": 0.9, "bbox": [2, 2, 4, 4]}]}

{"frame": 1, "detections": [{"confidence": 0.3, "bbox": [20, 20, 22, 22]}, {"track_id": null, "confidence": 0.8, "bbox": [1, 1, 3, 3]}]}
{"detections": []}
`

// TestReplay_Frames reads all frames in order and stops with io.EOF.
func TestReplay_Frames(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	replay := NewReplay(strings.NewReader(replayFixture))

	frame, err := replay.Next(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, frame.Index)

	detections, err := replay.Detect(ctx, frame)
	require.NoError(t, err)
	require.Equal(t, []detection.Detection{{
		TrackID:    detection.Tracked(1),
		Confidence: 0.9,
		BBox:       detection.BBox{X1: 2, Y1: 2, X2: 4, Y2: 4},
	}}, detections)

	frame, err = replay.Next(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, frame.Index)

	detections, err = replay.Detect(ctx, frame)
	require.NoError(t, err)
	require.Len(t, detections, 2)
	require.Equal(t, detection.Untracked, detections[0].TrackID)
	require.Equal(t, detection.Untracked, detections[1].TrackID)

	// Missing frame number continues from the previous one.
	frame, err = replay.Next(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, frame.Index)

	_, err = replay.Next(ctx)
	require.ErrorIs(t, err, io.EOF)

	require.NoError(t, replay.Close())
}

// TestReplay_Malformed reports the offending line number.
func TestReplay_Malformed(t *testing.T) {
	t.Parallel()

	replay := NewReplay(strings.NewReader("{\"detections\": []}\n{broken\n"))

	_, err := replay.Next(context.Background())
	require.NoError(t, err)

	_, err = replay.Next(context.Background())
	require.ErrorContains(t, err, "line 2")

	tests := []struct {
		name string
		line string
		want error
	}{
		{
			name: "inverted corners",
			line: `{"detections": [{"bbox": [5, 5, 1, 1]}]}`,
			want: errBadBBox,
		},
		{
			name: "too many values",
			line: `{"detections": [{"confidence": 0.5, "bbox": [1, 2, 3, 4, 999]}]}`,
			want: errBBoxLength,
		},
		{
			name: "too few values",
			line: `{"detections": [{"confidence": 0.5, "bbox": [0, 0, 5]}]}`,
			want: errBBoxLength,
		},
		{
			name: "missing box",
			line: `{"detections": [{"confidence": 0.5}]}`,
			want: errBBoxLength,
		},
		{
			name: "confidence above one",
			line: `{"detections": [{"confidence": 7.5, "bbox": [0, 0, 5, 5]}]}`,
			want: errConfidence,
		},
		{
			name: "negative confidence",
			line: `{"detections": [{"confidence": -0.1, "bbox": [0, 0, 5, 5]}]}`,
			want: errConfidence,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := NewReplay(strings.NewReader(tt.line)).Next(context.Background())
			require.ErrorIs(t, err, tt.want)
			require.ErrorContains(t, err, "replay line 1")
		})
	}
}

// TestReplay_CanceledContext stops reading once the context is done.
func TestReplay_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewReplay(strings.NewReader(replayFixture)).Next(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

// TestReplay_ForeignPayload rejects frames that did not come from a replay.
func TestReplay_ForeignPayload(t *testing.T) {
	t.Parallel()

	_, err := NewReplay(strings.NewReader("")).Detect(context.Background(), &Frame{Payload: 42})
	require.ErrorIs(t, err, errPayloadType)
}

// TestFilter drops low-confidence detections and strips identities in untracked mode.
func TestFilter(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	replay := NewReplay(strings.NewReader(replayFixture))

	_, err := replay.Next(ctx)
	require.NoError(t, err)

	frame, err := replay.Next(ctx)
	require.NoError(t, err)

	detections, err := NewFilter(replay, 0.4, false).Detect(ctx, frame)
	require.NoError(t, err)
	require.Len(t, detections, 1)
	require.InDelta(t, 0.8, detections[0].Confidence, 1e-9)

	tracked := &Frame{Payload: []detection.Detection{{TrackID: detection.Tracked(5), Confidence: 1}}}

	detections, err = NewFilter(replay, 0.4, true).Detect(ctx, tracked)
	require.NoError(t, err)
	require.Equal(t, detection.Untracked, detections[0].TrackID)

	// The recorded payload is not modified.
	original, ok := tracked.Payload.([]detection.Detection)
	require.True(t, ok)
	require.Equal(t, detection.Tracked(5), original[0].TrackID)
}

// TestOpen dispatches replay files and rejects missing paths.
func TestOpen(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	_, _, err := Open(ctx, &Options{})
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "recording.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(replayFixture), 0o600))

	src, det, err := Open(ctx, &Options{Path: path, ConfidenceThreshold: 0.5})
	require.NoError(t, err)

	defer func() {
		require.NoError(t, det.Close())
		require.NoError(t, src.Close())
	}()

	frame, err := src.Next(ctx)
	require.NoError(t, err)

	detections, err := det.Detect(ctx, frame)
	require.NoError(t, err)
	require.Len(t, detections, 1)

	require.True(t, IsReplay("a/b.NDJSON"))
	require.False(t, IsReplay("video.mp4"))
}
