//go:build gocv

package source

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"strconv"

	"gocv.io/x/gocv"

	"github.com/oshokin/zone-intrusion/internal/domain/detection"
)

const (
	// yoloInputSize is the square input side of YOLOv8 ONNX exports.
	yoloInputSize = 640
	// yoloPersonClass is the COCO class index for people.
	yoloPersonClass = 0
	// yoloBoxFields is the number of leading box fields (cx, cy, w, h) per candidate.
	yoloBoxFields = 4
	// nmsThreshold is the IoU above which overlapping boxes are suppressed.
	nmsThreshold = 0.45
)

var (
	// errNoModel is returned when a video source is opened without a detector model.
	errNoModel = errors.New("model path must be provided for video sources")
	// errEmptyNet is returned when the model file cannot be loaded.
	errEmptyNet = errors.New("failed to load detector network")
	// errOutputShape is returned for network outputs that are not [1, 4+classes, candidates].
	errOutputShape = errors.New("unexpected detector output shape")
)

// Capture reads frames from a video file, stream URL or camera.
type Capture struct {
	// capture is the OpenCV reader.
	capture *gocv.VideoCapture
	// frame is reused between reads; it is the payload of every Frame.
	frame gocv.Mat
	// index counts frames read so far.
	index int
}

// OpenCapture opens a camera when path is an integer, otherwise a file or URL.
func OpenCapture(path string) (*Capture, error) {
	var (
		capture *gocv.VideoCapture
		err     error
	)

	if device, convErr := strconv.Atoi(path); convErr == nil {
		capture, err = gocv.OpenVideoCapture(device)
	} else {
		capture, err = gocv.VideoCaptureFile(path)
	}

	if err != nil {
		return nil, fmt.Errorf("open video capture: %w", err)
	}

	return &Capture{
		capture: capture,
		frame:   gocv.NewMat(),
	}, nil
}

// Next reads the next frame. The returned payload is a gocv.Mat owned by the capture.
func (c *Capture) Next(ctx context.Context) (*Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if ok := c.capture.Read(&c.frame); !ok || c.frame.Empty() {
		return nil, io.EOF
	}

	frame := &Frame{
		Index:   c.index,
		Payload: c.frame,
	}
	c.index++

	return frame, nil
}

// Close releases the capture and the frame buffer.
func (c *Capture) Close() error {
	_ = c.frame.Close()

	return c.capture.Close()
}

// YOLO runs a YOLOv8 ONNX person detector through the OpenCV DNN module.
// It produces untracked detections; Open wraps it in a Tracker.
type YOLO struct {
	// net is the loaded network.
	net gocv.Net
	// minScore is the candidate score floor before non-maximum suppression.
	minScore float32
}

// NewYOLO loads an ONNX model.
func NewYOLO(modelPath string, minScore float64) (*YOLO, error) {
	if modelPath == "" {
		return nil, errNoModel
	}

	net := gocv.ReadNetFromONNX(modelPath)
	if net.Empty() {
		return nil, fmt.Errorf("%w: %s", errEmptyNet, modelPath)
	}

	if err := net.SetPreferableBackend(gocv.NetBackendDefault); err != nil {
		_ = net.Close()

		return nil, fmt.Errorf("set backend: %w", err)
	}

	if err := net.SetPreferableTarget(gocv.NetTargetCPU); err != nil {
		_ = net.Close()

		return nil, fmt.Errorf("set target: %w", err)
	}

	return &YOLO{
		net:      net,
		minScore: float32(minScore),
	}, nil
}

// Detect runs inference on a gocv.Mat frame and returns person boxes in frame pixels.
func (y *YOLO) Detect(_ context.Context, frame *Frame) ([]detection.Detection, error) {
	mat, ok := frame.Payload.(gocv.Mat)
	if !ok {
		return nil, fmt.Errorf("%w: %T", errPayloadType, frame.Payload)
	}

	blob := gocv.BlobFromImage(mat, 1.0/255.0, image.Pt(yoloInputSize, yoloInputSize),
		gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	y.net.SetInput(blob, "")

	output := y.net.Forward("")
	defer output.Close()

	sizes := output.Size()
	if len(sizes) != 3 || sizes[1] <= yoloBoxFields+yoloPersonClass {
		return nil, fmt.Errorf("%w: %v", errOutputShape, sizes)
	}

	fields, candidates := sizes[1], sizes[2]

	data, err := output.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("read detector output: %w", err)
	}

	if len(data) < fields*candidates {
		return nil, fmt.Errorf("%w: %d values", errOutputShape, len(data))
	}

	scaleX := float32(mat.Cols()) / yoloInputSize
	scaleY := float32(mat.Rows()) / yoloInputSize

	var (
		boxes  []image.Rectangle
		scores []float32
	)

	// Output is laid out field-major: value (field, candidate) is at field*candidates+candidate.
	for i := range candidates {
		score := data[(yoloBoxFields+yoloPersonClass)*candidates+i]
		if score < y.minScore {
			continue
		}

		cx, cy := data[i]*scaleX, data[candidates+i]*scaleY
		w, h := data[2*candidates+i]*scaleX, data[3*candidates+i]*scaleY

		boxes = append(boxes, image.Rect(int(cx-w/2), int(cy-h/2), int(cx+w/2), int(cy+h/2)))
		scores = append(scores, score)
	}

	if len(boxes) == 0 {
		return nil, nil
	}

	indices := gocv.NMSBoxes(boxes, scores, y.minScore, nmsThreshold)
	result := make([]detection.Detection, 0, len(indices))

	for _, idx := range indices {
		box := boxes[idx]
		result = append(result, detection.Detection{
			TrackID:    detection.Untracked,
			Confidence: float64(scores[idx]),
			BBox: detection.BBox{
				X1: float64(box.Min.X),
				Y1: float64(box.Min.Y),
				X2: float64(box.Max.X),
				Y2: float64(box.Max.Y),
			},
		})
	}

	return result, nil
}

// Close releases the network.
func (y *YOLO) Close() error {
	return y.net.Close()
}

// openVideo pairs an OpenCV capture with the YOLO detector.
//
//nolint:ireturn // Callers only depend on the interfaces.
func openVideo(_ context.Context, opts *Options) (FrameSource, Detector, error) {
	detector, err := NewYOLO(opts.Model, opts.ConfidenceThreshold)
	if err != nil {
		return nil, nil, err
	}

	capture, err := OpenCapture(opts.Path)
	if err != nil {
		_ = detector.Close()

		return nil, nil, err
	}

	return capture, detector, nil
}
