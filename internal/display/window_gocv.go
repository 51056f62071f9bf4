//go:build gocv

package display

import (
	"context"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/oshokin/zone-intrusion/internal/domain/verdict"
	"github.com/oshokin/zone-intrusion/internal/logger"
)

var (
	colorZone     = color.RGBA{R: 255, G: 255, B: 0, A: 0}
	colorAlarm    = color.RGBA{R: 255, G: 0, B: 0, A: 0}
	colorPerson   = color.RGBA{R: 0, G: 255, B: 0, A: 0}
	colorIntruder = color.RGBA{R: 255, G: 0, B: 255, A: 0}
	colorStatus   = color.RGBA{R: 255, G: 255, B: 255, A: 0}
)

// waitKeyDelay is how long the window waits for a key per frame, in milliseconds.
const waitKeyDelay = 1

// Window is a verdict sink drawing zones and detections over the source frame.
// Publish returns verdict.ErrStopRequested when q or Esc is pressed.
type Window struct {
	// window is the OpenCV window.
	window *gocv.Window
	// canvas is reused between frames.
	canvas gocv.Mat
}

// Open creates the window.
//
//nolint:ireturn // Callers only depend on the sink interface.
func Open(ctx context.Context, title string) (verdict.Sink, error) {
	if title == "" {
		title = DefaultTitle
	}

	logger.InfoKV(ctx, "Display window opened", "title", title, "quit_keys", "q, Esc")

	return &Window{
		window: gocv.NewWindow(title),
		canvas: gocv.NewMat(),
	}, nil
}

// Publish draws the verdict over a copy of the frame image and shows it.
// Frames without a gocv.Mat payload, such as replays, are skipped.
func (w *Window) Publish(_ context.Context, frame *verdict.Frame) error {
	img, ok := frame.Image.(gocv.Mat)
	if !ok || img.Empty() {
		return nil
	}

	img.CopyTo(&w.canvas)

	for i := range frame.Zones {
		drawZone(&w.canvas, &frame.Zones[i])
	}

	intruders := frame.Intruders()

	for i := range frame.Detections {
		d := &frame.Detections[i]

		c := colorPerson
		if intruders.Has(d.TrackID) {
			c = colorIntruder
		}

		rect := image.Rect(int(d.BBox.X1), int(d.BBox.Y1), int(d.BBox.X2), int(d.BBox.Y2))
		gocv.Rectangle(&w.canvas, rect, c, 2)
		gocv.PutText(&w.canvas, detectionLabel(d), image.Pt(rect.Min.X, rect.Min.Y-5),
			gocv.FontHersheySimplex, 0.5, c, 1)
	}

	statusColor := colorStatus
	if frame.AlarmActive() {
		statusColor = colorAlarm
	}

	gocv.PutText(&w.canvas, statusText(frame), image.Pt(10, 30), gocv.FontHersheySimplex, 0.8, statusColor, 2)

	w.window.IMShow(w.canvas)

	if isQuitKey(w.window.WaitKey(waitKeyDelay)) {
		return verdict.ErrStopRequested
	}

	return nil
}

// Close destroys the window.
func (w *Window) Close() error {
	_ = w.canvas.Close()

	return w.window.Close()
}

// drawZone outlines the zone, red while its alarm is active.
func drawZone(img *gocv.Mat, z *verdict.Zone) {
	points := z.Zone.Points()
	if len(points) == 0 {
		return
	}

	outline := make([]image.Point, 0, len(points))
	for _, p := range points {
		outline = append(outline, image.Pt(p.X, p.Y))
	}

	c := colorZone
	if z.AlarmActive {
		c = colorAlarm
	}

	polygon := gocv.NewPointsVectorFromPoints([][]image.Point{outline})
	defer polygon.Close()

	gocv.Polylines(img, polygon, true, c, 2)
	gocv.PutText(img, zoneLabel(z), outline[0], gocv.FontHersheySimplex, 0.6, c, 2)
}
