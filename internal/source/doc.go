// Package source provides the frame sources and detectors feeding the monitor.
//
// Replay files of recorded detections work in every build and make runs fully
// deterministic. Video files, stream URLs and cameras are decoded with OpenCV
// and scanned with a YOLO ONNX model when built with the gocv tag.
package source
