// Package display renders annotated frames in an OpenCV window.
//
// The window is only available in builds with the gocv tag; other builds
// return source.ErrUnsupported from Open.
package display
