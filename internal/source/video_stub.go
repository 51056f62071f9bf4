//go:build !gocv

package source

import (
	"context"
	"fmt"
)

// openVideo reports that video decoding needs the gocv build tag.
//
//nolint:ireturn // Mirrors the gocv implementation signature.
func openVideo(_ context.Context, opts *Options) (FrameSource, Detector, error) {
	return nil, nil, fmt.Errorf("%w: %q is not a replay file, rebuild with -tags gocv for video", ErrUnsupported, opts.Path)
}
