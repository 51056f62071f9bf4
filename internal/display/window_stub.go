//go:build !gocv

package display

import (
	"context"
	"fmt"

	"github.com/oshokin/zone-intrusion/internal/domain/verdict"
	"github.com/oshokin/zone-intrusion/internal/source"
)

// Open reports that the window needs the gocv build tag.
//
//nolint:ireturn // Mirrors the gocv implementation signature.
func Open(_ context.Context, _ string) (verdict.Sink, error) {
	return nil, fmt.Errorf("%w: rebuild with -tags gocv to display frames", source.ErrUnsupported)
}
