package worker

import (
	"fmt"

	"github.com/h2non/bimg"
)

// Resizer produces a width-constrained copy of an encoded image.
//
// The interface exists so the worker can be tested without libvips.
type Resizer interface {
	// Resize returns data re-encoded at the given width, preserving aspect
	// ratio. A malformed input is a permanent error.
	Resize(data []byte, width int) ([]byte, error)
}

// BimgResizer resizes images through libvips via bimg.
type BimgResizer struct{}

// NewBimgResizer creates a libvips-backed resizer.
func NewBimgResizer() *BimgResizer {
	return &BimgResizer{}
}

// Resize implements Resizer.
func (r *BimgResizer) Resize(data []byte, width int) ([]byte, error) {
	out, err := bimg.NewImage(data).Process(bimg.Options{Width: width})
	if err != nil {
		return nil, fmt.Errorf("failed to resize image to width %d: %w", width, err)
	}
	return out, nil
}
