// Package frametask implements the per-frame worker task: apply a list of
// raster operations to an RGBA bitmap and encode the result as PNG.
// Each call is pure and carries no state between frames.
package frametask

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/user/animrender/pkg/render"
)

// Process applies operations in order to a tightly packed RGBA bitmap and
// returns the final buffer encoded as PNG.
func Process(width, height int, bitmap []byte, operations []render.Operation) ([]byte, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid frame dimensions %dx%d", width, height)
	}
	if len(bitmap) != 4*width*height {
		return nil, fmt.Errorf("bitmap length %d does not match %dx%d", len(bitmap), width, height)
	}

	img := &image.RGBA{
		Pix:    append([]byte(nil), bitmap...),
		Stride: 4 * width,
		Rect:   image.Rect(0, 0, width, height),
	}

	for _, op := range operations {
		if err := apply(img, op); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func apply(img *image.RGBA, op render.Operation) error {
	switch op.Kind {
	case render.OpBlur:
		if op.Radius < 0 {
			return fmt.Errorf("blur radius must be non-negative, got %d", op.Radius)
		}
		boxBlur(img, op.Radius)
		return nil
	case render.OpSaturate:
		if op.Factor < 0 {
			return fmt.Errorf("saturation factor must be non-negative, got %f", op.Factor)
		}
		saturate(img, op.Factor)
		return nil
	case render.OpOverlay:
		overlay(img, op.Color)
		return nil
	default:
		return fmt.Errorf("unknown operation kind %q", op.Kind)
	}
}
