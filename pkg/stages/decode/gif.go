package decode

import (
	"bytes"
	"context"
	"image"
	"image/gif"

	xdraw "golang.org/x/image/draw"

	"github.com/user/animrender/pkg/render"
)

// decodeAnimatedImage fetches a GIF or APNG source, parses the bytes as a
// GIF container, and decompresses it frame by frame; bytes that are not
// GIF-encoded fail with DecodeFailed. Frames are coalesced onto the logical
// canvas so every emitted bitmap is a full frame at canvas size.
func (s *Stage) decodeAnimatedImage(ctx context.Context, job render.Job) ([]render.DecodedFrame, error) {
	data, err := s.fetch(ctx, job.Source.URI)
	if err != nil {
		return nil, err
	}

	g, err := gif.DecodeAll(bytes.NewReader(data))
	if err != nil {
		return nil, render.NewError(render.ErrDecodeFailed, "parse animated image", err)
	}
	if len(g.Image) == 0 {
		return nil, render.Errorf(render.ErrDecodeFailed, "animated image has no frames")
	}

	width := g.Config.Width
	height := g.Config.Height
	if width == 0 || height == 0 {
		b := g.Image[0].Bounds()
		width, height = b.Dx(), b.Dy()
	}

	s.logger.Debug("Decoding %d frames at %dx%d", len(g.Image), width, height)

	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	frames := make([]render.DecodedFrame, 0, len(g.Image))

	var previous *image.RGBA
	for i, patch := range g.Image {
		disposal := byte(gif.DisposalNone)
		if i < len(g.Disposal) {
			disposal = g.Disposal[i]
		}
		if disposal == gif.DisposalPrevious {
			previous = cloneRGBA(canvas)
		}

		xdraw.Draw(canvas, patch.Bounds(), patch, patch.Bounds().Min, xdraw.Over)

		delayMs := 10
		if i < len(g.Delay) && g.Delay[i]*10 > delayMs {
			delayMs = g.Delay[i] * 10
		}

		frames = append(frames, render.DecodedFrame{
			Index:      i,
			DelayMs:    delayMs,
			IsKeyFrame: disposal == gif.DisposalBackground || i == 0,
			Bitmap:     append([]byte(nil), canvas.Pix...),
			Width:      width,
			Height:     height,
		})

		switch disposal {
		case gif.DisposalBackground:
			clearRect(canvas, patch.Bounds())
		case gif.DisposalPrevious:
			if previous != nil {
				copy(canvas.Pix, previous.Pix)
			}
		}
	}

	return frames, nil
}

func cloneRGBA(src *image.RGBA) *image.RGBA {
	return &image.RGBA{
		Pix:    append([]byte(nil), src.Pix...),
		Stride: src.Stride,
		Rect:   src.Rect,
	}
}

func clearRect(img *image.RGBA, r image.Rectangle) {
	r = r.Intersect(img.Rect)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := img.Pix[y*img.Stride+r.Min.X*4 : y*img.Stride+r.Max.X*4]
		for i := range row {
			row[i] = 0
		}
	}
}
