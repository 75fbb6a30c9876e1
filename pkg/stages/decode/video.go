package decode

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"

	xdraw "golang.org/x/image/draw"

	"github.com/user/animrender/pkg/render"
)

// decodeVideo extracts frames from a video source by round-tripping it
// through the codec runtime: the container is written to the runtime's
// file surface, split into numbered PNG stills, and read back.
func (s *Stage) decodeVideo(ctx context.Context, job render.Job) ([]render.DecodedFrame, error) {
	data, err := s.fetch(ctx, job.Source.URI)
	if err != nil {
		return nil, err
	}

	inputName := fmt.Sprintf("input-%s", job.ID)
	if err := s.codec.WriteFile(inputName, data); err != nil {
		return nil, render.NewError(render.ErrCodecRunFailed, "stage video input", err)
	}
	framePattern := fmt.Sprintf("frame-%s-%%05d.png", job.ID)

	args := []string{
		"-i", inputName,
		"-vf", fmt.Sprintf("scale=%d:%d:flags=lanczos", job.Metadata.Width, job.Metadata.Height),
		"-vsync", "0",
		framePattern,
	}
	if err := s.codec.Run(ctx, args...); err != nil {
		s.unlink(inputName)
		if render.CodeOf(err) != "" {
			return nil, err
		}
		return nil, render.NewError(render.ErrCodecRunFailed, "split video into frames", err)
	}

	delayMs := 1000 / job.Metadata.FrameRate
	frames := make([]render.DecodedFrame, 0, job.Metadata.FrameCount)

	// The codec may produce fewer stills than the reported frame count;
	// use whatever prefix exists.
	for n := 1; n <= job.Metadata.FrameCount; n++ {
		name := fmt.Sprintf("frame-%s-%05d.png", job.ID, n)
		pngData, err := s.codec.ReadFile(name)
		if err != nil {
			break
		}
		img, err := png.Decode(bytes.NewReader(pngData))
		if err != nil {
			s.cleanupVideoFiles(inputName, job, n)
			return nil, render.NewError(render.ErrDecodeFailed, fmt.Sprintf("parse extracted frame %d", n), err)
		}
		rgba := toRGBA(img)
		frames = append(frames, render.DecodedFrame{
			Index:      n - 1,
			DelayMs:    delayMs,
			IsKeyFrame: n == 1,
			Bitmap:     rgba.Pix,
			Width:      rgba.Rect.Dx(),
			Height:     rgba.Rect.Dy(),
		})
	}

	s.cleanupVideoFiles(inputName, job, job.Metadata.FrameCount)
	s.logger.Debug("Extracted %d of %d frames", len(frames), job.Metadata.FrameCount)
	return frames, nil
}

func (s *Stage) cleanupVideoFiles(inputName string, job render.Job, upTo int) {
	s.unlink(inputName)
	for n := 1; n <= upTo; n++ {
		s.unlink(fmt.Sprintf("frame-%s-%05d.png", job.ID, n))
	}
}

// unlink is best-effort; failures are logged, never fatal.
func (s *Stage) unlink(name string) {
	if err := s.codec.Unlink(name); err != nil {
		s.logger.Debug("Unlink %s: %s", name, err)
	}
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Draw(rgba, rgba.Rect, img, b.Min, xdraw.Src)
	return rgba
}
