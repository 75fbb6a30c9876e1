package encode

import (
	"fmt"
	"math"

	"github.com/user/animrender/pkg/render"
)

// maxDimension caps output width and height for encoding.
const maxDimension = 720

// FastFrameRateCap bounds the frame rate on single-transcode renders.
const FastFrameRateCap = 30

// Dimensions holds an even-sized output width and height.
type Dimensions struct {
	Width  int
	Height int
}

// DeriveDimensions computes the encoded output size: honors the configured
// caps, preserves aspect ratio, and rounds down to even integers as the
// chroma subsampling requires.
func DeriveDimensions(cfg render.Configuration, aspectRatio float64) Dimensions {
	ar := aspectRatio
	if cfg.Width > 0 && cfg.Height > 0 {
		ar = float64(cfg.Width) / float64(cfg.Height)
	}
	if ar <= 0 {
		ar = 1
	}

	tw := min(cfg.Width, maxDimension)
	th := int(math.Round(float64(tw) / ar))
	if th > maxDimension {
		th = min(cfg.Height, maxDimension)
		tw = int(math.Round(float64(th) * ar))
	}
	tw = min(tw, cfg.Width)
	th = min(cfg.Height, th)

	return Dimensions{Width: makeEven(tw), Height: makeEven(th)}
}

// makeEven rounds down to the nearest even integer, never below 2.
func makeEven(v int) int {
	if v < 2 {
		return 2
	}
	return v - v%2
}

func codecName(c render.Codec, container render.Container) string {
	if container == render.ContainerWebM {
		if c == render.CodecVP9 {
			return "libvpx-vp9"
		}
		return "libvpx"
	}
	if c == render.CodecH265 {
		return "libx265"
	}
	return "libx264"
}

// BuildFastArgs constructs the single-transcode argument vector for an
// mp4 target: decode, cap the frame rate, scale, and encode in one pass.
func BuildFastArgs(job render.Job, input, output string) []string {
	cfg := job.Options.Configuration
	dims := DeriveDimensions(cfg, job.AspectRatio())
	fr := min(cfg.FrameRate, FastFrameRateCap)

	return []string{
		"-i", input,
		"-an", "-sn",
		"-vf", fmt.Sprintf("fps=%d,scale=%d:%d:flags=lanczos", fr, dims.Width, dims.Height),
		"-c:v", codecName(cfg.Codec, render.ContainerMP4),
		"-preset", "veryfast",
		"-tune", "zerolatency",
		"-profile:v", "high",
		"-pix_fmt", "yuv420p",
		"-b:v", fmt.Sprintf("%dk", cfg.Bitrate.TargetKbps),
		"-maxrate", fmt.Sprintf("%dk", cfg.Bitrate.MaxKbps),
		"-bufsize", fmt.Sprintf("%dk", 2*cfg.Bitrate.MaxKbps),
		"-movflags", "faststart",
		output,
	}
}

// BuildQualityArgs constructs the argument vector that assembles numbered
// PNG stills into the target container.
func BuildQualityArgs(job render.Job, output string) []string {
	cfg := job.Options.Configuration
	dims := DeriveDimensions(cfg, job.AspectRatio())

	args := []string{
		"-framerate", fmt.Sprintf("%d", cfg.FrameRate),
		"-i", "frame-%05d.png",
		"-c:v", codecName(cfg.Codec, cfg.Container),
	}

	if cfg.Container == render.ContainerWebM {
		args = append(args, "-deadline", "realtime", "-cpu-used", "5")
	} else {
		args = append(args, "-preset", "veryfast", "-tune", "zerolatency")
	}

	pixFmt := "yuv420p"
	if cfg.Container == render.ContainerWebM && cfg.EnableAlpha {
		pixFmt = "yuva420p"
	}
	args = append(args, "-pix_fmt", pixFmt)

	args = append(args,
		"-b:v", fmt.Sprintf("%dk", cfg.Bitrate.TargetKbps),
		"-maxrate", fmt.Sprintf("%dk", cfg.Bitrate.MaxKbps),
		"-vf", fmt.Sprintf("scale=%d:%d:flags=lanczos", dims.Width, dims.Height),
		"-movflags", "faststart",
	)

	if cfg.Loop {
		args = append(args, "-loop", "0")
	}

	return append(args, output)
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
