package encode

import (
	"context"
	"fmt"

	"github.com/user/animrender/pkg/ports"
	"github.com/user/animrender/pkg/render"
)

// ExtractPoster pulls a single still from an already-encoded video on the
// codec's file surface. Failures are non-fatal to the render: the caller
// treats a nil return as an absent poster.
func ExtractPoster(ctx context.Context, codec ports.CodecRuntime, logger ports.Logger, job render.Job, videoName string) []byte {
	format := job.Options.Fallback.PosterFormat
	if format == "" {
		format = render.PosterPNG
	}
	posterName := fmt.Sprintf("poster-%s.%s", job.ID, format)

	args := []string{
		"-i", videoName,
		"-frames:v", "1",
		posterName,
	}
	if err := codec.Run(ctx, args...); err != nil {
		logger.Debug("Poster extraction failed: %s", err)
		return nil
	}

	poster, err := codec.ReadFile(posterName)
	if err != nil {
		logger.Debug("Poster read failed: %s", err)
		return nil
	}
	if err := codec.Unlink(posterName); err != nil {
		logger.Debug("Unlink %s: %s", posterName, err)
	}
	return poster
}
