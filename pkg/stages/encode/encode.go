// Package encode implements the video assembly stage: processed PNG stills
// are written to the codec runtime's file surface, assembled into the
// target container, and read back.
package encode

import (
	"context"
	"fmt"

	"github.com/user/animrender/pkg/pipeline"
	"github.com/user/animrender/pkg/ports"
	"github.com/user/animrender/pkg/render"
)

// Stage assembles processed frames into a video.
type Stage struct {
	codec  ports.CodecRuntime
	logger ports.Logger
}

// NewStage creates a new encode stage.
func NewStage(codec ports.CodecRuntime, logger ports.Logger) *Stage {
	return &Stage{
		codec:  codec,
		logger: logger.WithComponent("encode"),
	}
}

// Execute writes each processed frame by rank, runs the codec, and returns
// the container bytes. All intermediate files are unlinked best-effort.
func (s *Stage) Execute(ctx context.Context, input pipeline.EncodeInput) (pipeline.EncodeResult, error) {
	job := input.Job
	cfg := job.Options.Configuration

	if len(input.Frames) == 0 {
		return pipeline.EncodeResult{}, render.Errorf(render.ErrCodecRunFailed, "no frames to encode")
	}

	written := make([]string, 0, len(input.Frames))
	for i, frame := range input.Frames {
		name := fmt.Sprintf("frame-%05d.png", i)
		if err := s.codec.WriteFile(name, frame.PNG); err != nil {
			s.unlinkAll(written)
			return pipeline.EncodeResult{}, render.NewError(render.ErrCodecRunFailed,
				fmt.Sprintf("stage frame %d", i), err)
		}
		written = append(written, name)
	}

	output := fmt.Sprintf("output-%s.%s", job.ID, cfg.Container)
	args := BuildQualityArgs(job, output)

	s.logger.Debug("Encoding %d frames to %s", len(input.Frames), output)
	if err := s.codec.Run(ctx, args...); err != nil {
		s.unlinkAll(written)
		if render.CodeOf(err) != "" {
			return pipeline.EncodeResult{}, err
		}
		return pipeline.EncodeResult{}, render.NewError(render.ErrCodecRunFailed, "assemble video", err)
	}

	video, err := s.codec.ReadFile(output)
	if err != nil {
		s.unlinkAll(written)
		return pipeline.EncodeResult{}, render.NewError(render.ErrCodecRunFailed, "read encoded output", err)
	}

	s.unlinkAll(written)
	s.unlink(output)

	durationMs := 0
	for _, frame := range input.Frames {
		durationMs += frame.DelayMs
	}

	return pipeline.EncodeResult{
		Video:      video,
		MIMEType:   cfg.Container.MIMEType(),
		DurationMs: durationMs,
	}, nil
}

func (s *Stage) unlinkAll(names []string) {
	for _, name := range names {
		s.unlink(name)
	}
}

// unlink is best-effort cleanup; failures must not fail the outcome.
func (s *Stage) unlink(name string) {
	if err := s.codec.Unlink(name); err != nil {
		s.logger.Debug("Unlink %s: %s", name, err)
	}
}
