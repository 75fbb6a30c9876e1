// Package decode implements the source decoding stage. It dispatches on the
// animation source kind and produces an ordered sequence of RGBA frames
// with per-frame delay and key-frame flags.
package decode

import (
	"context"
	"fmt"

	"github.com/user/animrender/pkg/pipeline"
	"github.com/user/animrender/pkg/ports"
	"github.com/user/animrender/pkg/render"
)

// Stage decodes an animation source into frames.
type Stage struct {
	fetcher ports.Fetcher
	codec   ports.CodecRuntime
	logger  ports.Logger
}

// NewStage creates a new decode stage.
func NewStage(fetcher ports.Fetcher, codec ports.CodecRuntime, logger ports.Logger) *Stage {
	return &Stage{
		fetcher: fetcher,
		codec:   codec,
		logger:  logger.WithComponent("decode"),
	}
}

// Execute decodes the job's source into an ordered frame sequence.
func (s *Stage) Execute(ctx context.Context, input pipeline.DecodeInput) (pipeline.DecodeResult, error) {
	job := input.Job

	switch job.Source.Kind {
	case render.SourceGIF, render.SourceAPNG:
		frames, err := s.decodeAnimatedImage(ctx, job)
		if err != nil {
			return pipeline.DecodeResult{}, err
		}
		return pipeline.DecodeResult{Frames: frames}, nil

	case render.SourceFrameSequence:
		return pipeline.DecodeResult{Frames: s.mapFrameSequence(job)}, nil

	case render.SourceVideo:
		frames, err := s.decodeVideo(ctx, job)
		if err != nil {
			return pipeline.DecodeResult{}, err
		}
		return pipeline.DecodeResult{Frames: frames}, nil

	default:
		return pipeline.DecodeResult{}, render.Errorf(render.ErrUnsupportedSource,
			"unknown source kind %q", job.Source.Kind)
	}
}

// mapFrameSequence wraps caller-supplied RGBA buffers as decoded frames.
func (s *Stage) mapFrameSequence(job render.Job) []render.DecodedFrame {
	frames := make([]render.DecodedFrame, 0, len(job.Source.Frames))
	for i, bitmap := range job.Source.Frames {
		frames = append(frames, render.DecodedFrame{
			Index:      i,
			DelayMs:    job.Source.DelayMs,
			IsKeyFrame: i == 0,
			Bitmap:     bitmap,
			Width:      job.Metadata.Width,
			Height:     job.Metadata.Height,
		})
	}
	return frames
}

func (s *Stage) fetch(ctx context.Context, uri string) ([]byte, error) {
	data, err := s.fetcher.Fetch(ctx, uri)
	if err != nil {
		if render.CodeOf(err) != "" {
			return nil, err
		}
		return nil, render.NewError(render.ErrDownloadFailed, fmt.Sprintf("fetch %s", uri), err)
	}
	return data, nil
}
