// Package process implements the frame processing stage: it fans out every
// selected frame to the worker pool and reassembles the results into a
// deterministic sequence.
package process

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/user/animrender/pkg/pipeline"
	"github.com/user/animrender/pkg/ports"
	"github.com/user/animrender/pkg/render"
	"github.com/user/animrender/pkg/workerpool"
)

// Stage dispatches frames to a worker pool.
type Stage struct {
	pool   *workerpool.Pool
	logger ports.Logger
}

// NewStage creates a new process stage.
func NewStage(pool *workerpool.Pool, logger ports.Logger) *Stage {
	return &Stage{
		pool:   pool,
		logger: logger.WithComponent("process"),
	}
}

// Execute submits all frames at once and awaits the full set. Frames
// complete in arbitrary order; the output is ordered by submission rank, so
// the encoder sees the decimated sequence.
func (s *Stage) Execute(ctx context.Context, input pipeline.ProcessInput) (pipeline.ProcessResult, error) {
	if len(input.Frames) == 0 {
		return pipeline.ProcessResult{Frames: []render.ProcessedFrame{}}, nil
	}

	s.logger.Debug("Dispatching %d frames to %d workers", len(input.Frames), s.pool.Size())

	futures := make([]workerpool.Future, len(input.Frames))
	for i, frame := range input.Frames {
		futures[i] = s.pool.Submit(workerpool.ProcessFrameMessage{
			FrameIndex: frame.Index,
			Width:      frame.Width,
			Height:     frame.Height,
			Bitmap:     frame.Bitmap,
			Operations: input.Operations,
		})
	}

	processed := make([]render.ProcessedFrame, len(input.Frames))
	g, gctx := errgroup.WithContext(ctx)
	for i := range futures {
		i := i
		g.Go(func() error {
			result, err := futures[i].Await(gctx)
			if err != nil {
				return err
			}
			result.DelayMs = input.Frames[i].DelayMs
			processed[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return pipeline.ProcessResult{}, err
	}

	return pipeline.ProcessResult{Frames: processed}, nil
}
