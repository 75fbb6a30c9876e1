package render

import (
	"time"

	"github.com/google/uuid"
)

// NewJob validates metadata and options and builds a Job with a fresh id.
// Invalid dimensions, frame counts, or frame rates fail with InvalidJob so
// that Render is never invoked on a malformed request.
func NewJob(source AnimationSource, metadata SourceMetadata, options Options) (Job, error) {
	if metadata.Width <= 0 || metadata.Height <= 0 {
		return Job{}, Errorf(ErrInvalidJob, "source dimensions must be positive, got %dx%d", metadata.Width, metadata.Height)
	}
	if metadata.FrameCount <= 0 {
		return Job{}, Errorf(ErrInvalidJob, "frame count must be positive, got %d", metadata.FrameCount)
	}
	if metadata.FrameRate < 1 || metadata.FrameRate > 60 {
		return Job{}, Errorf(ErrInvalidJob, "frame rate must be in [1,60], got %d", metadata.FrameRate)
	}
	if options.Configuration.FrameRate < 1 || options.Configuration.FrameRate > 60 {
		return Job{}, Errorf(ErrInvalidJob, "configured frame rate must be in [1,60], got %d", options.Configuration.FrameRate)
	}
	if source.Kind == SourceFrameSequence {
		if len(source.Frames) == 0 {
			return Job{}, Errorf(ErrInvalidJob, "frame sequence must contain at least one frame")
		}
		if source.DelayMs <= 0 {
			return Job{}, Errorf(ErrInvalidJob, "frame sequence delay must be positive, got %d", source.DelayMs)
		}
	}

	return Job{
		ID:        uuid.NewString(),
		Source:    source,
		Metadata:  metadata,
		Options:   options,
		CreatedAt: time.Now(),
	}, nil
}
