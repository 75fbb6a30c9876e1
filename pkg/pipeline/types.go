package pipeline

import (
	"github.com/user/animrender/pkg/render"
)

// =============================================================================
// Decode Stage Types
// =============================================================================

// DecodeInput contains parameters for source decoding.
type DecodeInput struct {
	Job render.Job
}

// DecodeResult contains the decoded frames in source order.
type DecodeResult struct {
	Frames []render.DecodedFrame
}

// =============================================================================
// Decimate Stage Types
// =============================================================================

// DecimateInput contains frames and the decimation policy.
type DecimateInput struct {
	Frames []render.DecodedFrame
	Policy render.DecimationSettings
}

// DecimateResult contains the surviving subsequence, in order.
type DecimateResult struct {
	Frames []render.DecodedFrame
}

// =============================================================================
// Process Stage Types
// =============================================================================

// ProcessInput contains frames to fan out to the worker pool.
type ProcessInput struct {
	Frames     []render.DecodedFrame
	Operations []render.Operation
}

// ProcessResult contains processed frames reassembled by index.
type ProcessResult struct {
	Frames []render.ProcessedFrame
}

// =============================================================================
// Encode Stage Types
// =============================================================================

// EncodeInput contains processed frames and the owning job.
type EncodeInput struct {
	Job    render.Job
	Frames []render.ProcessedFrame
}

// EncodeResult contains the encoded video.
type EncodeResult struct {
	Video      []byte
	MIMEType   string
	DurationMs int
}
