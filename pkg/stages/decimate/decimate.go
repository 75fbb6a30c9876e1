// Package decimate implements temporal frame decimation: adjacent frames
// that are nearly identical and arrive faster than a minimum interval are
// collapsed, shrinking the encoder workload.
package decimate

import (
	"context"

	"github.com/user/animrender/pkg/pipeline"
	"github.com/user/animrender/pkg/ports"
	"github.com/user/animrender/pkg/render"
)

// Stage drops near-duplicate adjacent frames subject to a minimum
// inter-frame interval. The first and last input frames always survive.
type Stage struct {
	logger ports.Logger
}

// NewStage creates a new decimate stage.
func NewStage(logger ports.Logger) *Stage {
	return &Stage{logger: logger.WithComponent("decimate")}
}

// Execute applies the decimation policy, preserving temporal order.
func (s *Stage) Execute(ctx context.Context, input pipeline.DecimateInput) (pipeline.DecimateResult, error) {
	frames := input.Frames
	policy := input.Policy

	if !policy.Enabled || len(frames) == 0 {
		return pipeline.DecimateResult{Frames: frames}, nil
	}

	selected := []render.DecodedFrame{frames[0]}
	lastKept := frames[0]

	for _, f := range frames[1:] {
		sim := Similarity(lastKept.Bitmap, f.Bitmap)
		if f.DelayMs < policy.MinIntervalMs && sim > policy.SimilarityThreshold {
			continue
		}
		selected = append(selected, f)
		lastKept = f
	}

	// The final frame terminates the loop; keep it even when similar.
	last := frames[len(frames)-1]
	if selected[len(selected)-1].Index != last.Index {
		selected = append(selected, last)
	}

	if dropped := len(frames) - len(selected); dropped > 0 {
		s.logger.Debug("Dropped %d of %d frames", dropped, len(frames))
	}
	return pipeline.DecimateResult{Frames: selected}, nil
}

// Similarity compares two RGBA bitmaps by summed absolute RGB difference,
// normalized to [0,1]. Alpha is ignored. Buffers of unequal length compare
// as 0.
func Similarity(a, b []byte) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var sumDiff int64
	for i := 0; i+3 < len(a); i += 4 {
		sumDiff += absDiff(a[i], b[i])
		sumDiff += absDiff(a[i+1], b[i+1])
		sumDiff += absDiff(a[i+2], b[i+2])
	}
	pixels := len(a) / 4
	sim := 1 - float64(sumDiff)/float64(pixels*765)
	if sim < 0 {
		return 0
	}
	if sim > 1 {
		return 1
	}
	return sim
}

func absDiff(x, y byte) int64 {
	if x > y {
		return int64(x - y)
	}
	return int64(y - x)
}
