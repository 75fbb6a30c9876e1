package decimate

import (
	"context"
	"testing"

	"github.com/user/animrender/pkg/adapters/logger"
	"github.com/user/animrender/pkg/pipeline"
	"github.com/user/animrender/pkg/render"
)

func solidFrame(index, delayMs int, value byte) render.DecodedFrame {
	bitmap := make([]byte, 4*4*4)
	for i := 0; i < len(bitmap); i += 4 {
		bitmap[i] = value
		bitmap[i+1] = value
		bitmap[i+2] = value
		bitmap[i+3] = 255
	}
	return render.DecodedFrame{
		Index:   index,
		DelayMs: delayMs,
		Bitmap:  bitmap,
		Width:   4,
		Height:  4,
	}
}

func TestStage_Execute_Disabled(t *testing.T) {
	stage := NewStage(logger.NewNoop())

	frames := []render.DecodedFrame{
		solidFrame(0, 5, 10),
		solidFrame(1, 5, 10),
	}

	result, err := stage.Execute(context.Background(), pipeline.DecimateInput{
		Frames: frames,
		Policy: render.DecimationSettings{Enabled: false},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Frames) != 2 {
		t.Errorf("expected all frames to survive, got %d", len(result.Frames))
	}
}

func TestStage_Execute_DropsNearDuplicates(t *testing.T) {
	stage := NewStage(logger.NewNoop())

	// red, green, green (duplicate, fast), blue
	frames := []render.DecodedFrame{
		rgbFrame(0, 5, 255, 0, 0),
		rgbFrame(1, 5, 0, 255, 0),
		rgbFrame(2, 5, 0, 255, 0),
		rgbFrame(3, 5, 0, 0, 255),
	}

	result, err := stage.Execute(context.Background(), pipeline.DecimateInput{
		Frames: frames,
		Policy: render.DecimationSettings{
			Enabled:             true,
			MinIntervalMs:       10,
			SimilarityThreshold: 0.9,
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Frames) != 3 {
		t.Fatalf("expected 3 surviving frames, got %d", len(result.Frames))
	}
	wantIndices := []int{0, 1, 3}
	for i, f := range result.Frames {
		if f.Index != wantIndices[i] {
			t.Errorf("frame %d: expected index %d, got %d", i, wantIndices[i], f.Index)
		}
	}
}

func TestStage_Execute_KeepsFirstAndLast(t *testing.T) {
	stage := NewStage(logger.NewNoop())

	// All frames identical and fast; only the first and last must survive.
	frames := []render.DecodedFrame{
		solidFrame(0, 5, 128),
		solidFrame(1, 5, 128),
		solidFrame(2, 5, 128),
		solidFrame(3, 5, 128),
	}

	result, err := stage.Execute(context.Background(), pipeline.DecimateInput{
		Frames: frames,
		Policy: render.DecimationSettings{
			Enabled:             true,
			MinIntervalMs:       10,
			SimilarityThreshold: 0.9,
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Frames) != 2 {
		t.Fatalf("expected 2 surviving frames, got %d", len(result.Frames))
	}
	if result.Frames[0].Index != 0 || result.Frames[1].Index != 3 {
		t.Errorf("expected indices [0 3], got [%d %d]", result.Frames[0].Index, result.Frames[1].Index)
	}
}

func TestStage_Execute_SingleFrame(t *testing.T) {
	stage := NewStage(logger.NewNoop())

	result, err := stage.Execute(context.Background(), pipeline.DecimateInput{
		Frames: []render.DecodedFrame{solidFrame(0, 100, 1)},
		Policy: render.DecimationSettings{
			Enabled:             true,
			MinIntervalMs:       10,
			SimilarityThreshold: 0.9,
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Frames) != 1 {
		t.Errorf("expected the single frame to survive, got %d", len(result.Frames))
	}
}

func TestStage_Execute_SlowFramesSurvive(t *testing.T) {
	stage := NewStage(logger.NewNoop())

	// Identical frames, but each slower than the minimum interval.
	frames := []render.DecodedFrame{
		solidFrame(0, 100, 64),
		solidFrame(1, 100, 64),
		solidFrame(2, 100, 64),
	}

	result, err := stage.Execute(context.Background(), pipeline.DecimateInput{
		Frames: frames,
		Policy: render.DecimationSettings{
			Enabled:             true,
			MinIntervalMs:       50,
			SimilarityThreshold: 0.9,
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Frames) != 3 {
		t.Errorf("expected all slow frames to survive, got %d", len(result.Frames))
	}
}

func rgbFrame(index, delayMs int, r, g, b byte) render.DecodedFrame {
	bitmap := make([]byte, 4*4*4)
	for i := 0; i < len(bitmap); i += 4 {
		bitmap[i] = r
		bitmap[i+1] = g
		bitmap[i+2] = b
		bitmap[i+3] = 255
	}
	return render.DecodedFrame{
		Index:   index,
		DelayMs: delayMs,
		Bitmap:  bitmap,
		Width:   4,
		Height:  4,
	}
}

func TestSimilarity_Identical(t *testing.T) {
	a := make([]byte, 64)
	for i := range a {
		a[i] = byte(i)
	}
	if sim := Similarity(a, a); sim != 1 {
		t.Errorf("expected similarity 1 for identical buffers, got %f", sim)
	}
}

func TestSimilarity_LengthMismatch(t *testing.T) {
	if sim := Similarity(make([]byte, 16), make([]byte, 32)); sim != 0 {
		t.Errorf("expected similarity 0 for unequal lengths, got %f", sim)
	}
}

func TestSimilarity_Opposite(t *testing.T) {
	// Black vs white over one pixel: maximal RGB difference.
	a := []byte{0, 0, 0, 255}
	b := []byte{255, 255, 255, 255}
	if sim := Similarity(a, b); sim != 0 {
		t.Errorf("expected similarity 0 for opposite pixels, got %f", sim)
	}
}

func TestSimilarity_AlphaIgnored(t *testing.T) {
	a := []byte{10, 20, 30, 0}
	b := []byte{10, 20, 30, 255}
	if sim := Similarity(a, b); sim != 1 {
		t.Errorf("expected alpha-only differences to be ignored, got %f", sim)
	}
}

func TestSimilarity_Range(t *testing.T) {
	a := []byte{0, 128, 255, 255, 12, 34, 56, 255}
	b := []byte{255, 0, 1, 255, 99, 200, 3, 255}
	sim := Similarity(a, b)
	if sim < 0 || sim > 1 {
		t.Errorf("similarity out of range: %f", sim)
	}
}
