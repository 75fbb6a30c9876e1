package workerpool

import (
	"context"
	"testing"
	"time"

	"github.com/user/animrender/pkg/adapters/logger"
	"github.com/user/animrender/pkg/render"
)

func testBitmap(w, h int) []byte {
	bitmap := make([]byte, 4*w*h)
	for i := range bitmap {
		bitmap[i] = byte(i)
	}
	return bitmap
}

func TestPool_SubmitAndAwait(t *testing.T) {
	pool := New(2, logger.NewNoop())
	defer pool.Shutdown()

	future := pool.Submit(ProcessFrameMessage{
		FrameIndex: 7,
		Width:      4,
		Height:     4,
		Bitmap:     testBitmap(4, 4),
	})

	frame, err := future.Await(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if frame.Index != 7 {
		t.Errorf("expected frame index 7, got %d", frame.Index)
	}
	if len(frame.PNG) == 0 {
		t.Error("expected PNG bytes")
	}
}

func TestPool_MinimumSize(t *testing.T) {
	pool := New(0, logger.NewNoop())
	defer pool.Shutdown()

	if pool.Size() != 1 {
		t.Errorf("expected pool size 1, got %d", pool.Size())
	}
}

func TestPool_RoundRobinDistribution(t *testing.T) {
	pool := New(3, logger.NewNoop())
	defer pool.Shutdown()

	const n = 7
	futures := make([]Future, n)
	for i := 0; i < n; i++ {
		futures[i] = pool.Submit(ProcessFrameMessage{
			FrameIndex: i,
			Width:      2,
			Height:     2,
			Bitmap:     testBitmap(2, 2),
		})
	}
	for i := range futures {
		if _, err := futures[i].Await(context.Background()); err != nil {
			t.Fatalf("frame %d: unexpected error: %v", i, err)
		}
	}

	// Across back-to-back submissions each worker receives floor(n/size)
	// or ceil(n/size) tasks.
	lo, hi := n/pool.Size(), (n+pool.Size()-1)/pool.Size()
	for i, w := range pool.workers {
		got := int(w.processed.Load())
		if got != lo && got != hi {
			t.Errorf("worker %d processed %d tasks, expected %d or %d", i, got, lo, hi)
		}
	}
}

func TestPool_WorkerErrorPropagates(t *testing.T) {
	pool := New(1, logger.NewNoop())
	defer pool.Shutdown()

	// Mismatched bitmap length makes the task fail.
	future := pool.Submit(ProcessFrameMessage{
		FrameIndex: 0,
		Width:      4,
		Height:     4,
		Bitmap:     make([]byte, 3),
	})
	if _, err := future.Await(context.Background()); err == nil {
		t.Error("expected error for invalid task")
	}
}

func TestPool_SubmitAfterShutdown(t *testing.T) {
	pool := New(2, logger.NewNoop())
	pool.Shutdown()

	future := pool.Submit(ProcessFrameMessage{
		FrameIndex: 0,
		Width:      2,
		Height:     2,
		Bitmap:     testBitmap(2, 2),
	})
	_, err := future.Await(context.Background())
	if err == nil {
		t.Fatal("expected error after shutdown")
	}
	if !render.IsCode(err, render.ErrPoolShutdown) {
		t.Errorf("expected PoolShutdown, got %v", err)
	}
}

func TestPool_ShutdownIdempotent(t *testing.T) {
	pool := New(2, logger.NewNoop())
	pool.Shutdown()
	pool.Shutdown()
}

func TestPool_AwaitRespectsContext(t *testing.T) {
	pool := New(1, logger.NewNoop())
	defer pool.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	// A future never submitted to a worker: build one directly so Await
	// has nothing to receive.
	future := Future{frameIndex: 0, reply: make(chan WorkerMessage)}
	if _, err := future.Await(ctx); err == nil {
		t.Error("expected context error")
	}
}
