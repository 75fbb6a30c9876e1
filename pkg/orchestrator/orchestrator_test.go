package orchestrator

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/user/animrender/pkg/adapters/logger"
	"github.com/user/animrender/pkg/mocks"
	"github.com/user/animrender/pkg/render"
	"github.com/user/animrender/pkg/rendercache"
	"github.com/user/animrender/pkg/stages/decimate"
	"github.com/user/animrender/pkg/stages/decode"
	"github.com/user/animrender/pkg/stages/encode"
	"github.com/user/animrender/pkg/stages/process"
	"github.com/user/animrender/pkg/workerpool"
)

// fakeClock advances 10ms on every reading so stage timings are
// deterministic.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(10 * time.Millisecond)
	return c.t
}

type harness struct {
	renderer *Renderer
	fetcher  *mocks.Fetcher
	codec    *mocks.CodecRuntime
	cache    *rendercache.Cache
	pool     *workerpool.Pool
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	log := logger.NewNoop()
	fetcher := mocks.NewFetcher()
	codec := mocks.NewCodecRuntime()

	// Default codec behavior: materialize whatever output the argument
	// vector names last.
	codec.RunFunc = func(ctx context.Context, args ...string) error {
		codec.PutFile(args[len(args)-1], []byte("video-bytes"))
		return nil
	}

	pool := workerpool.New(2, log)
	t.Cleanup(pool.Shutdown)

	cache := rendercache.New(8)
	clock := &fakeClock{t: time.Unix(1000, 0)}

	renderer := New(
		decode.NewStage(fetcher, codec, log),
		decimate.NewStage(log),
		process.NewStage(pool, log),
		encode.NewStage(codec, log),
		codec,
		fetcher,
		pool,
		cache,
		nil,
		log,
		WithClock(clock.Now),
	)
	return &harness{renderer: renderer, fetcher: fetcher, codec: codec, cache: cache, pool: pool}
}

func fastJob(t *testing.T, cacheKey string) render.Job {
	t.Helper()
	job, err := render.NewJob(
		render.AnimationSource{Kind: render.SourceGIF, URI: "http://example.com/a.gif"},
		render.SourceMetadata{Width: 320, Height: 240, FrameCount: 12, FrameRate: 24, DurationMs: 500},
		render.Options{
			Configuration: render.Configuration{
				Width: 320, Height: 240,
				Container: render.ContainerMP4,
				Codec:     render.CodecH264,
				FrameRate: 60,
				Bitrate:   render.BitrateSettings{TargetKbps: 1000, MaxKbps: 2000},
			},
			Pipeline: render.PipelineFast,
			CacheKey: cacheKey,
		},
	)
	if err != nil {
		t.Fatalf("build job: %v", err)
	}
	return job
}

func rgbaFrame(r, g, b byte) []byte {
	bitmap := make([]byte, 4*4*4)
	for i := 0; i < len(bitmap); i += 4 {
		bitmap[i] = r
		bitmap[i+1] = g
		bitmap[i+2] = b
		bitmap[i+3] = 255
	}
	return bitmap
}

func TestRender_FastPathHappyPath(t *testing.T) {
	h := newHarness(t)
	h.fetcher.Respond("http://example.com/a.gif", []byte("gif-bytes"))

	job := fastJob(t, "k1")
	outcome, err := h.renderer.Render(context.Background(), job)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if outcome.FromCache {
		t.Error("first render must not come from cache")
	}
	if outcome.Metrics.RenderTimeMs != 0 {
		t.Errorf("fast path has no per-frame work, got renderTimeMs=%d", outcome.Metrics.RenderTimeMs)
	}
	if outcome.Metrics.AverageFrameProcessingMs != 0 {
		t.Errorf("expected zero average frame time, got %f", outcome.Metrics.AverageFrameProcessingMs)
	}
	if outcome.Result.FrameRate != 30 {
		t.Errorf("expected frame rate capped at 30, got %d", outcome.Result.FrameRate)
	}
	if outcome.Result.MIMEType != "video/mp4" {
		t.Errorf("expected video/mp4, got %s", outcome.Result.MIMEType)
	}
	if outcome.Metrics.OutputSizeBytes != len(outcome.Result.Video) {
		t.Errorf("output size %d does not match video length %d",
			outcome.Metrics.OutputSizeBytes, len(outcome.Result.Video))
	}
	if outcome.Metrics.DecodeTimeMs <= 0 || outcome.Metrics.EncodeTimeMs <= 0 || outcome.Metrics.TotalTimeMs <= 0 {
		t.Errorf("expected positive timings, got %+v", outcome.Metrics)
	}

	// Second call with the same key returns the cached outcome verbatim.
	second, err := h.renderer.Render(context.Background(), job)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !second.FromCache {
		t.Error("second render must come from cache")
	}
	if !bytes.Equal(second.Result.Video, outcome.Result.Video) {
		t.Error("cached video bytes must be identical")
	}
}

func TestRender_FastPathCleansUpSurface(t *testing.T) {
	h := newHarness(t)
	h.fetcher.Respond("http://example.com/a.gif", []byte("gif-bytes"))

	job := fastJob(t, "")
	if _, err := h.renderer.Render(context.Background(), job); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	inputName := "input-" + job.ID
	outputName := "output-" + job.ID + ".mp4"
	for _, name := range []string{inputName, outputName} {
		if _, ok := h.codec.GetFile(name); ok {
			t.Errorf("expected %s to be unlinked", name)
		}
	}
}

func TestRender_NoCacheKeyNoCacheWrite(t *testing.T) {
	h := newHarness(t)
	h.fetcher.Respond("http://example.com/a.gif", []byte("gif-bytes"))

	if _, err := h.renderer.Render(context.Background(), fastJob(t, "")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.cache.Len() != 0 {
		t.Errorf("expected no cache writes, got %d entries", h.cache.Len())
	}
}

func TestRender_FastPathDownloadFailure(t *testing.T) {
	h := newHarness(t)
	h.fetcher.FetchFunc = func(ctx context.Context, uri string) ([]byte, error) {
		return nil, render.Errorf(render.ErrDownloadFailed, "status 502")
	}

	_, err := h.renderer.Render(context.Background(), fastJob(t, "k"))
	if !render.IsCode(err, render.ErrDownloadFailed) {
		t.Errorf("expected DownloadFailed, got %v", err)
	}
	if h.cache.Len() != 0 {
		t.Error("cache must not be written on failure")
	}
}

func TestRender_PosterFailureIsNonFatal(t *testing.T) {
	h := newHarness(t)
	h.fetcher.Respond("http://example.com/a.gif", []byte("gif-bytes"))

	h.codec.RunFunc = func(ctx context.Context, args ...string) error {
		for _, a := range args {
			if a == "-frames:v" {
				return render.Errorf(render.ErrCodecRunFailed, "poster encoder broken")
			}
		}
		h.codec.PutFile(args[len(args)-1], []byte("video-bytes"))
		return nil
	}

	job := fastJob(t, "")
	job.Options.Fallback = render.FallbackSettings{ProducePosterFrame: true, PosterFormat: render.PosterPNG}

	outcome, err := h.renderer.Render(context.Background(), job)
	if err != nil {
		t.Fatalf("poster failure must not fail the render: %v", err)
	}
	if outcome.Result.PosterFrame != nil {
		t.Error("expected absent poster frame")
	}
	if len(outcome.Result.Video) == 0 {
		t.Error("expected video despite poster failure")
	}
}

func TestRender_FastPathDeclinedForFrameSequence(t *testing.T) {
	h := newHarness(t)

	job, err := render.NewJob(
		render.AnimationSource{
			Kind:    render.SourceFrameSequence,
			Frames:  [][]byte{rgbaFrame(255, 0, 0), rgbaFrame(0, 255, 0)},
			DelayMs: 40,
		},
		render.SourceMetadata{Width: 4, Height: 4, FrameCount: 2, FrameRate: 25, DurationMs: 80},
		render.Options{
			Configuration: render.Configuration{
				Width: 4, Height: 4,
				Container: render.ContainerMP4,
				Codec:     render.CodecH264,
				FrameRate: 25,
				Bitrate:   render.BitrateSettings{TargetKbps: 500, MaxKbps: 800},
			},
			Pipeline: render.PipelineFast,
		},
	)
	if err != nil {
		t.Fatalf("build job: %v", err)
	}

	outcome, rerr := h.renderer.Render(context.Background(), job)
	if rerr != nil {
		t.Fatalf("unexpected error: %v", rerr)
	}
	if outcome.Metrics.RenderTimeMs <= 0 {
		t.Errorf("expected quality path with per-frame work, got renderTimeMs=%d", outcome.Metrics.RenderTimeMs)
	}
	if len(h.fetcher.FetchedURIs) != 0 {
		t.Error("frame sequence renders must not fetch anything")
	}
}

func TestRender_QualityPathVP9Alpha(t *testing.T) {
	h := newHarness(t)

	job, err := render.NewJob(
		render.AnimationSource{
			Kind: render.SourceFrameSequence,
			Frames: [][]byte{
				rgbaFrame(255, 0, 0),
				rgbaFrame(0, 255, 0),
				rgbaFrame(0, 255, 0), // near-duplicate, below interval
				rgbaFrame(0, 0, 255),
			},
			DelayMs: 5,
		},
		render.SourceMetadata{Width: 4, Height: 4, FrameCount: 4, FrameRate: 30, DurationMs: 20},
		render.Options{
			Configuration: render.Configuration{
				Width: 4, Height: 4,
				Container:   render.ContainerWebM,
				Codec:       render.CodecVP9,
				FrameRate:   30,
				Bitrate:     render.BitrateSettings{TargetKbps: 500, MaxKbps: 800},
				EnableAlpha: true,
				Decimation: render.DecimationSettings{
					Enabled:             true,
					MinIntervalMs:       10,
					SimilarityThreshold: 0.9,
				},
			},
			Pipeline: render.PipelineQuality,
		},
	)
	if err != nil {
		t.Fatalf("build job: %v", err)
	}

	outcome, rerr := h.renderer.Render(context.Background(), job)
	if rerr != nil {
		t.Fatalf("unexpected error: %v", rerr)
	}

	if outcome.Result.Container != render.ContainerWebM {
		t.Errorf("expected webm container, got %s", outcome.Result.Container)
	}
	if outcome.Result.MIMEType != "video/webm" {
		t.Errorf("expected video/webm, got %s", outcome.Result.MIMEType)
	}

	// The duplicate frame is decimated: 3 frames survive.
	want := outcome.Metrics.RenderTimeMs
	if got := outcome.Metrics.AverageFrameProcessingMs * 3; got < float64(want)-0.001 || got > float64(want)+0.001 {
		t.Errorf("expected average over 3 processed frames, got %f with renderTimeMs=%d",
			outcome.Metrics.AverageFrameProcessingMs, want)
	}

	// The encode invocation carries the alpha pixel format.
	var encodeArgs []string
	for _, call := range h.codec.RunCalls {
		joined := strings.Join(call, " ")
		if strings.Contains(joined, "frame-%05d.png") {
			encodeArgs = call
		}
	}
	if encodeArgs == nil {
		t.Fatal("no encode invocation recorded")
	}
	if !strings.Contains(strings.Join(encodeArgs, " "), "-pix_fmt yuva420p") {
		t.Errorf("expected yuva420p, got %s", strings.Join(encodeArgs, " "))
	}
}

func TestRender_QualityPathPosterIsFirstFrame(t *testing.T) {
	h := newHarness(t)

	job, err := render.NewJob(
		render.AnimationSource{
			Kind:    render.SourceFrameSequence,
			Frames:  [][]byte{rgbaFrame(1, 2, 3), rgbaFrame(4, 5, 6)},
			DelayMs: 40,
		},
		render.SourceMetadata{Width: 4, Height: 4, FrameCount: 2, FrameRate: 25, DurationMs: 80},
		render.Options{
			Configuration: render.Configuration{
				Width: 4, Height: 4,
				Container: render.ContainerMP4,
				Codec:     render.CodecH264,
				FrameRate: 25,
				Bitrate:   render.BitrateSettings{TargetKbps: 500, MaxKbps: 800},
			},
			Pipeline: render.PipelineQuality,
			Fallback: render.FallbackSettings{ProducePosterFrame: true, PosterFormat: render.PosterPNG},
		},
	)
	if err != nil {
		t.Fatalf("build job: %v", err)
	}

	outcome, rerr := h.renderer.Render(context.Background(), job)
	if rerr != nil {
		t.Fatalf("unexpected error: %v", rerr)
	}
	if len(outcome.Result.PosterFrame) == 0 {
		t.Fatal("expected poster frame")
	}
	// The poster is the first processed frame's PNG (a valid PNG header).
	if !bytes.HasPrefix(outcome.Result.PosterFrame, []byte{0x89, 'P', 'N', 'G'}) {
		t.Error("expected poster to be PNG bytes")
	}
}

func TestRender_CodecInitFailure(t *testing.T) {
	h := newHarness(t)
	h.codec.InitFunc = func(ctx context.Context) error {
		return render.Errorf(render.ErrCodecNotInitialized, "no binary")
	}

	_, err := h.renderer.Render(context.Background(), fastJob(t, ""))
	if !render.IsCode(err, render.ErrCodecNotInitialized) {
		t.Errorf("expected CodecNotInitialized, got %v", err)
	}
}

func TestRender_InitIsIdempotent(t *testing.T) {
	h := newHarness(t)
	h.fetcher.Respond("http://example.com/a.gif", []byte("gif-bytes"))

	for i := 0; i < 3; i++ {
		if _, err := h.renderer.Render(context.Background(), fastJob(t, "")); err != nil {
			t.Fatalf("render %d: %v", i, err)
		}
	}
	if h.codec.InitCalls != 3 {
		t.Errorf("expected init invoked per render, got %d", h.codec.InitCalls)
	}
}
