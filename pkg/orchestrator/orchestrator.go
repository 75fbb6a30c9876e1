// Package orchestrator coordinates the render pipeline: cache lookup, codec
// initialization, the fast-path decision, and the decode → decimate →
// process → encode sequence, assembling metrics into a final outcome.
package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ideamans/go-l10n"

	"github.com/user/animrender/pkg/adapters/mp4probe"
	"github.com/user/animrender/pkg/pipeline"
	"github.com/user/animrender/pkg/ports"
	"github.com/user/animrender/pkg/render"
	"github.com/user/animrender/pkg/rendercache"
	"github.com/user/animrender/pkg/stages/encode"
	"github.com/user/animrender/pkg/workerpool"
)

// Renderer is the public entrypoint of the render pipeline. It exclusively
// owns the codec runtime and the worker pool for its lifetime.
type Renderer struct {
	decodeStage   pipeline.Stage[pipeline.DecodeInput, pipeline.DecodeResult]
	decimateStage pipeline.Stage[pipeline.DecimateInput, pipeline.DecimateResult]
	processStage  pipeline.Stage[pipeline.ProcessInput, pipeline.ProcessResult]
	encodeStage   pipeline.Stage[pipeline.EncodeInput, pipeline.EncodeResult]

	codec   ports.CodecRuntime
	fetcher ports.Fetcher
	pool    *workerpool.Pool
	cache   *rendercache.Cache
	sink    ports.DebugSink
	logger  ports.Logger
	now     func() time.Time
}

// Option customizes a Renderer.
type Option func(*Renderer)

// WithClock overrides the time source. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Renderer) { r.now = now }
}

// New creates a new Renderer.
func New(
	decodeStage pipeline.Stage[pipeline.DecodeInput, pipeline.DecodeResult],
	decimateStage pipeline.Stage[pipeline.DecimateInput, pipeline.DecimateResult],
	processStage pipeline.Stage[pipeline.ProcessInput, pipeline.ProcessResult],
	encodeStage pipeline.Stage[pipeline.EncodeInput, pipeline.EncodeResult],
	codec ports.CodecRuntime,
	fetcher ports.Fetcher,
	pool *workerpool.Pool,
	cache *rendercache.Cache,
	sink ports.DebugSink,
	logger ports.Logger,
	opts ...Option,
) *Renderer {
	r := &Renderer{
		decodeStage:   decodeStage,
		decimateStage: decimateStage,
		processStage:  processStage,
		encodeStage:   encodeStage,
		codec:         codec,
		fetcher:       fetcher,
		pool:          pool,
		cache:         cache,
		sink:          sink,
		logger:        logger,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render executes one job and returns its outcome. The cache is consulted
// first when the job carries a cache key and written last on success.
func (r *Renderer) Render(ctx context.Context, job render.Job) (render.Outcome, error) {
	startedAt := r.now()
	r.logger.Info(l10n.F("Starting render %s", job.ID))

	if key := job.Options.CacheKey; key != "" && r.cache != nil {
		if cached, ok := r.cache.Get(key); ok {
			r.logger.Info(l10n.F("Cache hit for key %s", key))
			cached.FromCache = true
			return cached, nil
		}
	}

	if err := r.codec.Init(ctx); err != nil {
		return render.Outcome{}, fmt.Errorf("init codec: %w", err)
	}

	var outcome render.Outcome
	var err error
	if r.useFastPath(job) {
		r.logger.Info(l10n.T("Taking fast path"))
		outcome, err = r.renderFast(ctx, job, startedAt)
	} else {
		r.logger.Info(l10n.T("Taking quality path"))
		outcome, err = r.renderQuality(ctx, job, startedAt)
	}
	if err != nil {
		return render.Outcome{}, err
	}

	r.logger.Info(l10n.F("Render completed in %d ms", outcome.Metrics.TotalTimeMs))

	if r.sink != nil && r.sink.Enabled() {
		if data, jerr := json.MarshalIndent(outcome.Metrics, "", "  "); jerr == nil {
			r.sink.SaveOutcomeJSON(data)
		}
	}

	if key := job.Options.CacheKey; key != "" && r.cache != nil {
		r.cache.Set(key, outcome)
	}
	return outcome, nil
}

// useFastPath reports whether the job qualifies for a single transcode:
// mp4/h264 without alpha from a container the codec can read directly.
func (r *Renderer) useFastPath(job render.Job) bool {
	cfg := job.Options.Configuration
	return job.Options.Pipeline == render.PipelineFast &&
		job.Source.Kind != render.SourceFrameSequence &&
		cfg.Container == render.ContainerMP4 &&
		cfg.Codec == render.CodecH264 &&
		!cfg.EnableAlpha
}

// renderFast pushes the whole decode/encode into one codec pass, skipping
// per-frame work in userspace.
func (r *Renderer) renderFast(ctx context.Context, job render.Job, startedAt time.Time) (render.Outcome, error) {
	cfg := job.Options.Configuration

	downloadStart := r.now()
	data, err := r.fetcher.Fetch(ctx, job.Source.URI)
	if err != nil {
		if render.CodeOf(err) != "" {
			return render.Outcome{}, err
		}
		return render.Outcome{}, render.NewError(render.ErrDownloadFailed, fmt.Sprintf("fetch %s", job.Source.URI), err)
	}
	downloadMs := r.now().Sub(downloadStart).Milliseconds()

	inputName := fmt.Sprintf("input-%s", job.ID)
	outputName := fmt.Sprintf("output-%s.%s", job.ID, cfg.Container)
	if err := r.codec.WriteFile(inputName, data); err != nil {
		return render.Outcome{}, render.NewError(render.ErrCodecRunFailed, "stage input", err)
	}

	args := encode.BuildFastArgs(job, inputName, outputName)
	if r.sink != nil && r.sink.Enabled() {
		r.sink.SaveCodecArgs(args)
	}

	encodeStart := r.now()
	if err := r.codec.Run(ctx, args...); err != nil {
		r.unlink(inputName)
		if render.CodeOf(err) != "" {
			return render.Outcome{}, err
		}
		return render.Outcome{}, render.NewError(render.ErrCodecRunFailed, "fast transcode", err)
	}
	encodeMs := r.now().Sub(encodeStart).Milliseconds()

	video, err := r.codec.ReadFile(outputName)
	if err != nil {
		r.unlink(inputName)
		return render.Outcome{}, render.NewError(render.ErrCodecRunFailed, "read transcoded output", err)
	}

	var poster []byte
	if job.Options.Fallback.ProducePosterFrame {
		poster = encode.ExtractPoster(ctx, r.codec, r.logger, job, outputName)
	}

	r.unlink(inputName)
	r.unlink(outputName)

	durationMs := job.Metadata.DurationMs
	if report, perr := mp4probe.Probe(video); perr == nil && report.DurationMs > 0 {
		durationMs = report.DurationMs
		r.logger.Debug("Probed output: codec=%s faststart=%t duration=%dms", report.VideoCodec, report.Faststart, report.DurationMs)
	}

	frameRate := cfg.FrameRate
	if frameRate > encode.FastFrameRateCap {
		frameRate = encode.FastFrameRateCap
	}

	totalMs := r.now().Sub(startedAt).Milliseconds()
	return render.Outcome{
		Metrics: render.Metrics{
			DecodeTimeMs:    downloadMs,
			RenderTimeMs:    0,
			EncodeTimeMs:    encodeMs,
			TotalTimeMs:     totalMs,
			OutputSizeBytes: len(video),
		},
		Result: render.Result{
			Video:       video,
			Container:   cfg.Container,
			MIMEType:    cfg.Container.MIMEType(),
			DurationMs:  durationMs,
			FrameRate:   frameRate,
			PosterFrame: poster,
		},
	}, nil
}

// renderQuality decodes every frame, decimates, processes each frame on
// the worker pool, and assembles the stills into the target container.
func (r *Renderer) renderQuality(ctx context.Context, job render.Job, startedAt time.Time) (render.Outcome, error) {
	cfg := job.Options.Configuration

	decodeStart := r.now()
	decoded, err := r.decodeStage.Execute(ctx, pipeline.DecodeInput{Job: job})
	if err != nil {
		return render.Outcome{}, err
	}
	decodeMs := r.now().Sub(decodeStart).Milliseconds()

	decimated, err := r.decimateStage.Execute(ctx, pipeline.DecimateInput{
		Frames: decoded.Frames,
		Policy: cfg.Decimation,
	})
	if err != nil {
		return render.Outcome{}, err
	}

	renderStart := r.now()
	processed, err := r.processStage.Execute(ctx, pipeline.ProcessInput{
		Frames:     decimated.Frames,
		Operations: job.Options.Operations,
	})
	if err != nil {
		return render.Outcome{}, err
	}
	renderMs := r.now().Sub(renderStart).Milliseconds()

	if r.sink != nil && r.sink.Enabled() {
		for _, frame := range processed.Frames {
			r.sink.SaveProcessedFrame(frame.Index, frame.PNG)
		}
	}

	encodeStart := r.now()
	encoded, err := r.encodeStage.Execute(ctx, pipeline.EncodeInput{
		Job:    job,
		Frames: processed.Frames,
	})
	if err != nil {
		return render.Outcome{}, err
	}
	encodeMs := r.now().Sub(encodeStart).Milliseconds()

	var poster []byte
	if job.Options.Fallback.ProducePosterFrame && len(processed.Frames) > 0 {
		poster = processed.Frames[0].PNG
		if job.Options.Fallback.PosterFormat == render.PosterWebP {
			// No webp encoder in the stack; the PNG still serves as poster.
			r.logger.Debug("Poster format webp requested, keeping png bytes")
		}
	}

	averageMs := 0.0
	if n := len(processed.Frames); n > 0 {
		averageMs = float64(renderMs) / float64(n)
	}

	totalMs := r.now().Sub(startedAt).Milliseconds()
	return render.Outcome{
		Metrics: render.Metrics{
			DecodeTimeMs:             decodeMs,
			RenderTimeMs:             renderMs,
			EncodeTimeMs:             encodeMs,
			TotalTimeMs:              totalMs,
			OutputSizeBytes:          len(encoded.Video),
			AverageFrameProcessingMs: averageMs,
		},
		Result: render.Result{
			Video:       encoded.Video,
			Container:   cfg.Container,
			MIMEType:    encoded.MIMEType,
			DurationMs:  encoded.DurationMs,
			FrameRate:   cfg.FrameRate,
			PosterFrame: poster,
		},
	}, nil
}

// Shutdown stops the worker pool and releases the codec runtime.
func (r *Renderer) Shutdown() error {
	if r.pool != nil {
		r.pool.Shutdown()
	}
	return r.codec.Close()
}

// unlink is best-effort cleanup; failures are logged, never fatal.
func (r *Renderer) unlink(name string) {
	if err := r.codec.Unlink(name); err != nil {
		r.logger.Debug("Unlink %s: %s", name, err)
	}
}
