// Package animrender provides a high-level API for turning animated inputs
// into compact looping video clips. It wires the default adapters, worker
// pool, cache, and stages into a ready-to-use renderer.
package animrender

import (
	"context"
	"time"

	"github.com/user/animrender/pkg/adapters/ffmpegcodec"
	"github.com/user/animrender/pkg/adapters/filesink"
	"github.com/user/animrender/pkg/adapters/httpfetch"
	"github.com/user/animrender/pkg/adapters/nullsink"
	"github.com/user/animrender/pkg/adapters/osfilesystem"
	"github.com/user/animrender/pkg/config"
	"github.com/user/animrender/pkg/orchestrator"
	"github.com/user/animrender/pkg/ports"
	"github.com/user/animrender/pkg/render"
	"github.com/user/animrender/pkg/rendercache"
	"github.com/user/animrender/pkg/stages/decimate"
	"github.com/user/animrender/pkg/stages/decode"
	"github.com/user/animrender/pkg/stages/encode"
	"github.com/user/animrender/pkg/stages/process"
	"github.com/user/animrender/pkg/workerpool"
)

// Renderer is the assembled render pipeline.
type Renderer struct {
	orch  *orchestrator.Renderer
	codec ports.CodecRuntime
	pool  *workerpool.Pool
}

// New assembles a Renderer from configuration. The returned renderer owns
// its codec runtime and worker pool; call Shutdown when done.
func New(cfg config.Config, logger ports.Logger) *Renderer {
	fs := osfilesystem.New()

	if cfg.FFmpegPath != "" {
		ffmpegcodec.SetFFmpegPath(cfg.FFmpegPath)
	}
	codec := ffmpegcodec.New(fs, logger)
	fetcher := httpfetch.New()

	poolSize := cfg.Workers
	if poolSize <= 0 {
		poolSize = workerpool.DefaultSize()
	}
	pool := workerpool.New(poolSize, logger)

	cache := rendercache.New(cfg.Cache.MaxEntries,
		rendercache.WithTTL(time.Duration(cfg.Cache.TTLMinutes)*time.Minute))

	var sink ports.DebugSink = nullsink.New()
	if cfg.Debug {
		sink = filesink.New(cfg.DebugDir, fs)
	}

	orch := orchestrator.New(
		decode.NewStage(fetcher, codec, logger),
		decimate.NewStage(logger),
		process.NewStage(pool, logger),
		encode.NewStage(codec, logger),
		codec,
		fetcher,
		pool,
		cache,
		sink,
		logger,
	)

	return &Renderer{orch: orch, codec: codec, pool: pool}
}

// Render executes one job.
func (r *Renderer) Render(ctx context.Context, job render.Job) (render.Outcome, error) {
	return r.orch.Render(ctx, job)
}

// Shutdown stops the worker pool and releases the codec runtime.
func (r *Renderer) Shutdown() error {
	return r.orch.Shutdown()
}
