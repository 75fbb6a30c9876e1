// Package ffmpegcodec implements ports.CodecRuntime against a system
// ffmpeg binary. A private scratch directory serves as the runtime's file
// surface; every invocation resolves names relative to it.
package ffmpegcodec

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/user/animrender/pkg/ports"
	"github.com/user/animrender/pkg/render"
)

// Runtime drives ffmpeg over a scratch directory. The binary and its file
// surface are process-wide state, so Run invocations are serialized.
type Runtime struct {
	fs     ports.FileSystem
	logger ports.Logger

	mu         sync.Mutex
	workDir    string
	ffmpegPath string
	inited     bool
	closed     bool
}

// Option customizes a Runtime.
type Option func(*Runtime)

// WithWorkDir pins the scratch directory instead of a fresh temp dir.
func WithWorkDir(dir string) Option {
	return func(r *Runtime) { r.workDir = dir }
}

// New creates an uninitialized Runtime. Call Init before use.
func New(fs ports.FileSystem, logger ports.Logger, opts ...Option) *Runtime {
	r := &Runtime{
		fs:     fs,
		logger: logger.WithComponent("codec"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Init locates the ffmpeg binary and provisions the scratch directory.
// It is idempotent.
func (r *Runtime) Init(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.inited {
		return nil
	}
	if r.closed {
		return render.Errorf(render.ErrCodecNotInitialized, "codec runtime is closed")
	}

	path, err := FindFFmpeg()
	if err != nil {
		return render.NewError(render.ErrCodecNotInitialized, "locate ffmpeg", err)
	}
	r.ffmpegPath = path

	if r.workDir == "" {
		dir, err := os.MkdirTemp("", "animrender-*")
		if err != nil {
			return render.NewError(render.ErrCodecNotInitialized, "create scratch directory", err)
		}
		r.workDir = dir
	} else if err := r.fs.MkdirAll(r.workDir); err != nil {
		return render.NewError(render.ErrCodecNotInitialized, "create scratch directory", err)
	}

	r.inited = true
	r.logger.Debug("Codec runtime ready at %s", r.workDir)
	return nil
}

// WriteFile stores data under name on the file surface.
func (r *Runtime) WriteFile(name string, data []byte) error {
	path, err := r.resolve(name)
	if err != nil {
		return err
	}
	return r.fs.WriteFile(path, data)
}

// ReadFile returns the contents of name from the file surface.
func (r *Runtime) ReadFile(name string) ([]byte, error) {
	path, err := r.resolve(name)
	if err != nil {
		return nil, err
	}
	return r.fs.ReadFile(path)
}

// Unlink removes name from the file surface.
func (r *Runtime) Unlink(name string) error {
	path, err := r.resolve(name)
	if err != nil {
		return err
	}
	return r.fs.Remove(path)
}

// Run executes ffmpeg with the given argument vector inside the scratch
// directory. Calls are serialized; a non-zero exit fails with
// CodecRunFailed carrying the tail of stderr.
func (r *Runtime) Run(ctx context.Context, args ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.inited || r.closed {
		return render.Errorf(render.ErrCodecNotInitialized, "codec runtime not initialized")
	}

	full := append([]string{"-y", "-hide_banner", "-loglevel", "error"}, args...)
	cmd := exec.CommandContext(ctx, r.ffmpegPath, full...)
	cmd.Dir = r.workDir

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	r.logger.Debug("ffmpeg %s", strings.Join(args, " "))
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if len(msg) > 512 {
			msg = msg[len(msg)-512:]
		}
		return render.NewError(render.ErrCodecRunFailed, msg, err)
	}
	return nil
}

// Close removes the scratch directory. The runtime cannot be reused.
func (r *Runtime) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true
	if r.inited && r.workDir != "" {
		return os.RemoveAll(r.workDir)
	}
	return nil
}

// resolve maps a surface name to a path inside the scratch directory,
// rejecting names that would escape it.
func (r *Runtime) resolve(name string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.inited || r.closed {
		return "", render.Errorf(render.ErrCodecNotInitialized, "codec runtime not initialized")
	}
	clean := filepath.Clean(name)
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) || filepath.IsAbs(clean) {
		return "", fmt.Errorf("invalid surface name %q", name)
	}
	return filepath.Join(r.workDir, clean), nil
}

var _ ports.CodecRuntime = (*Runtime)(nil)
