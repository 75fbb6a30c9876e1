// Package workerpool provides a fixed-size pool of frame processing workers.
// Each worker is a goroutine owning a message channel; the pool dispatches
// tasks round-robin and hands back a future per submission.
package workerpool

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/shirou/gopsutil/v3/cpu"

	"github.com/user/animrender/pkg/frametask"
	"github.com/user/animrender/pkg/ports"
	"github.com/user/animrender/pkg/render"
)

// DefaultSize returns the default pool size: half the logical CPUs, at
// least 2.
func DefaultSize() int {
	n, err := cpu.Counts(true)
	if err != nil || n <= 0 {
		n = runtime.NumCPU()
	}
	size := n / 2
	if size < 2 {
		size = 2
	}
	return size
}

type envelope struct {
	msg   HostMessage
	reply chan WorkerMessage
}

type worker struct {
	id        int
	inbox     chan envelope
	processed atomic.Uint64
}

// Pool is a fixed set of workers dispatched round-robin.
type Pool struct {
	workers []*worker
	next    atomic.Uint64
	quit    chan struct{}
	wg      sync.WaitGroup
	logger  ports.Logger

	mu     sync.Mutex
	closed bool
}

// New creates and starts a pool of max(1, size) workers.
func New(size int, logger ports.Logger) *Pool {
	if size < 1 {
		size = 1
	}
	p := &Pool{
		workers: make([]*worker, size),
		quit:    make(chan struct{}),
		logger:  logger.WithComponent("workerpool"),
	}
	for i := range p.workers {
		w := &worker{id: i, inbox: make(chan envelope, 64)}
		p.workers[i] = w
		p.wg.Add(1)
		go p.run(w)
	}
	p.logger.Debug("Started %d workers", size)
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return len(p.workers)
}

// Future resolves to a single processed frame.
type Future struct {
	frameIndex int
	reply      <-chan WorkerMessage
	err        error
}

// Await blocks until the worker replies or ctx is done. Replies are
// correlated by frame index; a mismatched reply fails the await.
func (f Future) Await(ctx context.Context) (render.ProcessedFrame, error) {
	if f.err != nil {
		return render.ProcessedFrame{}, f.err
	}
	select {
	case <-ctx.Done():
		return render.ProcessedFrame{}, ctx.Err()
	case msg := <-f.reply:
		switch m := msg.(type) {
		case ProcessedFrameMessage:
			if m.FrameIndex != f.frameIndex {
				return render.ProcessedFrame{}, render.Errorf(render.ErrPoolShutdown,
					"reply for frame %d does not match submission %d", m.FrameIndex, f.frameIndex)
			}
			return render.ProcessedFrame{Index: m.FrameIndex, PNG: m.PNG}, nil
		case WorkerErrorMessage:
			return render.ProcessedFrame{}, m.Err
		default:
			return render.ProcessedFrame{}, render.Errorf(render.ErrPoolShutdown,
				"unexpected worker reply for frame %d", f.frameIndex)
		}
	}
}

// Submit posts a frame to the next worker in round-robin order and returns
// a future for its result. Submissions after Shutdown resolve with
// PoolShutdown.
func (p *Pool) Submit(msg ProcessFrameMessage) Future {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return Future{err: render.Errorf(render.ErrPoolShutdown, "pool is shut down")}
	}
	idx := int(p.next.Add(1)-1) % len(p.workers)
	w := p.workers[idx]
	p.mu.Unlock()

	reply := make(chan WorkerMessage, 1)
	select {
	case w.inbox <- envelope{msg: msg, reply: reply}:
		return Future{frameIndex: msg.FrameIndex, reply: reply}
	case <-p.quit:
		return Future{err: render.Errorf(render.ErrPoolShutdown, "pool is shut down")}
	}
}

// Shutdown posts a shutdown message to every worker and waits for them to
// exit. Tasks still queued are answered with PoolShutdown.
func (p *Pool) Shutdown() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	close(p.quit)
	for _, w := range p.workers {
		// Non-blocking: a worker draining its inbox exits on quit anyway.
		select {
		case w.inbox <- envelope{msg: ShutdownMessage{}}:
		default:
		}
	}
	p.wg.Wait()
	p.logger.Debug("All workers stopped")
}

func (p *Pool) run(w *worker) {
	defer p.wg.Done()
	for {
		select {
		case <-p.quit:
			p.drain(w)
			return
		case env := <-w.inbox:
			if _, ok := env.msg.(ShutdownMessage); ok {
				p.drain(w)
				return
			}
			p.handle(w, env)
		}
	}
}

func (p *Pool) handle(w *worker, env envelope) {
	msg, ok := env.msg.(ProcessFrameMessage)
	if !ok {
		return
	}
	w.processed.Add(1)
	png, err := frametask.Process(msg.Width, msg.Height, msg.Bitmap, msg.Operations)
	if err != nil {
		p.logger.Debug("Worker %d failed on frame %d: %s", w.id, msg.FrameIndex, err)
		env.reply <- WorkerErrorMessage{FrameIndex: msg.FrameIndex, Err: err}
		return
	}
	env.reply <- ProcessedFrameMessage{
		FrameIndex: msg.FrameIndex,
		Width:      msg.Width,
		Height:     msg.Height,
		PNG:        png,
	}
}

// drain answers queued tasks with PoolShutdown so pending awaits fail
// instead of hanging.
func (p *Pool) drain(w *worker) {
	for {
		select {
		case env := <-w.inbox:
			if m, ok := env.msg.(ProcessFrameMessage); ok && env.reply != nil {
				env.reply <- WorkerErrorMessage{
					FrameIndex: m.FrameIndex,
					Err:        render.Errorf(render.ErrPoolShutdown, "pool shut down before frame %d was processed", m.FrameIndex),
				}
			}
		default:
			return
		}
	}
}
