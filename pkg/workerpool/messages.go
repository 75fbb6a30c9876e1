package workerpool

import (
	"github.com/user/animrender/pkg/render"
)

// HostMessage is the closed set of messages a host sends to a worker.
type HostMessage interface {
	isHostMessage()
}

// ProcessFrameMessage asks a worker to process one frame.
type ProcessFrameMessage struct {
	FrameIndex int
	Width      int
	Height     int
	Bitmap     []byte
	Operations []render.Operation
}

func (ProcessFrameMessage) isHostMessage() {}

// ShutdownMessage asks a worker to stop accepting tasks and exit.
type ShutdownMessage struct{}

func (ShutdownMessage) isHostMessage() {}

// WorkerMessage is the closed set of messages a worker sends back.
type WorkerMessage interface {
	isWorkerMessage()
}

// ProcessedFrameMessage carries one finished frame.
type ProcessedFrameMessage struct {
	FrameIndex int
	Width      int
	Height     int
	PNG        []byte
}

func (ProcessedFrameMessage) isWorkerMessage() {}

// WorkerErrorMessage reports a task failure.
type WorkerErrorMessage struct {
	FrameIndex int
	Err        error
}

func (WorkerErrorMessage) isWorkerMessage() {}
