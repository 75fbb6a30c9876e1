package ports

import (
	"context"
)

// CodecRuntime abstracts an embedded media codec with a private file surface.
// Inputs are written to the surface, an argument vector is executed against it,
// and outputs are read back. The runtime holds process-wide state: callers must
// not issue concurrent Run invocations (implementations serialize internally).
type CodecRuntime interface {
	// Init prepares the runtime. It is idempotent; every other method
	// requires a successful Init first.
	Init(ctx context.Context) error

	// WriteFile stores data under name on the runtime's file surface.
	WriteFile(name string, data []byte) error

	// ReadFile returns the contents of name from the file surface.
	ReadFile(name string) ([]byte, error)

	// Unlink removes name from the file surface.
	Unlink(name string) error

	// Run executes the codec with the given argument vector, blocking until
	// it finishes.
	Run(ctx context.Context, args ...string) error

	// Close releases the runtime and its file surface.
	Close() error
}
