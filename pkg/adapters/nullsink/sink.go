// Package nullsink provides a no-op debug sink implementation.
package nullsink

import (
	"github.com/user/animrender/pkg/ports"
)

// Sink is a no-op implementation of ports.DebugSink.
// It discards all debug output.
type Sink struct{}

// New creates a new NullSink.
func New() *Sink {
	return &Sink{}
}

// Enabled returns false as this sink discards all output.
func (s *Sink) Enabled() bool {
	return false
}

// SaveDecodedFrame does nothing.
func (s *Sink) SaveDecodedFrame(index int, width, height int, bitmap []byte) error {
	return nil
}

// SaveProcessedFrame does nothing.
func (s *Sink) SaveProcessedFrame(index int, png []byte) error {
	return nil
}

// SaveCodecArgs does nothing.
func (s *Sink) SaveCodecArgs(args []string) error {
	return nil
}

// SaveOutcomeJSON does nothing.
func (s *Sink) SaveOutcomeJSON(data []byte) error {
	return nil
}

// Ensure Sink implements ports.DebugSink
var _ ports.DebugSink = (*Sink)(nil)
