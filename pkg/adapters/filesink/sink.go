// Package filesink provides a file-based debug sink implementation.
package filesink

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/user/animrender/pkg/ports"
)

// Sink saves debug output to files.
type Sink struct {
	baseDir string
	fs      ports.FileSystem
}

// New creates a new FileSink.
func New(baseDir string, fs ports.FileSystem) *Sink {
	return &Sink{
		baseDir: baseDir,
		fs:      fs,
	}
}

// Enabled returns true as this sink saves output.
func (s *Sink) Enabled() bool {
	return true
}

// SaveDecodedFrame saves a decoded frame's raw RGBA bitmap.
func (s *Sink) SaveDecodedFrame(index int, width, height int, bitmap []byte) error {
	dir := filepath.Join(s.baseDir, "frames", "decoded")
	if err := s.fs.MkdirAll(dir); err != nil {
		return err
	}
	path := filepath.Join(dir, fmt.Sprintf("frame-%04d-%dx%d.rgba", index, width, height))
	return s.fs.WriteFile(path, bitmap)
}

// SaveProcessedFrame saves a processed frame's PNG encoding.
func (s *Sink) SaveProcessedFrame(index int, png []byte) error {
	dir := filepath.Join(s.baseDir, "frames", "processed")
	if err := s.fs.MkdirAll(dir); err != nil {
		return err
	}
	path := filepath.Join(dir, fmt.Sprintf("frame-%04d.png", index))
	return s.fs.WriteFile(path, png)
}

// SaveCodecArgs saves the argument vector passed to the codec runtime.
func (s *Sink) SaveCodecArgs(args []string) error {
	path := filepath.Join(s.baseDir, "codec-args.txt")
	return s.fs.WriteFile(path, []byte(strings.Join(args, " ")+"\n"))
}

// SaveOutcomeJSON saves the final render outcome as JSON.
func (s *Sink) SaveOutcomeJSON(data []byte) error {
	path := filepath.Join(s.baseDir, "outcome.json")
	return s.fs.WriteFile(path, data)
}

// Ensure Sink implements ports.DebugSink
var _ ports.DebugSink = (*Sink)(nil)
