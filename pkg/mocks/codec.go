package mocks

import (
	"context"
	"fmt"
	"sync"

	"github.com/user/animrender/pkg/ports"
)

// CodecRuntime is a mock implementation of ports.CodecRuntime backed by an
// in-memory file surface.
type CodecRuntime struct {
	mu    sync.Mutex
	files map[string][]byte

	InitFunc      func(ctx context.Context) error
	WriteFileFunc func(name string, data []byte) error
	ReadFileFunc  func(name string) ([]byte, error)
	UnlinkFunc    func(name string) error
	RunFunc       func(ctx context.Context, args ...string) error
	CloseFunc     func() error

	// Recorded calls for verification
	InitCalls   int
	RunCalls    [][]string
	Unlinked    []string
	CloseCalled bool
}

// NewCodecRuntime creates a new mock CodecRuntime.
func NewCodecRuntime() *CodecRuntime {
	return &CodecRuntime{files: make(map[string][]byte)}
}

func (m *CodecRuntime) Init(ctx context.Context) error {
	m.mu.Lock()
	m.InitCalls++
	m.mu.Unlock()
	if m.InitFunc != nil {
		return m.InitFunc(ctx)
	}
	return nil
}

func (m *CodecRuntime) WriteFile(name string, data []byte) error {
	if m.WriteFileFunc != nil {
		return m.WriteFileFunc(name, data)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[name] = append([]byte(nil), data...)
	return nil
}

func (m *CodecRuntime) ReadFile(name string) ([]byte, error) {
	if m.ReadFileFunc != nil {
		return m.ReadFileFunc(name)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if data, ok := m.files[name]; ok {
		return data, nil
	}
	return nil, fmt.Errorf("file not found: %s", name)
}

func (m *CodecRuntime) Unlink(name string) error {
	m.mu.Lock()
	m.Unlinked = append(m.Unlinked, name)
	m.mu.Unlock()
	if m.UnlinkFunc != nil {
		return m.UnlinkFunc(name)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.files[name]; !ok {
		return fmt.Errorf("file not found: %s", name)
	}
	delete(m.files, name)
	return nil
}

func (m *CodecRuntime) Run(ctx context.Context, args ...string) error {
	m.mu.Lock()
	m.RunCalls = append(m.RunCalls, append([]string(nil), args...))
	m.mu.Unlock()
	if m.RunFunc != nil {
		return m.RunFunc(ctx, args...)
	}
	return nil
}

func (m *CodecRuntime) Close() error {
	m.mu.Lock()
	m.CloseCalled = true
	m.mu.Unlock()
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

// PutFile seeds the in-memory surface (for test setup).
func (m *CodecRuntime) PutFile(name string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[name] = append([]byte(nil), data...)
}

// GetFile returns the contents of a surface file (for test verification).
func (m *CodecRuntime) GetFile(name string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[name]
	return data, ok
}

var _ ports.CodecRuntime = (*CodecRuntime)(nil)
