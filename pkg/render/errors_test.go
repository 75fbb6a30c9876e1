package render

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_CodeSurvivesWrapping(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewError(ErrDownloadFailed, "fetch source", cause)
	wrapped := fmt.Errorf("render: %w", err)

	if !IsCode(wrapped, ErrDownloadFailed) {
		t.Error("expected code to survive wrapping")
	}
	if !errors.Is(wrapped, cause) {
		t.Error("expected cause to be reachable via errors.Is")
	}
}

func TestError_Message(t *testing.T) {
	err := Errorf(ErrPoolShutdown, "pool is shut down")
	want := "animated-renderer.PoolShutdown: pool is shut down"
	if err.Error() != want {
		t.Errorf("expected %q, got %q", want, err.Error())
	}
}

func TestCodeOf_PlainError(t *testing.T) {
	if code := CodeOf(errors.New("plain")); code != "" {
		t.Errorf("expected empty code for untagged error, got %s", code)
	}
}
