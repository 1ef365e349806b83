package pipeline

import (
	"context"
	"errors"

	"camfusion/internal/fusion"
)

// ErrStopped is returned by a Renderer that no longer wants frames, for
// example because its window was closed.
var ErrStopped = errors.New("renderer stopped")

// Frame is one captured frame. Whoever holds it last closes it.
type Frame interface {
	Close() error
}

// FrameSource delivers frames one at a time. Read returns io.EOF when the
// source is exhausted.
type FrameSource interface {
	Read(ctx context.Context) (Frame, error)
}

// Detector runs one weak detector over a frame.
type Detector interface {
	Source() fusion.Source
	Detect(frame Frame) ([]fusion.Box, error)
}

// Renderer consumes the outcome of each evaluated frame.
type Renderer interface {
	Render(o Outcome) error
}

// Outcome is what the fusion loop hands to the renderer for one frame.
type Outcome struct {
	Seq       uint64
	Frame     Frame
	Raw       map[fusion.Source][]fusion.Box
	Detection fusion.Detection
	OK        bool
}
