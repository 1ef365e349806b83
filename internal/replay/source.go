package replay

import (
	"context"
	"fmt"
	"io"
	"sync"

	"camfusion/internal/fusion"
	"camfusion/internal/pipeline"
)

// Frame carries one scripted step through the pipeline.
type Frame struct {
	Step Step
}

func (f *Frame) Close() error { return nil }

// Source plays a script back one step per Read.
type Source struct {
	mu     sync.Mutex
	script Script
	next   int
}

// NewSource returns a Source positioned at the first step of script.
func NewSource(script Script) *Source {
	return &Source{script: script}
}

func (s *Source) Read(ctx context.Context) (pipeline.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.next >= len(s.script) {
		return nil, io.EOF
	}
	f := &Frame{Step: s.script[s.next]}
	s.next++
	return f, nil
}

// Detector reports the boxes scripted for its source.
type Detector struct {
	source fusion.Source
}

// NewDetector returns the scripted detector for src.
func NewDetector(src fusion.Source) Detector {
	return Detector{source: src}
}

// Detectors returns one detector per source.
func Detectors() []pipeline.Detector {
	detectors := make([]pipeline.Detector, 0, len(fusion.Sources))
	for _, src := range fusion.Sources {
		detectors = append(detectors, NewDetector(src))
	}
	return detectors
}

func (d Detector) Source() fusion.Source { return d.source }

func (d Detector) Detect(f pipeline.Frame) ([]fusion.Box, error) {
	frame, ok := f.(*Frame)
	if !ok {
		return nil, fmt.Errorf("unsupported frame type %T", f)
	}
	return frame.Step.Boxes(d.source), nil
}
