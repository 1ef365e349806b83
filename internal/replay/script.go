// Package replay drives the fusion pipeline from recorded detector output
// instead of a camera, and records what it decides.
package replay

import (
	"errors"
	"fmt"
	"io"
	"os"

	jsoniter "github.com/json-iterator/go"

	"camfusion/internal/fusion"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Step is the recorded detector output for one frame. Boxes are
// [x, y, width, height] with x and y at the box center.
type Step struct {
	Frame         int     `json:"frame"`
	Primary       [][]int `json:"primary,omitempty"`
	RangeFiltered [][]int `json:"range_filtered,omitempty"`
	HueSpace      [][]int `json:"hue_space,omitempty"`
}

// Boxes returns the boxes recorded for src.
func (s Step) Boxes(src fusion.Source) []fusion.Box {
	raw := s.raw(src)
	boxes := make([]fusion.Box, 0, len(raw))
	for _, b := range raw {
		boxes = append(boxes, fusion.Box{X: b[0], Y: b[1], Width: b[2], Height: b[3]})
	}
	return boxes
}

func (s Step) raw(src fusion.Source) [][]int {
	switch src {
	case fusion.Primary:
		return s.Primary
	case fusion.RangeFiltered:
		return s.RangeFiltered
	case fusion.HueSpace:
		return s.HueSpace
	}
	return nil
}

func (s Step) validate() error {
	for _, src := range fusion.Sources {
		for i, b := range s.raw(src) {
			if len(b) != 4 {
				return fmt.Errorf("%v box %d has %d values, want 4", src, i, len(b))
			}
		}
	}
	return nil
}

// Script is a recorded sequence of frames.
type Script []Step

// Parse reads a script of one JSON object per frame. Frames without a
// number are numbered by position, starting at 1.
func Parse(r io.Reader) (Script, error) {
	var script Script
	dec := json.NewDecoder(r)
	for {
		var step Step
		err := dec.Decode(&step)
		if errors.Is(err, io.EOF) {
			return script, nil
		}
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", len(script)+1, err)
		}
		if err := step.validate(); err != nil {
			return nil, fmt.Errorf("frame %d: %w", len(script)+1, err)
		}
		if step.Frame == 0 {
			step.Frame = len(script) + 1
		}
		script = append(script, step)
	}
}

// Load parses the script stored at path.
func Load(path string) (Script, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open script: %w", err)
	}
	defer f.Close()
	return Parse(f)
}
