package replay

import (
	"bufio"
	"fmt"
	"io"

	"camfusion/internal/pipeline"
)

// Decision is the recorded result of one frame.
type Decision struct {
	Seq      uint64 `json:"seq"`
	Frame    int    `json:"frame"`
	Detected bool   `json:"detected"`
	X        int    `json:"x,omitempty"`
	Y        int    `json:"y,omitempty"`
	Width    int    `json:"width,omitempty"`
	Height   int    `json:"height,omitempty"`
}

// Writer records every outcome as one JSON line.
type Writer struct {
	w *bufio.Writer
}

// NewWriter buffers decisions for w. Call Flush when done.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

func (w *Writer) Render(o pipeline.Outcome) error {
	d := Decision{Seq: o.Seq}
	if f, ok := o.Frame.(*Frame); ok {
		d.Frame = f.Step.Frame
	}
	if o.OK {
		d.Detected = true
		d.X, d.Y = o.Detection.Center.X, o.Detection.Center.Y
		d.Width, d.Height = o.Detection.Width, o.Detection.Height
	}

	line, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to encode decision: %w", err)
	}
	if _, err := w.w.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("failed to write decision: %w", err)
	}
	return nil
}

// Flush writes out anything still buffered.
func (w *Writer) Flush() error {
	return w.w.Flush()
}
