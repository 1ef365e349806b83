package vision

import (
	"fmt"
	"image/color"

	"gocv.io/x/gocv"

	"camfusion/internal/fusion"
	"camfusion/internal/pipeline"
)

var (
	confirmedColor = color.RGBA{R: 255, G: 255, B: 0, A: 0}
	rawColors      = map[fusion.Source]color.RGBA{
		fusion.Primary:       {R: 0, G: 0, B: 255, A: 0},
		fusion.HueSpace:      {R: 0, G: 255, B: 0, A: 0},
		fusion.RangeFiltered: {R: 255, G: 0, B: 0, A: 0},
	}
)

const lineThickness = 2

// Display shows every frame in a desktop window with the confirmed
// detection drawn on it.
type Display struct {
	window  *gocv.Window
	showRaw bool
}

// NewDisplay opens a window titled title. showRaw also draws every raw
// detector box in its source color.
func NewDisplay(title string, showRaw bool) *Display {
	return &Display{window: gocv.NewWindow(title), showRaw: showRaw}
}

// Render draws o onto its frame and shows it. It returns pipeline.ErrStopped
// once the window has been closed.
func (d *Display) Render(o pipeline.Outcome) error {
	if !d.window.IsOpen() {
		return pipeline.ErrStopped
	}
	frame, err := asFrame(o.Frame)
	if err != nil {
		return err
	}

	if d.showRaw {
		for _, src := range fusion.Sources {
			for _, b := range o.Raw[src] {
				if err := gocv.Rectangle(&frame.Mat, b.Rect(), rawColors[src], 1); err != nil {
					return fmt.Errorf("failed to draw %v box: %w", src, err)
				}
			}
		}
	}
	if o.OK {
		if err := gocv.Rectangle(&frame.Mat, o.Detection.Rect(), confirmedColor, lineThickness); err != nil {
			return fmt.Errorf("failed to draw detection: %w", err)
		}
	}

	d.window.IMShow(frame.Mat)
	d.window.WaitKey(1)
	return nil
}

func (d *Display) Close() error {
	return d.window.Close()
}
