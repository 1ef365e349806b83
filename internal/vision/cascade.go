package vision

import (
	"fmt"
	"os"

	"gocv.io/x/gocv"

	"camfusion/internal/fusion"
	"camfusion/internal/pipeline"
)

// CascadeDetector runs a Haar/LBP cascade over a transformed frame.
// A detector is not safe for concurrent use; the pipeline runs each one on
// its own goroutine.
type CascadeDetector struct {
	source     fusion.Source
	transform  Transform
	classifier gocv.CascadeClassifier
	scratch    gocv.Mat
}

// NewCascadeDetector loads the cascade at path for src.
func NewCascadeDetector(src fusion.Source, path string) (*CascadeDetector, error) {
	transform, err := TransformFor(src)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("cascade file for %v: %w", src, err)
	}

	classifier := gocv.NewCascadeClassifier()
	if !classifier.Load(path) {
		classifier.Close()
		return nil, fmt.Errorf("failed to load cascade %s for %v", path, src)
	}

	return &CascadeDetector{
		source:     src,
		transform:  transform,
		classifier: classifier,
		scratch:    gocv.NewMat(),
	}, nil
}

func (d *CascadeDetector) Source() fusion.Source { return d.source }

// Detect returns every box the cascade finds, as center-based boxes.
func (d *CascadeDetector) Detect(f pipeline.Frame) ([]fusion.Box, error) {
	frame, err := asFrame(f)
	if err != nil {
		return nil, err
	}
	if err := d.transform(frame.Mat, &d.scratch); err != nil {
		return nil, err
	}

	rects := d.classifier.DetectMultiScale(d.scratch)
	boxes := make([]fusion.Box, 0, len(rects))
	for _, r := range rects {
		boxes = append(boxes, fusion.BoxFromRect(r))
	}
	return boxes, nil
}

func (d *CascadeDetector) Close() error {
	d.scratch.Close()
	return d.classifier.Close()
}
