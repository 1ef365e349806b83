package vision

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"

	"gocv.io/x/gocv"

	"camfusion/internal/config"
	"camfusion/internal/pipeline"
)

// Frame is a captured BGR image.
type Frame struct {
	Mat gocv.Mat
}

func (f *Frame) Close() error {
	return f.Mat.Close()
}

func asFrame(f pipeline.Frame) (*Frame, error) {
	frame, ok := f.(*Frame)
	if !ok {
		return nil, fmt.Errorf("unsupported frame type %T", f)
	}
	if frame.Mat.Empty() {
		return nil, errors.New("frame is empty")
	}
	return frame, nil
}

// Camera reads frames from a capture device or a video file.
type Camera struct {
	capture *gocv.VideoCapture
	scale   float64
	file    bool
}

// OpenCamera opens VideoSource when set, otherwise the device CameraID.
func OpenCamera(cfg *config.Config) (*Camera, error) {
	var device interface{} = cfg.CameraID
	if cfg.VideoSource != "" {
		device = cfg.VideoSource
	}

	capture, err := gocv.OpenVideoCapture(device)
	if err != nil {
		return nil, fmt.Errorf("failed to open video source %v: %w", device, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("video source %v is not available", device)
	}

	return &Camera{capture: capture, scale: cfg.FrameScale, file: cfg.VideoSource != ""}, nil
}

// Read grabs the next frame, resized by the configured scale. A finished
// video file reports io.EOF; a camera that yields nothing reports an error.
func (c *Camera) Read(ctx context.Context) (pipeline.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mat := gocv.NewMat()
	if ok := c.capture.Read(&mat); !ok || mat.Empty() {
		mat.Close()
		if c.file {
			return nil, io.EOF
		}
		return nil, errors.New("camera returned no frame")
	}

	if c.scale != 1 {
		size := image.Pt(int(float64(mat.Cols())*c.scale), int(float64(mat.Rows())*c.scale))
		if err := gocv.Resize(mat, &mat, size, 0, 0, gocv.InterpolationLinear); err != nil {
			mat.Close()
			return nil, fmt.Errorf("failed to resize frame: %w", err)
		}
	}

	return &Frame{Mat: mat}, nil
}

func (c *Camera) Close() error {
	return c.capture.Close()
}
