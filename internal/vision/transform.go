package vision

import (
	"fmt"

	"gocv.io/x/gocv"

	"camfusion/internal/fusion"
)

// Transform derives the image a detector looks at from the captured frame.
type Transform func(src gocv.Mat, dst *gocv.Mat) error

// Red hue wraps around 180 in OpenCV HSV, hence two bands.
var (
	redLowMin  = gocv.NewScalar(0, 80, 30, 0)
	redLowMax  = gocv.NewScalar(13, 230, 255, 0)
	redHighMin = gocv.NewScalar(170, 80, 30, 0)
	redHighMax = gocv.NewScalar(255, 230, 255, 0)
)

// TransformFor returns the preprocessing of src.
func TransformFor(src fusion.Source) (Transform, error) {
	switch src {
	case fusion.Primary:
		return Identity, nil
	case fusion.HueSpace:
		return HueSpace, nil
	case fusion.RangeFiltered:
		return RedRange, nil
	default:
		return nil, fmt.Errorf("transform for %v: %w", src, fusion.ErrInvalidSource)
	}
}

// Identity copies the frame unchanged.
func Identity(src gocv.Mat, dst *gocv.Mat) error {
	return src.CopyTo(dst)
}

// HueSpace converts the frame from BGR to HSV.
func HueSpace(src gocv.Mat, dst *gocv.Mat) error {
	if err := gocv.CvtColor(src, dst, gocv.ColorBGRToHSV); err != nil {
		return fmt.Errorf("failed to convert image to HSV: %w", err)
	}
	return nil
}

// RedRange produces a binary mask of the red pixels of the frame.
func RedRange(src gocv.Mat, dst *gocv.Mat) error {
	hsv := gocv.NewMat()
	defer hsv.Close()
	if err := HueSpace(src, &hsv); err != nil {
		return err
	}

	low := gocv.NewMat()
	defer low.Close()
	high := gocv.NewMat()
	defer high.Close()

	if err := gocv.InRangeWithScalar(hsv, redLowMin, redLowMax, &low); err != nil {
		return fmt.Errorf("failed to threshold low red band: %w", err)
	}
	if err := gocv.InRangeWithScalar(hsv, redHighMin, redHighMax, &high); err != nil {
		return fmt.Errorf("failed to threshold high red band: %w", err)
	}
	if err := gocv.BitwiseOr(low, high, dst); err != nil {
		return fmt.Errorf("failed to combine red bands: %w", err)
	}
	return nil
}
