package fusion

import "fmt"

// Source identifies the detector a box came from.
type Source int

const (
	// Undefined is reserved for merged and averaged detections.
	Undefined Source = iota
	// Primary is the detector that runs on the untouched frame.
	Primary
	// RangeFiltered is the detector that runs on the color range mask.
	RangeFiltered
	// HueSpace is the detector that runs on the HSV frame.
	HueSpace
)

// Sources lists the real detector sources in pooling order.
var Sources = [...]Source{Primary, RangeFiltered, HueSpace}

// Valid reports whether s is a real detector source.
func (s Source) Valid() bool {
	return s >= Primary && s <= HueSpace
}

func (s Source) String() string {
	switch s {
	case Undefined:
		return "undefined"
	case Primary:
		return "primary"
	case RangeFiltered:
		return "range_filtered"
	case HueSpace:
		return "hue_space"
	default:
		return fmt.Sprintf("source(%d)", int(s))
	}
}
