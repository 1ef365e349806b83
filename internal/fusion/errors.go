package fusion

import "errors"

var (
	// ErrInvalidSource is returned when boxes are ingested for a source that is
	// not a real detector.
	ErrInvalidSource = errors.New("invalid detection source")
	// ErrDegenerateBox is returned when an ingested box has a non-positive width or height.
	ErrDegenerateBox = errors.New("degenerate box geometry")
	// ErrEmptyMerge is returned when an empty group is merged.
	ErrEmptyMerge = errors.New("merge of empty detection group")
)
