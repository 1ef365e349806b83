package fusion

import "image"

// MergeAverage collapses a group of detections into one.
//
// A single detection is returned unchanged. Larger groups produce a new
// Undefined detection whose center and extent are the truncated integer means
// of the members; its Exact flag is left for the caller to decide.
func MergeAverage(group []Detection) (Detection, error) {
	switch len(group) {
	case 0:
		return Detection{}, ErrEmptyMerge
	case 1:
		return group[0], nil
	}

	var x, y, w, h int
	for _, d := range group {
		x += d.Center.X
		y += d.Center.Y
		w += d.Width
		h += d.Height
	}
	n := len(group)
	return Detection{
		Center: image.Pt(x/n, y/n),
		Width:  w / n,
		Height: h / n,
		Source: Undefined,
	}, nil
}

// mustMerge is used where the group is known to be non-empty. A failure here
// is a bug in the caller.
func mustMerge(group []Detection) Detection {
	merged, err := MergeAverage(group)
	if err != nil {
		panic("fusion: " + err.Error())
	}
	return merged
}

// distinctSources counts the different source tags in group.
func distinctSources(group []Detection) int {
	seen := make(map[Source]struct{}, len(group))
	for _, d := range group {
		seen[d.Source] = struct{}{}
	}
	return len(seen)
}
