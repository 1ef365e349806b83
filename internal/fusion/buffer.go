package fusion

import "fmt"

type stagedSlot struct {
	det Detection
	ok  bool
}

// SourceBuffers stages at most one detection per source for the frame being
// evaluated. The zero value is empty and ready to use.
type SourceBuffers struct {
	slots [len(Sources) + 1]stagedSlot
}

// Ingest stages the last of boxes for src, replacing whatever src staged
// before. Boxes are validated first; on error nothing is changed. An empty
// sequence leaves the slot as it is.
func (b *SourceBuffers) Ingest(boxes []Box, src Source) error {
	if !src.Valid() {
		return fmt.Errorf("ingest %v: %w", src, ErrInvalidSource)
	}
	for i, box := range boxes {
		if box.Width <= 0 || box.Height <= 0 {
			return fmt.Errorf("ingest %v box %d (%dx%d): %w", src, i, box.Width, box.Height, ErrDegenerateBox)
		}
	}
	if len(boxes) == 0 {
		return nil
	}

	b.slots[src] = stagedSlot{det: newDetection(boxes[len(boxes)-1], src), ok: true}
	return nil
}

// Staged returns the detection currently staged for src.
func (b *SourceBuffers) Staged(src Source) (Detection, bool) {
	if !src.Valid() {
		return Detection{}, false
	}
	s := b.slots[src]
	return s.det, s.ok
}

// Pool returns the staged detections in source order.
func (b *SourceBuffers) Pool() []Detection {
	pool := make([]Detection, 0, len(Sources))
	for _, src := range Sources {
		if s := b.slots[src]; s.ok {
			pool = append(pool, s.det)
		}
	}
	return pool
}

// Drain returns the pool and empties every slot.
func (b *SourceBuffers) Drain() []Detection {
	pool := b.Pool()
	b.slots = [len(Sources) + 1]stagedSlot{}
	return pool
}
