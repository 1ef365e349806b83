package fusion

import "fmt"

type windowSlot struct {
	det Detection
	ok  bool
}

// Window is the circular history of confirmed detections.
//
// A Window is a value: Store and Advance return a new Window and never touch
// the receiver, so a Window can be kept and compared freely.
type Window struct {
	slots  []windowSlot
	cursor int
}

// NewWindow returns an empty window of size slots with the cursor at 0.
func NewWindow(size int) Window {
	if size < 1 {
		panic(fmt.Sprintf("fusion: window size %d must be positive", size))
	}
	return Window{slots: make([]windowSlot, size)}
}

// Len returns the number of slots.
func (w Window) Len() int { return len(w.slots) }

// Cursor returns the index of the current slot.
func (w Window) Cursor() int { return w.cursor }

// Slot returns the detection held in slot i.
func (w Window) Slot(i int) (Detection, bool) {
	s := w.slots[i]
	return s.det, s.ok
}

// Current returns the detection held in the slot under the cursor.
func (w Window) Current() (Detection, bool) {
	return w.Slot(w.cursor)
}

// Occupied reports whether any slot holds a detection.
func (w Window) Occupied() bool {
	for _, s := range w.slots {
		if s.ok {
			return true
		}
	}
	return false
}

// Store overwrites the current slot. ok=false empties it.
func (w Window) Store(d Detection, ok bool) Window {
	next := w.clone()
	if !ok {
		d = Detection{}
	}
	next.slots[next.cursor] = windowSlot{det: d, ok: ok}
	return next
}

// Advance moves the cursor to the next slot, wrapping around.
func (w Window) Advance() Window {
	next := w.clone()
	next.cursor = (next.cursor + 1) % len(next.slots)
	return next
}

// TruePositives returns the exact detections held in the window, in slot order.
func (w Window) TruePositives() []Detection {
	var exact []Detection
	for _, s := range w.slots {
		if s.ok && s.det.Exact {
			exact = append(exact, s.det)
		}
	}
	return exact
}

// AverageTruePositives merges every exact detection in the window. It reports
// false when the window holds none.
func (w Window) AverageTruePositives() (Detection, bool) {
	exact := w.TruePositives()
	if len(exact) == 0 {
		return Detection{}, false
	}
	return mustMerge(exact), true
}

func (w Window) clone() Window {
	slots := make([]windowSlot, len(w.slots))
	copy(slots, w.slots)
	return Window{slots: slots, cursor: w.cursor}
}
