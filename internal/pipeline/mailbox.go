package pipeline

import "sync"

// Mailbox is a single-slot handoff from the fusion loop to the renderer.
//
// The loop is the only sender. If the renderer has not taken the previous
// outcome yet it is replaced, so the renderer always sees the newest frame and
// outcomes still arrive in order.
type Mailbox struct {
	ch        chan Outcome
	closeOnce sync.Once
}

// NewMailbox returns an empty, open Mailbox.
func NewMailbox() *Mailbox {
	return &Mailbox{ch: make(chan Outcome, 1)}
}

// Put hands o over. An outcome that was still waiting is returned so the
// caller can release its frame.
func (m *Mailbox) Put(o Outcome) (stale Outcome, replaced bool) {
	select {
	case stale = <-m.ch:
		replaced = true
	default:
	}
	m.ch <- o
	return stale, replaced
}

// C is the receiving side. It is closed by Close.
func (m *Mailbox) C() <-chan Outcome {
	return m.ch
}

// Close marks the end of the stream. Put must not be called afterwards.
func (m *Mailbox) Close() {
	m.closeOnce.Do(func() { close(m.ch) })
}
