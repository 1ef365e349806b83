package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"camfusion/internal/fusion"
	"camfusion/internal/logger"
)

// maxReadFailures is how many consecutive failed reads end the loop.
const maxReadFailures = 30

// Manager drives the per-frame loop: capture, detect, fuse, hand off.
type Manager struct {
	source    FrameSource
	detectors []Detector
	evaluator *fusion.Evaluator
	mailbox   *Mailbox
	limiter   *rate.Limiter
	logger    *logger.Logger
	runID     string

	frames    atomic.Uint64
	skipped   atomic.Uint64
	confirmed atomic.Uint64
}

// Stats counts what the loop has done so far.
type Stats struct {
	Frames    uint64
	Skipped   uint64
	Confirmed uint64
}

// NewManager wires a frame source and one detector per source to evaluator.
// maxFPS caps the capture rate; 0 means no cap.
func NewManager(source FrameSource, detectors []Detector, evaluator *fusion.Evaluator, maxFPS float64, logger *logger.Logger) (*Manager, error) {
	seen := make(map[fusion.Source]bool, len(detectors))
	for _, d := range detectors {
		src := d.Source()
		if !src.Valid() {
			return nil, fmt.Errorf("detector for %v: %w", src, fusion.ErrInvalidSource)
		}
		if seen[src] {
			return nil, fmt.Errorf("two detectors for %v", src)
		}
		seen[src] = true
	}

	limit := rate.Inf
	if maxFPS > 0 {
		limit = rate.Limit(maxFPS)
	}

	return &Manager{
		source:    source,
		detectors: detectors,
		evaluator: evaluator,
		mailbox:   NewMailbox(),
		limiter:   rate.NewLimiter(limit, 1),
		logger:    logger,
		runID:     uuid.NewString(),
	}, nil
}

// RunID identifies this loop in the logs.
func (m *Manager) RunID() string { return m.runID }

// Outcomes is the receiving side of the handoff, for callers that do not use Deliver.
func (m *Manager) Outcomes() <-chan Outcome { return m.mailbox.C() }

// Stats returns the loop counters. It is safe to call from any goroutine.
func (m *Manager) Stats() Stats {
	return Stats{
		Frames:    m.frames.Load(),
		Skipped:   m.skipped.Load(),
		Confirmed: m.confirmed.Load(),
	}
}

// Run processes frames until the source is exhausted or ctx is done. It
// closes the handoff when it returns. A cancelled ctx is a normal stop.
func (m *Manager) Run(ctx context.Context) error {
	defer m.mailbox.Close()
	return m.loop(ctx, func(o Outcome) error {
		if stale, replaced := m.mailbox.Put(o); replaced {
			closeFrame(stale.Frame)
		}
		return nil
	})
}

// RunSync is Run with r called on the loop goroutine for every frame, so no
// outcome is ever dropped. It returns ErrStopped if r does.
func (m *Manager) RunSync(ctx context.Context, r Renderer) error {
	defer m.mailbox.Close()
	return m.loop(ctx, func(o Outcome) error {
		return m.render(r, o)
	})
}

func (m *Manager) loop(ctx context.Context, emit func(Outcome) error) error {
	log := m.logger.WithFields(logger.Fields{"run": m.runID})
	log.Infof("🎬 Fusion loop started with %d detector(s)", len(m.detectors))

	failures := 0
	for {
		if ctx.Err() != nil {
			log.Info("🛑 Fusion loop stopped")
			return nil
		}
		if err := m.limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				continue
			}
			return fmt.Errorf("frame pacing: %w", err)
		}

		frame, err := m.source.Read(ctx)
		if errors.Is(err, io.EOF) {
			log.Info("Frame source exhausted")
			return nil
		}
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			failures++
			m.logger.Warning("Error reading frame (%d in a row): %v", failures, err)
			if failures >= maxReadFailures {
				return fmt.Errorf("frame source failed %d times in a row: %w", failures, err)
			}
			continue
		}
		failures = 0

		o, ok := m.processFrame(frame)
		if !ok {
			continue
		}
		if err := emit(o); err != nil {
			return err
		}
	}
}

func (m *Manager) processFrame(frame Frame) (Outcome, bool) {
	seq := m.frames.Add(1)

	raw, err := m.detect(frame)
	if err != nil {
		m.skipped.Add(1)
		m.logger.Warning("⚠️  Frame %d skipped: %v", seq, err)
		closeFrame(frame)
		return Outcome{}, false
	}

	for _, d := range m.detectors {
		if err := m.evaluator.Ingest(raw[d.Source()], d.Source()); err != nil {
			m.logger.Warning("Frame %d: %v", seq, err)
		}
	}

	cycle := m.evaluator.EvaluateCycle()
	if cycle.OK {
		m.confirmed.Add(1)
	}
	m.logger.WithFields(logger.Fields{
		"run":        m.runID,
		"frame":      seq,
		"slot":       cycle.Slot,
		"candidates": len(cycle.Candidates),
		"stored":     cycle.StoredOK,
		"confirmed":  cycle.OK,
	}).Debug("Cycle evaluated")

	return Outcome{
		Seq:       seq,
		Frame:     frame,
		Raw:       raw,
		Detection: cycle.Output,
		OK:        cycle.OK,
	}, true
}

// detect runs every detector on frame concurrently. Each detector writes only
// its own result slot; the frame is shared read-only.
func (m *Manager) detect(frame Frame) (map[fusion.Source][]fusion.Box, error) {
	results := make([][]fusion.Box, len(m.detectors))

	var g errgroup.Group
	for i, d := range m.detectors {
		g.Go(func() error {
			boxes, err := d.Detect(frame)
			if err != nil {
				return fmt.Errorf("%v detector: %w", d.Source(), err)
			}
			results[i] = boxes
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	raw := make(map[fusion.Source][]fusion.Box, len(m.detectors))
	for i, d := range m.detectors {
		raw[d.Source()] = results[i]
	}
	return raw, nil
}

// Deliver feeds outcomes to r, in order, until Run closes the handoff. When
// ctx is done the remaining outcomes are released without rendering. If r
// returns ErrStopped, Deliver returns it at once; the caller should then
// cancel Run and call Discard. Deliver must run alongside Run.
func (m *Manager) Deliver(ctx context.Context, r Renderer) error {
	for {
		select {
		case <-ctx.Done():
			m.Discard()
			return nil
		case o, ok := <-m.mailbox.C():
			if !ok {
				return nil
			}
			if err := m.render(r, o); err != nil {
				return err
			}
		}
	}
}

// render hands o to r and releases its frame. Render failures other than
// ErrStopped are logged and the loop goes on.
func (m *Manager) render(r Renderer, o Outcome) error {
	err := r.Render(o)
	closeFrame(o.Frame)
	if errors.Is(err, ErrStopped) {
		return err
	}
	if err != nil {
		m.logger.Error("Failed to render frame %d: %v", o.Seq, err)
	}
	return nil
}

// Discard releases every outcome left in the handoff. It blocks until Run has returned.
func (m *Manager) Discard() {
	for o := range m.mailbox.C() {
		closeFrame(o.Frame)
	}
}

func closeFrame(f Frame) {
	if f != nil {
		f.Close()
	}
}
