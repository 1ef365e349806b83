package fusion

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

const (
	// DefaultScaleContainer is the clustering tolerance.
	DefaultScaleContainer = 0.5
	// DefaultWindowSize is the number of cycles kept in the window.
	DefaultWindowSize = 3
	// DefaultMinSources is how many distinct sources make a merge exact.
	DefaultMinSources = 2
)

var validate = validator.New()

// Config holds the engine constants. It is fixed once an Evaluator is built.
type Config struct {
	ScaleContainer float64 `validate:"gt=0"`
	WindowSize     int     `validate:"min=1"`
	MinSources     int     `validate:"min=1"`
	Policy         Policy  `validate:"oneof=literal prefer-exact"`
}

// DefaultConfig returns the historical constants with the literal policy.
func DefaultConfig() Config {
	return Config{
		ScaleContainer: DefaultScaleContainer,
		WindowSize:     DefaultWindowSize,
		MinSources:     DefaultMinSources,
		Policy:         PolicyLiteral,
	}
}

// Validate checks the constants.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid fusion config: %w", err)
	}
	return nil
}

// Engine returns the fusion engine described by c.
func (c Config) Engine() FusionEngine {
	return FusionEngine{ScaleContainer: c.ScaleContainer, MinSources: c.MinSources}
}

// Cycle describes one evaluation.
type Cycle struct {
	// Slot is the window slot written during the cycle.
	Slot int
	// Candidates is the fusion output for the cycle.
	Candidates []Detection
	// Stored is the candidate written to Slot; StoredOK is false when the
	// slot was emptied.
	Stored   Detection
	StoredOK bool
	// Output is the stabilized detection for the frame, valid when OK.
	Output Detection
	OK     bool
}

// Step runs one evaluation over pool against w. It returns the advanced
// window and what happened during the cycle; w itself is not changed.
func Step(cfg Config, w Window, pool []Detection) (Window, Cycle) {
	c := Cycle{Slot: w.Cursor()}
	c.Candidates = cfg.Engine().Fuse(pool)
	c.Stored, c.StoredOK = cfg.Policy.choose(w, c.Candidates)

	next := w.Store(c.Stored, c.StoredOK).Advance()
	if _, held := next.Current(); held {
		c.Output, c.OK = next.AverageTruePositives()
	}
	return next, c
}

// Evaluator owns the source buffers and the window of one detection stream.
// It must be driven from a single goroutine.
type Evaluator struct {
	cfg     Config
	buffers SourceBuffers
	window  Window
	cycles  uint64
}

// NewEvaluator validates cfg and returns an evaluator with an empty window.
func NewEvaluator(cfg Config) (*Evaluator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Evaluator{cfg: cfg, window: NewWindow(cfg.WindowSize)}, nil
}

// Ingest stages the detector output of src for the next evaluation.
// Only the last box of a call is kept.
func (e *Evaluator) Ingest(boxes []Box, src Source) error {
	return e.buffers.Ingest(boxes, src)
}

// Staged returns what src has staged for the next evaluation.
func (e *Evaluator) Staged(src Source) (Detection, bool) {
	return e.buffers.Staged(src)
}

// Evaluate fuses the staged detections, updates the window and returns the
// stabilized detection for the frame, if any.
func (e *Evaluator) Evaluate() (Detection, bool) {
	c := e.EvaluateCycle()
	return c.Output, c.OK
}

// EvaluateCycle is Evaluate with the full cycle report.
func (e *Evaluator) EvaluateCycle() Cycle {
	next, c := Step(e.cfg, e.window, e.buffers.Drain())
	e.window = next
	e.cycles++
	return c
}

// Window returns the current window.
func (e *Evaluator) Window() Window { return e.window }

// Config returns the constants the evaluator was built with.
func (e *Evaluator) Config() Config { return e.cfg }

// Cycles returns how many evaluations have run.
func (e *Evaluator) Cycles() uint64 { return e.cycles }
