package fusion

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEvaluator(t *testing.T, mutate func(*Config)) *Evaluator {
	t.Helper()
	cfg := DefaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	e, err := NewEvaluator(cfg)
	require.NoError(t, err)
	return e
}

func ingest(t *testing.T, e *Evaluator, src Source, boxes ...Box) {
	t.Helper()
	require.NoError(t, e.Ingest(boxes, src))
}

func TestConfig_Defaults(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 0.5, cfg.ScaleContainer)
	assert.Equal(t, 3, cfg.WindowSize)
	assert.Equal(t, 2, cfg.MinSources)
	assert.Equal(t, PolicyLiteral, cfg.Policy)
	assert.NoError(t, cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero scale", func(c *Config) { c.ScaleContainer = 0 }},
		{"negative scale", func(c *Config) { c.ScaleContainer = -1 }},
		{"empty window", func(c *Config) { c.WindowSize = 0 }},
		{"no sources", func(c *Config) { c.MinSources = 0 }},
		{"unknown policy", func(c *Config) { c.Policy = "best-guess" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())

			_, err := NewEvaluator(cfg)
			assert.Error(t, err)
		})
	}
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("literal")
	require.NoError(t, err)
	assert.Equal(t, PolicyLiteral, p)

	p, err = ParsePolicy("prefer-exact")
	require.NoError(t, err)
	assert.Equal(t, PolicyPreferExact, p)

	_, err = ParsePolicy("")
	assert.Error(t, err)
}

// Two agreeing sources on a cold window give one exact candidate, and the
// literal cold start skips it.
func TestEvaluate_ColdStartSkipsExactCandidate(t *testing.T) {
	e := newTestEvaluator(t, nil)
	ingest(t, e, Primary, Box{10, 10, 20, 20})
	ingest(t, e, HueSpace, Box{12, 11, 20, 20})

	c := e.EvaluateCycle()

	require.Len(t, c.Candidates, 1)
	assert.True(t, c.Candidates[0].Exact)
	assert.Equal(t, image.Pt(11, 10), c.Candidates[0].Center)
	assert.Equal(t, 20, c.Candidates[0].Width)
	assert.Equal(t, 20, c.Candidates[0].Height)

	assert.Equal(t, 0, c.Slot)
	assert.False(t, c.StoredOK)
	assert.False(t, c.OK)
	assert.False(t, e.Window().Occupied())
}

// Boxes that agree with nothing give no merged candidate and no output on an
// empty window. The lone box nearest the origin is still stored.
func TestEvaluate_FarApartOnEmptyWindow(t *testing.T) {
	e := newTestEvaluator(t, nil)
	ingest(t, e, Primary, Box{0, 0, 20, 20})
	ingest(t, e, RangeFiltered, Box{45, 0, 20, 20})
	ingest(t, e, HueSpace, Box{90, 0, 20, 20})

	c := e.EvaluateCycle()

	require.Len(t, c.Candidates, 3)
	for _, cand := range c.Candidates {
		assert.False(t, cand.Exact)
		assert.NotEqual(t, Undefined, cand.Source, "nothing was merged")
	}
	require.True(t, c.StoredOK)
	assert.Equal(t, det(0, 0, 20, 20, Primary), c.Stored)
	assert.False(t, c.OK)
}

// A box that agrees with nothing warms a cold window under the literal
// policy, after which agreeing sources are stored and confirmed.
func TestEvaluate_LoneDetectionWarmsColdWindow(t *testing.T) {
	e := newTestEvaluator(t, nil)

	var confirmed []bool
	for i := 0; i < 6; i++ {
		ingest(t, e, Primary, Box{10, 10, 20, 20})
		ingest(t, e, RangeFiltered, Box{200, 200, 20, 20})
		ingest(t, e, HueSpace, Box{12, 11, 20, 20})

		c := e.EvaluateCycle()
		require.Len(t, c.Candidates, 2)
		assert.True(t, c.Candidates[0].Exact)
		assert.False(t, c.Candidates[1].Exact)
		require.True(t, c.StoredOK, "cycle %d", i)
		if i == 0 {
			assert.Equal(t, RangeFiltered, c.Stored.Source, "cold start takes the non-exact box")
		} else {
			assert.True(t, c.Stored.Exact, "a warm window takes the first candidate")
		}

		confirmed = append(confirmed, c.OK)
		if c.OK {
			assert.Equal(t, image.Pt(11, 10), c.Output.Center)
			assert.Equal(t, 20, c.Output.Width)
			assert.Equal(t, 20, c.Output.Height)
		}
	}

	assert.Equal(t, []bool{false, false, true, true, true, true}, confirmed)
}

// A second ingest for the same source replaces the first.
func TestEvaluate_IngestOverwritesWithinCycle(t *testing.T) {
	e := newTestEvaluator(t, nil)
	ingest(t, e, Primary, Box{0, 0, 10, 10})
	ingest(t, e, Primary, Box{5, 5, 10, 10})

	staged, ok := e.Staged(Primary)
	require.True(t, ok)
	assert.Equal(t, image.Pt(5, 5), staged.Center)

	// The surviving box agrees with a HueSpace box at (6,6); the first would not.
	ingest(t, e, HueSpace, Box{6, 6, 10, 10})
	c := e.EvaluateCycle()
	require.Len(t, c.Candidates, 1)
	assert.Equal(t, image.Pt(5, 5), c.Candidates[0].Center)
}

func TestEvaluate_DrainsBuffers(t *testing.T) {
	e := newTestEvaluator(t, nil)
	ingest(t, e, Primary, Box{10, 10, 20, 20})

	e.Evaluate()

	_, ok := e.Staged(Primary)
	assert.False(t, ok)
}

func TestEvaluate_UndefinedIngestFails(t *testing.T) {
	e := newTestEvaluator(t, nil)

	assert.ErrorIs(t, e.Ingest([]Box{{1, 1, 2, 2}}, Undefined), ErrInvalidSource)
	assert.ErrorIs(t, e.Ingest(nil, Undefined), ErrInvalidSource)
}

func TestEvaluate_WindowVisitsSlotsInOrder(t *testing.T) {
	e := newTestEvaluator(t, nil)

	var slots []int
	for i := 0; i < 4; i++ {
		slots = append(slots, e.EvaluateCycle().Slot)
	}

	assert.Equal(t, []int{0, 1, 2, 0}, slots)
	assert.Equal(t, uint64(4), e.Cycles())
	assert.Equal(t, 1, e.Window().Cursor())
}

// With MinSources raised to 3 a two-source merge is not exact, so the literal
// cold start stores it. Once the window holds anything the first candidate is
// taken as is.
func TestEvaluate_LiteralPolicyWarmWindow(t *testing.T) {
	e := newTestEvaluator(t, func(c *Config) {
		c.MinSources = 3
		c.WindowSize = 2
	})

	ingest(t, e, Primary, Box{50, 50, 20, 20})
	ingest(t, e, RangeFiltered, Box{52, 51, 20, 20})
	c := e.EvaluateCycle()
	require.True(t, c.StoredOK)
	assert.False(t, c.Stored.Exact)
	assert.Equal(t, image.Pt(51, 50), c.Stored.Center)
	assert.False(t, c.OK, "slot under the cursor is still empty")

	ingest(t, e, Primary, Box{100, 100, 20, 20})
	ingest(t, e, RangeFiltered, Box{101, 101, 20, 20})
	ingest(t, e, HueSpace, Box{102, 99, 20, 20})
	c = e.EvaluateCycle()
	assert.Equal(t, 1, c.Slot)
	require.True(t, c.StoredOK)
	assert.True(t, c.Stored.Exact)
	require.True(t, c.OK)
	assert.Equal(t, exactDet(101, 100, 20, 20), c.Output)

	// Nothing agrees on a warm window: the first lone box replaces the slot
	// and the historical average is reported unchanged.
	ingest(t, e, Primary, Box{0, 0, 20, 20})
	ingest(t, e, RangeFiltered, Box{300, 0, 20, 20})
	ingest(t, e, HueSpace, Box{0, 300, 20, 20})
	c = e.EvaluateCycle()
	assert.Len(t, c.Candidates, 3)
	require.True(t, c.StoredOK)
	assert.Equal(t, det(0, 0, 20, 20, Primary), c.Stored)
	require.True(t, c.OK)
	assert.Equal(t, exactDet(101, 100, 20, 20), c.Output)

	c = e.EvaluateCycle()
	assert.Empty(t, c.Candidates)
	assert.False(t, c.StoredOK)
	assert.False(t, c.OK, "the only exact slot was just emptied")
	assert.True(t, e.Window().Occupied(), "the lone box is still held")
}

func TestEvaluate_PreferExactPolicy(t *testing.T) {
	e := newTestEvaluator(t, func(c *Config) {
		c.Policy = PolicyPreferExact
		c.WindowSize = 2
	})

	ingest(t, e, Primary, Box{10, 10, 20, 20})
	ingest(t, e, HueSpace, Box{12, 11, 20, 20})
	c := e.EvaluateCycle()
	require.True(t, c.StoredOK)
	assert.Equal(t, exactDet(11, 10, 20, 20), c.Stored)
	assert.False(t, c.OK)

	ingest(t, e, Primary, Box{14, 12, 20, 20})
	ingest(t, e, RangeFiltered, Box{16, 14, 22, 22})
	c = e.EvaluateCycle()
	require.True(t, c.OK)
	assert.Equal(t, image.Pt(13, 11), c.Output.Center)
	assert.Equal(t, 20, c.Output.Width)
	assert.Equal(t, 20, c.Output.Height)
}

func TestChooseLiteral_ColdPicksNearestNonExact(t *testing.T) {
	candidates := []Detection{
		exactDet(1, 1, 10, 10),
		det(40, 30, 10, 10, Undefined),
		det(6, 8, 10, 10, Undefined),
		det(8, 6, 10, 10, Undefined),
	}

	got, ok := chooseLiteral(NewWindow(3), candidates)
	require.True(t, ok)
	assert.Equal(t, image.Pt(6, 8), got.Center, "ties keep the earlier candidate")

	_, ok = chooseLiteral(NewWindow(3), candidates[:1])
	assert.False(t, ok, "exact candidates are skipped on a cold window")
}

func TestChooseLiteral_WarmTakesFirst(t *testing.T) {
	w := NewWindow(3).Store(det(0, 0, 5, 5, Undefined), true)
	candidates := []Detection{det(400, 400, 10, 10, Undefined), exactDet(1, 1, 10, 10)}

	got, ok := chooseLiteral(w, candidates)
	require.True(t, ok)
	assert.Equal(t, candidates[0], got)
}

func TestChoosePreferExact(t *testing.T) {
	history := NewWindow(3).Store(exactDet(100, 100, 10, 10), true)
	candidates := []Detection{
		det(100, 100, 10, 10, Undefined),
		exactDet(0, 0, 10, 10),
		exactDet(90, 95, 10, 10),
	}

	got, ok := choosePreferExact(history, candidates)
	require.True(t, ok)
	assert.Equal(t, exactDet(90, 95, 10, 10), got)

	got, ok = choosePreferExact(NewWindow(3), candidates)
	require.True(t, ok)
	assert.Equal(t, exactDet(0, 0, 10, 10), got, "without history the first exact wins")

	got, ok = choosePreferExact(history, candidates[:1])
	require.True(t, ok)
	assert.Equal(t, candidates[0], got, "non-exact candidates are used when nothing is exact")

	_, ok = PolicyPreferExact.choose(history, nil)
	assert.False(t, ok)
}

func TestStep_LeavesInputWindowUntouched(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Policy = PolicyPreferExact
	w := NewWindow(cfg.WindowSize)
	pool := []Detection{det(10, 10, 20, 20, Primary), det(12, 11, 20, 20, HueSpace)}

	next, c := Step(cfg, w, pool)

	assert.False(t, w.Occupied())
	assert.Equal(t, 0, w.Cursor())
	assert.True(t, next.Occupied())
	assert.Equal(t, 1, next.Cursor())
	assert.Equal(t, 0, c.Slot)

	again, _ := Step(cfg, w, pool)
	assert.Equal(t, next, again, "same input gives the same window")
}
