package fusion

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// Policy decides which fusion candidate is stored in the window.
type Policy string

const (
	// PolicyLiteral is the historical selection rule. With any history it takes
	// the first candidate as is. On a cold window it takes the non-exact
	// candidate nearest to the mean of the exact history, skipping exact ones.
	PolicyLiteral Policy = "literal"
	// PolicyPreferExact takes exact candidates over non-exact ones and, among
	// those, the one nearest to the mean of the exact history.
	PolicyPreferExact Policy = "prefer-exact"
)

// ParsePolicy maps a configuration value to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(s); p {
	case PolicyLiteral, PolicyPreferExact:
		return p, nil
	default:
		return "", fmt.Errorf("unknown selection policy %q", s)
	}
}

func (p Policy) choose(w Window, candidates []Detection) (Detection, bool) {
	if len(candidates) == 0 {
		return Detection{}, false
	}
	if p == PolicyPreferExact {
		return choosePreferExact(w, candidates)
	}
	return chooseLiteral(w, candidates)
}

func chooseLiteral(w Window, candidates []Detection) (Detection, bool) {
	if w.Occupied() {
		return candidates[0], true
	}

	// Cold window: no exact history exists, so the reference is the origin.
	rx, ry, _ := referencePoint(w)
	best, bestDist, found := Detection{}, math.Inf(1), false
	for _, c := range candidates {
		if c.Exact {
			continue
		}
		if d := distanceTo(c.Center, rx, ry); d < bestDist {
			best, bestDist, found = c, d, true
		}
	}
	return best, found
}

func choosePreferExact(w Window, candidates []Detection) (Detection, bool) {
	pool := make([]Detection, 0, len(candidates))
	for _, c := range candidates {
		if c.Exact {
			pool = append(pool, c)
		}
	}
	if len(pool) == 0 {
		pool = candidates
	}

	rx, ry, ok := referencePoint(w)
	if !ok {
		return pool[0], true
	}
	best, bestDist := pool[0], distanceTo(pool[0].Center, rx, ry)
	for _, c := range pool[1:] {
		if d := distanceTo(c.Center, rx, ry); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best, true
}

// referencePoint is the mean center of the exact detections held in w.
// Without any it is the origin and ok is false.
func referencePoint(w Window) (x, y float64, ok bool) {
	exact := w.TruePositives()
	if len(exact) == 0 {
		return 0, 0, false
	}
	xs := make([]float64, len(exact))
	ys := make([]float64, len(exact))
	for i, d := range exact {
		xs[i] = float64(d.Center.X)
		ys[i] = float64(d.Center.Y)
	}
	return stat.Mean(xs, nil), stat.Mean(ys, nil), true
}
