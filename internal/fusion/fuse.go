package fusion

// FusionEngine groups detections of different sources that agree in space
// and merges each group into one candidate.
type FusionEngine struct {
	// ScaleContainer scales the box a center must fall into to agree.
	ScaleContainer float64
	// MinSources is how many distinct sources make a candidate exact.
	MinSources int
}

// Fuse runs one greedy grouping pass over pool.
//
// Detections are taken in pool order. Each one not yet claimed collects every
// later unclaimed detection of another source that contains its center, and
// all of them are claimed. Claimed detections are never examined again, so
// grouping is not transitive. A detection that collects nothing becomes a
// candidate on its own and is never exact. pool is not modified.
func (e FusionEngine) Fuse(pool []Detection) []Detection {
	claimed := make([]bool, len(pool))
	var candidates []Detection

	for i, d1 := range pool {
		if claimed[i] {
			continue
		}
		claimed[i] = true

		group := []Detection{d1}
		for j := i + 1; j < len(pool); j++ {
			d2 := pool[j]
			if claimed[j] || d1.Source == d2.Source {
				continue
			}
			if d1.CenterInside(d2, e.ScaleContainer) {
				group = append(group, d2)
				claimed[j] = true
			}
		}
		if len(group) == 1 {
			lone := mustMerge(group)
			lone.Exact = false
			candidates = append(candidates, lone)
			continue
		}

		merged := mustMerge(group)
		merged.Exact = distinctSources(group) >= e.MinSources
		candidates = append(candidates, merged)
	}

	return candidates
}
