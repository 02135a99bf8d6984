package scorer

import (
	"math"
	"sort"
)

// ScoreStats holds the clipping bounds for one metric. A metric is enabled
// only when its distribution is non-degenerate; a disabled metric
// contributes no score rather than a misleading constant.
type ScoreStats struct {
	P5      float64 `json:"p5"`
	P95     float64 `json:"p95"`
	Enabled bool    `json:"enabled"`
}

// percentile computes the p-th percentile of sorted values by linear
// interpolation between order statistics.
func percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if n == 1 {
		return sorted[0]
	}

	idx := (p / 100) * float64(n-1)
	lo := int(math.Floor(idx))
	hi := int(math.Ceil(idx))
	if lo == hi {
		return sorted[lo]
	}
	frac := idx - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// computeStats derives p5/p95 over the metric's non-null values.
func computeStats(values []float64) ScoreStats {
	if len(values) < 2 {
		return ScoreStats{}
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	distinct := 1
	for i := 1; i < len(sorted); i++ {
		if sorted[i] != sorted[i-1] {
			distinct++
		}
	}
	if distinct < 2 {
		return ScoreStats{}
	}

	p5 := percentile(sorted, 5)
	p95 := percentile(sorted, 95)
	if !(p95 > p5) {
		return ScoreStats{P5: p5, P95: p95}
	}
	return ScoreStats{P5: p5, P95: p95, Enabled: true}
}

// normalize clips x to [p5, p95] and rescales to [0, 1]. Returns nil for a
// disabled metric or a nil input.
func (s ScoreStats) normalize(x *float64) *float64 {
	if !s.Enabled || x == nil {
		return nil
	}
	v := *x
	if v < s.P5 {
		v = s.P5
	}
	if v > s.P95 {
		v = s.P95
	}
	out := (v - s.P5) / (s.P95 - s.P5)
	return &out
}

// round4 rounds to 4 decimal places. Applied once, at the point of
// storage.
func round4(x float64) float64 {
	return math.Round(x*10000) / 10000
}

func round4p(x *float64) *float64 {
	if x == nil {
		return nil
	}
	v := round4(*x)
	return &v
}
