package scorer

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/EasonLyon/LT-Paid-Media-sub001/internal/config"
	"github.com/EasonLyon/LT-Paid-Media-sub001/internal/model"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func i64(v int64) *int64     { return &v }
func f64(v float64) *float64 { return &v }

func testScorerConfig() config.ScorerConfig {
	return config.ScorerConfig{
		TierMode:          "fixed",
		VolumeWeight:      0.5,
		CostWeight:        0.3,
		DifficultyWeight:  0.2,
		PaidVolumeMin:     0.6,
		PaidCostMin:       0.5,
		PaidDifficultyMin: 0.5,
		SEOVolumeMin:      0.3,
		SEOCostMin:        0.2,
		SEODifficultyMin:  0.3,
	}
}

// spread builds a record set with a wide distribution so every metric is
// enabled.
func spread(n int) []model.KeywordRecord {
	out := make([]model.KeywordRecord, n)
	for i := range out {
		out[i] = model.KeywordRecord{
			Keyword:      fmt.Sprintf("kw%03d", i),
			SearchVolume: i64(int64(100 * (i + 1))),
			CPC:          f64(0.5 * float64(i+1)),
			Competition:  f64(float64(i) / float64(n)),
		}
	}
	return out
}

func TestScorer_ScoresCompleteRecords(t *testing.T) {
	records := spread(20)
	scored, stats := New(testScorerConfig()).Score(records)

	require.Len(t, scored, 20)
	assert.True(t, stats.Volume.Enabled)
	assert.True(t, stats.CPC.Enabled)
	assert.True(t, stats.Competition.Enabled)
	assert.Equal(t, 20, stats.Scored)

	for _, r := range scored {
		require.NotNil(t, r.VolumeScore, "record %s", r.Keyword)
		require.NotNil(t, r.CostScore)
		require.NotNil(t, r.DifficultyScore)
		require.NotNil(t, r.AdsScore)
		assert.GreaterOrEqual(t, *r.AdsScore, 0.0)
		assert.LessOrEqual(t, *r.AdsScore, 1.0)
		assert.Contains(t, []model.Tier{model.TierA, model.TierB, model.TierC}, r.Tier)
	}
}

func TestScorer_InputNotMutated(t *testing.T) {
	records := spread(5)
	New(testScorerConfig()).Score(records)
	for _, r := range records {
		assert.Nil(t, r.AdsScore)
		assert.Empty(t, r.Tier)
	}
}

func TestScorer_CostAndDifficultyInvert(t *testing.T) {
	// Cheapest, least competitive keyword scores best on those components.
	records := spread(10)
	scored, _ := New(testScorerConfig()).Score(records)

	cheapest, priciest := scored[0], scored[len(scored)-1]
	assert.Greater(t, *cheapest.CostScore, *priciest.CostScore)
	assert.Greater(t, *cheapest.DifficultyScore, *priciest.DifficultyScore)
	assert.Greater(t, *priciest.VolumeScore, *cheapest.VolumeScore)
}

func TestScorer_PartialRecordGetsNoComposite(t *testing.T) {
	records := spread(10)
	records = append(records, model.KeywordRecord{
		Keyword:      "no cpc",
		SearchVolume: i64(500),
		Competition:  f64(0.5),
	})

	scored, stats := New(testScorerConfig()).Score(records)
	last := scored[len(scored)-1]
	assert.NotNil(t, last.VolumeScore)
	assert.Nil(t, last.CostScore)
	assert.Nil(t, last.AdsScore, "missing component means no composite")
	assert.Equal(t, model.TierC, last.Tier)
	assert.Equal(t, 10, stats.Scored)
}

func TestScorer_DegenerateMetricDisabled(t *testing.T) {
	// Identical CPC everywhere: the metric cannot rank anything.
	records := spread(10)
	for i := range records {
		records[i].CPC = f64(1.0)
	}

	scored, stats := New(testScorerConfig()).Score(records)
	assert.False(t, stats.CPC.Enabled)
	for _, r := range scored {
		assert.Nil(t, r.CostScore)
		assert.Nil(t, r.AdsScore)
		assert.Equal(t, model.TierC, r.Tier)
	}
}

func TestScorer_EmptySet(t *testing.T) {
	scored, stats := New(testScorerConfig()).Score(nil)
	assert.Empty(t, scored)
	assert.Equal(t, 0, stats.Scored)
}

func TestScorer_FixedTiers(t *testing.T) {
	thresholds := FixedThresholds{A: 0.75, B: 0.50}
	high, mid, low := 0.8, 0.6, 0.2
	assert.Equal(t, model.TierA, thresholds.tier(&high))
	assert.Equal(t, model.TierB, thresholds.tier(&mid))
	assert.Equal(t, model.TierC, thresholds.tier(&low))
	assert.Equal(t, model.TierC, thresholds.tier(nil))

	edgeA, edgeB := 0.75, 0.50
	assert.Equal(t, model.TierA, thresholds.tier(&edgeA), "boundary is inclusive")
	assert.Equal(t, model.TierB, thresholds.tier(&edgeB))
}

func TestScorer_PercentileTiers(t *testing.T) {
	cfg := testScorerConfig()
	cfg.TierMode = "percentile"

	scored, _ := New(cfg).Score(spread(20))

	counts := map[model.Tier]int{}
	for _, r := range scored {
		counts[r.Tier]++
	}
	// Relative tiering always yields a non-empty top bucket.
	assert.Greater(t, counts[model.TierA], 0)
	assert.Greater(t, counts[model.TierB], 0)
	assert.Greater(t, counts[model.TierC], 0)

	// Tiers respect the composite ordering.
	rank := map[model.Tier]int{model.TierA: 2, model.TierB: 1, model.TierC: 0}
	for _, a := range scored {
		for _, b := range scored {
			if a.AdsScore != nil && b.AdsScore != nil && *a.AdsScore > *b.AdsScore {
				assert.GreaterOrEqual(t, rank[a.Tier], rank[b.Tier])
			}
		}
	}
}

func TestScorer_FlagsFollowThresholds(t *testing.T) {
	scored, _ := New(testScorerConfig()).Score(spread(20))

	for _, r := range scored {
		if r.PaidFlag {
			assert.GreaterOrEqual(t, *r.VolumeScore, 0.6)
			assert.GreaterOrEqual(t, *r.CostScore, 0.5)
			assert.GreaterOrEqual(t, *r.DifficultyScore, 0.5)
		}
		if r.SEOFlag {
			assert.GreaterOrEqual(t, *r.VolumeScore, 0.3)
		}
		if r.AdsScore == nil {
			assert.False(t, r.PaidFlag)
			assert.False(t, r.SEOFlag)
		}
	}
}

func TestScorer_ScoresRounded(t *testing.T) {
	scored, _ := New(testScorerConfig()).Score(spread(17))
	for _, r := range scored {
		for _, s := range []*float64{r.VolumeScore, r.CostScore, r.DifficultyScore, r.AdsScore} {
			if s != nil {
				assert.Equal(t, round4(*s), *s, "stored scores carry at most 4 decimals")
			}
		}
	}
}
