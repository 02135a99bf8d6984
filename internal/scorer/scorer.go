// Package scorer computes percentile-normalized metric scores over a
// finished keyword set and assigns discrete tiers and suitability flags.
package scorer

import (
	"sort"

	"go.uber.org/zap"

	"github.com/EasonLyon/LT-Paid-Media-sub001/internal/config"
	"github.com/EasonLyon/LT-Paid-Media-sub001/internal/model"
)

// TierThresholds is the closed set of tiering policies.
type TierThresholds interface {
	tier(adsScore *float64) model.Tier
}

// FixedThresholds assigns tiers by absolute score cutoffs.
type FixedThresholds struct {
	A float64 // ads_score >= A -> tier A
	B float64 // ads_score >= B -> tier B
}

func (t FixedThresholds) tier(s *float64) model.Tier {
	switch {
	case s == nil:
		return model.TierC
	case *s >= t.A:
		return model.TierA
	case *s >= t.B:
		return model.TierB
	default:
		return model.TierC
	}
}

// PercentileThresholds assigns tiers relative to this run's composite
// score distribution.
type PercentileThresholds struct {
	P80 float64
	P50 float64
}

func (t PercentileThresholds) tier(s *float64) model.Tier {
	switch {
	case s == nil:
		return model.TierC
	case *s >= t.P80:
		return model.TierA
	case *s >= t.P50:
		return model.TierB
	default:
		return model.TierC
	}
}

// RunStats reports the distributions a scoring run derived.
type RunStats struct {
	Volume      ScoreStats `json:"volume"`
	CPC         ScoreStats `json:"cpc"`
	Competition ScoreStats `json:"competition"`
	Scored      int        `json:"scored"`
	TierA       int        `json:"tier_a"`
	TierB       int        `json:"tier_b"`
	TierC       int        `json:"tier_c"`
}

// Scorer scores a record set according to config.
type Scorer struct {
	cfg config.ScorerConfig
}

// New creates a Scorer.
func New(cfg config.ScorerConfig) *Scorer {
	return &Scorer{cfg: cfg}
}

// Score computes component scores, the composite, tiers, and flags for
// every record, returning scored copies. Percentiles are computed once
// over all records with a non-nil value for each metric; scores are
// rounded only when written to the returned records.
func (s *Scorer) Score(records []model.KeywordRecord) ([]model.KeywordRecord, RunStats) {
	var volumes, cpcs, comps []float64
	for _, r := range records {
		if r.SearchVolume != nil {
			volumes = append(volumes, float64(*r.SearchVolume))
		}
		if r.CPC != nil {
			cpcs = append(cpcs, *r.CPC)
		}
		if r.Competition != nil {
			comps = append(comps, *r.Competition)
		}
	}

	stats := RunStats{
		Volume:      computeStats(volumes),
		CPC:         computeStats(cpcs),
		Competition: computeStats(comps),
	}

	type rawScores struct {
		volume, cost, difficulty, ads *float64
	}

	raw := make([]rawScores, len(records))
	var adsValues []float64
	for i, r := range records {
		var rs rawScores

		if r.SearchVolume != nil {
			v := float64(*r.SearchVolume)
			rs.volume = stats.Volume.normalize(&v)
		}
		// Lower cost and competition are better, so those scores invert.
		if cpcScore := stats.CPC.normalize(r.CPC); cpcScore != nil {
			c := 1 - *cpcScore
			rs.cost = &c
		}
		if compScore := stats.Competition.normalize(r.Competition); compScore != nil {
			d := 1 - *compScore
			rs.difficulty = &d
		}

		// Composite only when every component is present; a partial
		// composite would silently re-weight the survivors.
		if rs.volume != nil && rs.cost != nil && rs.difficulty != nil {
			ads := s.cfg.VolumeWeight**rs.volume +
				s.cfg.CostWeight**rs.cost +
				s.cfg.DifficultyWeight**rs.difficulty
			rs.ads = &ads
			adsValues = append(adsValues, ads)
		}

		raw[i] = rs
	}

	thresholds := s.thresholds(adsValues)

	out := make([]model.KeywordRecord, len(records))
	for i, r := range records {
		rs := raw[i]

		r.VolumeScore = round4p(rs.volume)
		r.CostScore = round4p(rs.cost)
		r.DifficultyScore = round4p(rs.difficulty)
		r.AdsScore = round4p(rs.ads)
		r.Tier = thresholds.tier(rs.ads)
		r.PaidFlag = flagAt(rs.volume, s.cfg.PaidVolumeMin) &&
			flagAt(rs.cost, s.cfg.PaidCostMin) &&
			flagAt(rs.difficulty, s.cfg.PaidDifficultyMin)
		r.SEOFlag = flagAt(rs.volume, s.cfg.SEOVolumeMin) &&
			flagAt(rs.cost, s.cfg.SEOCostMin) &&
			flagAt(rs.difficulty, s.cfg.SEODifficultyMin)

		switch r.Tier {
		case model.TierA:
			stats.TierA++
		case model.TierB:
			stats.TierB++
		default:
			stats.TierC++
		}
		if rs.ads != nil {
			stats.Scored++
		}
		out[i] = r
	}

	zap.L().Info("scoring complete",
		zap.Int("records", len(records)),
		zap.Int("scored", stats.Scored),
		zap.Int("tier_a", stats.TierA),
		zap.Int("tier_b", stats.TierB),
		zap.Int("tier_c", stats.TierC),
		zap.Bool("volume_enabled", stats.Volume.Enabled),
		zap.Bool("cpc_enabled", stats.CPC.Enabled),
		zap.Bool("competition_enabled", stats.Competition.Enabled),
	)

	return out, stats
}

// thresholds resolves the configured tier mode against this run's
// composite distribution.
func (s *Scorer) thresholds(adsValues []float64) TierThresholds {
	if s.cfg.TierMode != "percentile" || len(adsValues) == 0 {
		return FixedThresholds{A: 0.75, B: 0.50}
	}
	sorted := append([]float64(nil), adsValues...)
	sort.Float64s(sorted)
	return PercentileThresholds{
		P80: percentile(sorted, 80),
		P50: percentile(sorted, 50),
	}
}

func flagAt(score *float64, min float64) bool {
	return score != nil && *score >= min
}
