package model

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
)

var foldCaser = cases.Fold()

// NormalizeKeyword produces the canonical dedup key for a keyword: trimmed,
// Unicode case-folded, with internal whitespace runs collapsed to single
// spaces. Two inputs that normalize identically are the same record.
func NormalizeKeyword(s string) string {
	folded := foldCaser.String(strings.TrimSpace(s))
	return strings.Join(strings.Fields(folded), " ")
}

// MonthlySearch is one month of historical search volume.
type MonthlySearch struct {
	Year   int   `json:"year"`
	Month  int   `json:"month"`
	Volume int64 `json:"search_volume"`
}

// KeywordRecord is a provider-agnostic keyword metric row. Metric fields
// are pointers so "provider returned nothing" is distinguishable from zero.
type KeywordRecord struct {
	Keyword      string          `json:"keyword"`
	Source       string          `json:"source,omitempty"`
	SearchVolume *int64          `json:"search_volume"`
	CPC          *float64        `json:"cpc"`
	Competition  *float64        `json:"competition"`
	Monthly      []MonthlySearch `json:"monthly_searches,omitempty"`
	FetchedAt    time.Time       `json:"fetched_at,omitempty"`

	// Scoring output, populated by the score stage only.
	VolumeScore     *float64 `json:"volume_score,omitempty"`
	CostScore       *float64 `json:"cost_score,omitempty"`
	DifficultyScore *float64 `json:"difficulty_score,omitempty"`
	AdsScore        *float64 `json:"ads_score,omitempty"`
	Tier            Tier     `json:"tier,omitempty"`
	PaidFlag        bool     `json:"paid_flag,omitempty"`
	SEOFlag         bool     `json:"seo_flag,omitempty"`
}

// Key returns the record's normalized dedup key.
func (r *KeywordRecord) Key() string {
	return NormalizeKeyword(r.Keyword)
}

// Tier is a discrete quality bucket assigned from the composite score.
type Tier string

const (
	TierA Tier = "A"
	TierB Tier = "B"
	TierC Tier = "C"
)
