// Package stage defines the concrete pipeline stages driven by the
// runner: search-volume fetch, SERP expansion, domain keyword mining, and
// scoring.
package stage

import (
	"context"
	"fmt"
	"time"

	"github.com/EasonLyon/LT-Paid-Media-sub001/internal/config"
	"github.com/EasonLyon/LT-Paid-Media-sub001/internal/dataset"
	"github.com/EasonLyon/LT-Paid-Media-sub001/internal/model"
	"github.com/EasonLyon/LT-Paid-Media-sub001/internal/runner"
	"github.com/EasonLyon/LT-Paid-Media-sub001/internal/store"
	"github.com/EasonLyon/LT-Paid-Media-sub001/pkg/dataforseo"
)

// VolumeArtifact holds the search-volume metrics for the seed keywords.
const VolumeArtifact = "keywords_volume"

// VolumeStage fetches Google Ads search volume for the seed keywords in
// provider-sized batches.
type VolumeStage struct {
	client dataforseo.Client
	store  store.ProjectStore
	cfg    config.ProviderConfig
}

// NewVolumeStage creates the volume stage.
func NewVolumeStage(client dataforseo.Client, st store.ProjectStore, cfg config.ProviderConfig) *VolumeStage {
	return &VolumeStage{client: client, store: st, cfg: cfg}
}

func (s *VolumeStage) Name() string     { return "volume" }
func (s *VolumeStage) Index() int       { return 1 }
func (s *VolumeStage) Artifact() string { return VolumeArtifact }
func (s *VolumeStage) Gated() bool      { return true }

// Items chunks the deduplicated seed keywords into provider batches. The
// seeds artifact is immutable after init, so the work list is stable
// across resumed invocations.
func (s *VolumeStage) Items(ctx context.Context, projectID string, _ *dataset.MergeStore) ([]runner.Item, error) {
	seeds, err := LoadSeeds(ctx, s.store, projectID)
	if err != nil {
		return nil, err
	}

	keywords := dedupeKeywords(seeds.Keywords)
	batchSize := s.cfg.MaxBatchSize
	if batchSize < 1 {
		batchSize = 100
	}

	var items []runner.Item
	for start := 0; start < len(keywords); start += batchSize {
		end := min(start+batchSize, len(keywords))
		items = append(items, runner.Item{
			Key:   fmt.Sprintf("batch_%03d", len(items)),
			Batch: keywords[start:end],
		})
	}
	return items, nil
}

func (s *VolumeStage) Process(ctx context.Context, projectID string, item runner.Item) ([]model.KeywordRecord, []string, error) {
	results, skipped, err := s.client.SearchVolume(ctx, item.Batch, dataforseo.TaskParams{
		LocationCode: s.cfg.LocationCode,
		LanguageCode: s.cfg.LanguageCode,
	})
	if err != nil {
		return nil, nil, err
	}
	return toRecords(results, "google_ads"), skipped, nil
}

// toRecords maps provider rows to the merge-store record shape.
func toRecords(results []dataforseo.KeywordResult, source string) []model.KeywordRecord {
	now := time.Now().UTC()
	out := make([]model.KeywordRecord, 0, len(results))
	for _, r := range results {
		rec := model.KeywordRecord{
			Keyword:      r.Keyword,
			Source:       source,
			SearchVolume: r.SearchVolume,
			CPC:          r.CPC,
			Competition:  r.Competition,
			FetchedAt:    now,
		}
		for _, ms := range r.MonthlySearches {
			rec.Monthly = append(rec.Monthly, model.MonthlySearch{
				Year:   ms.Year,
				Month:  ms.Month,
				Volume: ms.Volume,
			})
		}
		out = append(out, rec)
	}
	return out
}
