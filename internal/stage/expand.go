package stage

import (
	"context"
	"errors"

	"github.com/EasonLyon/LT-Paid-Media-sub001/internal/config"
	"github.com/EasonLyon/LT-Paid-Media-sub001/internal/dataset"
	"github.com/EasonLyon/LT-Paid-Media-sub001/internal/model"
	"github.com/EasonLyon/LT-Paid-Media-sub001/internal/runner"
	"github.com/EasonLyon/LT-Paid-Media-sub001/internal/store"
	"github.com/EasonLyon/LT-Paid-Media-sub001/pkg/dataforseo"
)

// ExpandArtifact holds keywords discovered via SERP-related expansion.
const ExpandArtifact = "keywords_expanded"

// ExpandStage grows the keyword set by asking the provider for keywords
// related to each seed. Seeds that produced volume metrics feed the
// expansion; when the volume stage has not run, raw seeds are used.
type ExpandStage struct {
	client dataforseo.Client
	store  store.ProjectStore
	cfg    config.ProviderConfig
}

// NewExpandStage creates the expansion stage.
func NewExpandStage(client dataforseo.Client, st store.ProjectStore, cfg config.ProviderConfig) *ExpandStage {
	return &ExpandStage{client: client, store: st, cfg: cfg}
}

func (s *ExpandStage) Name() string     { return "expand" }
func (s *ExpandStage) Index() int       { return 2 }
func (s *ExpandStage) Artifact() string { return ExpandArtifact }
func (s *ExpandStage) Gated() bool      { return true }

// Items yields one item per expansion seed. The volume artifact is
// persisted in key order, so the work list is stable for resumption.
func (s *ExpandStage) Items(ctx context.Context, projectID string, _ *dataset.MergeStore) ([]runner.Item, error) {
	var volumeRecords []model.KeywordRecord
	err := s.store.ReadJSON(ctx, projectID, VolumeArtifact, &volumeRecords)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	var keywords []string
	if len(volumeRecords) > 0 {
		for _, r := range volumeRecords {
			keywords = append(keywords, r.Keyword)
		}
	} else {
		seeds, err := LoadSeeds(ctx, s.store, projectID)
		if err != nil {
			return nil, err
		}
		keywords = seeds.Keywords
	}

	var items []runner.Item
	for _, kw := range dedupeKeywords(keywords) {
		items = append(items, runner.Item{Key: kw})
	}
	return items, nil
}

func (s *ExpandStage) Process(ctx context.Context, projectID string, item runner.Item) ([]model.KeywordRecord, []string, error) {
	results, err := s.client.RelatedKeywords(ctx, item.Key, dataforseo.TaskParams{
		LocationCode: s.cfg.LocationCode,
		LanguageCode: s.cfg.LanguageCode,
		Limit:        s.cfg.MaxBatchSize,
	})
	if err != nil {
		return nil, nil, err
	}
	return toRecords(results, "related"), nil, nil
}
