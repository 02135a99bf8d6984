package stage

import (
	"context"
	"strings"

	"github.com/EasonLyon/LT-Paid-Media-sub001/internal/config"
	"github.com/EasonLyon/LT-Paid-Media-sub001/internal/dataset"
	"github.com/EasonLyon/LT-Paid-Media-sub001/internal/model"
	"github.com/EasonLyon/LT-Paid-Media-sub001/internal/runner"
	"github.com/EasonLyon/LT-Paid-Media-sub001/internal/store"
	"github.com/EasonLyon/LT-Paid-Media-sub001/pkg/dataforseo"
)

// DomainArtifact holds keywords mined from competitor domains.
const DomainArtifact = "keywords_domain"

// DomainStage looks up the keywords each seeded competitor domain ranks
// for.
type DomainStage struct {
	client dataforseo.Client
	store  store.ProjectStore
	cfg    config.ProviderConfig
}

// NewDomainStage creates the domain stage.
func NewDomainStage(client dataforseo.Client, st store.ProjectStore, cfg config.ProviderConfig) *DomainStage {
	return &DomainStage{client: client, store: st, cfg: cfg}
}

func (s *DomainStage) Name() string     { return "domain" }
func (s *DomainStage) Index() int       { return 3 }
func (s *DomainStage) Artifact() string { return DomainArtifact }
func (s *DomainStage) Gated() bool      { return true }

func (s *DomainStage) Items(ctx context.Context, projectID string, _ *dataset.MergeStore) ([]runner.Item, error) {
	seeds, err := LoadSeeds(ctx, s.store, projectID)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(seeds.Domains))
	var items []runner.Item
	for _, d := range seeds.Domains {
		domain := normalizeDomain(d)
		if domain == "" {
			continue
		}
		if _, ok := seen[domain]; ok {
			continue
		}
		seen[domain] = struct{}{}
		items = append(items, runner.Item{Key: domain})
	}
	return items, nil
}

func (s *DomainStage) Process(ctx context.Context, projectID string, item runner.Item) ([]model.KeywordRecord, []string, error) {
	results, err := s.client.KeywordsForSite(ctx, item.Key, dataforseo.TaskParams{
		LocationCode: s.cfg.LocationCode,
		LanguageCode: s.cfg.LanguageCode,
		Limit:        s.cfg.MaxBatchSize,
	})
	if err != nil {
		return nil, nil, err
	}
	return toRecords(results, "site:"+item.Key), nil, nil
}

// normalizeDomain strips scheme, path, and www prefix.
func normalizeDomain(d string) string {
	d = strings.TrimSpace(strings.ToLower(d))
	if i := strings.Index(d, "://"); i >= 0 {
		d = d[i+3:]
	}
	if i := strings.IndexByte(d, '/'); i >= 0 {
		d = d[:i]
	}
	return strings.TrimPrefix(d, "www.")
}
