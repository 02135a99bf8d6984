package stage

import (
	"context"
	"sync"

	"github.com/EasonLyon/LT-Paid-Media-sub001/pkg/dataforseo"
)

// mockClient implements dataforseo.Client for stage tests.
type mockClient struct {
	mu sync.Mutex

	volumeResults  []dataforseo.KeywordResult
	volumeSkipped  []string
	volumeErr      error
	volumeBatches  [][]string
	relatedResults map[string][]dataforseo.KeywordResult
	relatedSeeds   []string
	siteResults    map[string][]dataforseo.KeywordResult
	siteDomains    []string
}

func (m *mockClient) SearchVolume(_ context.Context, keywords []string, _ dataforseo.TaskParams) ([]dataforseo.KeywordResult, []string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.volumeBatches = append(m.volumeBatches, append([]string(nil), keywords...))
	if m.volumeErr != nil {
		return nil, nil, m.volumeErr
	}
	return m.volumeResults, m.volumeSkipped, nil
}

func (m *mockClient) RelatedKeywords(_ context.Context, seed string, _ dataforseo.TaskParams) ([]dataforseo.KeywordResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.relatedSeeds = append(m.relatedSeeds, seed)
	return m.relatedResults[seed], nil
}

func (m *mockClient) KeywordsForSite(_ context.Context, domain string, _ dataforseo.TaskParams) ([]dataforseo.KeywordResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.siteDomains = append(m.siteDomains, domain)
	return m.siteResults[domain], nil
}

func i64(v int64) *int64     { return &v }
func f64(v float64) *float64 { return &v }
