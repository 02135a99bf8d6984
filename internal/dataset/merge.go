// Package dataset accumulates incrementally discovered keyword records
// into a deduplicated collection that is persisted after every unit of
// progress, so a paused run never loses merged work.
package dataset

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/rotisserie/eris"

	"github.com/EasonLyon/LT-Paid-Media-sub001/internal/model"
	"github.com/EasonLyon/LT-Paid-Media-sub001/internal/store"
)

// MergeStore holds a project's keyword records keyed by normalized text.
// Upserts are first-writer-wins: a later record for an existing key may
// only fill fields the stored record has nil, never replace non-nil
// provider data. Replaying any permutation of the same upserts yields the
// same snapshot.
type MergeStore struct {
	mu        sync.Mutex
	backend   store.ProjectStore
	projectID string
	artifact  string
	index     int
	byKey     map[string]*model.KeywordRecord
}

// NewMergeStore creates an empty merge store bound to one artifact.
func NewMergeStore(backend store.ProjectStore, projectID string, index int, artifact string) *MergeStore {
	return &MergeStore{
		backend:   backend,
		projectID: projectID,
		artifact:  artifact,
		index:     index,
		byKey:     make(map[string]*model.KeywordRecord),
	}
}

// Load seeds the store from the persisted artifact. A missing artifact is
// an empty dataset, not an error.
func (m *MergeStore) Load(ctx context.Context) error {
	var records []model.KeywordRecord
	err := m.backend.ReadJSON(ctx, m.projectID, m.artifact, &records)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return eris.Wrapf(err, "dataset: load %s/%s", m.projectID, m.artifact)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range records {
		rec := records[i]
		m.byKey[rec.Key()] = &rec
	}
	return nil
}

// Upsert merges one record. Returns true when the record was inserted or
// enriched an existing one. Records with an empty normalized key are
// dropped.
func (m *MergeStore) Upsert(rec model.KeywordRecord) bool {
	key := rec.Key()
	if key == "" {
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.byKey[key]
	if !ok {
		r := rec
		m.byKey[key] = &r
		return true
	}

	// Enrichment fills gaps only.
	changed := false
	if existing.SearchVolume == nil && rec.SearchVolume != nil {
		existing.SearchVolume = rec.SearchVolume
		changed = true
	}
	if existing.CPC == nil && rec.CPC != nil {
		existing.CPC = rec.CPC
		changed = true
	}
	if existing.Competition == nil && rec.Competition != nil {
		existing.Competition = rec.Competition
		changed = true
	}
	if len(existing.Monthly) == 0 && len(rec.Monthly) > 0 {
		existing.Monthly = rec.Monthly
		changed = true
	}
	if existing.Source == "" && rec.Source != "" {
		existing.Source = rec.Source
		changed = true
	}
	return changed
}

// UpsertAll merges a batch and returns how many upserts changed the set.
func (m *MergeStore) UpsertAll(recs []model.KeywordRecord) int {
	n := 0
	for _, r := range recs {
		if m.Upsert(r) {
			n++
		}
	}
	return n
}

// Has reports whether a keyword (by normalized key) is already merged.
func (m *MergeStore) Has(keyword string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.byKey[model.NormalizeKeyword(keyword)]
	return ok
}

// Len returns the number of merged records.
func (m *MergeStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byKey)
}

// Snapshot returns the records ordered by normalized key, so output is
// stable across runs and replay orders.
func (m *MergeStore) Snapshot() []model.KeywordRecord {
	m.mu.Lock()
	defer m.mu.Unlock()

	keys := make([]string, 0, len(m.byKey))
	for k := range m.byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]model.KeywordRecord, 0, len(keys))
	for _, k := range keys {
		out = append(out, *m.byKey[k])
	}
	return out
}

// Persist writes the full current snapshot. Called after every completed
// work item, not batched at the end.
func (m *MergeStore) Persist(ctx context.Context) error {
	snapshot := m.Snapshot()
	if _, err := m.backend.WriteJSON(ctx, m.projectID, m.index, m.artifact, snapshot); err != nil {
		return eris.Wrapf(err, "dataset: persist %s/%s", m.projectID, m.artifact)
	}
	return nil
}
