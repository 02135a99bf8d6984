package runner

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/EasonLyon/LT-Paid-Media-sub001/internal/dataset"
	"github.com/EasonLyon/LT-Paid-Media-sub001/internal/model"
	"github.com/EasonLyon/LT-Paid-Media-sub001/internal/store"
)

// memStore implements store.ProjectStore in memory for runner tests.
type memStore struct {
	mu   sync.Mutex
	docs map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{docs: make(map[string][]byte)}
}

func (m *memStore) get(key string, out any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.docs[key]
	if !ok {
		return store.ErrNotFound
	}
	return json.Unmarshal(raw, out)
}

func (m *memStore) put(key string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[key] = raw
	return nil
}

func (m *memStore) ReadJSON(_ context.Context, projectID, name string, out any) error {
	return m.get("artifact/"+projectID+"/"+name, out)
}

func (m *memStore) WriteJSON(_ context.Context, projectID string, _ int, name string, data any) (string, error) {
	return name, m.put("artifact/"+projectID+"/"+name, data)
}

func (m *memStore) ReadProgress(_ context.Context, projectID, name string, out any) error {
	return m.get("progress/"+projectID+"/"+name, out)
}

func (m *memStore) WriteProgress(_ context.Context, projectID, name string, data any) error {
	return m.put("progress/"+projectID+"/"+name, data)
}

func (m *memStore) ListProjects(_ context.Context) ([]string, error) { return nil, nil }

func (m *memStore) Close() error { return nil }

// fakeStage is a configurable Stage for runner tests.
type fakeStage struct {
	name     string
	gated    bool
	items    []Item
	finalize func(ctx context.Context, projectID string, ds *dataset.MergeStore) error

	mu      sync.Mutex
	calls   []string
	process func(call int, item Item) ([]model.KeywordRecord, []string, error)
}

func (f *fakeStage) Name() string {
	if f.name == "" {
		return "fake"
	}
	return f.name
}

func (f *fakeStage) Index() int       { return 1 }
func (f *fakeStage) Artifact() string { return "fake_artifact" }
func (f *fakeStage) Gated() bool      { return f.gated }

func (f *fakeStage) Items(_ context.Context, _ string, _ *dataset.MergeStore) ([]Item, error) {
	return f.items, nil
}

func (f *fakeStage) Process(_ context.Context, _ string, item Item) ([]model.KeywordRecord, []string, error) {
	f.mu.Lock()
	call := len(f.calls)
	f.calls = append(f.calls, item.Key)
	f.mu.Unlock()

	if f.process != nil {
		return f.process(call, item)
	}
	return []model.KeywordRecord{{Keyword: item.Key}}, nil, nil
}

func (f *fakeStage) processedKeys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// finalizingStage adds a Finalize hook on top of fakeStage.
type finalizingStage struct {
	fakeStage
}

func (f *finalizingStage) Finalize(ctx context.Context, projectID string, ds *dataset.MergeStore) error {
	return f.finalize(ctx, projectID, ds)
}

func items(keys ...string) []Item {
	out := make([]Item, len(keys))
	for i, k := range keys {
		out[i] = Item{Key: k}
	}
	return out
}
