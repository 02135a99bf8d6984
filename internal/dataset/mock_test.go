package dataset

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/EasonLyon/LT-Paid-Media-sub001/internal/store"
)

// memStore implements store.ProjectStore in memory, round-tripping values
// through JSON the way a real backend does.
type memStore struct {
	mu        sync.Mutex
	artifacts map[string][]byte
	writes    int
	failWrite error
}

func newMemStore() *memStore {
	return &memStore{artifacts: make(map[string][]byte)}
}

func (m *memStore) key(projectID, name string) string {
	return projectID + "/" + name
}

func (m *memStore) ReadJSON(_ context.Context, projectID, name string, out any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.artifacts[m.key(projectID, name)]
	if !ok {
		return store.ErrNotFound
	}
	return json.Unmarshal(raw, out)
}

func (m *memStore) WriteJSON(_ context.Context, projectID string, _ int, name string, data any) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrite != nil {
		return "", m.failWrite
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return "", err
	}
	m.artifacts[m.key(projectID, name)] = raw
	m.writes++
	return m.key(projectID, name), nil
}

func (m *memStore) ReadProgress(_ context.Context, projectID, name string, out any) error {
	return m.ReadJSON(context.Background(), projectID, "progress_"+name, out)
}

func (m *memStore) WriteProgress(_ context.Context, projectID, name string, data any) error {
	_, err := m.WriteJSON(context.Background(), projectID, -1, "progress_"+name, data)
	return err
}

func (m *memStore) ListProjects(_ context.Context) ([]string, error) {
	return nil, nil
}

func (m *memStore) Close() error { return nil }
