// Package progress persists stage checkpoints so a re-invoked stage can
// resume exactly where a truncated run stopped.
package progress

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/EasonLyon/LT-Paid-Media-sub001/internal/model"
	"github.com/EasonLyon/LT-Paid-Media-sub001/internal/store"
)

// Store reads and writes checkpoints through the project store.
type Store struct {
	backend store.ProjectStore
}

// NewStore wraps a project store.
func NewStore(backend store.ProjectStore) *Store {
	return &Store{backend: backend}
}

// Load returns the stage's checkpoint, or nil when the stage has never run.
func (s *Store) Load(ctx context.Context, projectID, stage string) (*model.Checkpoint, error) {
	var cp model.Checkpoint
	err := s.backend.ReadProgress(ctx, projectID, stage, &cp)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "progress: load checkpoint %s/%s", projectID, stage)
	}
	return &cp, nil
}

// Save overwrites the stage's checkpoint document whole. Callers carry
// forward StartedAt and History across saves; Save only stamps UpdatedAt.
func (s *Store) Save(ctx context.Context, projectID, stage string, cp *model.Checkpoint) error {
	cp.UpdatedAt = time.Now().UTC()
	if err := s.backend.WriteProgress(ctx, projectID, stage, cp); err != nil {
		return eris.Wrapf(err, "progress: save checkpoint %s/%s", projectID, stage)
	}
	return nil
}

// Fresh creates a new running checkpoint for a stage.
func Fresh(stage string, total int) *model.Checkpoint {
	now := time.Now().UTC()
	return &model.Checkpoint{
		Stage:     stage,
		Status:    model.StatusRunning,
		Total:     total,
		StartedAt: now,
		UpdatedAt: now,
		History:   []model.HistoryEntry{},
	}
}

// Record appends a completed item to the checkpoint and bumps the count.
// History is append-only, ordered by completion time.
func Record(cp *model.Checkpoint, target, outcome string) {
	cp.Completed++
	cp.History = append(cp.History, model.HistoryEntry{
		ID:        uuid.NewString(),
		Target:    target,
		Timestamp: time.Now().UTC(),
		Completed: cp.Completed,
		Outcome:   outcome,
	})
}
