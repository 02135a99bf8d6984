// Package store provides durable, per-project keyed persistence for
// pipeline artifacts and progress checkpoints. All artifacts are JSON
// documents keyed by project id + name; the pipeline never depends on the
// physical layout of a backend.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/EasonLyon/LT-Paid-Media-sub001/internal/config"
)

// ErrNotFound is returned when an artifact or progress document is absent.
var ErrNotFound = eris.New("store: not found")

// ProjectStore is the persistence substrate for checkpoints and datasets.
type ProjectStore interface {
	// ReadJSON loads the artifact into out. ErrNotFound when absent.
	ReadJSON(ctx context.Context, projectID, name string, out any) error

	// WriteJSON stores an artifact. index orders the stage outputs in a
	// project (file backend uses it as a filename prefix); the returned
	// string is the backend's location for logging.
	WriteJSON(ctx context.Context, projectID string, index int, name string, data any) (string, error)

	// ReadProgress loads a stage checkpoint document. ErrNotFound when absent.
	ReadProgress(ctx context.Context, projectID, name string, out any) error

	// WriteProgress overwrites a stage checkpoint document whole.
	WriteProgress(ctx context.Context, projectID, name string, data any) error

	// ListProjects returns the known project ids.
	ListProjects(ctx context.Context) ([]string, error)

	Close() error
}

// Open constructs the ProjectStore selected by config.
func Open(ctx context.Context, cfg config.StoreConfig) (ProjectStore, error) {
	switch cfg.Driver {
	case "file":
		return NewFileStore(cfg.DataDir)
	case "sqlite":
		s, err := NewSQLite(cfg.DataDir + "/projects.db")
		if err != nil {
			return nil, err
		}
		if err := s.Migrate(ctx); err != nil {
			s.Close()
			return nil, err
		}
		return s, nil
	case "postgres":
		s, err := NewPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := s.Migrate(ctx); err != nil {
			s.Close()
			return nil, err
		}
		return s, nil
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
}
