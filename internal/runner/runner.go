// Package runner composes the deadline guard, worker pool, rate limiter,
// merge store, and progress store into one resumable stage execution.
package runner

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/EasonLyon/LT-Paid-Media-sub001/internal/config"
	"github.com/EasonLyon/LT-Paid-Media-sub001/internal/dataset"
	"github.com/EasonLyon/LT-Paid-Media-sub001/internal/model"
	"github.com/EasonLyon/LT-Paid-Media-sub001/internal/progress"
	"github.com/EasonLyon/LT-Paid-Media-sub001/internal/ratelimit"
	"github.com/EasonLyon/LT-Paid-Media-sub001/internal/store"
)

// Item is one unit of upstream work: a single keyword or domain, or a
// batch of keywords submitted as one provider task. Immutable once built.
type Item struct {
	Key   string
	Batch []string
}

// Stage is one pipeline phase driven by the runner.
type Stage interface {
	// Name keys the stage's checkpoint within a project.
	Name() string

	// Index orders the stage's artifact among the project's outputs.
	Index() int

	// Artifact names the dataset this stage accumulates into.
	Artifact() string

	// Gated reports whether items consume the provider quota.
	Gated() bool

	// Items builds the full, stable work list for a project. It must be
	// deterministic for a given project state: resumption indexes into it.
	Items(ctx context.Context, projectID string, ds *dataset.MergeStore) ([]Item, error)

	// Process performs one item's upstream work and returns the records
	// to merge plus any permanently skipped inputs.
	Process(ctx context.Context, projectID string, item Item) (records []model.KeywordRecord, skipped []string, err error)
}

// Finalizer is implemented by stages that produce a derived artifact once
// every item is done (the scoring stage hands the merged set to the
// scorer here). Finalize runs only on a completed, non-paused run.
type Finalizer interface {
	Finalize(ctx context.Context, projectID string, ds *dataset.MergeStore) error
}

// Result summarizes one stage invocation.
type Result struct {
	Stage       string            `json:"stage"`
	Status      model.StageStatus `json:"status"`
	Processed   int               `json:"processed"`
	Total       int               `json:"total"`
	ResumedFrom int               `json:"resumed_from"`
	Incomplete  bool              `json:"incomplete,omitempty"`
	Merged      int               `json:"merged_records"`
}

// Runner executes stages against one project at a time.
type Runner struct {
	store    store.ProjectStore
	progress *progress.Store
	limiter  *ratelimit.SlidingWindow
	cfg      config.RunnerConfig
}

// New creates a Runner. The limiter is shared across stages so one
// invocation cannot exceed the provider account quota regardless of which
// stage is running.
func New(st store.ProjectStore, limiter *ratelimit.SlidingWindow, cfg config.RunnerConfig) *Runner {
	return &Runner{
		store:    st,
		progress: progress.NewStore(st),
		limiter:  limiter,
		cfg:      cfg,
	}
}

// Run executes one resumable stage invocation for a project. The guard
// starts immediately so the platform budget covers setup work too.
func (r *Runner) Run(ctx context.Context, projectID string, stage Stage, force bool) (*Result, error) {
	if projectID == "" {
		return nil, eris.New("runner: project id is required")
	}

	guard := NewGuard(r.cfg.HardTimeout(), r.cfg.Overhead())
	log := zap.L().With(
		zap.String("project_id", projectID),
		zap.String("stage", stage.Name()),
	)

	ds := dataset.NewMergeStore(r.store, projectID, stage.Index(), stage.Artifact())
	if err := ds.Load(ctx); err != nil {
		return nil, err
	}

	items, err := stage.Items(ctx, projectID, ds)
	if err != nil {
		return nil, err
	}
	total := len(items)

	cp, err := r.progress.Load(ctx, projectID, stage.Name())
	if err != nil {
		return nil, err
	}
	// An error checkpoint resumes like a paused one: the partial
	// progress is kept and only force discards it.
	resumeFrom := cp.ResumeFrom(total, force)
	if cp != nil && !force && resumeFrom >= total {
		log.Info("stage already completed", zap.Int("total", total))
		return &Result{
			Stage:       stage.Name(),
			Status:      model.StatusDone,
			Total:       total,
			ResumedFrom: resumeFrom,
			Merged:      ds.Len(),
		}, nil
	}

	if force || cp == nil {
		cp = progress.Fresh(stage.Name(), total)
	} else {
		cp.Status = model.StatusRunning
		cp.Total = total
		cp.Error = ""
	}
	if err := r.progress.Save(ctx, projectID, stage.Name(), cp); err != nil {
		return nil, err
	}

	log.Info("stage starting",
		zap.Int("total", total),
		zap.Int("resumed_from", resumeFrom),
		zap.Bool("force", force),
		zap.Duration("budget", guard.Remaining()),
	)

	remaining := items[resumeFrom:]

	// One item's dataset+checkpoint persistence completes before its
	// runner claims again; the mutex keeps the two writes of concurrent
	// finishers from interleaving.
	var mu sync.Mutex
	perItem := func(ctx context.Context, item Item) error {
		if stage.Gated() {
			if err := r.limiter.Acquire(ctx); err != nil {
				return err
			}
			// The wait itself can consume a large slice of the budget.
			if guard.Expired() {
				return ErrDeadline
			}
		}

		records, skipped, err := stage.Process(ctx, projectID, item)
		if err != nil {
			return eris.Wrapf(err, "runner: stage %s item %s", stage.Name(), item.Key)
		}

		mu.Lock()
		defer mu.Unlock()

		merged := ds.UpsertAll(records)
		if err := ds.Persist(ctx); err != nil {
			return err
		}

		cp.Skipped = append(cp.Skipped, skipped...)
		progress.Record(cp, item.Key, fmt.Sprintf("ok: %d fetched, %d merged", len(records), merged))
		return r.progress.Save(ctx, projectID, stage.Name(), cp)
	}

	processed, _, runErr := runPool(ctx, guard, r.cfg.Concurrency, remaining, perItem)

	// Final checkpoint writes must land even when ctx was cancelled.
	saveCtx := context.WithoutCancel(ctx)

	// Interrupted invocations resume like deadline pauses.
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		cp.Status = model.StatusError
		cp.Error = runErr.Error()
		if saveErr := r.progress.Save(saveCtx, projectID, stage.Name(), cp); saveErr != nil {
			log.Warn("failed to persist error checkpoint", zap.Error(saveErr))
		}
		return nil, eris.Wrapf(runErr, "runner: stage %s failed", stage.Name())
	}

	// A runner can observe guard expiry while a sibling finishes the last
	// item, so completion is judged by the checkpoint, not the pool flag.
	status := model.StatusDone
	if cp.Completed < total {
		status = model.StatusPaused
	}

	if status == model.StatusDone {
		if f, ok := stage.(Finalizer); ok {
			if finErr := f.Finalize(saveCtx, projectID, ds); finErr != nil {
				cp.Status = model.StatusError
				cp.Error = finErr.Error()
				if saveErr := r.progress.Save(saveCtx, projectID, stage.Name(), cp); saveErr != nil {
					log.Warn("failed to persist error checkpoint", zap.Error(saveErr))
				}
				return nil, eris.Wrapf(finErr, "runner: stage %s finalize", stage.Name())
			}
		}
	}

	cp.Status = status
	if err := r.progress.Save(saveCtx, projectID, stage.Name(), cp); err != nil {
		return nil, err
	}

	log.Info("stage finished",
		zap.String("status", string(status)),
		zap.Int("processed", processed),
		zap.Int("completed", cp.Completed),
		zap.Int("total", total),
		zap.Int("merged_records", ds.Len()),
	)

	return &Result{
		Stage:       stage.Name(),
		Status:      status,
		Processed:   processed,
		Total:       total,
		ResumedFrom: resumeFrom,
		Incomplete:  status == model.StatusPaused,
		Merged:      ds.Len(),
	}, nil
}
