package main

import (
	"context"

	"github.com/EasonLyon/LT-Paid-Media-sub001/internal/ratelimit"
	"github.com/EasonLyon/LT-Paid-Media-sub001/internal/runner"
	"github.com/EasonLyon/LT-Paid-Media-sub001/internal/stage"
	"github.com/EasonLyon/LT-Paid-Media-sub001/internal/store"
	"github.com/EasonLyon/LT-Paid-Media-sub001/pkg/dataforseo"
)

// env bundles the wired collaborators a command needs.
type env struct {
	Store  store.ProjectStore
	Runner *runner.Runner
	Deps   stage.Deps
}

// initEnv opens the project store and wires the provider client, rate
// limiter, and stage runner from config.
func initEnv(ctx context.Context) (*env, error) {
	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}

	client := dataforseo.NewClient(
		cfg.Provider.BaseURL,
		cfg.Provider.Login,
		cfg.Provider.Password,
		dataforseo.WithRetryPolicy(providerPolicy()),
		dataforseo.WithNormalizer(normalizeKeyword),
	)

	limiter := ratelimit.New(cfg.Provider.MaxPerWindow, cfg.Provider.Window())

	return &env{
		Store:  st,
		Runner: runner.New(st, limiter, cfg.Runner),
		Deps: stage.Deps{
			Client:   client,
			Store:    st,
			Provider: cfg.Provider,
			Scorer:   cfg.Scorer,
		},
	}, nil
}

func (e *env) Close() {
	_ = e.Store.Close()
}
