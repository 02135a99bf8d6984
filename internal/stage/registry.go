package stage

import (
	"github.com/rotisserie/eris"

	"github.com/EasonLyon/LT-Paid-Media-sub001/internal/config"
	"github.com/EasonLyon/LT-Paid-Media-sub001/internal/runner"
	"github.com/EasonLyon/LT-Paid-Media-sub001/internal/store"
	"github.com/EasonLyon/LT-Paid-Media-sub001/pkg/dataforseo"
)

// Deps carries the collaborators stages are built from.
type Deps struct {
	Client   dataforseo.Client
	Store    store.ProjectStore
	Provider config.ProviderConfig
	Scorer   config.ScorerConfig
}

// ForName resolves a stage by its CLI/HTTP name.
func ForName(name string, deps Deps) (runner.Stage, error) {
	switch name {
	case "volume":
		return NewVolumeStage(deps.Client, deps.Store, deps.Provider), nil
	case "expand":
		return NewExpandStage(deps.Client, deps.Store, deps.Provider), nil
	case "domain":
		return NewDomainStage(deps.Client, deps.Store, deps.Provider), nil
	case "score":
		return NewScoreStage(deps.Store, deps.Scorer), nil
	default:
		return nil, eris.Errorf("stage: unknown stage %q (valid: %v)", name, Names())
	}
}

// Names lists the valid stage names in pipeline order.
func Names() []string {
	return []string{"volume", "expand", "domain", "score"}
}
