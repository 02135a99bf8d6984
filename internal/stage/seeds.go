package stage

import (
	"context"
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/EasonLyon/LT-Paid-Media-sub001/internal/model"
	"github.com/EasonLyon/LT-Paid-Media-sub001/internal/store"
)

// SeedsArtifact is the project's input artifact, written once at init.
const SeedsArtifact = "seeds"

// Seeds is a project's research input: the keywords to fetch metrics for
// and the competitor domains to mine.
type Seeds struct {
	Keywords []string `json:"keywords" yaml:"keywords"`
	Domains  []string `json:"domains" yaml:"domains"`
}

// LoadSeedsFile parses a seeds YAML file.
func LoadSeedsFile(path string) (*Seeds, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "stage: read seeds file %s", path)
	}
	var s Seeds
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return nil, eris.Wrapf(err, "stage: parse seeds file %s", path)
	}
	if len(s.Keywords) == 0 && len(s.Domains) == 0 {
		return nil, eris.Errorf("stage: seeds file %s has no keywords or domains", path)
	}
	return &s, nil
}

// SaveSeeds stores the seeds artifact for a project.
func SaveSeeds(ctx context.Context, st store.ProjectStore, projectID string, seeds *Seeds) (string, error) {
	return st.WriteJSON(ctx, projectID, 0, SeedsArtifact, seeds)
}

// LoadSeeds reads the seeds artifact for a project.
func LoadSeeds(ctx context.Context, st store.ProjectStore, projectID string) (*Seeds, error) {
	var s Seeds
	if err := st.ReadJSON(ctx, projectID, SeedsArtifact, &s); err != nil {
		return nil, eris.Wrapf(err, "stage: load seeds for %s (run init first)", projectID)
	}
	return &s, nil
}

// dedupeKeywords normalizes and deduplicates while preserving first-seen
// order, so stage work lists stay stable across invocations.
func dedupeKeywords(keywords []string) []string {
	seen := make(map[string]struct{}, len(keywords))
	var out []string
	for _, kw := range keywords {
		key := model.NormalizeKeyword(kw)
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	return out
}
