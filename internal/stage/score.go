package stage

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/EasonLyon/LT-Paid-Media-sub001/internal/config"
	"github.com/EasonLyon/LT-Paid-Media-sub001/internal/dataset"
	"github.com/EasonLyon/LT-Paid-Media-sub001/internal/model"
	"github.com/EasonLyon/LT-Paid-Media-sub001/internal/runner"
	"github.com/EasonLyon/LT-Paid-Media-sub001/internal/scorer"
	"github.com/EasonLyon/LT-Paid-Media-sub001/internal/store"
)

const (
	// MergedArtifact is the union of all discovery-stage outputs.
	MergedArtifact = "keywords_merged"

	// ScoredArtifact is the final, tiered dataset.
	ScoredArtifact = "keywords_scored"

	scoredArtifactIndex = 5
)

// ScoredOutput is the shape of the scored artifact: the per-run
// distribution stats alongside the tiered records.
type ScoredOutput struct {
	Stats   scorer.RunStats       `json:"stats"`
	Records []model.KeywordRecord `json:"records"`
}

// ScoreStage merges every upstream artifact into one dataset, then hands
// the finished set to the scorer. It has one work item per source
// artifact and consumes no provider quota.
type ScoreStage struct {
	store store.ProjectStore
	cfg   config.ScorerConfig
}

// NewScoreStage creates the scoring stage.
func NewScoreStage(st store.ProjectStore, cfg config.ScorerConfig) *ScoreStage {
	return &ScoreStage{store: st, cfg: cfg}
}

func (s *ScoreStage) Name() string     { return "score" }
func (s *ScoreStage) Index() int       { return 4 }
func (s *ScoreStage) Artifact() string { return MergedArtifact }
func (s *ScoreStage) Gated() bool      { return false }

// Items yields one merge item per discovery artifact. Artifacts that do
// not exist yet are processed as empty, so scoring a volume-only project
// works.
func (s *ScoreStage) Items(ctx context.Context, projectID string, _ *dataset.MergeStore) ([]runner.Item, error) {
	return []runner.Item{
		{Key: VolumeArtifact},
		{Key: ExpandArtifact},
		{Key: DomainArtifact},
	}, nil
}

func (s *ScoreStage) Process(ctx context.Context, projectID string, item runner.Item) ([]model.KeywordRecord, []string, error) {
	var records []model.KeywordRecord
	err := s.store.ReadJSON(ctx, projectID, item.Key, &records)
	if errors.Is(err, store.ErrNotFound) {
		zap.L().Debug("score: source artifact absent",
			zap.String("project_id", projectID),
			zap.String("artifact", item.Key),
		)
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return records, nil, nil
}

// Finalize scores the merged dataset and writes the tiered artifact.
func (s *ScoreStage) Finalize(ctx context.Context, projectID string, ds *dataset.MergeStore) error {
	scored, stats := scorer.New(s.cfg).Score(ds.Snapshot())
	_, err := s.store.WriteJSON(ctx, projectID, scoredArtifactIndex, ScoredArtifact, ScoredOutput{
		Stats:   stats,
		Records: scored,
	})
	return err
}
