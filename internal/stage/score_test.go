package stage

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/EasonLyon/LT-Paid-Media-sub001/internal/config"
	"github.com/EasonLyon/LT-Paid-Media-sub001/internal/dataset"
	"github.com/EasonLyon/LT-Paid-Media-sub001/internal/model"
	"github.com/EasonLyon/LT-Paid-Media-sub001/internal/runner"
	"github.com/EasonLyon/LT-Paid-Media-sub001/internal/store"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func scorerCfg() config.ScorerConfig {
	return config.ScorerConfig{
		TierMode:         "fixed",
		VolumeWeight:     0.5,
		CostWeight:       0.3,
		DifficultyWeight: 0.2,
	}
}

func TestScoreStage_ItemsAreSourceArtifacts(t *testing.T) {
	stage := NewScoreStage(nil, scorerCfg())
	items, err := stage.Items(context.Background(), "proj1", nil)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, VolumeArtifact, items[0].Key)
	assert.Equal(t, ExpandArtifact, items[1].Key)
	assert.Equal(t, DomainArtifact, items[2].Key)
}

func TestScoreStage_ProcessReadsArtifact(t *testing.T) {
	st, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	_, err = st.WriteJSON(ctx, "proj1", 1, VolumeArtifact, []model.KeywordRecord{
		{Keyword: "shoes", SearchVolume: i64(100)},
	})
	require.NoError(t, err)

	stage := NewScoreStage(st, scorerCfg())
	records, skipped, err := stage.Process(ctx, "proj1", runner.Item{Key: VolumeArtifact})
	require.NoError(t, err)
	assert.Empty(t, skipped)
	require.Len(t, records, 1)
	assert.Equal(t, "shoes", records[0].Keyword)
}

func TestScoreStage_ProcessAbsentArtifact(t *testing.T) {
	st, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)

	stage := NewScoreStage(st, scorerCfg())
	records, skipped, err := stage.Process(context.Background(), "proj1", runner.Item{Key: ExpandArtifact})
	require.NoError(t, err, "a stage that never ran is not an error")
	assert.Empty(t, records)
	assert.Empty(t, skipped)
}

func TestScoreStage_FinalizeWritesScoredArtifact(t *testing.T) {
	st, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	ds := dataset.NewMergeStore(st, "proj1", 4, MergedArtifact)
	for i := 0; i < 10; i++ {
		ds.Upsert(model.KeywordRecord{
			Keyword:      fmt.Sprintf("kw%02d", i),
			SearchVolume: i64(int64(100 * (i + 1))),
			CPC:          f64(0.3 * float64(i+1)),
			Competition:  f64(float64(i) / 10),
		})
	}

	stage := NewScoreStage(st, scorerCfg())
	require.NoError(t, stage.Finalize(ctx, "proj1", ds))

	var out ScoredOutput
	require.NoError(t, st.ReadJSON(ctx, "proj1", ScoredArtifact, &out))
	require.Len(t, out.Records, 10)
	assert.True(t, out.Stats.Volume.Enabled)
	assert.Equal(t, 10, out.Stats.Scored)
	for _, r := range out.Records {
		assert.NotNil(t, r.AdsScore)
		assert.NotEmpty(t, r.Tier)
	}
}

func TestScoreStage_Metadata(t *testing.T) {
	stage := NewScoreStage(nil, scorerCfg())
	assert.Equal(t, "score", stage.Name())
	assert.Equal(t, 4, stage.Index())
	assert.Equal(t, MergedArtifact, stage.Artifact())
	assert.False(t, stage.Gated(), "merging consumes no provider quota")
}

func TestForName(t *testing.T) {
	deps := Deps{Client: &mockClient{}}
	for _, name := range Names() {
		st, err := ForName(name, deps)
		require.NoError(t, err)
		assert.Equal(t, name, st.Name())
	}

	_, err := ForName("bogus", deps)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bogus")
}
