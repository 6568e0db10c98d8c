package snapshots

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/optioneer/internal/database"
	"github.com/aristath/optioneer/internal/domain"
	"github.com/aristath/optioneer/internal/regime"
)

func testRepository(t *testing.T) *Repository {
	t.Helper()

	db, err := database.New(database.Config{
		Path:    filepath.Join(t.TempDir(), "snapshots.db"),
		Profile: database.ProfileLedger,
		Name:    "snapshots",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.Migrate())
	return NewRepository(db, zerolog.Nop())
}

func TestRecordRegime_RoundTrip(t *testing.T) {
	repo := testRepository(t)
	ctx := context.Background()

	results := []regime.EnsembleResult{
		{
			Regime:     domain.RegimeNeutral,
			RuleRegime: domain.RegimeNeutral,
			Method:     regime.MethodRuleOnly,
		},
		{
			Regime:        domain.RegimeTrendUp,
			RuleRegime:    domain.RegimeNeutral,
			HMMRegime:     domain.RegimeTrendUp,
			HMMConfidence: 0.84,
			Method:        regime.MethodHMMConfident,
			IsShift:       true,
		},
	}
	for _, res := range results {
		require.NoError(t, repo.RecordRegime(ctx, "SPY", res))
	}
	require.NoError(t, repo.RecordRegime(ctx, "QQQ", regime.EnsembleResult{
		Regime:     domain.RegimeNeutral,
		RuleRegime: domain.RegimeNeutral,
		Method:     regime.MethodRuleOnly,
		Fallback:   true,
	}))

	got, err := repo.RecentRegimes(ctx, "SPY", 10)
	require.NoError(t, err)
	require.Len(t, got, 2)

	// Newest first
	assert.Equal(t, domain.RegimeTrendUp, got[0].FinalRegime)
	assert.Equal(t, regime.MethodHMMConfident, got[0].Method)
	assert.True(t, got[0].IsShift)
	assert.InDelta(t, 0.84, got[0].HMMConfidence, 1e-9)

	assert.Equal(t, domain.RegimeNeutral, got[1].FinalRegime)
	assert.False(t, got[1].IsShift)

	qqq, err := repo.RecentRegimes(ctx, "QQQ", 10)
	require.NoError(t, err)
	require.Len(t, qqq, 1)
	assert.True(t, qqq[0].Fallback)
}

func TestRecentRegimes_Limit(t *testing.T) {
	repo := testRepository(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.RecordRegime(ctx, "SPY", regime.EnsembleResult{
			Regime:     domain.RegimeNeutral,
			RuleRegime: domain.RegimeNeutral,
			Method:     regime.MethodRuleOnly,
		}))
	}

	got, err := repo.RecentRegimes(ctx, "SPY", 3)
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestRecordRepair_LifecycleTrail(t *testing.T) {
	repo := testRepository(t)
	ctx := context.Background()

	plan := domain.RepairPlan{
		ID:             "plan-1",
		PositionID:     "pos-1",
		Symbol:         "SPY",
		DeltaDrift:     0.32,
		LossRatio:      0.18,
		HedgeStructure: "Bear Call Spread",
		RepairCredit:   500,
		NewMaxLoss:     1500,
		PriorityScore:  0.264,
		Priority:       domain.PriorityMedium,
		Status:         domain.RepairProposed,
	}
	require.NoError(t, repo.RecordRepair(ctx, plan))

	plan.Status = domain.RepairAccepted
	plan.OrderRef = "ORD-9"
	require.NoError(t, repo.RecordRepair(ctx, plan))

	history, err := repo.RepairHistory(ctx, "plan-1")
	require.NoError(t, err)
	require.Len(t, history, 2)

	// Oldest first: proposal then acceptance
	assert.Equal(t, domain.RepairProposed, history[0].Status)
	assert.Empty(t, history[0].OrderRef)
	assert.Equal(t, domain.RepairAccepted, history[1].Status)
	assert.Equal(t, "ORD-9", history[1].OrderRef)

	assert.InDelta(t, 0.32, history[0].DeltaDrift, 1e-9)
	assert.Equal(t, domain.PriorityMedium, history[0].Priority)

	none, err := repo.RepairHistory(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, none)
}
