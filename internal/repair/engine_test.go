package repair

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/optioneer/internal/domain"
)

func position(id string, delta, pnl float64) domain.Position {
	return domain.Position{
		ID:            id,
		Symbol:        "XYZ",
		Strategy:      "BULL_PUT_SPREAD",
		Delta:         delta,
		MaxLoss:       2000,
		UnrealizedPnL: pnl,
		OpenedAt:      time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestCheck_TriggersOnBothConditions(t *testing.T) {
	e := NewEngine(DefaultConfig(), nil, zerolog.Nop())

	// Delta 0.32 drifted, $18k loss against $100k equity
	plan := e.Check(position("pos-1", 0.32, -18_000), 100_000)
	require.NotNil(t, plan)

	assert.InDelta(t, 0.32, plan.DeltaDrift, 1e-9)
	assert.InDelta(t, 0.18, plan.LossRatio, 1e-9)

	// 0.6*0.32 + 0.4*0.18
	assert.InDelta(t, 0.264, plan.PriorityScore, 1e-9)
	assert.Equal(t, domain.PriorityMedium, plan.Priority)

	// 30% of the loss, clamped to the ceiling
	assert.Equal(t, 500.0, plan.RepairCredit)
	assert.Equal(t, 1500.0, plan.NewMaxLoss)

	// Positive drift hedges with calls
	assert.Equal(t, "Bear Call Spread", plan.HedgeStructure)
	assert.Equal(t, domain.RepairProposed, plan.Status)
	assert.NotEmpty(t, plan.ID)
}

func TestCheck_NegativeDeltaHedgesWithPuts(t *testing.T) {
	e := NewEngine(DefaultConfig(), nil, zerolog.Nop())

	plan := e.Check(position("pos-1", -0.45, -30_000), 100_000)
	require.NotNil(t, plan)
	assert.Equal(t, "Bull Put Spread", plan.HedgeStructure)
	assert.Equal(t, domain.PriorityHigh, plan.Priority)
}

func TestCheck_SingleConditionDoesNotTrigger(t *testing.T) {
	e := NewEngine(DefaultConfig(), nil, zerolog.Nop())

	t.Run("drift without pain", func(t *testing.T) {
		assert.Nil(t, e.Check(position("pos-1", 0.50, -2_000), 100_000))
	})

	t.Run("pain without drift", func(t *testing.T) {
		assert.Nil(t, e.Check(position("pos-1", 0.05, -40_000), 100_000))
	})

	t.Run("profitable position", func(t *testing.T) {
		assert.Nil(t, e.Check(position("pos-1", 0.50, 5_000), 100_000))
	})

	t.Run("thresholds are inclusive", func(t *testing.T) {
		plan := e.Check(position("pos-1", 0.25, -10_000), 100_000)
		assert.NotNil(t, plan)
	})
}

func TestCheck_CreditClamping(t *testing.T) {
	e := NewEngine(DefaultConfig(), nil, zerolog.Nop())

	t.Run("small loss clamps to floor", func(t *testing.T) {
		// 30% of a $100 loss is $30, below the $50 floor
		plan := e.Check(position("pos-1", 0.30, -100), 1_000)
		require.NotNil(t, plan)
		assert.Equal(t, 50.0, plan.RepairCredit)
	})

	t.Run("mid loss passes through", func(t *testing.T) {
		plan := e.Check(position("pos-1", 0.30, -1_000), 5_000)
		require.NotNil(t, plan)
		assert.Equal(t, 300.0, plan.RepairCredit)
	})
}

func TestCheckAll_SortsMostUrgentFirst(t *testing.T) {
	e := NewEngine(DefaultConfig(), nil, zerolog.Nop())

	positions := []domain.Position{
		position("medium", 0.30, -12_000),
		position("healthy", 0.05, 1_000),
		position("critical", 0.80, -35_000),
		position("high", 0.40, -20_000),
	}

	plans := e.CheckAll(positions, 100_000)
	require.Len(t, plans, 3)

	assert.Equal(t, "critical", plans[0].PositionID)
	assert.Equal(t, domain.PriorityCritical, plans[0].Priority)
	assert.Equal(t, "high", plans[1].PositionID)
	assert.Equal(t, "medium", plans[2].PositionID)
}

func TestAcceptReject_Lifecycle(t *testing.T) {
	e := NewEngine(DefaultConfig(), nil, zerolog.Nop())

	t.Run("accept requires order ref", func(t *testing.T) {
		plan := e.Check(position("pos-1", 0.32, -18_000), 100_000)
		require.NotNil(t, plan)

		require.Error(t, Accept(plan, ""))
		assert.Equal(t, domain.RepairProposed, plan.Status)

		require.NoError(t, Accept(plan, "ORD-123"))
		assert.Equal(t, domain.RepairAccepted, plan.Status)
		assert.Equal(t, "ORD-123", plan.OrderRef)

		// Terminal: no further transitions
		assert.Error(t, Accept(plan, "ORD-456"))
		assert.Error(t, Reject(plan, "changed my mind"))
	})

	t.Run("reject requires reason", func(t *testing.T) {
		plan := e.Check(position("pos-1", 0.32, -18_000), 100_000)
		require.NotNil(t, plan)

		require.Error(t, Reject(plan, ""))
		require.NoError(t, Reject(plan, "spread too wide"))
		assert.Equal(t, domain.RepairRejected, plan.Status)
		assert.Equal(t, "spread too wide", plan.RejectReason)

		assert.Error(t, Accept(plan, "ORD-123"))
	})
}

func TestTierBoundaries(t *testing.T) {
	assert.Equal(t, domain.PriorityLow, tier(0.20))
	assert.Equal(t, domain.PriorityMedium, tier(0.21))
	assert.Equal(t, domain.PriorityMedium, tier(0.30))
	assert.Equal(t, domain.PriorityHigh, tier(0.31))
	assert.Equal(t, domain.PriorityHigh, tier(0.40))
	assert.Equal(t, domain.PriorityCritical, tier(0.41))
}
