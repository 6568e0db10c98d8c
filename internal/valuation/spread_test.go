package valuation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/optioneer/internal/domain"
)

func TestValueSpread_BullCallSpread(t *testing.T) {
	engine := NewEngine(0)

	legs := []domain.OptionLeg{
		{Strike: 100, Type: domain.OptionTypeCall, Bid: 2.9, Ask: 3.1, IsLong: true, Quantity: 1},
		{Strike: 110, Type: domain.OptionTypeCall, Bid: 0.9, Ask: 1.1, IsLong: false, Quantity: 1},
	}

	v := engine.ValueSpread(legs, 100, 0.25, 30)

	// Paid 3.00, collected 1.00
	assert.InDelta(t, 200.0, v.EntryCost, 1e-9)

	// Width 10 minus 2.00 debit caps the profit, debit caps the loss
	assert.InDelta(t, 800.0, v.MaxProfit, 1e-9)
	assert.InDelta(t, 200.0, v.MaxLoss, 1e-9)

	assert.Positive(t, v.Greeks.Delta)
	assert.GreaterOrEqual(t, v.ProbabilityOfProfit, 0.0)
	assert.LessOrEqual(t, v.ProbabilityOfProfit, 1.0)

	expectedEV := v.ProbabilityOfProfit*800 - (1-v.ProbabilityOfProfit)*200
	assert.InDelta(t, expectedEV, v.ExpectedValue, 1e-9)
	assert.InDelta(t, expectedEV/200, v.Efficiency, 1e-9)
}

func TestValueSpread_IronCondorExtremes(t *testing.T) {
	engine := NewEngine(DefaultRiskFreeRate)

	legs := []domain.OptionLeg{
		{Strike: 72, Type: domain.OptionTypePut, Bid: 0.45, Ask: 0.55, IsLong: true, Quantity: 1},
		{Strike: 92, Type: domain.OptionTypePut, Bid: 1.95, Ask: 2.05, IsLong: false, Quantity: 1},
		{Strike: 105, Type: domain.OptionTypeCall, Bid: 1.95, Ask: 2.05, IsLong: false, Quantity: 1},
		{Strike: 125, Type: domain.OptionTypeCall, Bid: 0.45, Ask: 0.55, IsLong: true, Quantity: 1},
	}

	v := engine.ValueSpread(legs, 100, 0.25, 30)

	// Net credit of 3.00
	assert.InDelta(t, -300.0, v.EntryCost, 1e-9)
	assert.InDelta(t, 300.0, v.MaxProfit, 1e-9)

	// Worst case: pinned through a 20-wide wing, less the credit
	assert.InDelta(t, 1700.0, v.MaxLoss, 1e-9)

	// Averaged per-leg PoP: the deep long put contributes ~1.0, the long
	// call ~0.0, the short put ~0.12, the short call ~0.75
	assert.InDelta(t, 0.4668, v.ProbabilityOfProfit, 5e-4)
	assert.InDelta(t, v.ProbabilityOfProfit*300-(1-v.ProbabilityOfProfit)*1700, v.ExpectedValue, 1e-9)
}

func TestValueSpread_ZeroMaxLossZeroEfficiency(t *testing.T) {
	engine := NewEngine(0)

	// A free long call cannot lose; efficiency must not divide by zero
	legs := []domain.OptionLeg{
		{Strike: 100, Type: domain.OptionTypeCall, Bid: 0, Ask: 0, IsLong: true, Quantity: 1},
	}

	v := engine.ValueSpread(legs, 100, 0.25, 30)
	assert.Zero(t, v.MaxLoss)
	assert.Zero(t, v.Efficiency)
}

func TestValueSpread_LiquidityScoring(t *testing.T) {
	engine := NewEngine(0)

	t.Run("tight market scores high", func(t *testing.T) {
		legs := []domain.OptionLeg{
			{Strike: 100, Type: domain.OptionTypeCall, Bid: 2.0, Ask: 2.0, IsLong: true, Quantity: 1},
		}
		v := engine.ValueSpread(legs, 100, 0.25, 30)
		assert.InDelta(t, 1.0, v.LiquidityScore, 1e-9)
	})

	t.Run("ten percent spread scores low", func(t *testing.T) {
		legs := []domain.OptionLeg{
			{Strike: 100, Type: domain.OptionTypeCall, Bid: 1.9, Ask: 2.1, IsLong: true, Quantity: 1},
		}
		v := engine.ValueSpread(legs, 100, 0.25, 30)
		assert.InDelta(t, 1.0/11.0, v.LiquidityScore, 1e-9)
	})

	t.Run("zero mid scores zero", func(t *testing.T) {
		legs := []domain.OptionLeg{
			{Strike: 100, Type: domain.OptionTypeCall, Bid: 0, Ask: 0, IsLong: true, Quantity: 1},
		}
		v := engine.ValueSpread(legs, 100, 0.25, 30)
		assert.Zero(t, v.LiquidityScore)
	})
}

func TestValueSpread_EmptyLegs(t *testing.T) {
	engine := NewEngine(0)
	v := engine.ValueSpread(nil, 100, 0.25, 30)
	require.Equal(t, domain.SpreadValuation{}, v)
}

func TestValueSpread_ZeroVolCollapsesToIntrinsic(t *testing.T) {
	engine := NewEngine(0)

	t.Run("itm long call is a certain win", func(t *testing.T) {
		legs := []domain.OptionLeg{
			{Strike: 90, Type: domain.OptionTypeCall, Bid: 9.9, Ask: 10.1, IsLong: true, Quantity: 1},
		}
		v := engine.ValueSpread(legs, 100, 0, 30)
		assert.Equal(t, 1.0, v.ProbabilityOfProfit)
		assert.Equal(t, 1.0, v.Greeks.Delta)
	})

	t.Run("otm long call is a certain loss", func(t *testing.T) {
		legs := []domain.OptionLeg{
			{Strike: 110, Type: domain.OptionTypeCall, Bid: 0.9, Ask: 1.1, IsLong: true, Quantity: 1},
		}
		v := engine.ValueSpread(legs, 100, 0, 30)
		assert.Zero(t, v.ProbabilityOfProfit)
		assert.Zero(t, v.Greeks.Delta)
	})
}
