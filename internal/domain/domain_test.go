package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegime_DescriptionAndValidity(t *testing.T) {
	for _, r := range AllRegimes {
		assert.True(t, r.Valid(), string(r))
		assert.NotEmpty(t, r.Description(), string(r))
	}

	unknown := Regime("SIDEWAYS_CHOP")
	assert.False(t, unknown.Valid())
	assert.Equal(t, RegimeNeutral.Description(), unknown.Description())
}

func TestOptionChain_Filters(t *testing.T) {
	chain := OptionChain{
		Contracts: []OptionContract{
			{Strike: 95, Type: OptionTypePut},
			{Strike: 105, Type: OptionTypeCall},
			{Strike: 90, Type: OptionTypePut},
		},
	}

	puts := chain.Puts()
	assert.Len(t, puts, 2)
	// Chain order preserved
	assert.Equal(t, 95.0, puts[0].Strike)
	assert.Equal(t, 90.0, puts[1].Strike)

	calls := chain.Calls()
	assert.Len(t, calls, 1)
	assert.Equal(t, 105.0, calls[0].Strike)
}

func TestGreeks_Arithmetic(t *testing.T) {
	a := Greeks{Delta: 0.5, Gamma: 0.02, Theta: -0.04, Vega: 0.11, Rho: 0.03}
	b := Greeks{Delta: -0.2, Gamma: 0.01, Theta: -0.02, Vega: 0.05, Rho: 0.01}

	sum := a.Add(b)
	assert.InDelta(t, 0.3, sum.Delta, 1e-12)
	assert.InDelta(t, 0.03, sum.Gamma, 1e-12)
	assert.InDelta(t, -0.06, sum.Theta, 1e-12)

	neg := a.Scale(-1)
	assert.InDelta(t, -0.5, neg.Delta, 1e-12)
	assert.InDelta(t, 0.04, neg.Theta, 1e-12)
}

func TestMid(t *testing.T) {
	assert.Equal(t, 2.0, OptionContract{Bid: 1.9, Ask: 2.1}.Mid())
	assert.Equal(t, 2.0, OptionLeg{Bid: 1.9, Ask: 2.1}.Mid())
}

func TestDomainErrors(t *testing.T) {
	var dqe *DataQualityError
	err := error(&DataQualityError{Reason: "too few bars"})
	assert.True(t, errors.As(err, &dqe))
	assert.Contains(t, err.Error(), "too few bars")

	var ce *ConfigurationError
	err = error(&ConfigurationError{Key: "regimes", Reason: "missing"})
	assert.True(t, errors.As(err, &ce))
	assert.Contains(t, err.Error(), "regimes")
}
