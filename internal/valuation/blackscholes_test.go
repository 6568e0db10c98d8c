package valuation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/optioneer/internal/domain"
)

func TestValue_PutCallDeltaParity(t *testing.T) {
	// For a call and put sharing strike/expiry/vol:
	// call_delta - put_delta == e^(-rT)
	cases := []struct {
		name   string
		spot   float64
		strike float64
		iv     float64
		dte    int
	}{
		{"atm", 100, 100, 0.25, 30},
		{"itm_call", 110, 100, 0.25, 30},
		{"otm_call", 90, 100, 0.40, 60},
		{"long_dated", 100, 105, 0.20, 365},
		{"short_dated", 100, 95, 0.55, 3},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			call := Value(domain.OptionTypeCall, tc.spot, tc.strike, tc.iv, tc.dte, DefaultRiskFreeRate)
			put := Value(domain.OptionTypePut, tc.spot, tc.strike, tc.iv, tc.dte, DefaultRiskFreeRate)

			expected := math.Exp(-DefaultRiskFreeRate * float64(tc.dte) / 365.0)
			assert.InDelta(t, expected, call.Greeks.Delta-put.Greeks.Delta, 1e-6)
		})
	}
}

func TestValue_ProbabilityBounds(t *testing.T) {
	spots := []float64{50, 100, 250}
	strikes := []float64{40, 100, 300}
	ivs := []float64{0.05, 0.25, 0.90}
	dtes := []int{1, 30, 365}

	for _, s := range spots {
		for _, k := range strikes {
			for _, iv := range ivs {
				for _, dte := range dtes {
					for _, typ := range []domain.OptionType{domain.OptionTypeCall, domain.OptionTypePut} {
						v := Value(typ, s, k, iv, dte, DefaultRiskFreeRate)
						assert.GreaterOrEqual(t, v.ProbITM, 0.0)
						assert.LessOrEqual(t, v.ProbITM, 1.0)

						for _, long := range []bool{true, false} {
							pop := ProbabilityOfProfit(typ, s, k, iv, dte, DefaultRiskFreeRate, long)
							assert.GreaterOrEqual(t, pop, 0.0)
							assert.LessOrEqual(t, pop, 1.0)
						}
					}
				}
			}
		}
	}
}

func TestProbabilityOfProfit_LegConventions(t *testing.T) {
	// OTM put at 92, spot 100, 30 DTE, 25% IV: ITM probability ~0.1192.
	// The long put takes the OTM-complement, the short put takes the ITM
	// probability itself.
	longPut := ProbabilityOfProfit(domain.OptionTypePut, 100, 92, 0.25, 30, DefaultRiskFreeRate, true)
	shortPut := ProbabilityOfProfit(domain.OptionTypePut, 100, 92, 0.25, 30, DefaultRiskFreeRate, false)
	assert.InDelta(t, 0.8808, longPut, 5e-4)
	assert.InDelta(t, 0.1192, shortPut, 5e-4)
	assert.InDelta(t, 1.0, longPut+shortPut, 1e-9)

	// Calls keep the direct convention: long profits ITM, short profits OTM
	itm := Value(domain.OptionTypeCall, 100, 105, 0.25, 30, DefaultRiskFreeRate).ProbITM
	assert.InDelta(t, itm, ProbabilityOfProfit(domain.OptionTypeCall, 100, 105, 0.25, 30, DefaultRiskFreeRate, true), 1e-12)
	assert.InDelta(t, 1-itm, ProbabilityOfProfit(domain.OptionTypeCall, 100, 105, 0.25, 30, DefaultRiskFreeRate, false), 1e-12)
}

func TestValue_ITMComplement(t *testing.T) {
	// Call and put at the same strike cover the whole outcome space
	call := Value(domain.OptionTypeCall, 100, 105, 0.30, 45, DefaultRiskFreeRate)
	put := Value(domain.OptionTypePut, 100, 105, 0.30, 45, DefaultRiskFreeRate)
	assert.InDelta(t, 1.0, call.ProbITM+put.ProbITM, 1e-9)
}

func TestValue_ExpiredDegradesToIntrinsic(t *testing.T) {
	t.Run("itm call", func(t *testing.T) {
		v := Value(domain.OptionTypeCall, 110, 100, 0.25, 0, DefaultRiskFreeRate)
		assert.Equal(t, 1.0, v.Greeks.Delta)
		assert.Equal(t, 10.0, v.Price)
		assert.Zero(t, v.Greeks.Gamma)
		assert.Zero(t, v.Greeks.Theta)
		assert.Zero(t, v.Greeks.Vega)
		assert.Equal(t, 1.0, v.ProbITM)
	})

	t.Run("otm call", func(t *testing.T) {
		v := Value(domain.OptionTypeCall, 90, 100, 0.25, 0, DefaultRiskFreeRate)
		assert.Zero(t, v.Greeks.Delta)
		assert.Zero(t, v.Price)
		assert.Zero(t, v.ProbITM)
	})

	t.Run("itm put", func(t *testing.T) {
		v := Value(domain.OptionTypePut, 90, 100, 0.25, -5, DefaultRiskFreeRate)
		assert.Equal(t, -1.0, v.Greeks.Delta)
		assert.Equal(t, 10.0, v.Price)
		assert.Equal(t, 1.0, v.ProbITM)
	})
}

func TestValue_ZeroVolatilityNeverDivides(t *testing.T) {
	v := Value(domain.OptionTypeCall, 110, 100, 0, 30, DefaultRiskFreeRate)
	require.False(t, math.IsNaN(v.Price))
	assert.Equal(t, 10.0, v.Price)
	assert.Equal(t, 1.0, v.Greeks.Delta)
}

func TestValue_LongCallThetaNegative(t *testing.T) {
	v := Value(domain.OptionTypeCall, 100, 100, 0.25, 30, DefaultRiskFreeRate)
	assert.Negative(t, v.Greeks.Theta)
	assert.Positive(t, v.Greeks.Vega)
	assert.Positive(t, v.Greeks.Gamma)
}
