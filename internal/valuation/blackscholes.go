// Package valuation implements the Black-Scholes pricing layer: per-option
// Greeks and probabilities, and spread-level aggregation (expected value,
// max profit/loss, efficiency, liquidity).
package valuation

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/aristath/optioneer/internal/domain"
)

// DefaultRiskFreeRate is the annualized rate used when none is configured.
const DefaultRiskFreeRate = 0.045

var stdNormal = distuv.Normal{Mu: 0, Sigma: 1}

// OptionValue is the Black-Scholes output for one option.
// Theta is per calendar day; Vega is per percentage point of IV.
type OptionValue struct {
	Price   float64
	Greeks  domain.Greeks
	ProbITM float64
}

// Value computes the Black-Scholes price, Greeks, and probability of
// finishing in-the-money for a single option. At or past expiration, or
// with zero volatility, the output degrades to the intrinsic-value limit
// so no denominator ever sees a zero sigma*sqrt(T).
func Value(optType domain.OptionType, spot, strike, iv float64, dte int, riskFree float64) OptionValue {
	if dte <= 0 || iv <= 0 || spot <= 0 || strike <= 0 {
		return intrinsicLimit(optType, spot, strike)
	}

	t := float64(dte) / 365.0
	sqrtT := math.Sqrt(t)
	sigmaRootT := iv * sqrtT
	discount := math.Exp(-riskFree * t)

	d1 := (math.Log(spot/strike) + (riskFree+iv*iv/2)*t) / sigmaRootT
	d2 := d1 - sigmaRootT

	nd1 := stdNormal.CDF(d1)
	nd2 := stdNormal.CDF(d2)
	pdf1 := stdNormal.Prob(d1)

	v := OptionValue{}
	v.Greeks.Gamma = pdf1 / (spot * sigmaRootT)
	v.Greeks.Vega = spot * pdf1 * sqrtT / 100

	if optType == domain.OptionTypeCall {
		v.Price = spot*nd1 - strike*discount*nd2
		v.Greeks.Delta = discount * nd1
		v.Greeks.Theta = (-spot*pdf1*iv/(2*sqrtT) - riskFree*strike*discount*nd2) / 365
		v.Greeks.Rho = strike * t * discount * nd2 / 100
		v.ProbITM = nd2
	} else {
		v.Price = strike*discount*(1-nd2) - spot*(1-nd1)
		v.Greeks.Delta = -discount * (1 - nd1)
		v.Greeks.Theta = (-spot*pdf1*iv/(2*sqrtT) + riskFree*strike*discount*(1-nd2)) / 365
		v.Greeks.Rho = -strike * t * discount * (1 - nd2) / 100
		v.ProbITM = 1 - nd2
	}

	return v
}

// ProbabilityOfProfit returns the per-leg profit probability. Calls: long
// profits ITM, short profits OTM. Puts carry the mirrored convention: a
// long put's PoP is the OTM-complement (1 - probability the put expires
// ITM) and a short put's PoP is the put's ITM probability itself.
func ProbabilityOfProfit(optType domain.OptionType, spot, strike, iv float64, dte int, riskFree float64, isLong bool) float64 {
	itm := Value(optType, spot, strike, iv, dte, riskFree).ProbITM
	if optType == domain.OptionTypeCall {
		if isLong {
			return itm
		}
		return 1 - itm
	}
	if isLong {
		return 1 - itm
	}
	return itm
}

// intrinsicLimit is the degenerate branch: delta pins to +/-1 or 0 by
// moneyness, every other Greek is zero, price is intrinsic value.
func intrinsicLimit(optType domain.OptionType, spot, strike float64) OptionValue {
	v := OptionValue{}
	if optType == domain.OptionTypeCall {
		if spot > strike {
			v.Price = spot - strike
			v.Greeks.Delta = 1
			v.ProbITM = 1
		}
	} else {
		if spot < strike {
			v.Price = strike - spot
			v.Greeks.Delta = -1
			v.ProbITM = 1
		}
	}
	return v
}
