package valuation

import (
	"math"
	"sort"

	"github.com/aristath/optioneer/internal/domain"
)

// ContractMultiplier converts per-share values to per-contract dollars.
const ContractMultiplier = 100

// Engine values multi-leg structures against a fixed risk-free rate.
type Engine struct {
	RiskFree float64
}

// NewEngine creates a valuation engine. A zero rate falls back to the
// default 4.5%.
func NewEngine(riskFree float64) *Engine {
	if riskFree == 0 {
		riskFree = DefaultRiskFreeRate
	}
	return &Engine{RiskFree: riskFree}
}

// ValueSpread aggregates a multi-leg structure: signed Greeks summation
// (short legs negate), entry cost from midpoints, expiry payoff extremes,
// expected value, efficiency, and a liquidity score.
//
// Max profit/loss come from evaluating the expiry payoff at zero, at every
// strike, and at twice the highest strike. For structures with unbounded
// tails the far point bounds the reported extreme.
//
// Zero or negative iv is not substituted; each leg degrades to its
// intrinsic-value limit inside Value.
func (e *Engine) ValueSpread(legs []domain.OptionLeg, spot, iv float64, dte int) domain.SpreadValuation {
	out := domain.SpreadValuation{}
	if len(legs) == 0 {
		return out
	}

	popSum := 0.0
	liqSum := 0.0
	entryPerShare := 0.0

	for _, leg := range legs {
		qty := float64(leg.Quantity)
		if qty == 0 {
			qty = 1
		}
		sign := 1.0
		if !leg.IsLong {
			sign = -1.0
		}

		v := Value(leg.Type, spot, leg.Strike, iv, dte, e.RiskFree)
		out.Greeks = out.Greeks.Add(v.Greeks.Scale(sign * qty))

		entryPerShare += sign * leg.Mid() * qty
		popSum += ProbabilityOfProfit(leg.Type, spot, leg.Strike, iv, dte, e.RiskFree, leg.IsLong)
		liqSum += legLiquidity(leg)
	}

	n := float64(len(legs))
	avgPoP := popSum / n
	out.ProbabilityOfProfit = avgPoP
	out.LiquidityScore = liqSum / n
	out.EntryCost = entryPerShare * ContractMultiplier

	maxProfit, maxLoss := payoffExtremes(legs, entryPerShare)
	out.MaxProfit = maxProfit
	out.MaxLoss = maxLoss

	out.ExpectedValue = avgPoP*out.MaxProfit - (1-avgPoP)*out.MaxLoss
	if out.MaxLoss != 0 {
		out.Efficiency = out.ExpectedValue / out.MaxLoss
	}

	return out
}

// payoffExtremes evaluates the expiry P&L at each breakpoint of the
// piecewise-linear payoff and returns (maxProfit, maxLoss), both as
// non-negative dollar amounts per contract.
func payoffExtremes(legs []domain.OptionLeg, entryPerShare float64) (float64, float64) {
	points := []float64{0}
	maxStrike := 0.0
	for _, leg := range legs {
		points = append(points, leg.Strike)
		if leg.Strike > maxStrike {
			maxStrike = leg.Strike
		}
	}
	points = append(points, 2*maxStrike)
	sort.Float64s(points)

	best := math.Inf(-1)
	worst := math.Inf(1)
	for _, s := range points {
		p := payoffAt(legs, s) - entryPerShare
		if p > best {
			best = p
		}
		if p < worst {
			worst = p
		}
	}

	maxProfit := best * ContractMultiplier
	maxLoss := -worst * ContractMultiplier
	if maxProfit < 0 {
		maxProfit = 0
	}
	if maxLoss < 0 {
		maxLoss = 0
	}
	return maxProfit, maxLoss
}

// payoffAt returns the per-share intrinsic payoff of the structure at
// expiry spot s (entry cost excluded).
func payoffAt(legs []domain.OptionLeg, s float64) float64 {
	total := 0.0
	for _, leg := range legs {
		qty := float64(leg.Quantity)
		if qty == 0 {
			qty = 1
		}
		intrinsic := 0.0
		if leg.Type == domain.OptionTypeCall {
			intrinsic = math.Max(0, s-leg.Strike)
		} else {
			intrinsic = math.Max(0, leg.Strike-s)
		}
		if leg.IsLong {
			total += intrinsic * qty
		} else {
			total -= intrinsic * qty
		}
	}
	return total
}

// legLiquidity scores one leg's quoted spread: 1/(1 + spread% * 100),
// so a zero-width market scores 1.0 and a 10% spread scores ~0.09.
func legLiquidity(leg domain.OptionLeg) float64 {
	mid := leg.Mid()
	if mid <= 0 {
		return 0
	}
	spreadPct := (leg.Ask - leg.Bid) / mid
	if spreadPct < 0 {
		spreadPct = 0
	}
	return 1 / (1 + spreadPct*100)
}
