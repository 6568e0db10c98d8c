package router

import (
	"fmt"

	"github.com/aristath/optioneer/internal/domain"
	"github.com/aristath/optioneer/internal/playbook"
)

// ============================================================================
// SCORING NORMALIZATION RANGES
// ============================================================================

const (
	evScoreMin = -500.0
	evScoreMax = 500.0

	efficiencyScoreMin = 0.0
	efficiencyScoreMax = 1.0

	liquidityScoreMin = 0.0
	liquidityScoreMax = 1.0

	// Risk fit is a coarse tier placeholder, not a full risk model.
	riskFitBeginner = 50.0
	riskFitDefault  = 75.0
)

// Normalize maps a value from [min, max] onto a 0-100 score, clamping at
// the edges. A degenerate range scores 50.
func Normalize(value, min, max float64) float64 {
	if max == min {
		return 50.0
	}
	n := (value - min) / (max - min)
	if n < 0 {
		n = 0
	}
	if n > 1 {
		n = 1
	}
	return n * 100
}

// riskFit returns the tier score for a strategy's complexity.
func riskFit(complexity string) float64 {
	if complexity == "beginner" {
		return riskFitBeginner
	}
	return riskFitDefault
}

// scoreCandidate attaches sub-scores, the weighted composite, and the
// one-line rationale to a valued candidate.
func scoreCandidate(c *domain.TradeCandidate, w playbook.Weights) {
	v := c.Valuation

	c.Scores = domain.ScoreBreakdown{
		EV:         Normalize(v.ExpectedValue, evScoreMin, evScoreMax),
		Efficiency: Normalize(v.Efficiency, efficiencyScoreMin, efficiencyScoreMax),
		RiskFit:    riskFit(c.Complexity),
		Liquidity:  Normalize(v.LiquidityScore, liquidityScoreMin, liquidityScoreMax),
	}

	c.Composite = w.EV*c.Scores.EV +
		w.Efficiency*c.Scores.Efficiency +
		w.RiskFit*c.Scores.RiskFit +
		w.Liquidity*c.Scores.Liquidity

	c.Rationale = fmt.Sprintf("%s • EV:$%.0f • Eff:%.2f • PoP:%.0f%%",
		c.Strategy, v.ExpectedValue, v.Efficiency, v.ProbabilityOfProfit*100)
}
