// Package repair monitors open positions for delta drift and unrealized
// loss, and proposes defensive credit-spread adjustments with priority
// tiers. Plans are proposals only; execution stays with the caller.
package repair

import "github.com/aristath/optioneer/internal/domain"

// CreditEstimator prices the credit a repair structure is expected to
// collect. The default is a documented approximation; a Greeks-based
// repricer can replace it without touching the engine.
type CreditEstimator interface {
	Estimate(pos domain.Position, unrealizedLoss float64) float64
}

// ClampedEstimator estimates the repair credit as a fraction of the
// current unrealized loss, clamped to a dollar band. Approximate pending
// real pricing of the hedge legs.
type ClampedEstimator struct {
	Fraction float64
	Min      float64
	Max      float64
}

// DefaultEstimator returns the production heuristic: 30% of the loss,
// clamped to [$50, $500].
func DefaultEstimator() ClampedEstimator {
	return ClampedEstimator{Fraction: 0.30, Min: 50, Max: 500}
}

// Estimate implements CreditEstimator.
func (c ClampedEstimator) Estimate(_ domain.Position, unrealizedLoss float64) float64 {
	credit := unrealizedLoss * c.Fraction
	if credit < c.Min {
		credit = c.Min
	}
	if credit > c.Max {
		credit = c.Max
	}
	return credit
}
