// Package router turns a market regime into ranked trade candidates:
// playbook lookup, registry-based candidate generation, valuation, and
// weighted composite scoring.
package router

import (
	"math"
	"sync"

	"github.com/aristath/optioneer/internal/domain"
	"github.com/aristath/optioneer/internal/playbook"
)

// StrikeTolerance is the maximum distance between a wanted strike and a
// quoted strike before a candidate is skipped.
const StrikeTolerance = 2.0

// Generator builds structurally valid candidates for one strategy from a
// live chain. Generators skip gracefully when the chain lacks a matching
// strike; they never error.
type Generator interface {
	Name() string
	Generate(chain domain.OptionChain, iv float64, dte int, targetDelta float64) []domain.TradeCandidate
}

// Registry maps strategy names to generators. New strategies register
// without touching the router.
type Registry struct {
	mu         sync.RWMutex
	generators map[string]Generator
}

// NewRegistry returns a registry pre-loaded with the built-in generators.
func NewRegistry() *Registry {
	r := &Registry{generators: make(map[string]Generator)}
	r.Register(ironCondorGenerator{})
	r.Register(bullCallSpreadGenerator{})
	r.Register(bullPutSpreadGenerator{})
	r.Register(cashSecuredPutGenerator{})
	r.Register(coveredCallGenerator{})
	return r
}

// Register adds or replaces a generator under its name.
func (r *Registry) Register(g Generator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.generators[g.Name()] = g
}

// Get returns the generator for a strategy name.
func (r *Registry) Get(name string) (Generator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.generators[name]
	return g, ok
}

// findStrike returns the contract closest to the wanted strike within
// StrikeTolerance, or nil when the chain has a gap there.
func findStrike(contracts []domain.OptionContract, strike float64) *domain.OptionContract {
	var best *domain.OptionContract
	bestDist := StrikeTolerance
	for i := range contracts {
		d := math.Abs(contracts[i].Strike - strike)
		if d < bestDist {
			best = &contracts[i]
			bestDist = d
		}
	}
	return best
}

func legFrom(c domain.OptionContract, isLong bool) domain.OptionLeg {
	return domain.OptionLeg{
		Strike:   c.Strike,
		Type:     c.Type,
		Bid:      c.Bid,
		Ask:      c.Ask,
		IsLong:   isLong,
		Quantity: 1,
	}
}

// ironCondorGenerator builds short put spread + short call spread pairs
// at widths 20/25/30, anchored on ~15-25 delta short strikes.
type ironCondorGenerator struct{}

func (ironCondorGenerator) Name() string { return playbook.StrategyIronCondor }

func (ironCondorGenerator) Generate(chain domain.OptionChain, iv float64, dte int, targetDelta float64) []domain.TradeCandidate {
	puts := chain.Puts()
	calls := chain.Calls()
	if len(puts) < 2 || len(calls) < 2 {
		return nil
	}

	var out []domain.TradeCandidate
	for _, width := range []float64{20, 25, 30} {
		shortPut := firstByDelta(puts, -0.25, -0.15)
		if shortPut == nil {
			continue
		}
		longPut := findStrike(puts, shortPut.Strike-width)
		if longPut == nil {
			continue
		}

		shortCall := firstByDelta(calls, 0.15, 0.25)
		if shortCall == nil {
			continue
		}
		longCall := findStrike(calls, shortCall.Strike+width)
		if longCall == nil {
			continue
		}

		out = append(out, domain.TradeCandidate{
			Structure: "Iron Condor",
			Width:     width,
			Legs: []domain.OptionLeg{
				legFrom(*longPut, true),
				legFrom(*shortPut, false),
				legFrom(*shortCall, false),
				legFrom(*longCall, true),
			},
		})
	}
	return out
}

// bullCallSpreadGenerator pairs a long call with a short call `width`
// points higher, up to 5 candidates per width.
type bullCallSpreadGenerator struct{}

func (bullCallSpreadGenerator) Name() string { return playbook.StrategyBullCallSpread }

func (bullCallSpreadGenerator) Generate(chain domain.OptionChain, iv float64, dte int, targetDelta float64) []domain.TradeCandidate {
	calls := chain.Calls()
	if len(calls) < 2 {
		return nil
	}

	var out []domain.TradeCandidate
	for _, width := range []float64{10, 15, 20, 25} {
		perWidth := 0
		for _, longCall := range calls {
			shortCall := findStrike(calls, longCall.Strike+width)
			if shortCall == nil || shortCall.Strike <= longCall.Strike {
				continue
			}
			out = append(out, domain.TradeCandidate{
				Structure: "Bull Call Spread",
				Width:     width,
				Legs: []domain.OptionLeg{
					legFrom(longCall, true),
					legFrom(*shortCall, false),
				},
			})
			perWidth++
			if perWidth >= 5 {
				break
			}
		}
	}
	return out
}

// bullPutSpreadGenerator pairs a short put with a long put `width` points
// lower, up to 5 candidates per width.
type bullPutSpreadGenerator struct{}

func (bullPutSpreadGenerator) Name() string { return playbook.StrategyBullPutSpread }

func (bullPutSpreadGenerator) Generate(chain domain.OptionChain, iv float64, dte int, targetDelta float64) []domain.TradeCandidate {
	puts := chain.Puts()
	if len(puts) < 2 {
		return nil
	}

	var out []domain.TradeCandidate
	for _, width := range []float64{10, 15, 20, 25} {
		perWidth := 0
		for _, shortPut := range puts {
			longPut := findStrike(puts, shortPut.Strike-width)
			if longPut == nil || longPut.Strike >= shortPut.Strike {
				continue
			}
			out = append(out, domain.TradeCandidate{
				Structure: "Bull Put Spread",
				Width:     width,
				Legs: []domain.OptionLeg{
					legFrom(shortPut, false),
					legFrom(*longPut, true),
				},
			})
			perWidth++
			if perWidth >= 5 {
				break
			}
		}
	}
	return out
}

// cashSecuredPutGenerator selects single OTM short puts in the -0.25 to
// -0.10 delta band.
type cashSecuredPutGenerator struct{}

func (cashSecuredPutGenerator) Name() string { return playbook.StrategyCashSecuredPut }

func (cashSecuredPutGenerator) Generate(chain domain.OptionChain, iv float64, dte int, targetDelta float64) []domain.TradeCandidate {
	var out []domain.TradeCandidate
	for _, put := range chain.Puts() {
		if put.Delta < -0.25 || put.Delta > -0.10 {
			continue
		}
		out = append(out, domain.TradeCandidate{
			Structure: "Cash Secured Put",
			Legs:      []domain.OptionLeg{legFrom(put, false)},
		})
		if len(out) >= 5 {
			break
		}
	}
	return out
}

// coveredCallGenerator selects single OTM short calls in the 0.20 to 0.40
// delta band. Assumes the caller holds 100 shares per contract.
type coveredCallGenerator struct{}

func (coveredCallGenerator) Name() string { return playbook.StrategyCoveredCall }

func (coveredCallGenerator) Generate(chain domain.OptionChain, iv float64, dte int, targetDelta float64) []domain.TradeCandidate {
	var out []domain.TradeCandidate
	for _, call := range chain.Calls() {
		if call.Delta < 0.20 || call.Delta > 0.40 {
			continue
		}
		out = append(out, domain.TradeCandidate{
			Structure: "Covered Call",
			Legs:      []domain.OptionLeg{legFrom(call, false)},
		})
		if len(out) >= 5 {
			break
		}
	}
	return out
}

// firstByDelta returns the first contract whose delta lies in [lo, hi].
func firstByDelta(contracts []domain.OptionContract, lo, hi float64) *domain.OptionContract {
	for i := range contracts {
		if contracts[i].Delta >= lo && contracts[i].Delta <= hi {
			return &contracts[i]
		}
	}
	return nil
}
