package router

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aristath/optioneer/internal/domain"
	"github.com/aristath/optioneer/internal/playbook"
	"github.com/aristath/optioneer/internal/valuation"
)

// TopN is how many ranked candidates a route returns.
const TopN = 3

// Router routes a market regime to its best executable trades.
type Router struct {
	playbook *playbook.Playbook
	valuer   *valuation.Engine
	registry *Registry
	log      zerolog.Logger
}

// New creates a router with the built-in generator registry.
func New(pb *playbook.Playbook, valuer *valuation.Engine, log zerolog.Logger) *Router {
	return &Router{
		playbook: pb,
		valuer:   valuer,
		registry: NewRegistry(),
		log:      log.With().Str("component", "strategy_router").Logger(),
	}
}

// Registry exposes the generator registry so callers can register custom
// strategies.
func (r *Router) Registry() *Registry {
	return r.registry
}

// RouteResult is the full routing output for one symbol/regime.
type RouteResult struct {
	Symbol         string                  `json:"symbol"`
	Regime         domain.Regime           `json:"regime"`
	Description    string                  `json:"regime_description"`
	Timestamp      time.Time               `json:"timestamp"`
	IV             float64                 `json:"iv"`
	Spot           float64                 `json:"spot"`
	DTE            int                     `json:"dte"`
	Top            []domain.TradeCandidate `json:"top_strategies"`
	CandidateCount int                     `json:"candidate_count"`
	Weights        playbook.Weights        `json:"scoring_weights"`
	Reason         string                  `json:"reason,omitempty"`
}

// Route generates, values, scores, and ranks candidates for the regime.
// An empty eligible list or a chain yielding no candidates returns an
// explicit empty result with a reason, never a fabricated trade. Unknown
// regime or strategy keys surface as configuration errors.
func (r *Router) Route(regime domain.Regime, chain domain.OptionChain) (RouteResult, error) {
	out := RouteResult{
		Symbol:    chain.Symbol,
		Regime:    regime,
		Timestamp: time.Now().UTC(),
		IV:        chain.IV,
		Spot:      chain.Spot,
		DTE:       chain.DTE,
	}

	play, err := r.playbook.ForRegime(regime)
	if err != nil {
		return out, err
	}
	out.Description = play.Description
	out.Weights = play.ScoringWeights

	if len(play.EligibleStrategies) == 0 {
		out.Reason = fmt.Sprintf("no eligible strategies for regime %s", regime)
		r.log.Warn().Str("symbol", chain.Symbol).Str("regime", string(regime)).Msg("Empty playbook entry")
		return out, nil
	}

	candidates, err := r.generate(play, chain)
	if err != nil {
		return out, err
	}
	out.CandidateCount = len(candidates)

	if len(candidates) == 0 {
		out.Reason = fmt.Sprintf("chain produced no structurally valid candidates for regime %s", regime)
		r.log.Warn().Str("symbol", chain.Symbol).Str("regime", string(regime)).Msg("No candidates generated")
		return out, nil
	}

	for i := range candidates {
		c := &candidates[i]
		val := r.valuer.ValueSpread(c.Legs, chain.Spot, chain.IV, chain.DTE)
		c.Valuation = &val
		scoreCandidate(c, play.ScoringWeights)
	}

	// Stable sort keeps generation order as the tie-break, so identical
	// inputs always rank identically.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Composite > candidates[j].Composite
	})

	top := candidates
	if len(top) > TopN {
		top = top[:TopN]
	}
	out.Top = top

	r.log.Info().
		Str("symbol", chain.Symbol).
		Str("regime", string(regime)).
		Int("candidates", out.CandidateCount).
		Int("ranked", len(top)).
		Msg("Routing complete")

	return out, nil
}

// generate runs every eligible strategy's generator over the chain and
// tags candidates with identity, strategy, and complexity.
func (r *Router) generate(play playbook.RegimePlay, chain domain.OptionChain) ([]domain.TradeCandidate, error) {
	var all []domain.TradeCandidate

	for _, name := range play.EligibleStrategies {
		def, err := r.playbook.Strategy(name)
		if err != nil {
			return nil, err
		}
		gen, ok := r.registry.Get(name)
		if !ok {
			return nil, &domain.ConfigurationError{
				Key:    name,
				Reason: "no generator registered for strategy",
			}
		}

		candidates := gen.Generate(chain, chain.IV, chain.DTE, def.GreekProfile.Delta)
		for i := range candidates {
			candidates[i].ID = uuid.New().String()
			candidates[i].Symbol = chain.Symbol
			candidates[i].Strategy = name
			candidates[i].Complexity = def.ComplexityTier
		}
		r.log.Debug().Str("strategy", name).Int("count", len(candidates)).Msg("Generated candidates")
		all = append(all, candidates...)
	}

	return all, nil
}
