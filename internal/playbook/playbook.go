// Package playbook loads and validates the declarative regime-to-strategy
// configuration: which strategies a regime is allowed to trade, the
// scoring weights, and each strategy's target Greek profile.
package playbook

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"github.com/aristath/optioneer/internal/domain"
)

//go:embed default.json
var defaultDocument []byte

// Strategy names known to the default playbook. Generators register under
// these names in the router.
const (
	StrategyIronCondor     = "IRON_CONDOR"
	StrategyBullCallSpread = "BULL_CALL_SPREAD"
	StrategyBullPutSpread  = "BULL_PUT_SPREAD"
	StrategyCashSecuredPut = "CASH_SECURED_PUT"
	StrategyCoveredCall    = "COVERED_CALL"
)

// Weights are the linear scoring weights for one regime. They need not
// sum to 1 but every field must be present and positive.
type Weights struct {
	EV         float64 `json:"ev"`
	Efficiency float64 `json:"efficiency"`
	RiskFit    float64 `json:"risk_fit"`
	Liquidity  float64 `json:"liquidity"`
}

// RegimePlay is one regime's entry: eligible strategies, a description,
// and scoring weights.
type RegimePlay struct {
	EligibleStrategies []string `json:"eligible_strategies"`
	Description        string   `json:"description"`
	ScoringWeights     Weights  `json:"scoring_weights"`
}

// GreekProfile is the target Greek exposure of a strategy.
type GreekProfile struct {
	Delta float64 `json:"delta"`
}

// StrategyDef describes one strategy: target Greeks and complexity tier.
type StrategyDef struct {
	GreekProfile   GreekProfile `json:"greek_profile"`
	ComplexityTier string       `json:"complexity_tier"`
}

// Playbook is the full loaded document. Treated as read-only after Load.
type Playbook struct {
	Version    int                    `json:"version"`
	Regimes    map[string]RegimePlay  `json:"regimes"`
	Strategies map[string]StrategyDef `json:"strategies"`
}

var validTiers = map[string]bool{
	"beginner":     true,
	"intermediate": true,
	"advanced":     true,
}

// Load reads and validates a playbook from disk. An empty path loads the
// embedded default document.
func Load(path string) (*Playbook, error) {
	data := defaultDocument
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read playbook: %w", err)
		}
	}

	var pb Playbook
	if err := json.Unmarshal(data, &pb); err != nil {
		return nil, fmt.Errorf("failed to parse playbook: %w", err)
	}

	if err := pb.Validate(); err != nil {
		return nil, err
	}
	return &pb, nil
}

// Default returns the embedded default playbook.
func Default() (*Playbook, error) {
	return Load("")
}

// Validate enforces the schema: known regime keys, every eligible strategy
// defined, complete weights, valid complexity tiers. Violations fail with
// a descriptive ConfigurationError, never a silent empty strategy set.
func (p *Playbook) Validate() error {
	if len(p.Regimes) == 0 {
		return &domain.ConfigurationError{Key: "regimes", Reason: "no regime entries"}
	}
	if len(p.Strategies) == 0 {
		return &domain.ConfigurationError{Key: "strategies", Reason: "no strategy entries"}
	}

	for name, play := range p.Regimes {
		if !domain.Regime(name).Valid() {
			return &domain.ConfigurationError{Key: name, Reason: "unknown regime"}
		}
		w := play.ScoringWeights
		if w.EV <= 0 || w.Efficiency <= 0 || w.RiskFit <= 0 || w.Liquidity <= 0 {
			return &domain.ConfigurationError{Key: name, Reason: "incomplete scoring weights"}
		}
		for _, s := range play.EligibleStrategies {
			if _, ok := p.Strategies[s]; !ok {
				return &domain.ConfigurationError{
					Key:    name,
					Reason: fmt.Sprintf("eligible strategy %q not defined", s),
				}
			}
		}
	}

	for name, def := range p.Strategies {
		if !validTiers[def.ComplexityTier] {
			return &domain.ConfigurationError{
				Key:    name,
				Reason: fmt.Sprintf("invalid complexity tier %q", def.ComplexityTier),
			}
		}
	}

	return nil
}

// ForRegime returns the regime's entry. A missing entry is a configuration
// error: the engine must never guess a regime's strategy list.
func (p *Playbook) ForRegime(r domain.Regime) (RegimePlay, error) {
	play, ok := p.Regimes[string(r)]
	if !ok {
		return RegimePlay{}, &domain.ConfigurationError{
			Key:    string(r),
			Reason: "regime missing from playbook",
		}
	}
	return play, nil
}

// Strategy returns a strategy definition by name.
func (p *Playbook) Strategy(name string) (StrategyDef, error) {
	def, ok := p.Strategies[name]
	if !ok {
		return StrategyDef{}, &domain.ConfigurationError{
			Key:    name,
			Reason: "strategy missing from playbook",
		}
	}
	return def, nil
}
