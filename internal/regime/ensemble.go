package regime

import (
	"math"

	"github.com/rs/zerolog"

	"github.com/aristath/optioneer/internal/domain"
)

// Ensemble method labels, reported in the combined result so callers can
// see which voting branch decided.
const (
	MethodAgreement    = "agreement"
	MethodRuleOverride = "rule_override"
	MethodHMMConfident = "hmm_confident"
	MethodRuleDefault  = "rule_default"
	MethodRuleOnly     = "rule_only"
)

// HMMView is what the ensemble needs from the probabilistic classifier:
// the predicted label, its posterior probability, and the distributions.
type HMMView struct {
	Label         domain.HMMLabel
	Confidence    float64
	Probabilities map[domain.HMMLabel]float64
	Transitions   map[domain.HMMLabel]float64
}

// EnsembleResult is the combined classification for one evaluation.
type EnsembleResult struct {
	Regime        domain.Regime `json:"regime"`
	IsShift       bool          `json:"is_shift"`
	Description   string        `json:"description"`
	Method        string        `json:"method"`
	RuleRegime    domain.Regime `json:"rule_regime"`
	HMMRegime     domain.Regime `json:"hmm_regime,omitempty"`
	HMMConfidence float64       `json:"hmm_confidence,omitempty"`
	Fallback      bool          `json:"fallback"`
}

// hmmConfidenceFloor is the posterior the HMM must exceed to outvote the
// rule classifier when the two disagree.
const hmmConfidenceFloor = 0.7

// Combine applies the ordered voting policy. hmm may be nil (model
// unavailable), in which case the rule result passes through unchanged.
// The description is always the canonical one for the final regime.
func Combine(rule Result, hmm *HMMView, log zerolog.Logger) EnsembleResult {
	out := EnsembleResult{
		IsShift:    rule.IsShift,
		RuleRegime: rule.Regime,
		Fallback:   rule.Fallback,
	}

	// A quality-gated window carries no indicators to map the HMM label
	// against, so the NEUTRAL fallback stands no matter how confident the
	// HMM is.
	if hmm == nil || rule.Fallback {
		out.Regime = rule.Regime
		out.Method = MethodRuleOnly
		out.Description = out.Regime.Description()
		return out
	}

	mapped := MapLabel(hmm.Label, rule.Indicators)
	out.HMMRegime = mapped
	out.HMMConfidence = hmm.Confidence

	switch {
	case rule.Regime == mapped:
		out.Regime = rule.Regime
		out.Method = MethodAgreement

	// Safety override: a rule-confirmed crash always wins, even against
	// a fully confident HMM.
	case rule.Regime == domain.RegimeCrashPanic:
		out.Regime = domain.RegimeCrashPanic
		out.Method = MethodRuleOverride

	case hmm.Confidence > hmmConfidenceFloor:
		out.Regime = mapped
		out.Method = MethodHMMConfident

	default:
		out.Regime = rule.Regime
		out.Method = MethodRuleDefault
	}

	if out.Method != MethodAgreement && out.Method != MethodRuleOnly {
		log.Debug().
			Str("rule", string(rule.Regime)).
			Str("hmm", string(mapped)).
			Float64("confidence", hmm.Confidence).
			Str("method", out.Method).
			Msg("Ensemble disagreement resolved")
	}

	out.Description = out.Regime.Description()
	return out
}

// MapLabel translates the HMM's 5-label vocabulary into the rule
// classifier's 7-regime vocabulary using current-bar context.
func MapLabel(label domain.HMMLabel, ind domain.IndicatorSet) domain.Regime {
	switch label {
	case domain.LabelCrash:
		return domain.RegimeCrashPanic

	case domain.LabelTrendUp:
		if ind.RVZScore > 1.0 {
			return domain.RegimeBreakoutExpansion
		}
		return domain.RegimeTrendUp

	case domain.LabelTrendDown:
		return domain.RegimeTrendDown

	case domain.LabelVolatile:
		if math.Abs(ind.Return5D) > 0.03 {
			return domain.RegimeBreakoutExpansion
		}
		return domain.RegimeMeanReversion

	case domain.LabelCalm:
		if ind.IVChange < 0.95 {
			return domain.RegimePostEventCrush
		}
		return domain.RegimeNeutral

	default:
		return domain.RegimeNeutral
	}
}
