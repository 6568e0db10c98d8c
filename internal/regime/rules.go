package regime

import (
	"math"

	"github.com/aristath/optioneer/internal/domain"
	"github.com/aristath/optioneer/internal/indicators"
)

// Result is one rule-based detection outcome.
type Result struct {
	Regime      domain.Regime      `json:"regime"`
	IsShift     bool               `json:"is_shift"`
	Description string             `json:"description"`
	Candidate   domain.Regime      `json:"candidate"`
	Fallback    bool               `json:"fallback"`
	Indicators  domain.IndicatorSet `json:"indicators"`
}

// Detect runs one classification step over a bar window (oldest first).
// It is a pure function: the caller owns the state and passes it back in
// on the next bar. On a data-quality failure the state is returned
// untouched and the result falls back to NEUTRAL with no shift.
func Detect(state State, bars []domain.MarketBar, th Thresholds) (State, Result) {
	if reason := qualityGate(bars, th); reason != "" {
		return state, Result{
			Regime:      domain.RegimeNeutral,
			Description: domain.RegimeNeutral.Description(),
			Candidate:   domain.RegimeNeutral,
			Fallback:    true,
		}
	}

	ind, err := indicators.Compute(bars)
	if err != nil {
		return state, Result{
			Regime:      domain.RegimeNeutral,
			Description: domain.RegimeNeutral.Description(),
			Candidate:   domain.RegimeNeutral,
			Fallback:    true,
		}
	}

	candidate := classify(bars[len(bars)-1], ind, th)

	// Hysteresis: the same candidate must repeat ConfirmationBars times
	// before it replaces the current regime. A differing candidate
	// restarts the count at 1.
	if candidate == state.Candidate {
		state.CandidateBars++
	} else {
		state.Candidate = candidate
		state.CandidateBars = 1
	}

	isShift := false
	if state.CandidateBars >= th.ConfirmationBars && candidate != state.Current {
		state.Previous = state.Current
		state.Current = candidate
		isShift = true
	}

	return state, Result{
		Regime:      state.Current,
		IsShift:     isShift,
		Description: state.Current.Description(),
		Candidate:   candidate,
		Indicators:  ind,
	}
}

// qualityGate returns a non-empty reason when the window cannot be
// classified: too short, or iv/rv missing, zero, NaN, or implausibly
// large in the trailing bars.
func qualityGate(bars []domain.MarketBar, th Thresholds) string {
	if len(bars) < th.MinBars {
		return "insufficient bars"
	}
	tail := bars[len(bars)-th.VolTailBars:]
	for _, b := range tail {
		if b.IV == 0 || b.RV == 0 || math.IsNaN(b.IV) || math.IsNaN(b.RV) {
			return "missing iv/rv in trailing bars"
		}
		if b.IV > th.VolCorrupt || b.RV > th.VolCorrupt {
			return "implausible iv/rv in trailing bars"
		}
	}
	return ""
}

// classify picks the candidate regime for the latest bar. Priority order,
// first match wins.
func classify(last domain.MarketBar, ind domain.IndicatorSet, th Thresholds) domain.Regime {
	switch {
	case ind.RVAccel > th.CrashRVAccel && ind.PriceDistSMA20 <= th.CrashPriceDist:
		return domain.RegimeCrashPanic

	case ind.IVChange > th.BreakoutIVChange && math.Abs(ind.PriceDistSMA20) > th.BreakoutPriceDist:
		return domain.RegimeBreakoutExpansion

	case ind.SMA20 > ind.SMA50 && last.Close > ind.SMA20 && ind.IVRank < th.TrendUpIVRankMax:
		return domain.RegimeTrendUp

	case ind.SMA20 < ind.SMA50 && ind.PriceDistSMA20 < th.TrendDownPriceDist:
		return domain.RegimeTrendDown

	case math.Abs(ind.PriceDistSMA20) < th.MeanRevPriceDist && ind.IVRank > th.MeanRevIVRankMin:
		return domain.RegimeMeanReversion

	case ind.IVRank > th.CrushIVRankMin && ind.IVChange < th.CrushIVChangeMax && ind.IVRVSpread > 0:
		return domain.RegimePostEventCrush

	default:
		return domain.RegimeNeutral
	}
}
