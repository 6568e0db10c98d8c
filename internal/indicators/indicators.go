// Package indicators derives the per-bar technical values the regime
// classifiers and the HMM feature builder consume.
package indicators

import (
	"math"

	"github.com/markcheno/go-talib"
	"gonum.org/v1/gonum/stat"

	"github.com/aristath/optioneer/internal/domain"
)

const (
	// MinBars is the minimum window for reliable indicator output.
	MinBars = 60

	// IVRankWindow is the trailing window for the IV percentile rank.
	IVRankWindow = 252

	// IVRankMinObs is the minimum observations before the IV rank is
	// trusted; below it the rank is pinned to 0.5.
	IVRankMinObs = 20

	atrPeriod = 14
	adxPeriod = 14
)

// Compute calculates the IndicatorSet for the final bar of the window.
// The window must hold at least MinBars bars, oldest first.
func Compute(bars []domain.MarketBar) (domain.IndicatorSet, error) {
	if len(bars) < MinBars {
		return domain.IndicatorSet{}, &domain.DataQualityError{
			Reason: "insufficient bars for indicators",
		}
	}

	closes := make([]float64, len(bars))
	highs := make([]float64, len(bars))
	lows := make([]float64, len(bars))
	ivs := make([]float64, len(bars))
	rvs := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
		highs[i] = b.High
		lows[i] = b.Low
		ivs[i] = b.IV
		rvs[i] = b.RV
	}

	n := len(bars)
	last := bars[n-1]

	set := domain.IndicatorSet{
		SMA20:    lastValid(talib.Sma(closes, 20)),
		SMA50:    lastValid(talib.Sma(closes, 50)),
		ATR:      lastValid(talib.Atr(highs, lows, closes, atrPeriod)),
		ADX:      lastValid(talib.Adx(highs, lows, closes, adxPeriod)),
		IVRank:   IVRank(ivs),
		IVChange: Ratio(last.IV, ivs[n-2]),
		RVAccel:  Ratio(last.RV, rvAt(rvs, n-6)),
	}
	set.IVRVSpread = last.IV - last.RV
	if set.SMA20 != 0 {
		set.PriceDistSMA20 = (last.Close - set.SMA20) / set.SMA20
	}

	if z := RollingZScores(rvs, 20); !math.IsNaN(z[n-1]) {
		set.RVZScore = z[n-1]
	}
	if prev := closes[n-6]; prev != 0 {
		set.Return5D = last.Close/prev - 1
	}

	return set, nil
}

// IVRank returns the percentile rank of the latest IV within the trailing
// IVRankWindow observations, clipped to [0,1]. With fewer than
// IVRankMinObs observations the rank is uninformative and pinned to 0.5.
func IVRank(ivs []float64) float64 {
	if len(ivs) == 0 {
		return 0.5
	}
	start := 0
	if len(ivs) > IVRankWindow {
		start = len(ivs) - IVRankWindow
	}
	window := ivs[start:]

	current := window[len(window)-1]
	count := 0
	below := 0
	for _, v := range window {
		if math.IsNaN(v) || v == 0 {
			continue
		}
		count++
		if v <= current {
			below++
		}
	}
	if count < IVRankMinObs || math.IsNaN(current) {
		return 0.5
	}
	rank := float64(below) / float64(count)
	return clamp01(rank)
}

// Ratio returns num/den, falling back to 1.0 when the denominator is
// zero, NaN, or otherwise unusable. Used for RV acceleration and IV
// day-over-day change, where 1.0 means "unchanged".
func Ratio(num, den float64) float64 {
	if den == 0 || math.IsNaN(den) || math.IsNaN(num) {
		return 1.0
	}
	return num / den
}

// RollingZScores returns the z-score of each value against the trailing
// `period` observations (inclusive). Positions with fewer than `period`
// observations or zero variance yield NaN.
func RollingZScores(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	for i := range values {
		if i+1 < period {
			out[i] = math.NaN()
			continue
		}
		window := values[i+1-period : i+1]
		mean := stat.Mean(window, nil)
		sd := stat.StdDev(window, nil)
		if sd == 0 || math.IsNaN(sd) {
			out[i] = math.NaN()
			continue
		}
		out[i] = (values[i] - mean) / sd
	}
	return out
}

// ADXSeries exposes the full ADX series for the HMM feature builder.
func ADXSeries(highs, lows, closes []float64) []float64 {
	return talib.Adx(highs, lows, closes, adxPeriod)
}

// SMASeries exposes a full SMA series for the HMM feature builder.
func SMASeries(closes []float64, period int) []float64 {
	return talib.Sma(closes, period)
}

func rvAt(rvs []float64, idx int) float64 {
	if idx < 0 || idx >= len(rvs) {
		return 0
	}
	return rvs[idx]
}

func lastValid(series []float64) float64 {
	for i := len(series) - 1; i >= 0; i-- {
		if !math.IsNaN(series[i]) {
			return series[i]
		}
	}
	return 0
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
