// Package hmm implements the probabilistic regime classifier: a 5-state
// Gaussian Hidden Markov Model over a 6-dimensional feature vector, with
// EM training, greedy state-to-label mapping, forward-backward inference,
// and a versioned SQLite model store.
package hmm

import (
	"math"

	"github.com/aristath/optioneer/internal/domain"
	"github.com/aristath/optioneer/internal/indicators"
)

// Feature vector layout. Order is part of the persisted model contract:
// a model trained on one layout must never be fed another.
const (
	FeatReturn5D = iota
	FeatRVZScore
	FeatIVZScore
	FeatADX
	FeatPriceDist
	FeatReturn1D

	FeatureDim = 6
)

// MinTrainingRows is the minimum number of clean feature rows required to
// fit a model.
const MinTrainingRows = 252

// zScorePeriod is the trailing window for the volatility z-scores.
const zScorePeriod = 20

// adxWarmup marks the leading ADX positions that are not yet meaningful.
const adxWarmup = 28

// BuildFeatures computes the feature matrix from a bar window (oldest
// first). Rows containing any NaN feature are dropped, so early rows
// inside indicator warmup periods never reach the model.
func BuildFeatures(bars []domain.MarketBar) [][]float64 {
	n := len(bars)
	if n == 0 {
		return nil
	}

	closes := make([]float64, n)
	highs := make([]float64, n)
	lows := make([]float64, n)
	ivs := make([]float64, n)
	rvs := make([]float64, n)
	for i, b := range bars {
		closes[i] = b.Close
		highs[i] = b.High
		lows[i] = b.Low
		ivs[i] = b.IV
		rvs[i] = b.RV
	}

	rvZ := indicators.RollingZScores(rvs, zScorePeriod)
	ivZ := indicators.RollingZScores(ivs, zScorePeriod)
	adx := indicators.ADXSeries(highs, lows, closes)
	sma20 := indicators.SMASeries(closes, 20)

	rows := make([][]float64, 0, n)
	for i := 0; i < n; i++ {
		row := []float64{
			returnOver(closes, i, 5),
			rvZ[i],
			ivZ[i],
			normalizedADX(adx, i),
			priceDist(closes, sma20, i),
			returnOver(closes, i, 1),
		}

		clean := true
		for _, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				clean = false
				break
			}
		}
		if clean {
			rows = append(rows, row)
		}
	}
	return rows
}

func returnOver(closes []float64, i, lag int) float64 {
	if i < lag || closes[i-lag] == 0 {
		return math.NaN()
	}
	return closes[i]/closes[i-lag] - 1
}

func normalizedADX(adx []float64, i int) float64 {
	if i < adxWarmup || i >= len(adx) || math.IsNaN(adx[i]) {
		return math.NaN()
	}
	return adx[i] / 100.0
}

func priceDist(closes, sma20 []float64, i int) float64 {
	if i >= len(sma20) || sma20[i] == 0 || math.IsNaN(sma20[i]) {
		return math.NaN()
	}
	return (closes[i] - sma20[i]) / sma20[i]
}
