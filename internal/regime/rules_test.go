package regime

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/optioneer/internal/domain"
)

// trendUpBars builds a steadily rising window with slowly declining IV,
// which classifies as TREND_UP on every bar.
func trendUpBars(n int) []domain.MarketBar {
	bars := make([]domain.MarketBar, n)
	start := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	for i := range bars {
		close := 100.0 + 0.3*float64(i)
		bars[i] = domain.MarketBar{
			Timestamp: start.AddDate(0, 0, i),
			Open:      close - 0.1,
			High:      close + 1,
			Low:       close - 1,
			Close:     close,
			Volume:    1_000_000,
			IV:        0.30 - 0.0005*float64(i),
			RV:        0.20,
		}
	}
	return bars
}

// crashBars builds a flat window that collapses over the last five bars
// with realized vol spiking, which classifies as CRASH_PANIC.
func crashBars(n int) []domain.MarketBar {
	bars := make([]domain.MarketBar, n)
	start := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	drops := []float64{93, 91, 89, 87, 85}
	for i := range bars {
		close := 100.0
		rv := 0.20
		if i >= n-len(drops) {
			close = drops[i-(n-len(drops))]
		}
		if i >= n-3 {
			rv = 0.50
		}
		bars[i] = domain.MarketBar{
			Timestamp: start.AddDate(0, 0, i),
			Open:      close,
			High:      close + 1,
			Low:       close - 1,
			Close:     close,
			Volume:    1_000_000,
			IV:        0.25,
			RV:        rv,
		}
	}
	return bars
}

func TestDetect_QualityGateFallsBackToNeutral(t *testing.T) {
	th := DefaultThresholds()

	t.Run("short window", func(t *testing.T) {
		state := NewState()
		next, res := Detect(state, trendUpBars(th.MinBars-1), th)

		assert.Equal(t, domain.RegimeNeutral, res.Regime)
		assert.True(t, res.Fallback)
		assert.False(t, res.IsShift)
		assert.Equal(t, state, next)
	})

	t.Run("zero iv in tail", func(t *testing.T) {
		bars := trendUpBars(80)
		bars[len(bars)-1].IV = 0

		state := NewState()
		next, res := Detect(state, bars, th)
		assert.True(t, res.Fallback)
		assert.Equal(t, domain.RegimeNeutral, res.Regime)
		assert.Equal(t, state, next)
	})

	t.Run("nan rv in tail", func(t *testing.T) {
		bars := trendUpBars(80)
		bars[len(bars)-2].RV = math.NaN()

		_, res := Detect(NewState(), bars, th)
		assert.True(t, res.Fallback)
	})

	t.Run("implausible vol in tail", func(t *testing.T) {
		bars := trendUpBars(80)
		bars[len(bars)-1].RV = 2.5

		_, res := Detect(NewState(), bars, th)
		assert.True(t, res.Fallback)
		assert.Equal(t, domain.RegimeNeutral, res.Regime)
	})

	t.Run("vol earlier in window is not gated", func(t *testing.T) {
		bars := trendUpBars(80)
		bars[10].IV = 0
		bars[20].RV = math.NaN()

		_, res := Detect(NewState(), bars, th)
		assert.False(t, res.Fallback)
	})
}

func TestDetect_HysteresisConfirmation(t *testing.T) {
	th := DefaultThresholds()
	require.Equal(t, 3, th.ConfirmationBars)

	bars := trendUpBars(80)
	state := NewState()

	// Bars 1 and 2: candidate observed but not yet confirmed
	var res Result
	for i := 1; i <= 2; i++ {
		state, res = Detect(state, bars, th)
		assert.Equal(t, domain.RegimeNeutral, res.Regime, "bar %d", i)
		assert.Equal(t, domain.RegimeTrendUp, res.Candidate, "bar %d", i)
		assert.False(t, res.IsShift, "bar %d", i)
		assert.Equal(t, i, state.CandidateBars, "bar %d", i)
	}

	// Bar 3: confirmation reached, shift fires exactly once
	state, res = Detect(state, bars, th)
	assert.Equal(t, domain.RegimeTrendUp, res.Regime)
	assert.True(t, res.IsShift)
	assert.Equal(t, domain.RegimeNeutral, state.Previous)

	// Bar 4: regime holds, no repeated shift
	state, res = Detect(state, bars, th)
	assert.Equal(t, domain.RegimeTrendUp, res.Regime)
	assert.False(t, res.IsShift)
}

func TestDetect_DifferingCandidateRestartsCount(t *testing.T) {
	th := DefaultThresholds()
	trend := trendUpBars(80)
	crash := crashBars(80)

	state := NewState()
	state, _ = Detect(state, trend, th)
	state, _ = Detect(state, trend, th)
	require.Equal(t, 2, state.CandidateBars)

	// Interruption resets the streak to 1 for the new candidate
	state, res := Detect(state, crash, th)
	assert.Equal(t, domain.RegimeCrashPanic, res.Candidate)
	assert.Equal(t, 1, state.CandidateBars)
	assert.Equal(t, domain.RegimeNeutral, res.Regime)

	state, _ = Detect(state, trend, th)
	assert.Equal(t, domain.RegimeTrendUp, state.Candidate)
	assert.Equal(t, 1, state.CandidateBars)
}

func TestDetect_CrashClassification(t *testing.T) {
	th := DefaultThresholds()
	bars := crashBars(80)

	state := NewState()
	var res Result
	for i := 0; i < th.ConfirmationBars; i++ {
		state, res = Detect(state, bars, th)
	}

	assert.Equal(t, domain.RegimeCrashPanic, res.Regime)
	assert.True(t, res.IsShift)
	assert.Greater(t, res.Indicators.RVAccel, th.CrashRVAccel)
	assert.LessOrEqual(t, res.Indicators.PriceDistSMA20, th.CrashPriceDist)
}

func TestDetect_ResultCarriesDescription(t *testing.T) {
	_, res := Detect(NewState(), trendUpBars(80), DefaultThresholds())
	assert.Equal(t, domain.RegimeNeutral.Description(), res.Description)
	assert.NotEmpty(t, res.Description)
}
