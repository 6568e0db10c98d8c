// Package regime implements the rule-based market regime classifier, the
// per-symbol state registry, and the ensemble combiner.
package regime

// Thresholds consolidates every numeric cutoff the rule classifier uses.
// The zero value is not usable; start from DefaultThresholds and override
// fields as needed (e.g. from a learned-threshold job).
type Thresholds struct {
	// Data-quality gate
	MinBars      int     // minimum window length
	VolCorrupt   float64 // iv or rv above this is treated as corrupt
	VolTailBars  int     // trailing bars checked for missing/zero iv+rv

	// CRASH_PANIC: rv accelerating and price well below SMA20
	CrashRVAccel   float64
	CrashPriceDist float64 // negative

	// BREAKOUT_EXPANSION: iv repricing day-over-day away from SMA20
	BreakoutIVChange  float64
	BreakoutPriceDist float64 // absolute distance

	// TREND_UP: SMA20>SMA50, price above SMA20, iv rank contained
	TrendUpIVRankMax float64

	// TREND_DOWN: SMA20<SMA50 and price well below SMA20
	TrendDownPriceDist float64 // negative

	// MEAN_REVERSION: tight range with rich iv
	MeanRevPriceDist float64 // absolute distance
	MeanRevIVRankMin float64

	// POST_EVENT_CRUSH: rich iv deflating while still above realized
	CrushIVRankMin  float64
	CrushIVChangeMax float64

	// Hysteresis
	ConfirmationBars int
}

// DefaultThresholds returns the production cutoffs.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinBars:     60,
		VolCorrupt:  2.0,
		VolTailBars: 5,

		CrashRVAccel:   1.5,
		CrashPriceDist: -0.05,

		BreakoutIVChange:  1.1,
		BreakoutPriceDist: 0.03,

		TrendUpIVRankMax: 0.7,

		TrendDownPriceDist: -0.03,

		MeanRevPriceDist: 0.02,
		MeanRevIVRankMin: 0.7,

		CrushIVRankMin:   0.5,
		CrushIVChangeMax: 0.95,

		ConfirmationBars: 3,
	}
}
