package domain

// Regime is the 7-value market regime vocabulary shared by the rule-based
// classifier, the ensemble, and the playbook.
type Regime string

const (
	RegimeCrashPanic         Regime = "CRASH_PANIC"
	RegimeTrendUp            Regime = "TREND_UP"
	RegimeTrendDown          Regime = "TREND_DOWN"
	RegimeBreakoutExpansion  Regime = "BREAKOUT_EXPANSION"
	RegimeMeanReversion      Regime = "MEAN_REVERSION"
	RegimePostEventCrush     Regime = "POST_EVENT_CRUSH"
	RegimeNeutral            Regime = "NEUTRAL"
)

// AllRegimes lists every regime in priority order (matches the rule
// classifier's first-match-wins evaluation order, NEUTRAL last).
var AllRegimes = []Regime{
	RegimeCrashPanic,
	RegimeBreakoutExpansion,
	RegimeTrendUp,
	RegimeTrendDown,
	RegimeMeanReversion,
	RegimePostEventCrush,
	RegimeNeutral,
}

var regimeDescriptions = map[Regime]string{
	RegimeCrashPanic:        "Market in freefall. Volatility spiking, prices collapsing below moving averages. Defensive posture only.",
	RegimeTrendUp:           "Sustained rally. Price above rising moving averages with contained volatility. Directional bullish structures favored.",
	RegimeTrendDown:         "Downtrend confirmed. Price below falling moving averages. Bearish or protective structures favored.",
	RegimeBreakoutExpansion: "Volatility expanding, breakout forming. IV repricing day over day. Long-volatility or directional structures favored.",
	RegimeMeanReversion:     "Choppy range-bound action with rich implied volatility. Premium selling (iron condors) exploits mean reversion.",
	RegimePostEventCrush:    "IV crush underway post-event. Implied volatility deflating toward realized. Short-premium entries are late; manage existing.",
	RegimeNeutral:           "No clear regime. Mixed signals or insufficient data. Stand aside or trade small.",
}

// Description returns the canonical human explanation of a regime.
// Unknown regimes get the NEUTRAL description.
func (r Regime) Description() string {
	if d, ok := regimeDescriptions[r]; ok {
		return d
	}
	return regimeDescriptions[RegimeNeutral]
}

// Valid reports whether r is one of the seven known regimes.
func (r Regime) Valid() bool {
	_, ok := regimeDescriptions[r]
	return ok
}

// HMMLabel is the 5-value semantic vocabulary the HMM's hidden states are
// mapped to after training. NEUTRAL appears only when greedy assignment
// exhausts the label pool.
type HMMLabel string

const (
	LabelCrash     HMMLabel = "CRASH"
	LabelTrendUp   HMMLabel = "TREND_UP"
	LabelTrendDown HMMLabel = "TREND_DOWN"
	LabelVolatile  HMMLabel = "VOLATILE"
	LabelCalm      HMMLabel = "CALM"
	LabelNeutral   HMMLabel = "NEUTRAL"
)

// AllHMMLabels lists the assignable labels (NEUTRAL excluded; it is the
// exhaustion default, never scored).
var AllHMMLabels = []HMMLabel{
	LabelCrash,
	LabelTrendUp,
	LabelTrendDown,
	LabelVolatile,
	LabelCalm,
}
