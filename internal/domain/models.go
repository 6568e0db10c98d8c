// Package domain provides core domain models and types.
package domain

import "time"

// OptionType represents the contract type of an option
type OptionType string

const (
	OptionTypeCall OptionType = "call"
	OptionTypePut  OptionType = "put"
)

// MarketBar is one daily observation for an underlying: OHLCV plus the
// implied and realized volatility readings for that day. Bars are consumed
// as a time-ordered rolling window.
type MarketBar struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
	IV        float64   `json:"iv"`
	RV        float64   `json:"rv"`
}

// IndicatorSet holds the derived per-bar values the regime classifiers
// consume. Immutable once computed for a given bar.
type IndicatorSet struct {
	SMA20          float64 `json:"sma_20"`
	SMA50          float64 `json:"sma_50"`
	PriceDistSMA20 float64 `json:"price_dist_sma20"` // (close-sma20)/sma20
	IVRank         float64 `json:"iv_rank"`          // percentile of IV over trailing year, [0,1]
	IVRVSpread     float64 `json:"iv_rv_spread"`     // iv - rv
	RVAccel        float64 `json:"rv_accel"`         // rv / rv 5 bars ago
	IVChange       float64 `json:"iv_change"`        // iv / previous iv
	ATR            float64 `json:"atr"`
	ADX            float64 `json:"adx"`
	RVZScore       float64 `json:"rv_zscore"`  // rv z-score over trailing 20
	Return5D       float64 `json:"return_5d"`  // close / close 5 bars ago - 1
}

// OptionContract is one quoted contract from a live chain.
type OptionContract struct {
	Strike float64    `json:"strike"`
	Type   OptionType `json:"option_type"`
	Bid    float64    `json:"bid"`
	Ask    float64    `json:"ask"`
	Delta  float64    `json:"delta"`
}

// Mid returns the bid/ask midpoint.
func (c OptionContract) Mid() float64 {
	return (c.Bid + c.Ask) / 2
}

// OptionChain is the quoted chain for one underlying/expiration.
type OptionChain struct {
	Symbol    string           `json:"symbol"`
	Spot      float64          `json:"spot"`
	IV        float64          `json:"iv"`
	DTE       int              `json:"dte"`
	Contracts []OptionContract `json:"contracts"`
}

// Puts returns the put contracts in chain order.
func (ch OptionChain) Puts() []OptionContract {
	return ch.filter(OptionTypePut)
}

// Calls returns the call contracts in chain order.
func (ch OptionChain) Calls() []OptionContract {
	return ch.filter(OptionTypeCall)
}

func (ch OptionChain) filter(t OptionType) []OptionContract {
	out := make([]OptionContract, 0, len(ch.Contracts))
	for _, c := range ch.Contracts {
		if c.Type == t {
			out = append(out, c)
		}
	}
	return out
}

// OptionLeg is one leg of a multi-leg structure.
type OptionLeg struct {
	Strike   float64    `json:"strike"`
	Type     OptionType `json:"option_type"`
	Bid      float64    `json:"bid"`
	Ask      float64    `json:"ask"`
	IsLong   bool       `json:"is_long"`
	Quantity int        `json:"quantity"`
}

// Mid returns the bid/ask midpoint of the leg.
func (l OptionLeg) Mid() float64 {
	return (l.Bid + l.Ask) / 2
}

// Greeks are the aggregated sensitivities of a position or single option.
// Theta is per calendar day; Vega is per percentage point of IV.
type Greeks struct {
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Theta float64 `json:"theta"`
	Vega  float64 `json:"vega"`
	Rho   float64 `json:"rho"`
}

// Add returns the element-wise sum of two Greeks.
func (g Greeks) Add(o Greeks) Greeks {
	return Greeks{
		Delta: g.Delta + o.Delta,
		Gamma: g.Gamma + o.Gamma,
		Theta: g.Theta + o.Theta,
		Vega:  g.Vega + o.Vega,
		Rho:   g.Rho + o.Rho,
	}
}

// Scale returns the Greeks multiplied by a scalar (used to negate short legs).
func (g Greeks) Scale(f float64) Greeks {
	return Greeks{
		Delta: g.Delta * f,
		Gamma: g.Gamma * f,
		Theta: g.Theta * f,
		Vega:  g.Vega * f,
		Rho:   g.Rho * f,
	}
}

// SpreadValuation is the output of valuing a multi-leg structure.
// EntryCost is negative for net credits.
type SpreadValuation struct {
	Greeks              Greeks  `json:"greeks"`
	EntryCost           float64 `json:"entry_cost"`
	MaxProfit           float64 `json:"max_profit"`
	MaxLoss             float64 `json:"max_loss"`
	ProbabilityOfProfit float64 `json:"probability_of_profit"`
	ExpectedValue       float64 `json:"expected_value"`
	Efficiency          float64 `json:"efficiency"`
	LiquidityScore      float64 `json:"liquidity_score"`
}

// ScoreBreakdown holds the normalized sub-scores (0-100) behind a
// candidate's composite score.
type ScoreBreakdown struct {
	EV         float64 `json:"ev_score"`
	Efficiency float64 `json:"efficiency_score"`
	RiskFit    float64 `json:"risk_fit_score"`
	Liquidity  float64 `json:"liquidity_score"`
}

// TradeCandidate is a structurally valid multi-leg trade generated by the
// router, with valuation and scoring attached after pricing.
type TradeCandidate struct {
	ID         string           `json:"id"`
	Symbol     string           `json:"symbol"`
	Strategy   string           `json:"strategy"`
	Structure  string           `json:"structure"`
	Complexity string           `json:"complexity"`
	Legs       []OptionLeg      `json:"legs"`
	Width      float64          `json:"width,omitempty"`
	Valuation  *SpreadValuation `json:"valuation,omitempty"`
	Scores     ScoreBreakdown   `json:"scores"`
	Composite  float64          `json:"composite_score"`
	Rationale  string           `json:"rationale"`
}

// Position is an open trade with live Greeks and unrealized PnL.
type Position struct {
	ID            string      `json:"id"`
	Symbol        string      `json:"symbol"`
	Strategy      string      `json:"strategy"`
	Legs          []OptionLeg `json:"legs"`
	Delta         float64     `json:"delta"`
	MaxLoss       float64     `json:"max_loss"`
	UnrealizedPnL float64     `json:"unrealized_pnl"`
	OpenedAt      time.Time   `json:"opened_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// PriorityTier buckets repair plans by urgency.
type PriorityTier string

const (
	PriorityCritical PriorityTier = "CRITICAL"
	PriorityHigh     PriorityTier = "HIGH"
	PriorityMedium   PriorityTier = "MEDIUM"
	PriorityLow      PriorityTier = "LOW"
)

// RepairStatus tracks a repair plan's lifecycle. Plans are never
// auto-executed; acceptance records the external order reference.
type RepairStatus string

const (
	RepairProposed RepairStatus = "proposed"
	RepairAccepted RepairStatus = "accepted"
	RepairRejected RepairStatus = "rejected"
)

// RepairPlan is a proposed defensive adjustment for an unhealthy position.
type RepairPlan struct {
	ID             string       `json:"id"`
	PositionID     string       `json:"position_id"`
	Symbol         string       `json:"symbol"`
	DeltaDrift     float64      `json:"delta_drift"`
	LossRatio      float64      `json:"loss_ratio"`
	HedgeStructure string       `json:"hedge_structure"`
	RepairCredit   float64      `json:"repair_credit"`
	NewMaxLoss     float64      `json:"new_max_loss"`
	PriorityScore  float64      `json:"priority_score"`
	Priority       PriorityTier `json:"priority"`
	Status         RepairStatus `json:"status"`
	OrderRef       string       `json:"order_ref,omitempty"`
	RejectReason   string       `json:"reject_reason,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
}
