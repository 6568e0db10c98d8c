package repair

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aristath/optioneer/internal/domain"
)

// Config holds the repair trigger thresholds.
type Config struct {
	DeltaThreshold     float64 // absolute position delta that flags drift
	LossRatioThreshold float64 // unrealized-loss-to-equity ratio that flags pain
}

// DefaultConfig returns the production thresholds.
func DefaultConfig() Config {
	return Config{
		DeltaThreshold:     0.25,
		LossRatioThreshold: 0.10,
	}
}

// Priority weighting and tier cutoffs.
const (
	priorityDeltaWeight = 0.6
	priorityLossWeight  = 0.4

	tierCritical = 0.40
	tierHigh     = 0.30
	tierMedium   = 0.20
)

// Hedge structure names by direction.
const (
	hedgeBearCallSpread = "Bear Call Spread"
	hedgeBullPutSpread  = "Bull Put Spread"
)

// Engine runs position health checks and builds repair plans.
type Engine struct {
	cfg       Config
	estimator CreditEstimator
	log       zerolog.Logger
}

// NewEngine creates a repair engine. A nil estimator uses the default
// clamped heuristic.
func NewEngine(cfg Config, estimator CreditEstimator, log zerolog.Logger) *Engine {
	if estimator == nil {
		estimator = DefaultEstimator()
	}
	return &Engine{
		cfg:       cfg,
		estimator: estimator,
		log:       log.With().Str("component", "repair_engine").Logger(),
	}
}

// Check evaluates one position against the thresholds. Both conditions
// must hold to trigger; a delta-neutral or only mildly underwater position
// is left alone and nil is returned.
func (e *Engine) Check(pos domain.Position, accountEquity float64) *domain.RepairPlan {
	deltaDrift := math.Abs(pos.Delta)

	loss := 0.0
	if pos.UnrealizedPnL < 0 {
		loss = -pos.UnrealizedPnL
	}
	lossRatio := 0.0
	if accountEquity > 0 {
		lossRatio = loss / accountEquity
	}

	if deltaDrift < e.cfg.DeltaThreshold || lossRatio < e.cfg.LossRatioThreshold {
		return nil
	}

	hedge := hedgeBullPutSpread
	if pos.Delta > 0 {
		hedge = hedgeBearCallSpread
	}

	credit := e.estimator.Estimate(pos, loss)
	score := priorityDeltaWeight*deltaDrift + priorityLossWeight*lossRatio

	plan := &domain.RepairPlan{
		ID:             uuid.New().String(),
		PositionID:     pos.ID,
		Symbol:         pos.Symbol,
		DeltaDrift:     deltaDrift,
		LossRatio:      lossRatio,
		HedgeStructure: hedge,
		RepairCredit:   credit,
		NewMaxLoss:     pos.MaxLoss - credit,
		PriorityScore:  score,
		Priority:       tier(score),
		Status:         domain.RepairProposed,
		CreatedAt:      time.Now().UTC(),
	}

	e.log.Info().
		Str("position", pos.ID).
		Str("symbol", pos.Symbol).
		Float64("delta_drift", deltaDrift).
		Float64("loss_ratio", lossRatio).
		Str("priority", string(plan.Priority)).
		Str("hedge", hedge).
		Msg("Repair plan proposed")

	return plan
}

// CheckAll evaluates a batch of positions and returns the triggered plans
// sorted most urgent first (CRITICAL at the head).
func (e *Engine) CheckAll(positions []domain.Position, accountEquity float64) []domain.RepairPlan {
	var plans []domain.RepairPlan
	for _, pos := range positions {
		if plan := e.Check(pos, accountEquity); plan != nil {
			plans = append(plans, *plan)
		}
	}

	sort.SliceStable(plans, func(i, j int) bool {
		return plans[i].PriorityScore > plans[j].PriorityScore
	})
	return plans
}

// Accept transitions a proposed plan to accepted, recording the external
// order reference. Only proposed plans can transition.
func Accept(plan *domain.RepairPlan, orderRef string) error {
	if plan.Status != domain.RepairProposed {
		return fmt.Errorf("cannot accept plan in status %s", plan.Status)
	}
	if orderRef == "" {
		return fmt.Errorf("order reference required to accept plan")
	}
	plan.Status = domain.RepairAccepted
	plan.OrderRef = orderRef
	return nil
}

// Reject transitions a proposed plan to rejected with a logged reason.
func Reject(plan *domain.RepairPlan, reason string) error {
	if plan.Status != domain.RepairProposed {
		return fmt.Errorf("cannot reject plan in status %s", plan.Status)
	}
	if reason == "" {
		return fmt.Errorf("reason required to reject plan")
	}
	plan.Status = domain.RepairRejected
	plan.RejectReason = reason
	return nil
}

func tier(score float64) domain.PriorityTier {
	switch {
	case score > tierCritical:
		return domain.PriorityCritical
	case score > tierHigh:
		return domain.PriorityHigh
	case score > tierMedium:
		return domain.PriorityMedium
	default:
		return domain.PriorityLow
	}
}
