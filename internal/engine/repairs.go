package engine

import (
	"context"

	"github.com/aristath/optioneer/internal/domain"
	"github.com/aristath/optioneer/internal/events"
	"github.com/aristath/optioneer/internal/repair"
)

// CheckPositions runs the repair health check over open positions and
// returns the triggered plans, most urgent first. Each proposal is
// recorded to the audit trail and published.
func (e *Engine) CheckPositions(ctx context.Context, positions []domain.Position) []domain.RepairPlan {
	plans := e.repairer.CheckAll(positions, e.opts.AccountEquity)

	for i := range plans {
		e.recordAndPublish(ctx, plans[i])
	}
	return plans
}

// AcceptRepair transitions a plan to accepted with its order reference.
func (e *Engine) AcceptRepair(ctx context.Context, plan *domain.RepairPlan, orderRef string) error {
	if err := repair.Accept(plan, orderRef); err != nil {
		return err
	}
	e.recordAndPublish(ctx, *plan)
	return nil
}

// RejectRepair transitions a plan to rejected with a logged reason.
func (e *Engine) RejectRepair(ctx context.Context, plan *domain.RepairPlan, reason string) error {
	if err := repair.Reject(plan, reason); err != nil {
		return err
	}
	e.recordAndPublish(ctx, *plan)
	return nil
}

func (e *Engine) recordAndPublish(ctx context.Context, plan domain.RepairPlan) {
	if e.audit != nil {
		if err := e.audit.RecordRepair(ctx, plan); err != nil {
			e.log.Error().Err(err).Str("plan_id", plan.ID).Msg("Failed to record repair audit")
		}
	}

	e.publisher.Publish(events.New("engine", &events.RepairPlanData{
		PlanID:         plan.ID,
		PositionID:     plan.PositionID,
		Symbol:         plan.Symbol,
		Status:         string(plan.Status),
		Priority:       string(plan.Priority),
		HedgeStructure: plan.HedgeStructure,
		RepairCredit:   plan.RepairCredit,
		NewMaxLoss:     plan.NewMaxLoss,
		OrderRef:       plan.OrderRef,
		RejectReason:   plan.RejectReason,
	}))
}
