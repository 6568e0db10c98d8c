// Package snapshots persists regime evaluation snapshots and the repair
// plan audit trail for later analysis. Append-only usage.
package snapshots

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/optioneer/internal/database"
	"github.com/aristath/optioneer/internal/domain"
	"github.com/aristath/optioneer/internal/regime"
)

// RegimeSnapshot is one recorded ensemble evaluation.
type RegimeSnapshot struct {
	ID            int64         `json:"id"`
	Symbol        string        `json:"symbol"`
	RuleRegime    domain.Regime `json:"rule_regime"`
	HMMRegime     domain.Regime `json:"hmm_regime,omitempty"`
	HMMConfidence float64       `json:"hmm_confidence,omitempty"`
	FinalRegime   domain.Regime `json:"final_regime"`
	Method        string        `json:"method"`
	IsShift       bool          `json:"is_shift"`
	Fallback      bool          `json:"fallback"`
	CreatedAt     time.Time     `json:"created_at"`
}

// Repository writes to the snapshots database.
type Repository struct {
	db  *database.DB
	log zerolog.Logger
}

// NewRepository creates a repository over an already-migrated snapshots
// database.
func NewRepository(db *database.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("component", "snapshots").Logger(),
	}
}

// RecordRegime appends one ensemble evaluation.
func (r *Repository) RecordRegime(ctx context.Context, symbol string, res regime.EnsembleResult) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO regime_snapshots
			(symbol, rule_regime, hmm_regime, hmm_confidence, final_regime, method, is_shift, fallback)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		symbol, string(res.RuleRegime), string(res.HMMRegime), res.HMMConfidence,
		string(res.Regime), res.Method, boolToInt(res.IsShift), boolToInt(res.Fallback),
	)
	if err != nil {
		return fmt.Errorf("failed to record regime snapshot: %w", err)
	}
	return nil
}

// RecentRegimes returns the latest snapshots for a symbol, newest first.
func (r *Repository) RecentRegimes(ctx context.Context, symbol string, limit int) ([]RegimeSnapshot, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, symbol, rule_regime, hmm_regime, hmm_confidence, final_regime,
		       method, is_shift, fallback, created_at
		FROM regime_snapshots
		WHERE symbol = ?
		ORDER BY id DESC
		LIMIT ?`, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query regime snapshots: %w", err)
	}
	defer rows.Close()

	var out []RegimeSnapshot
	for rows.Next() {
		var (
			s         RegimeSnapshot
			isShift   int
			fallback  int
			createdAt string
		)
		if err := rows.Scan(&s.ID, &s.Symbol, (*string)(&s.RuleRegime), (*string)(&s.HMMRegime),
			&s.HMMConfidence, (*string)(&s.FinalRegime), &s.Method, &isShift, &fallback, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan regime snapshot: %w", err)
		}
		s.IsShift = isShift != 0
		s.Fallback = fallback != 0
		s.CreatedAt, _ = time.Parse("2006-01-02 15:04:05", createdAt)
		out = append(out, s)
	}
	return out, rows.Err()
}

// RecordRepair appends one repair plan state to the audit trail. Each
// lifecycle transition (proposed, accepted, rejected) is a new row.
func (r *Repository) RecordRepair(ctx context.Context, plan domain.RepairPlan) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO repair_audit
			(plan_id, position_id, symbol, status, priority, priority_score,
			 delta_drift, loss_ratio, hedge_structure, repair_credit, new_max_loss,
			 order_ref, reject_reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		plan.ID, plan.PositionID, plan.Symbol, string(plan.Status), string(plan.Priority),
		plan.PriorityScore, plan.DeltaDrift, plan.LossRatio, plan.HedgeStructure,
		plan.RepairCredit, plan.NewMaxLoss, plan.OrderRef, plan.RejectReason,
	)
	if err != nil {
		return fmt.Errorf("failed to record repair audit: %w", err)
	}
	return nil
}

// RepairHistory returns every audit row for a plan, oldest first.
func (r *Repository) RepairHistory(ctx context.Context, planID string) ([]domain.RepairPlan, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT plan_id, position_id, symbol, status, priority, priority_score,
		       delta_drift, loss_ratio, hedge_structure, repair_credit, new_max_loss,
		       order_ref, reject_reason
		FROM repair_audit
		WHERE plan_id = ?
		ORDER BY id ASC`, planID)
	if err != nil {
		return nil, fmt.Errorf("failed to query repair audit: %w", err)
	}
	defer rows.Close()

	var out []domain.RepairPlan
	for rows.Next() {
		var p domain.RepairPlan
		if err := rows.Scan(&p.ID, &p.PositionID, &p.Symbol, (*string)(&p.Status),
			(*string)(&p.Priority), &p.PriorityScore, &p.DeltaDrift, &p.LossRatio,
			&p.HedgeStructure, &p.RepairCredit, &p.NewMaxLoss, &p.OrderRef, &p.RejectReason); err != nil {
			return nil, fmt.Errorf("failed to scan repair audit row: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
