// Package events defines the typed event payloads the engine hands to the
// external alert/notification collaborator. The engine only produces the
// structured payloads; delivery transport lives outside this module.
package events

import "time"

// EventType identifies an event category
type EventType string

const (
	RegimeShift     EventType = "regime.shift"
	TradeIdeasReady EventType = "router.ideas_ready"
	RepairProposed  EventType = "repair.proposed"
	RepairAccepted  EventType = "repair.accepted"
	RepairRejected  EventType = "repair.rejected"
	ModelTrained    EventType = "hmm.model_trained"
	ErrorOccurred   EventType = "system.error"
	JobStarted      EventType = "job.started"
	JobCompleted    EventType = "job.completed"
	JobFailed       EventType = "job.failed"
)

// EventData is the interface that all event data types must implement
// This allows for type-safe event data while maintaining flexibility
type EventData interface {
	// EventType returns the event type this data is associated with
	EventType() EventType
}

// RegimeShiftData contains data for RegimeShift events
type RegimeShiftData struct {
	Symbol      string `json:"symbol"`
	FromRegime  string `json:"from_regime"`
	ToRegime    string `json:"to_regime"`
	Method      string `json:"method"`
	Description string `json:"description"`
}

// EventType returns the event type for RegimeShiftData
func (d *RegimeShiftData) EventType() EventType {
	return RegimeShift
}

// TradeIdeasReadyData contains data for TradeIdeasReady events
type TradeIdeasReadyData struct {
	Symbol         string  `json:"symbol"`
	Regime         string  `json:"regime"`
	CandidateCount int     `json:"candidate_count"`
	TopCount       int     `json:"top_count"`
	BestComposite  float64 `json:"best_composite,omitempty"`
	BestRationale  string  `json:"best_rationale,omitempty"`
}

// EventType returns the event type for TradeIdeasReadyData
func (d *TradeIdeasReadyData) EventType() EventType {
	return TradeIdeasReady
}

// RepairPlanData contains data for repair plan lifecycle events.
// The Status field determines the concrete event type.
type RepairPlanData struct {
	PlanID         string  `json:"plan_id"`
	PositionID     string  `json:"position_id"`
	Symbol         string  `json:"symbol"`
	Status         string  `json:"status"` // "proposed", "accepted", "rejected"
	Priority       string  `json:"priority"`
	HedgeStructure string  `json:"hedge_structure"`
	RepairCredit   float64 `json:"repair_credit"`
	NewMaxLoss     float64 `json:"new_max_loss"`
	OrderRef       string  `json:"order_ref,omitempty"`
	RejectReason   string  `json:"reject_reason,omitempty"`
}

// EventType returns the event type for RepairPlanData
func (d *RepairPlanData) EventType() EventType {
	switch d.Status {
	case "accepted":
		return RepairAccepted
	case "rejected":
		return RepairRejected
	default:
		return RepairProposed
	}
}

// ModelTrainedData contains data for ModelTrained events
type ModelTrainedData struct {
	ModelID       string  `json:"model_id"`
	Symbol        string  `json:"symbol"`
	Version       int     `json:"version"`
	TrainingRows  int     `json:"training_rows"`
	LogLikelihood float64 `json:"log_likelihood"`
	AIC           float64 `json:"aic"`
	BIC           float64 `json:"bic"`
}

// EventType returns the event type for ModelTrainedData
func (d *ModelTrainedData) EventType() EventType {
	return ModelTrained
}

// ErrorEventData contains data for ErrorOccurred events
type ErrorEventData struct {
	Error   string                 `json:"error"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// EventType returns the event type for ErrorEventData
func (d *ErrorEventData) EventType() EventType {
	return ErrorOccurred
}

// JobStatusData contains data for job lifecycle events
type JobStatusData struct {
	JobName   string    `json:"job_name"`
	Status    string    `json:"status"` // "started", "completed", "failed"
	Error     string    `json:"error,omitempty"`
	Duration  float64   `json:"duration,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// EventType returns the event type for JobStatusData
// Note: The actual event type is determined by the Status field
func (d *JobStatusData) EventType() EventType {
	switch d.Status {
	case "completed":
		return JobCompleted
	case "failed":
		return JobFailed
	default:
		return JobStarted
	}
}
