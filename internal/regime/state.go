package regime

import "github.com/aristath/optioneer/internal/domain"

// State is the hysteresis state machine's full state for one symbol.
// It is a plain value: Detect takes the old state and returns the new
// one, so ownership and locking stay with the caller (the Registry).
type State struct {
	Current       domain.Regime `json:"current_regime"`
	Previous      domain.Regime `json:"previous_regime"`
	Candidate     domain.Regime `json:"candidate_regime"`
	CandidateBars int           `json:"candidate_bar_count"`
}

// NewState returns the initial state (NEUTRAL, no candidate).
func NewState() State {
	return State{
		Current:  domain.RegimeNeutral,
		Previous: domain.RegimeNeutral,
	}
}
