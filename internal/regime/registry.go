package regime

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/aristath/optioneer/internal/domain"
)

// Registry owns the per-symbol hysteresis state. Each symbol gets its own
// entry with its own lock, so concurrent batch runs over distinct symbols
// never serialize and state never leaks across symbols.
type Registry struct {
	mu         sync.RWMutex
	entries    map[string]*entry
	thresholds Thresholds
	log        zerolog.Logger
}

type entry struct {
	mu    sync.Mutex
	state State
}

// NewRegistry creates a registry with the given thresholds.
func NewRegistry(th Thresholds, log zerolog.Logger) *Registry {
	return &Registry{
		entries:    make(map[string]*entry),
		thresholds: th,
		log:        log.With().Str("component", "regime_registry").Logger(),
	}
}

// Detect runs one rule-based detection step for a symbol, advancing that
// symbol's state under its per-symbol lock.
func (r *Registry) Detect(symbol string, bars []domain.MarketBar) Result {
	e := r.entry(symbol)

	e.mu.Lock()
	defer e.mu.Unlock()

	newState, result := Detect(e.state, bars, r.thresholds)
	e.state = newState

	if result.IsShift {
		r.log.Info().
			Str("symbol", symbol).
			Str("from", string(newState.Previous)).
			Str("to", string(newState.Current)).
			Msg("Regime shift confirmed")
	}
	if result.Fallback {
		r.log.Debug().
			Str("symbol", symbol).
			Msg("Data quality fallback to NEUTRAL")
	}

	return result
}

// State returns a read-only copy of a symbol's current state.
func (r *Registry) State(symbol string) State {
	r.mu.RLock()
	e, ok := r.entries[symbol]
	r.mu.RUnlock()
	if !ok {
		return NewState()
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Reset clears a symbol's state back to the initial NEUTRAL state.
func (r *Registry) Reset(symbol string) {
	e := r.entry(symbol)
	e.mu.Lock()
	e.state = NewState()
	e.mu.Unlock()
}

func (r *Registry) entry(symbol string) *entry {
	r.mu.RLock()
	e, ok := r.entries[symbol]
	r.mu.RUnlock()
	if ok {
		return e
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok = r.entries[symbol]; ok {
		return e
	}
	e = &entry{state: NewState()}
	r.entries[symbol] = e
	return e
}
