package hmm

import (
	"math"
	"sync"

	"github.com/rs/zerolog"

	"github.com/aristath/optioneer/internal/domain"
)

// inferenceWindow caps how many trailing feature rows the posterior is
// computed over. The final-step posterior stabilizes well before this.
const inferenceWindow = 60

// Prediction is one inference result.
type Prediction struct {
	Label         domain.HMMLabel             `json:"label"`
	State         int                         `json:"state"`
	Confidence    float64                     `json:"confidence"`
	Probabilities map[domain.HMMLabel]float64 `json:"probabilities"`
	Transitions   map[domain.HMMLabel]float64 `json:"transitions"`
	Fallback      bool                        `json:"fallback"`
}

// neutralPrediction is the soft-fail result when no model is usable.
func neutralPrediction() Prediction {
	return Prediction{
		Label:         domain.LabelNeutral,
		State:         -1,
		Probabilities: map[domain.HMMLabel]float64{},
		Transitions:   map[domain.HMMLabel]float64{},
		Fallback:      true,
	}
}

// Predict computes the per-state posterior for the latest bar via the
// forward-backward recursion over the trailing feature window, and
// aggregates it into label probabilities plus the transition-matrix row
// of the most likely state (the durability of each possible next regime).
func (m *Model) Predict(bars []domain.MarketBar) (Prediction, error) {
	rows := BuildFeatures(bars)
	if len(rows) == 0 {
		return neutralPrediction(), &domain.DataQualityError{Reason: "no clean feature rows"}
	}
	if len(rows) > inferenceWindow {
		rows = rows[len(rows)-inferenceWindow:]
	}

	logB, err := emissionLogProbs(m.Params, rows)
	if err != nil {
		return neutralPrediction(), err
	}

	gamma, _, _ := forwardBackward(m.Params, logB)
	posterior := gamma[len(gamma)-1]

	best := 0
	for k := 1; k < m.Params.States; k++ {
		if posterior[k] > posterior[best] {
			best = k
		}
	}

	pred := Prediction{
		Label:         m.Mapping.Label(best),
		State:         best,
		Confidence:    posterior[best],
		Probabilities: make(map[domain.HMMLabel]float64),
		Transitions:   make(map[domain.HMMLabel]float64),
	}

	for k := 0; k < m.Params.States; k++ {
		label := m.Mapping.Label(k)
		pred.Probabilities[label] += posterior[k]
		pred.Transitions[label] += m.Params.Transition[best][k]
	}

	return pred, nil
}

// Classifier wraps the active model with fail-soft inference: with no
// model loaded, or on any inference failure, it returns the NEUTRAL
// fallback prediction instead of an error.
type Classifier struct {
	mu       sync.RWMutex
	model    *Model
	log      zerolog.Logger
	warnOnce sync.Once
}

// NewClassifier creates a classifier with no model loaded.
func NewClassifier(log zerolog.Logger) *Classifier {
	return &Classifier{
		log: log.With().Str("component", "hmm_classifier").Logger(),
	}
}

// SetModel swaps the active model. Inferences already running finish
// against the model they started with.
func (c *Classifier) SetModel(m *Model) {
	c.mu.Lock()
	c.model = m
	c.mu.Unlock()
	if m != nil {
		c.log.Info().
			Str("symbol", m.Symbol).
			Int("version", m.Version).
			Float64("bic", m.Diagnostics.BIC).
			Msg("Active HMM model swapped")
	}
}

// Model returns the currently active model, or nil.
func (c *Classifier) Model() *Model {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.model
}

// Predict runs inference against the active model, failing soft to the
// NEUTRAL prediction when no model is loaded or inference degrades.
func (c *Classifier) Predict(bars []domain.MarketBar) Prediction {
	m := c.Model()
	if m == nil {
		c.warnOnce.Do(func() {
			c.log.Warn().Msg("No trained HMM model loaded; falling back to rule-based only")
		})
		return neutralPrediction()
	}

	pred, err := m.Predict(bars)
	if err != nil {
		c.log.Debug().Err(err).Msg("HMM inference fallback")
		return neutralPrediction()
	}
	if math.IsNaN(pred.Confidence) {
		return neutralPrediction()
	}
	return pred
}
