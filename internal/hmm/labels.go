package hmm

import (
	"math"
	"sort"

	"github.com/aristath/optioneer/internal/domain"
)

// MappingEntry records one state's label assignment, including the raw
// score that won it. ByExhaustion marks states that fell through to
// NEUTRAL because every label was already taken, a known approximation
// rather than a genuine fit.
type MappingEntry struct {
	State        int             `msgpack:"state"`
	Label        domain.HMMLabel `msgpack:"label"`
	Score        float64         `msgpack:"score"`
	ByExhaustion bool            `msgpack:"by_exhaustion"`
}

// Mapping is the full state-to-label assignment plus the raw per-pair
// scores, kept so the ensemble or an external validator can audit how the
// assignment was made.
type Mapping struct {
	Entries []MappingEntry                        `msgpack:"entries"`
	Scores  map[int]map[domain.HMMLabel]float64   `msgpack:"scores"`
}

// Label returns the semantic label for a hidden state.
func (m Mapping) Label(state int) domain.HMMLabel {
	for _, e := range m.Entries {
		if e.State == state {
			return e.Label
		}
	}
	return domain.LabelNeutral
}

// Label score heuristics over the emission means. Each label scores every
// state; greedy assignment takes the highest-scoring unused (state, label)
// pairs first. The CRASH weights follow the documented heuristic; the
// remaining labels use the same scale of hand-tuned weights.
func labelScore(label domain.HMMLabel, mean []float64) float64 {
	ret5 := mean[FeatReturn5D]
	rvZ := mean[FeatRVZScore]
	ivZ := mean[FeatIVZScore]
	adx := mean[FeatADX]
	dist := mean[FeatPriceDist]

	switch label {
	case domain.LabelCrash:
		return -10*ret5 + 5*rvZ + 3*ivZ
	case domain.LabelTrendUp:
		return 8*ret5 + 2*adx - 2*rvZ
	case domain.LabelTrendDown:
		return -8*ret5 + 2*adx - 2*rvZ
	case domain.LabelVolatile:
		return 4*rvZ + 4*ivZ
	case domain.LabelCalm:
		return -3*rvZ - 3*ivZ - 2*math.Abs(dist)
	default:
		return 0
	}
}

type scoredPair struct {
	state int
	label domain.HMMLabel
	score float64
}

// mapStates greedily assigns each hidden state a semantic label from its
// emission means. Every (state, label) score is retained in the mapping.
func mapStates(means [][]float64) Mapping {
	m := Mapping{
		Scores: make(map[int]map[domain.HMMLabel]float64, len(means)),
	}

	var pairs []scoredPair
	for state, mean := range means {
		m.Scores[state] = make(map[domain.HMMLabel]float64, len(domain.AllHMMLabels))
		for _, label := range domain.AllHMMLabels {
			s := labelScore(label, mean)
			m.Scores[state][label] = s
			pairs = append(pairs, scoredPair{state: state, label: label, score: s})
		}
	}

	sort.SliceStable(pairs, func(i, j int) bool {
		return pairs[i].score > pairs[j].score
	})

	usedStates := make(map[int]bool)
	usedLabels := make(map[domain.HMMLabel]bool)
	for _, pr := range pairs {
		if usedStates[pr.state] || usedLabels[pr.label] {
			continue
		}
		usedStates[pr.state] = true
		usedLabels[pr.label] = true
		m.Entries = append(m.Entries, MappingEntry{
			State: pr.state,
			Label: pr.label,
			Score: pr.score,
		})
	}

	// Any state left over maps to NEUTRAL by exhaustion.
	for state := range means {
		if !usedStates[state] {
			m.Entries = append(m.Entries, MappingEntry{
				State:        state,
				Label:        domain.LabelNeutral,
				ByExhaustion: true,
			})
		}
	}

	sort.Slice(m.Entries, func(i, j int) bool {
		return m.Entries[i].State < m.Entries[j].State
	})

	return m
}
