package hmm

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"

	"github.com/aristath/optioneer/internal/domain"
)

// NumStates is the number of hidden states.
const NumStates = 5

const (
	maxEMIterations = 50
	emTolerance     = 1e-4
	covRidge        = 1e-6
)

// Params holds the fitted model parameters. Serialized as the persisted
// parameter blob, so field layout is part of the storage contract.
type Params struct {
	States      int           `msgpack:"states"`
	Dim         int           `msgpack:"dim"`
	InitProbs   []float64     `msgpack:"init_probs"`
	Transition  [][]float64   `msgpack:"transition"`
	Means       [][]float64   `msgpack:"means"`
	Covariances [][][]float64 `msgpack:"covariances"`
}

// Diagnostics captures training quality metadata.
type Diagnostics struct {
	LogLikelihood float64   `msgpack:"log_likelihood"`
	AIC           float64   `msgpack:"aic"`
	BIC           float64   `msgpack:"bic"`
	TrainingRows  int       `msgpack:"training_rows"`
	Iterations    int       `msgpack:"iterations"`
	TrainedAt     time.Time `msgpack:"trained_at"`
}

// Model is a trained Gaussian HMM with its state-to-label mapping and
// training diagnostics. Read-only during inference.
type Model struct {
	ID          string      `msgpack:"id"`
	Symbol      string      `msgpack:"symbol"`
	Version     int         `msgpack:"version"`
	Params      Params      `msgpack:"params"`
	Mapping     Mapping     `msgpack:"mapping"`
	Diagnostics Diagnostics `msgpack:"diagnostics"`
}

// Train fits a 5-state full-covariance Gaussian HMM to the bar history.
// Rows with NaN features are dropped first; fewer than MinTrainingRows
// clean rows is an explicit error, never a silently degraded fit.
func Train(symbol string, bars []domain.MarketBar) (*Model, error) {
	rows := BuildFeatures(bars)
	if len(rows) < MinTrainingRows {
		return nil, fmt.Errorf("insufficient training data for %s: %d clean rows, need %d",
			symbol, len(rows), MinTrainingRows)
	}

	params := initParams(rows)

	var (
		logLik  float64
		prevLik = math.Inf(-1)
		iters   int
	)
	for iters = 1; iters <= maxEMIterations; iters++ {
		logB, err := emissionLogProbs(params, rows)
		if err != nil {
			return nil, fmt.Errorf("emission density failed: %w", err)
		}

		gamma, xi, ll := forwardBackward(params, logB)
		logLik = ll

		maximize(&params, rows, gamma, xi)

		if iters > 1 && math.Abs(logLik-prevLik) < emTolerance*(math.Abs(prevLik)+1) {
			break
		}
		prevLik = logLik
	}

	t := float64(len(rows))
	k := float64(NumStates)
	d := float64(FeatureDim)
	p := (k - 1) + k*(k-1) + k*d + k*d*(d+1)/2

	m := &Model{
		Symbol:  symbol,
		Params:  params,
		Mapping: mapStates(params.Means),
		Diagnostics: Diagnostics{
			LogLikelihood: logLik,
			AIC:           2*p - 2*logLik,
			BIC:           p*math.Log(t) - 2*logLik,
			TrainingRows:  len(rows),
			Iterations:    iters,
			TrainedAt:     time.Now().UTC(),
		},
	}
	return m, nil
}

// initParams seeds EM from contiguous chunks of the (chronological)
// feature rows: one mean/covariance per chunk, self-biased transitions.
func initParams(rows [][]float64) Params {
	p := Params{
		States:      NumStates,
		Dim:         FeatureDim,
		InitProbs:   make([]float64, NumStates),
		Transition:  make([][]float64, NumStates),
		Means:       make([][]float64, NumStates),
		Covariances: make([][][]float64, NumStates),
	}

	chunk := len(rows) / NumStates
	for k := 0; k < NumStates; k++ {
		p.InitProbs[k] = 1.0 / NumStates

		p.Transition[k] = make([]float64, NumStates)
		for j := 0; j < NumStates; j++ {
			if j == k {
				p.Transition[k][j] = 0.8
			} else {
				p.Transition[k][j] = 0.2 / (NumStates - 1)
			}
		}

		start := k * chunk
		end := start + chunk
		if k == NumStates-1 {
			end = len(rows)
		}
		p.Means[k], p.Covariances[k] = meanAndCov(rows[start:end])
	}
	return p
}

// meanAndCov computes the sample mean and ridge-regularized covariance of
// a row block.
func meanAndCov(rows [][]float64) ([]float64, [][]float64) {
	n := float64(len(rows))
	mean := make([]float64, FeatureDim)
	for _, r := range rows {
		for d := 0; d < FeatureDim; d++ {
			mean[d] += r[d]
		}
	}
	for d := 0; d < FeatureDim; d++ {
		mean[d] /= n
	}

	cov := zeroMatrix(FeatureDim)
	for _, r := range rows {
		for a := 0; a < FeatureDim; a++ {
			for b := 0; b < FeatureDim; b++ {
				cov[a][b] += (r[a] - mean[a]) * (r[b] - mean[b])
			}
		}
	}
	for a := 0; a < FeatureDim; a++ {
		for b := 0; b < FeatureDim; b++ {
			cov[a][b] /= n
		}
		cov[a][a] += covRidge
	}
	return mean, cov
}

// emissionLogProbs returns logB[t][k] = log p(row_t | state k).
func emissionLogProbs(p Params, rows [][]float64) ([][]float64, error) {
	dists := make([]*distmv.Normal, p.States)
	for k := 0; k < p.States; k++ {
		sigma := symFromCov(p.Covariances[k])
		normal, ok := distmv.NewNormal(p.Means[k], sigma, nil)
		if !ok {
			// Covariance not positive definite; inflate the diagonal
			// and retry once.
			for d := 0; d < p.Dim; d++ {
				p.Covariances[k][d][d] += 1e-3
			}
			normal, ok = distmv.NewNormal(p.Means[k], symFromCov(p.Covariances[k]), nil)
			if !ok {
				return nil, fmt.Errorf("state %d covariance not positive definite", k)
			}
		}
		dists[k] = normal
	}

	logB := make([][]float64, len(rows))
	for t, row := range rows {
		logB[t] = make([]float64, p.States)
		for k := 0; k < p.States; k++ {
			logB[t][k] = dists[k].LogProb(row)
		}
	}
	return logB, nil
}

// forwardBackward runs the scaled forward-backward recursion and returns
// per-step state posteriors (gamma), summed transition posteriors (xi),
// and the total log-likelihood. Emission probabilities are shifted by the
// per-row max log-density before exponentiation so no row underflows.
func forwardBackward(p Params, logB [][]float64) (gamma [][]float64, xi [][]float64, logLik float64) {
	T := len(logB)
	K := p.States

	shift := make([]float64, T)
	b := make([][]float64, T)
	for t := 0; t < T; t++ {
		m := logB[t][0]
		for k := 1; k < K; k++ {
			if logB[t][k] > m {
				m = logB[t][k]
			}
		}
		shift[t] = m
		b[t] = make([]float64, K)
		for k := 0; k < K; k++ {
			b[t][k] = math.Exp(logB[t][k] - m)
		}
	}

	alpha := make([][]float64, T)
	scale := make([]float64, T)

	alpha[0] = make([]float64, K)
	for k := 0; k < K; k++ {
		alpha[0][k] = p.InitProbs[k] * b[0][k]
		scale[0] += alpha[0][k]
	}
	normalize(alpha[0], scale[0])

	for t := 1; t < T; t++ {
		alpha[t] = make([]float64, K)
		for k := 0; k < K; k++ {
			sum := 0.0
			for j := 0; j < K; j++ {
				sum += alpha[t-1][j] * p.Transition[j][k]
			}
			alpha[t][k] = sum * b[t][k]
			scale[t] += alpha[t][k]
		}
		normalize(alpha[t], scale[t])
	}

	for t := 0; t < T; t++ {
		logLik += math.Log(scale[t]) + shift[t]
	}

	beta := make([][]float64, T)
	beta[T-1] = make([]float64, K)
	for k := 0; k < K; k++ {
		beta[T-1][k] = 1
	}
	for t := T - 2; t >= 0; t-- {
		beta[t] = make([]float64, K)
		for k := 0; k < K; k++ {
			sum := 0.0
			for j := 0; j < K; j++ {
				sum += p.Transition[k][j] * b[t+1][j] * beta[t+1][j]
			}
			beta[t][k] = sum / scale[t+1]
		}
	}

	gamma = make([][]float64, T)
	for t := 0; t < T; t++ {
		gamma[t] = make([]float64, K)
		total := 0.0
		for k := 0; k < K; k++ {
			gamma[t][k] = alpha[t][k] * beta[t][k]
			total += gamma[t][k]
		}
		normalize(gamma[t], total)
	}

	// xi summed over time: xi[i][j] = sum_t P(s_t=i, s_t+1=j | obs)
	xi = zeroMatrix(K)
	for t := 0; t < T-1; t++ {
		total := 0.0
		step := zeroMatrix(K)
		for i := 0; i < K; i++ {
			for j := 0; j < K; j++ {
				v := alpha[t][i] * p.Transition[i][j] * b[t+1][j] * beta[t+1][j]
				step[i][j] = v
				total += v
			}
		}
		if total == 0 {
			continue
		}
		for i := 0; i < K; i++ {
			for j := 0; j < K; j++ {
				xi[i][j] += step[i][j] / total
			}
		}
	}

	return gamma, xi, logLik
}

// maximize updates the parameters in place from the E-step posteriors.
func maximize(p *Params, rows [][]float64, gamma [][]float64, xi [][]float64) {
	T := len(rows)
	K := p.States

	for k := 0; k < K; k++ {
		p.InitProbs[k] = gamma[0][k]
	}

	for i := 0; i < K; i++ {
		occupancy := 0.0
		for t := 0; t < T-1; t++ {
			occupancy += gamma[t][i]
		}
		if occupancy == 0 {
			continue
		}
		for j := 0; j < K; j++ {
			p.Transition[i][j] = xi[i][j] / occupancy
		}
	}

	for k := 0; k < K; k++ {
		weight := 0.0
		mean := make([]float64, p.Dim)
		for t := 0; t < T; t++ {
			w := gamma[t][k]
			weight += w
			for d := 0; d < p.Dim; d++ {
				mean[d] += w * rows[t][d]
			}
		}
		if weight == 0 {
			continue
		}
		for d := 0; d < p.Dim; d++ {
			mean[d] /= weight
		}

		cov := zeroMatrix(p.Dim)
		for t := 0; t < T; t++ {
			w := gamma[t][k]
			for a := 0; a < p.Dim; a++ {
				for bIdx := 0; bIdx < p.Dim; bIdx++ {
					cov[a][bIdx] += w * (rows[t][a] - mean[a]) * (rows[t][bIdx] - mean[bIdx])
				}
			}
		}
		for a := 0; a < p.Dim; a++ {
			for bIdx := 0; bIdx < p.Dim; bIdx++ {
				cov[a][bIdx] /= weight
			}
			cov[a][a] += covRidge
		}

		p.Means[k] = mean
		p.Covariances[k] = cov
	}
}

func symFromCov(cov [][]float64) *mat.SymDense {
	d := len(cov)
	sym := mat.NewSymDense(d, nil)
	for i := 0; i < d; i++ {
		for j := i; j < d; j++ {
			// Average the off-diagonal pair to guarantee exact symmetry.
			sym.SetSym(i, j, (cov[i][j]+cov[j][i])/2)
		}
	}
	return sym
}

func zeroMatrix(n int) [][]float64 {
	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n)
	}
	return m
}

func normalize(v []float64, total float64) {
	if total == 0 {
		for i := range v {
			v[i] = 1.0 / float64(len(v))
		}
		return
	}
	for i := range v {
		v[i] /= total
	}
}
