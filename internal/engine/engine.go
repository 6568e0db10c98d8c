// Package engine wires the full per-symbol decision pipeline: bars ->
// indicators -> rule + HMM regimes -> ensemble -> strategy routing, plus
// position repair checks and model training orchestration.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/aristath/optioneer/internal/domain"
	"github.com/aristath/optioneer/internal/events"
	"github.com/aristath/optioneer/internal/hmm"
	"github.com/aristath/optioneer/internal/regime"
	"github.com/aristath/optioneer/internal/repair"
	"github.com/aristath/optioneer/internal/router"
	"github.com/aristath/optioneer/internal/snapshots"
)

// Options tunes the engine.
type Options struct {
	BarHistory    int     // bars fetched per evaluation
	Workers       int     // bounded parallelism for batch runs
	AccountEquity float64 // used by repair loss-ratio checks
}

// Engine is the top-level orchestrator. All pipeline computation is pure
// and synchronous; the only mutable shared state is the per-symbol regime
// registry and the per-symbol classifier map, both internally locked.
type Engine struct {
	bars      domain.BarProvider
	chains    domain.ChainProvider
	registry  *regime.Registry
	models    hmm.ModelStore
	router    *router.Router
	repairer  *repair.Engine
	audit     *snapshots.Repository // optional
	publisher events.Publisher
	opts      Options
	log       zerolog.Logger

	mu          sync.Mutex
	classifiers map[string]*hmm.Classifier
}

// New creates an engine. audit may be nil to disable snapshot recording;
// publisher may be nil to disable events.
func New(
	bars domain.BarProvider,
	chains domain.ChainProvider,
	registry *regime.Registry,
	models hmm.ModelStore,
	rt *router.Router,
	repairer *repair.Engine,
	audit *snapshots.Repository,
	publisher events.Publisher,
	opts Options,
	log zerolog.Logger,
) *Engine {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if opts.BarHistory == 0 {
		opts.BarHistory = 500
	}
	if opts.Workers == 0 {
		opts.Workers = 4
	}
	return &Engine{
		bars:        bars,
		chains:      chains,
		registry:    registry,
		models:      models,
		router:      rt,
		repairer:    repairer,
		audit:       audit,
		publisher:   publisher,
		opts:        opts,
		log:         log.With().Str("component", "engine").Logger(),
		classifiers: make(map[string]*hmm.Classifier),
	}
}

// Analysis is the full output of one symbol evaluation.
type Analysis struct {
	Symbol   string               `json:"symbol"`
	Ensemble regime.EnsembleResult `json:"ensemble"`
	HMM      hmm.Prediction       `json:"hmm"`
	Route    router.RouteResult   `json:"route"`
}

// AnalyzeSymbol runs the whole pipeline for one symbol: fetch bars,
// classify (rule + HMM + ensemble), record the snapshot, emit shift
// events, fetch the chain, and route to ranked trades.
func (e *Engine) AnalyzeSymbol(ctx context.Context, symbol string) (*Analysis, error) {
	bars, err := e.bars.Bars(ctx, symbol, e.opts.BarHistory)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch bars for %s: %w", symbol, err)
	}

	ruleRes := e.registry.Detect(symbol, bars)

	pred := e.classifier(ctx, symbol).Predict(bars)
	var view *regime.HMMView
	if !pred.Fallback {
		view = &regime.HMMView{
			Label:         pred.Label,
			Confidence:    pred.Confidence,
			Probabilities: pred.Probabilities,
			Transitions:   pred.Transitions,
		}
	}

	ens := regime.Combine(ruleRes, view, e.log)

	if e.audit != nil {
		if err := e.audit.RecordRegime(ctx, symbol, ens); err != nil {
			e.log.Error().Err(err).Str("symbol", symbol).Msg("Failed to record regime snapshot")
		}
	}

	if ens.IsShift {
		state := e.registry.State(symbol)
		e.publisher.Publish(events.New("engine", &events.RegimeShiftData{
			Symbol:      symbol,
			FromRegime:  string(state.Previous),
			ToRegime:    string(ens.Regime),
			Method:      ens.Method,
			Description: ens.Description,
		}))
	}

	chain, err := e.chains.Chain(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch chain for %s: %w", symbol, err)
	}

	route, err := e.router.Route(ens.Regime, chain)
	if err != nil {
		return nil, fmt.Errorf("routing failed for %s: %w", symbol, err)
	}

	idea := &events.TradeIdeasReadyData{
		Symbol:         symbol,
		Regime:         string(ens.Regime),
		CandidateCount: route.CandidateCount,
		TopCount:       len(route.Top),
	}
	if len(route.Top) > 0 {
		idea.BestComposite = route.Top[0].Composite
		idea.BestRationale = route.Top[0].Rationale
	}
	e.publisher.Publish(events.New("engine", idea))

	return &Analysis{
		Symbol:   symbol,
		Ensemble: ens,
		HMM:      pred,
		Route:    route,
	}, nil
}

// RefreshWatchlist analyzes every symbol with bounded parallelism. Each
// symbol's pipeline is independent; per-symbol state lives behind the
// registry's per-key locks, so no cross-symbol synchronization is needed.
// Per-symbol failures are collected, not fatal to the batch.
func (e *Engine) RefreshWatchlist(ctx context.Context, symbols []string) (map[string]*Analysis, map[string]error) {
	results := make(map[string]*Analysis, len(symbols))
	failures := make(map[string]error)

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		sem = make(chan struct{}, e.opts.Workers)
	)

	for _, symbol := range symbols {
		wg.Add(1)
		go func(symbol string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			analysis, err := e.AnalyzeSymbol(ctx, symbol)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures[symbol] = err
				return
			}
			results[symbol] = analysis
		}(symbol)
	}
	wg.Wait()

	e.log.Info().
		Int("ok", len(results)).
		Int("failed", len(failures)).
		Msg("Watchlist refresh complete")

	return results, failures
}

// TrainSymbol fits a new HMM version on the symbol's history, persists
// it, activates it, and swaps it into the live classifier.
func (e *Engine) TrainSymbol(ctx context.Context, symbol string) (*hmm.Model, error) {
	bars, err := e.bars.Bars(ctx, symbol, e.opts.BarHistory)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch bars for %s: %w", symbol, err)
	}

	model, err := hmm.Train(symbol, bars)
	if err != nil {
		return nil, err
	}

	if e.models != nil {
		if err := e.models.Save(ctx, model); err != nil {
			return nil, err
		}
		if err := e.models.Activate(ctx, model.ID); err != nil {
			return nil, err
		}
	}

	e.classifier(ctx, symbol).SetModel(model)

	e.publisher.Publish(events.New("engine", &events.ModelTrainedData{
		ModelID:       model.ID,
		Symbol:        symbol,
		Version:       model.Version,
		TrainingRows:  model.Diagnostics.TrainingRows,
		LogLikelihood: model.Diagnostics.LogLikelihood,
		AIC:           model.Diagnostics.AIC,
		BIC:           model.Diagnostics.BIC,
	}))

	return model, nil
}

// classifier returns the symbol's classifier, lazily loading the active
// model from the store on first use. A missing model is not an error;
// the classifier fails soft until one is trained.
func (e *Engine) classifier(ctx context.Context, symbol string) *hmm.Classifier {
	e.mu.Lock()
	c, ok := e.classifiers[symbol]
	if !ok {
		c = hmm.NewClassifier(e.log)
		e.classifiers[symbol] = c
	}
	e.mu.Unlock()
	if ok {
		return c
	}

	if e.models != nil {
		model, err := e.models.Active(ctx, symbol)
		switch {
		case err == nil:
			c.SetModel(model)
		case errors.Is(err, domain.ErrModelUnavailable):
			// fail-soft; rule-based only until trained
		default:
			e.log.Error().Err(err).Str("symbol", symbol).Msg("Failed to load active model")
		}
	}
	return c
}
