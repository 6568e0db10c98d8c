// Package marketdata provides the default implementation of the market
// data collaborator boundary: a file-backed provider that reads bar
// histories and option chains dropped into the data directory by an
// external fetcher. The engine itself never fetches market data.
package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog"

	"github.com/aristath/optioneer/internal/domain"
)

// FileProvider serves bars from <dir>/bars/<SYMBOL>.json and chains from
// <dir>/chains/<SYMBOL>.json.
type FileProvider struct {
	dir string
	log zerolog.Logger
}

// NewFileProvider creates a provider rooted at the given directory.
func NewFileProvider(dir string, log zerolog.Logger) *FileProvider {
	return &FileProvider{
		dir: dir,
		log: log.With().Str("component", "marketdata").Logger(),
	}
}

// Bars implements domain.BarProvider. Bars are returned oldest first,
// truncated to the most recent `limit`.
func (p *FileProvider) Bars(ctx context.Context, symbol string, limit int) ([]domain.MarketBar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := filepath.Join(p.dir, "bars", symbol+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read bars for %s: %w", symbol, err)
	}

	var bars []domain.MarketBar
	if err := json.Unmarshal(data, &bars); err != nil {
		return nil, fmt.Errorf("failed to parse bars for %s: %w", symbol, err)
	}

	sort.Slice(bars, func(i, j int) bool {
		return bars[i].Timestamp.Before(bars[j].Timestamp)
	})

	if limit > 0 && len(bars) > limit {
		bars = bars[len(bars)-limit:]
	}
	return bars, nil
}

// Chain implements domain.ChainProvider.
func (p *FileProvider) Chain(ctx context.Context, symbol string) (domain.OptionChain, error) {
	if err := ctx.Err(); err != nil {
		return domain.OptionChain{}, err
	}

	path := filepath.Join(p.dir, "chains", symbol+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.OptionChain{}, fmt.Errorf("failed to read chain for %s: %w", symbol, err)
	}

	var chain domain.OptionChain
	if err := json.Unmarshal(data, &chain); err != nil {
		return domain.OptionChain{}, fmt.Errorf("failed to parse chain for %s: %w", symbol, err)
	}
	if chain.Symbol == "" {
		chain.Symbol = symbol
	}
	return chain, nil
}
