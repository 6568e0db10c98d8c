package domain

import "context"

// BarProvider supplies time-ordered market bars for an underlying. The
// engine never fetches data itself; implementations live outside the core.
type BarProvider interface {
	// Bars returns up to limit most-recent bars, oldest first.
	Bars(ctx context.Context, symbol string, limit int) ([]MarketBar, error)
}

// ChainProvider supplies the current quoted option chain for an underlying.
type ChainProvider interface {
	Chain(ctx context.Context, symbol string) (OptionChain, error)
}
