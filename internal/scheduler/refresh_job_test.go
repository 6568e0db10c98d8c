package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/optioneer/internal/domain"
	"github.com/aristath/optioneer/internal/engine"
	"github.com/aristath/optioneer/internal/events"
	"github.com/aristath/optioneer/internal/playbook"
	"github.com/aristath/optioneer/internal/regime"
	"github.com/aristath/optioneer/internal/repair"
	"github.com/aristath/optioneer/internal/router"
	"github.com/aristath/optioneer/internal/valuation"
)

type unavailableMarket struct{}

func (unavailableMarket) Bars(context.Context, string, int) ([]domain.MarketBar, error) {
	return nil, errors.New("feed unavailable")
}

func (unavailableMarket) Chain(context.Context, string) (domain.OptionChain, error) {
	return domain.OptionChain{}, errors.New("feed unavailable")
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.EventWithData
}

func (p *recordingPublisher) Publish(e events.EventWithData) {
	p.mu.Lock()
	p.events = append(p.events, e)
	p.mu.Unlock()
}

func TestRefreshJob_FailureReporting(t *testing.T) {
	pb, err := playbook.Default()
	require.NoError(t, err)

	eng := engine.New(
		unavailableMarket{},
		unavailableMarket{},
		regime.NewRegistry(regime.DefaultThresholds(), zerolog.Nop()),
		nil,
		router.New(pb, valuation.NewEngine(0), zerolog.Nop()),
		repair.NewEngine(repair.DefaultConfig(), nil, zerolog.Nop()),
		nil,
		nil,
		engine.Options{Workers: 1},
		zerolog.Nop(),
	)

	pub := &recordingPublisher{}
	job := NewRefreshJob(eng, []string{"SPY", "QQQ"}, 0, pub)

	assert.Equal(t, "watchlist_refresh", job.Name())

	err = job.Run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 of 2 symbols failed")

	// One started event, one failed event
	require.Len(t, pub.events, 2)
	assert.Equal(t, events.JobStarted, pub.events[0].Type)
	assert.Equal(t, events.JobFailed, pub.events[1].Type)

	status := pub.events[1].Data.(*events.JobStatusData)
	assert.Equal(t, "watchlist_refresh", status.JobName)
	assert.NotEmpty(t, status.Error)
}

func TestNewRefreshJob_NilPublisherDefaults(t *testing.T) {
	job := NewRefreshJob(nil, nil, 0, nil)
	assert.NotNil(t, job.publisher)
	assert.Positive(t, job.timeout)
}
