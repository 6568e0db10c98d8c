package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/aristath/optioneer/internal/engine"
	"github.com/aristath/optioneer/internal/events"
)

// RefreshJob runs the end-of-day watchlist refresh: every configured
// symbol goes through the full pipeline with bounded parallelism.
type RefreshJob struct {
	engine    *engine.Engine
	symbols   []string
	timeout   time.Duration
	publisher events.Publisher
}

// NewRefreshJob creates the watchlist refresh job. A zero timeout
// defaults to 10 minutes for the whole batch.
func NewRefreshJob(eng *engine.Engine, symbols []string, timeout time.Duration, publisher events.Publisher) *RefreshJob {
	if timeout == 0 {
		timeout = 10 * time.Minute
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &RefreshJob{
		engine:    eng,
		symbols:   symbols,
		timeout:   timeout,
		publisher: publisher,
	}
}

// Name implements Job.
func (j *RefreshJob) Name() string {
	return "watchlist_refresh"
}

// Run implements Job.
func (j *RefreshJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	start := time.Now()
	j.publisher.Publish(events.New("scheduler", &events.JobStatusData{
		JobName:   j.Name(),
		Status:    "started",
		Timestamp: start,
	}))

	_, failures := j.engine.RefreshWatchlist(ctx, j.symbols)

	status := &events.JobStatusData{
		JobName:   j.Name(),
		Status:    "completed",
		Duration:  time.Since(start).Seconds(),
		Timestamp: time.Now().UTC(),
	}

	var err error
	if len(failures) > 0 {
		err = fmt.Errorf("%d of %d symbols failed", len(failures), len(j.symbols))
		status.Status = "failed"
		status.Error = err.Error()
	}
	j.publisher.Publish(events.New("scheduler", status))

	return err
}
