package events

import "github.com/rs/zerolog"

// Publisher is the boundary to the external alert/notification
// collaborator. Implementations must not block the caller for long;
// delivery retries belong to the transport, not the engine.
type Publisher interface {
	Publish(event EventWithData)
}

// NopPublisher discards events. Useful in tests and when no transport is
// configured.
type NopPublisher struct{}

// Publish implements Publisher.
func (NopPublisher) Publish(EventWithData) {}

// LogPublisher writes events to the structured log. The default transport
// when no external collaborator is wired in.
type LogPublisher struct {
	log zerolog.Logger
}

// NewLogPublisher creates a publisher that logs each event.
func NewLogPublisher(log zerolog.Logger) *LogPublisher {
	return &LogPublisher{log: log.With().Str("component", "events").Logger()}
}

// Publish implements Publisher.
func (p *LogPublisher) Publish(event EventWithData) {
	p.log.Info().
		Str("event_type", string(event.Type)).
		Str("module", event.Module).
		Interface("data", event.Data).
		Msg("Event published")
}
