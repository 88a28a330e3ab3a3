package notify

import (
	"context"

	"github.com/sony/gobreaker"
)

// breakerChannel wraps a channel with a circuit breaker so a dead provider
// fails fast instead of tying up dispatcher workers on timeouts. An open
// breaker surfaces as an ordinary send failure.
type breakerChannel struct {
	inner   Channel
	breaker *gobreaker.CircuitBreaker
}

// WithBreaker decorates a channel with a per-channel circuit breaker.
func WithBreaker(inner Channel) Channel {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name: inner.Name(),
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	return &breakerChannel{inner: inner, breaker: cb}
}

func (b *breakerChannel) Name() string { return b.inner.Name() }

func (b *breakerChannel) Send(ctx context.Context, recipient string, msg Message) error {
	_, err := b.breaker.Execute(func() (any, error) {
		return nil, b.inner.Send(ctx, recipient, msg)
	})
	return err
}
