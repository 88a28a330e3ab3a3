package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	inner := &fakeChannel{name: "email", err: errors.New("smtp down")}
	ch := WithBreaker(inner)

	for i := 0; i < 5; i++ {
		assert.Error(t, ch.Send(context.Background(), "asha@example.com", Message{Body: "x"}))
	}
	require.Len(t, inner.sent(), 5)

	// Open breaker: the failure surfaces without reaching the provider.
	err := ch.Send(context.Background(), "asha@example.com", Message{Body: "x"})
	assert.Error(t, err)
	assert.Len(t, inner.sent(), 5)
	assert.Equal(t, "email", ch.Name())
}

func TestDispatcherDropsSendsWhileBreakerOpen(t *testing.T) {
	email := &fakeChannel{name: "email", err: errors.New("smtp down")}
	sms := &fakeChannel{name: "sms"}
	d := NewDispatcher(WithBreaker(email), sms, 32, 1, zaptest.NewLogger(t))

	for i := 0; i < 5; i++ {
		d.TransferCompleted(testResult())
	}
	d.Stop()

	// Five transfers queue ten email jobs; the provider sees only the five
	// that tripped the breaker. SMS delivery is unaffected, and the open
	// breaker never fails a transfer or stalls a worker.
	assert.Len(t, email.sent(), 5)
	assert.Len(t, sms.sent(), 10)
}
