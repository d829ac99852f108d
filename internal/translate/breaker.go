package translate

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker"
)

// Breaker guards a Translator with a circuit breaker. When the call fails
// or the circuit is open, it returns the input texts with ErrFallback.
type Breaker struct {
	next      Translator
	cb        *gobreaker.CircuitBreaker
	fallbacks prometheus.Counter
}

// NewBreaker opens the circuit after 5 consecutive failures and probes
// again after 30s.
func NewBreaker(next Translator, fallbacks prometheus.Counter) *Breaker {
	return &Breaker{
		next:      next,
		fallbacks: fallbacks,
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "translator",
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				slog.Warn("Circuit breaker state changed", "component", name, "from", from.String(), "to", to.String())
			},
		}),
	}
}

func (b *Breaker) Translate(ctx context.Context, texts []string, to, from string) ([]string, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.Translate(ctx, texts, to, from)
	})
	if err == nil {
		return out.([]string), nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	slog.WarnContext(ctx, "Translation failed, returning original text", "error", err, "state", b.cb.State().String())
	if b.fallbacks != nil {
		b.fallbacks.Inc()
	}
	return append([]string(nil), texts...), ErrFallback
}

// State reports the circuit state.
func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}
