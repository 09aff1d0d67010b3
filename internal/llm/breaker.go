package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lorenco/sean/internal/common"
	"github.com/lorenco/sean/internal/service"
	"github.com/sony/gobreaker/v2"
)

// breakerClient wraps a completion client with a circuit breaker so a
// failing provider stops receiving traffic for a cooldown period.
type breakerClient struct {
	inner   service.CompletionClient
	breaker *gobreaker.CircuitBreaker[string]
}

// WithBreaker wraps a completion client in a circuit breaker. The breaker
// opens after three consecutive failures and probes again after 30 seconds.
func WithBreaker(inner service.CompletionClient) service.CompletionClient {
	settings := gobreaker.Settings{
		Name:        inner.Name(),
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("LLM circuit breaker state change",
				"provider", name,
				"from", from.String(),
				"to", to.String())
		},
	}

	return &breakerClient{
		inner:   inner,
		breaker: gobreaker.NewCircuitBreaker[string](settings),
	}
}

func (c *breakerClient) Name() string {
	return c.inner.Name()
}

// Complete forwards the request unless the breaker is open. An open
// breaker is reported as a non-retryable outage so callers stop asking
// until the cooldown passes.
func (c *breakerClient) Complete(ctx context.Context, req service.CompletionRequest) (string, error) {
	result, err := c.breaker.Execute(func() (string, error) {
		return c.inner.Complete(ctx, req)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", &common.RetryableError{
			Err:       fmt.Errorf("%s: %w", c.inner.Name(), common.ErrLLMUnavailable),
			Retryable: false,
		}
	}
	return result, err
}
