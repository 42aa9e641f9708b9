package circuitbreaker

import (
	"context"
	"errors"
	"fmt"

	"github.com/yourorg/gateway-normalizer/internal/adapter"
)

var ErrCircuitOpen = errors.New("circuit open")

type guardedTransport struct {
	next adapter.Transport
	cb   *CircuitBreaker
}

// Guard wraps next so calls to an endpoint with an open circuit fail fast
// with ErrCircuitOpen. Only transport errors count as failures; what the
// gateway says in the body is not the breaker's concern.
func Guard(next adapter.Transport, cb *CircuitBreaker) adapter.Transport {
	if next == nil {
		panic("transport cannot be nil")
	}
	if cb == nil {
		panic("circuit breaker cannot be nil")
	}
	return &guardedTransport{next: next, cb: cb}
}

func (g *guardedTransport) Do(ctx context.Context, req adapter.Request) ([]byte, error) {
	if !g.cb.AllowRequest(req.URL) {
		return nil, fmt.Errorf("%w for %s", ErrCircuitOpen, req.URL)
	}
	body, err := g.next.Do(ctx, req)
	if err != nil {
		g.cb.RecordFailure(req.URL)
		return nil, err
	}
	g.cb.RecordSuccess(req.URL)
	return body, nil
}
