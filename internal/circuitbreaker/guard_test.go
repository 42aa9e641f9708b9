package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/gateway-normalizer/internal/adapter"
	adaptermock "github.com/yourorg/gateway-normalizer/internal/adapter/mock"
)

func TestGuard_FailsFastWhenOpen(t *testing.T) {
	fail := true
	next := &adaptermock.Transport{
		DoFunc: func(context.Context, adapter.Request) ([]byte, error) {
			if fail {
				return nil, errors.New("connection refused")
			}
			return []byte("1,,1,,,,1"), nil
		},
	}
	cb, clock := newTestBreaker(Config{FailureThreshold: 2, ResetTimeout: time.Minute})
	guarded := Guard(next, cb)
	req := adapter.NewFormPost(testEndpoint, []byte("x_amount=1.00"))

	for i := 0; i < 2; i++ {
		_, err := guarded.Do(context.Background(), req)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrCircuitOpen)
	}

	_, err := guarded.Do(context.Background(), req)
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, 2, next.Calls(), "an open circuit never reaches the transport")

	fail = false
	clock.advance(time.Minute)
	body, err := guarded.Do(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "1,,1,,,,1", string(body))

	state, _ := cb.GetEndpointStatus(testEndpoint)
	assert.Equal(t, StateClosed, state)
}

func TestGuard_NilArgumentsPanic(t *testing.T) {
	cb := NewCircuitBreaker(Config{})
	assert.Panics(t, func() { Guard(nil, cb) })
	assert.Panics(t, func() { Guard(adaptermock.NewTransport(""), nil) })
}
