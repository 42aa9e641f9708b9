package mock

import (
	"context"
	"sync"

	"github.com/yourorg/gateway-normalizer/internal/adapter"
)

// Transport is a programmable adapter.Transport that records every request.
type Transport struct {
	DoFunc func(ctx context.Context, req adapter.Request) ([]byte, error)

	mu       sync.Mutex
	requests []adapter.Request
}

// NewTransport returns a Transport answering every call with body.
func NewTransport(body string) *Transport {
	return &Transport{
		DoFunc: func(context.Context, adapter.Request) ([]byte, error) {
			return []byte(body), nil
		},
	}
}

// Do records req and delegates to DoFunc. Without DoFunc it returns an
// approved response with a fixed transaction id.
func (m *Transport) Do(ctx context.Context, req adapter.Request) ([]byte, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.DoFunc != nil {
		return m.DoFunc(ctx, req)
	}
	return []byte("1,1,1,This transaction has been approved.,AUTH01,Y,2149186775"), nil
}

// Requests returns a copy of the recorded requests.
func (m *Transport) Requests() []adapter.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]adapter.Request, len(m.requests))
	copy(out, m.requests)
	return out
}

// Calls is the number of recorded requests.
func (m *Transport) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}
