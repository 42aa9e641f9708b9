package circuitbreaker

import (
	"sync"
	"time"
)

// State represents the state of one endpoint's circuit.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

const (
	defaultFailureThreshold         = 3
	defaultResetTimeout             = 30 * time.Second
	defaultHalfOpenSuccessThreshold = 1
)

// Config tunes the breaker. Zero values fall back to the defaults.
type Config struct {
	FailureThreshold         int
	ResetTimeout             time.Duration
	HalfOpenSuccessThreshold int
}

type endpointState struct {
	state                State
	consecutiveFailures  int
	consecutiveSuccesses int
	openUntil            time.Time
}

// CircuitBreaker tracks transport failures per gateway endpoint and stops
// calls to an endpoint that keeps failing. It never retries.
type CircuitBreaker struct {
	mu        sync.Mutex
	endpoints map[string]*endpointState
	cfg       Config
	now       func() time.Time
}

func NewCircuitBreaker(cfg Config) *CircuitBreaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = defaultFailureThreshold
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = defaultResetTimeout
	}
	if cfg.HalfOpenSuccessThreshold <= 0 {
		cfg.HalfOpenSuccessThreshold = defaultHalfOpenSuccessThreshold
	}
	return &CircuitBreaker{
		endpoints: make(map[string]*endpointState),
		cfg:       cfg,
		now:       time.Now,
	}
}

// caller holds cb.mu
func (cb *CircuitBreaker) stateOf(endpoint string) *endpointState {
	es, ok := cb.endpoints[endpoint]
	if !ok {
		es = &endpointState{state: StateClosed}
		cb.endpoints[endpoint] = es
	}
	return es
}

// AllowRequest reports whether a call to endpoint may proceed. An open
// circuit whose reset timeout has passed moves to half-open and lets calls through.
func (cb *CircuitBreaker) AllowRequest(endpoint string) bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	es := cb.stateOf(endpoint)
	switch es.state {
	case StateOpen:
		if cb.now().Before(es.openUntil) {
			return false
		}
		es.state = StateHalfOpen
		es.consecutiveSuccesses = 0
		return true
	default:
		return true
	}
}

func (cb *CircuitBreaker) RecordFailure(endpoint string) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	es := cb.stateOf(endpoint)
	switch es.state {
	case StateClosed:
		es.consecutiveFailures++
		if es.consecutiveFailures >= cb.cfg.FailureThreshold {
			cb.trip(es)
		}
	case StateHalfOpen:
		es.consecutiveFailures++
		cb.trip(es)
	}
}

func (cb *CircuitBreaker) trip(es *endpointState) {
	es.state = StateOpen
	es.openUntil = cb.now().Add(cb.cfg.ResetTimeout)
	es.consecutiveSuccesses = 0
}

func (cb *CircuitBreaker) RecordSuccess(endpoint string) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	es := cb.stateOf(endpoint)
	switch es.state {
	case StateClosed:
		es.consecutiveFailures = 0
	case StateHalfOpen:
		es.consecutiveSuccesses++
		if es.consecutiveSuccesses >= cb.cfg.HalfOpenSuccessThreshold {
			es.state = StateClosed
			es.consecutiveFailures = 0
			es.consecutiveSuccesses = 0
		}
	}
}

// GetEndpointStatus returns the state and consecutive failure count without
// triggering the open to half-open transition.
func (cb *CircuitBreaker) GetEndpointStatus(endpoint string) (State, int) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	es, ok := cb.endpoints[endpoint]
	if !ok {
		return StateClosed, 0
	}
	return es.state, es.consecutiveFailures
}
