package httpclient

import (
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/IgorGrieder/encurtador-qr/internal/infrastructure/logger"
)

type State int

const (
	StateClosed State = iota + 1
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	}
	return "unknown"
}

var ErrCircuitOpen = errors.New("circuit breaker is open")

var breakerState = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: "shortener",
		Subsystem: "upstream",
		Name:      "breaker_state",
		Help:      "Circuit breaker state per upstream: 1 closed, 2 open, 3 half-open.",
	},
	[]string{"upstream"},
)

// CircuitBreaker opens after maxFailures consecutive failures and lets a
// single probe through once openTimeout has passed.
type CircuitBreaker struct {
	name        string
	mu          sync.Mutex
	state       State
	failures    int
	maxFailures int
	openSince   time.Time
	openTimeout time.Duration
	now         func() time.Time
}

func NewCircuitBreaker(name string, maxFailures int, openTimeout time.Duration) *CircuitBreaker {
	if maxFailures <= 0 {
		maxFailures = 1
	}
	if name == "" {
		name = "default"
	}
	cb := &CircuitBreaker{
		name:        name,
		state:       StateClosed,
		maxFailures: maxFailures,
		openTimeout: openTimeout,
		now:         time.Now,
	}
	breakerState.WithLabelValues(name).Set(float64(StateClosed))
	return cb
}

func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

func (cb *CircuitBreaker) CheckBeforeRequest() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateOpen:
		if cb.now().Sub(cb.openSince) <= cb.openTimeout {
			return ErrCircuitOpen
		}
		cb.transition(StateHalfOpen, "open timeout elapsed")
		return nil
	case StateHalfOpen:
		return ErrCircuitOpen
	}
	return nil
}

func (cb *CircuitBreaker) OnSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures = 0
	if cb.state == StateHalfOpen {
		cb.transition(StateClosed, "probe succeeded")
	}
}

func (cb *CircuitBreaker) OnFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateHalfOpen:
		cb.transition(StateOpen, "probe failed")
	case StateClosed:
		cb.failures++
		if cb.failures >= cb.maxFailures {
			cb.transition(StateOpen, "failure threshold reached")
		}
	}
}

// transition must be called with mu held.
func (cb *CircuitBreaker) transition(to State, reason string) {
	from := cb.state
	cb.state = to
	if to == StateOpen {
		cb.openSince = cb.now()
	}
	if to == StateClosed {
		cb.failures = 0
	}
	breakerState.WithLabelValues(cb.name).Set(float64(to))

	fields := []zap.Field{
		zap.String("upstream", cb.name),
		zap.Stringer("from", from),
		zap.Stringer("to", to),
		zap.String("reason", reason),
	}
	if to == StateOpen {
		logger.Error("circuit breaker opened", fields...)
		return
	}
	logger.Warn("circuit breaker state changed", fields...)
}
