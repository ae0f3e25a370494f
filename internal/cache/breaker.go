package cache

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"MediPay/pkg/logger"
)

// State 熔断器状态
type State int

const (
	StateClosed   State = iota // 正常工作
	StateOpen                  // 熔断中，直接跳过缓存
	StateHalfOpen              // 放行少量请求试探恢复
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreaker Redis 连续失败时熔断，避免每个请求都等待超时
type CircuitBreaker struct {
	now              func() time.Time
	lastFailTime     time.Time
	name             string
	maxFailures      int
	resetTimeout     time.Duration
	halfOpenMaxCalls int

	mu            sync.Mutex
	state         State
	failures      int
	halfOpenCalls int
}

func NewCircuitBreaker(name string, maxFailures int, resetTimeout time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		name:             name,
		maxFailures:      maxFailures,
		resetTimeout:     resetTimeout,
		halfOpenMaxCalls: 3,
		state:            StateClosed,
		now:              time.Now,
	}
}

// Call 熔断时不执行 operation，返回 ErrBreakerOpen
func (cb *CircuitBreaker) Call(operation func() error) error {
	if !cb.allowRequest() {
		return fmt.Errorf("%w: %s", ErrBreakerOpen, cb.name)
	}

	err := operation()
	cb.recordResult(err)
	return err
}

func (cb *CircuitBreaker) allowRequest() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		return true
	case StateOpen:
		if cb.now().Sub(cb.lastFailTime) < cb.resetTimeout {
			return false
		}
		cb.transitionTo(StateHalfOpen)
		fallthrough
	case StateHalfOpen:
		if cb.halfOpenCalls >= cb.halfOpenMaxCalls {
			return false
		}
		cb.halfOpenCalls++
		return true
	default:
		return false
	}
}

func (cb *CircuitBreaker) recordResult(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err == nil {
		if cb.state == StateHalfOpen {
			cb.transitionTo(StateClosed)
		}
		cb.failures = 0
		return
	}

	cb.failures++
	cb.lastFailTime = cb.now()

	logger.Logger.Warn("Cache operation failed",
		zap.String("breaker", cb.name),
		zap.Int("failures", cb.failures),
		zap.String("state", cb.state.String()),
		zap.Error(err),
	)

	if cb.state == StateHalfOpen || cb.failures >= cb.maxFailures {
		cb.transitionTo(StateOpen)
	}
}

// transitionTo 调用方持有锁
func (cb *CircuitBreaker) transitionTo(state State) {
	cb.state = state
	cb.halfOpenCalls = 0
	if state == StateClosed {
		cb.failures = 0
	}

	logger.Logger.Info("Circuit breaker state changed",
		zap.String("breaker", cb.name),
		zap.String("state", state.String()),
	)
}

func (cb *CircuitBreaker) GetState() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}
