package resilience

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

// ErrOpenCircuit is returned while an upstream's breaker refuses calls.
var ErrOpenCircuit = errors.New("resilience: circuit breaker open")

// State is the position of a Breaker.
type State int

const (
	StateClosed State = iota
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
		return "half_open"
	}
	return "unknown"
}

// BreakerConfig tunes a Breaker. Zero fields take the defaults noted below.
type BreakerConfig struct {
	// Upstream labels metrics and logs, e.g. "accounts_provider".
	Upstream string
	// MinCalls is how many outcomes are needed before the failure ratio counts (1).
	MinCalls int
	// FailureRatio opens the breaker once reached (0.5).
	FailureRatio float64
	// Cooldown is how long the breaker stays open before a trial call (30s).
	Cooldown time.Duration
	Logger   zerolog.Logger
	Now      func() time.Time
}

// Breaker stops calls to an upstream that keeps failing. After Cooldown a
// single trial call is let through; its outcome closes or reopens the breaker.
type Breaker struct {
	cfg BreakerConfig

	mu       sync.Mutex
	state    State
	ok, fail int
	openedAt time.Time
	trial    bool
}

// NewBreaker returns a closed breaker.
func NewBreaker(cfg BreakerConfig) *Breaker {
	if cfg.MinCalls <= 0 {
		cfg.MinCalls = 1
	}
	if cfg.FailureRatio <= 0 || cfg.FailureRatio > 1 {
		cfg.FailureRatio = 0.5
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 30 * time.Second
	}
	if cfg.Upstream == "" {
		cfg.Upstream = "upstream"
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	b := &Breaker{cfg: cfg}
	b.publishState()
	return b
}

// State returns the current state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Allow reports whether a call may go out now.
func (b *Breaker) Allow(ctx context.Context) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.state {
	case StateOpen:
		if b.cfg.Now().Sub(b.openedAt) < b.cfg.Cooldown {
			return false
		}
		b.moveTo(ctx, StateHalfOpen)
		b.trial = true
		return true
	case StateHalfOpen:
		if b.trial {
			return false
		}
		b.trial = true
		return true
	default:
		return true
	}
}

// Report records the outcome of a call admitted by Allow.
func (b *Breaker) Report(ctx context.Context, success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.state {
	case StateOpen:
		return
	case StateHalfOpen:
		b.trial = false
		if success {
			b.moveTo(ctx, StateClosed)
		} else {
			b.moveTo(ctx, StateOpen)
		}
		return
	}

	if success {
		b.ok++
	} else {
		b.fail++
	}
	total := b.ok + b.fail
	if total < b.cfg.MinCalls {
		return
	}
	if float64(b.fail)/float64(total) >= b.cfg.FailureRatio {
		b.moveTo(ctx, StateOpen)
		return
	}
	// Halve old outcomes so recent calls weigh more.
	if total >= 2*b.cfg.MinCalls {
		b.ok /= 2
		b.fail /= 2
	}
}

func (b *Breaker) moveTo(ctx context.Context, next State) {
	prev := b.state
	if prev == next {
		return
	}
	b.state = next
	b.ok, b.fail = 0, 0
	if next == StateOpen {
		b.openedAt = b.cfg.Now()
	}
	b.publishState()
	if BreakerTransitions != nil {
		BreakerTransitions.WithLabelValues(b.cfg.Upstream, prev.String(), next.String()).Inc()
	}
	if next == StateOpen && BreakerOpenedTotal != nil {
		BreakerOpenedTotal.WithLabelValues(b.cfg.Upstream).Inc()
	}

	logger := b.cfg.Logger
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		logger = *l
	}
	evt := logger.Warn()
	if next == StateClosed {
		evt = logger.Info()
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		evt = evt.Str("trace_id", sc.TraceID().String())
	}
	evt.Str("upstream", b.cfg.Upstream).
		Str("from", prev.String()).
		Str("to", next.String()).
		Msg("upstream breaker state changed")
}

func (b *Breaker) publishState() {
	if BreakerState != nil {
		BreakerState.WithLabelValues(b.cfg.Upstream).Set(float64(b.state))
	}
}
