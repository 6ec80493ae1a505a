package circuit

import (
	"context"
	"errors"
	"sync"
	"time"

	apperrors "github.com/rzzdr/option-scenario-engine/pkg/utils/errors"
	"github.com/rzzdr/option-scenario-engine/pkg/utils/logger"
)

// State of a breaker
type State int

const (
	StateClosed State = iota
	StateHalfOpen
	StateOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateHalfOpen:
		return "half_open"
	case StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

var (
	// ErrOpen is returned without calling through while the breaker is open
	ErrOpen = errors.New("circuit breaker is open")
	// ErrTooManyProbes is returned when the half-open probe budget is spent
	ErrTooManyProbes = errors.New("circuit breaker is probing")
)

// Config of a breaker
type Config struct {
	MaxFailures int           // consecutive failures before opening
	Cooldown    time.Duration // time spent open before probing
	MaxProbes   int           // calls let through while half-open
	// IsFailure decides which errors count against the breaker
	IsFailure func(error) bool
}

// DefaultConfig opens after 5 consecutive failures and probes once after 30s
func DefaultConfig() Config {
	return Config{
		MaxFailures: 5,
		Cooldown:    30 * time.Second,
		MaxProbes:   1,
		IsFailure:   func(err error) bool { return err != nil },
	}
}

// Breaker stops calling a failing dependency until it has had time to recover
type Breaker struct {
	name   string
	config Config
	now    func() time.Time

	mu       sync.Mutex
	state    State
	failures int
	probes   int
	openedAt time.Time

	log *logger.Logger
}

// New creates a closed breaker. Zero config fields fall back to the defaults.
func New(name string, config Config) *Breaker {
	defaults := DefaultConfig()
	if config.MaxFailures <= 0 {
		config.MaxFailures = defaults.MaxFailures
	}
	if config.Cooldown <= 0 {
		config.Cooldown = defaults.Cooldown
	}
	if config.MaxProbes <= 0 {
		config.MaxProbes = defaults.MaxProbes
	}
	if config.IsFailure == nil {
		config.IsFailure = defaults.IsFailure
	}

	return &Breaker{
		name:   name,
		config: config,
		now:    time.Now,
		log:    logger.GetLogger("circuit." + name),
	}
}

// Execute runs fn unless the breaker is open. A rejected call returns an
// Unavailable error wrapping ErrOpen or ErrTooManyProbes.
func (b *Breaker) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := b.before(); err != nil {
		return apperrors.Unavailable(err, b.name)
	}

	err := fn(ctx)
	b.after(!b.config.IsFailure(err))
	return err
}

func (b *Breaker) before() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateOpen:
		if b.now().Sub(b.openedAt) < b.config.Cooldown {
			return ErrOpen
		}
		b.transition(StateHalfOpen)
		fallthrough
	case StateHalfOpen:
		if b.probes >= b.config.MaxProbes {
			return ErrTooManyProbes
		}
		b.probes++
	}
	return nil
}

func (b *Breaker) after(success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if success {
		b.failures = 0
		if b.state == StateHalfOpen {
			b.transition(StateClosed)
		}
		return
	}

	b.failures++
	if b.state == StateHalfOpen || b.failures >= b.config.MaxFailures {
		b.openedAt = b.now()
		b.transition(StateOpen)
	}
}

// transition must be called with mu held
func (b *Breaker) transition(to State) {
	if b.state == to {
		return
	}
	b.log.Warnw("Circuit breaker state changed", "from", b.state, "to", to, "failures", b.failures)
	b.state = to
	b.probes = 0
	if to == StateClosed {
		b.failures = 0
	}
}

// State returns the current state
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Name of the breaker
func (b *Breaker) Name() string {
	return b.name
}
