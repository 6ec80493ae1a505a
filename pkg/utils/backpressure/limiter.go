package backpressure

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/rzzdr/option-scenario-engine/pkg/utils/logger"
)

// KeyedLimiter keeps one token bucket per key, typically a client address.
// Buckets idle for longer than the idle timeout are dropped on the next sweep.
type KeyedLimiter struct {
	limit       rate.Limit
	burst       int
	idleTimeout time.Duration
	now         func() time.Time

	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time

	log *logger.Logger
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewKeyedLimiter allows perSecond requests per key with bursts of up to burst
func NewKeyedLimiter(perSecond float64, burst int, idleTimeout time.Duration) *KeyedLimiter {
	if burst < 1 {
		burst = 1
	}
	if idleTimeout <= 0 {
		idleTimeout = 10 * time.Minute
	}

	l := &KeyedLimiter{
		limit:       rate.Limit(perSecond),
		burst:       burst,
		idleTimeout: idleTimeout,
		now:         time.Now,
		buckets:     make(map[string]*bucket),
		log:         logger.GetLogger("backpressure.limiter"),
	}
	l.lastSweep = l.now()
	l.log.Infow("Keyed rate limiter created", "per_second", perSecond, "burst", burst)
	return l
}

// Allow reports whether one more request for key fits in its bucket
func (l *KeyedLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now

	if now.Sub(l.lastSweep) >= l.idleTimeout {
		l.sweep(now)
	}
	return b.limiter.AllowN(now, 1)
}

// sweep must be called with mu held
func (l *KeyedLimiter) sweep(now time.Time) {
	for key, b := range l.buckets {
		if now.Sub(b.lastSeen) >= l.idleTimeout {
			delete(l.buckets, key)
		}
	}
	l.lastSweep = now
}

// Len returns the number of live buckets
func (l *KeyedLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}
