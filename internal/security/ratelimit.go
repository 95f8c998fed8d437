package security

import (
	"errors"
	"sync"
	"time"
)

// ErrRateLimited is returned when a request exceeds the rate limit.
var ErrRateLimited = errors.New("rate limit exceeded")

// Rate limit bucket kinds.
const (
	LimitRequest   = "request"
	LimitExecution = "execution"
)

// RateLimitConfig holds configurable rate limits. The request class is
// enforced at the transport edge, the execution class on the execute_intent
// path just before a command is spawned.
type RateLimitConfig struct {
	RequestsPerMin   int `yaml:"requests_per_min"`
	ExecutionsPerMin int `yaml:"executions_per_min"`
}

func rateLimitConfigDefaults() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerMin:   600,
		ExecutionsPerMin: 120,
	}
}

// RateLimiter implements sliding window rate limiting using stdlib only.
// Each bucket tracks timestamps of recent events within its window.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	now     func() time.Time
}

type bucket struct {
	window time.Duration
	limit  int
	events []time.Time
}

// NewRateLimiter creates a rate limiter with the given config.
// Zero-value fields in cfg are replaced with defaults.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	defaults := rateLimitConfigDefaults()
	if cfg.RequestsPerMin <= 0 {
		cfg.RequestsPerMin = defaults.RequestsPerMin
	}
	if cfg.ExecutionsPerMin <= 0 {
		cfg.ExecutionsPerMin = defaults.ExecutionsPerMin
	}

	return &RateLimiter{
		now: time.Now,
		buckets: map[string]*bucket{
			LimitRequest: {
				window: time.Minute,
				limit:  cfg.RequestsPerMin,
			},
			LimitExecution: {
				window: time.Minute,
				limit:  cfg.ExecutionsPerMin,
			},
		},
	}
}

// Allow checks whether an event of the given kind is allowed.
// Returns nil if allowed, ErrRateLimited if the limit is exceeded.
func (rl *RateLimiter) Allow(kind string) error {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.buckets[kind]
	if !ok {
		// Unknown kind = no limit configured.
		return nil
	}

	now := rl.now()
	b.evict(now)

	if len(b.events) >= b.limit {
		return ErrRateLimited
	}

	b.events = append(b.events, now)
	return nil
}

// evict removes events outside the sliding window.
func (b *bucket) evict(now time.Time) {
	cutoff := now.Add(-b.window)
	i := 0
	for i < len(b.events) && b.events[i].Before(cutoff) {
		i++
	}
	if i > 0 {
		b.events = b.events[i:]
	}
}
