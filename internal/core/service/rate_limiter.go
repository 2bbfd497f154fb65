package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/realtyhub/marketplace-api/internal/core/ports"
)

// Action names a rate-limited operation.
type Action string

const (
	ActionLogin         Action = "login"
	ActionRegister      Action = "register"
	ActionPasswordReset Action = "passwordReset"
	ActionAPI           Action = "api"
)

// Rule caps an action at Requests per Window.
type Rule struct {
	Requests int
	Window   time.Duration
}

// DefaultRules returns the production limits. Unknown actions use ActionAPI.
func DefaultRules() map[Action]Rule {
	return map[Action]Rule{
		ActionLogin:         {Requests: 5, Window: 15 * time.Minute},
		ActionRegister:      {Requests: 3, Window: time.Hour},
		ActionPasswordReset: {Requests: 3, Window: time.Hour},
		ActionAPI:           {Requests: 100, Window: 15 * time.Minute},
	}
}

// Decision is the outcome of a single rate-limit check.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
	// Degraded is set when the store failed and the request was let through
	// without being counted.
	Degraded bool
}

// RetryAfterSeconds rounds RetryAfter up to whole seconds, never below 1 for
// a denied request.
func (d Decision) RetryAfterSeconds() int {
	if d.Allowed {
		return 0
	}
	secs := int(math.Ceil(d.RetryAfter.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return secs
}

// RateLimiterConfig configures NewRateLimiter. Zero values take defaults.
type RateLimiterConfig struct {
	Rules map[Action]Rule
	Now   func() time.Time
}

// RateLimiter enforces fixed-window limits per (action, identifier).
//
// A burst straddling a window boundary can admit up to twice the limit; the
// algorithm is kept fixed-window on purpose so observable behaviour under load
// does not change.
type RateLimiter struct {
	store ports.CounterStore
	rules map[Action]Rule
	now   func() time.Time
	log   zerolog.Logger
}

func NewRateLimiter(store ports.CounterStore, cfg RateLimiterConfig, log zerolog.Logger) *RateLimiter {
	rules := DefaultRules()
	for action, rule := range cfg.Rules {
		rules[action] = rule
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &RateLimiter{store: store, rules: rules, now: now, log: log}
}

// Rule returns the rule applied to action.
func (l *RateLimiter) Rule(action Action) Rule {
	if rule, ok := l.rules[action]; ok {
		return rule
	}
	return l.rules[ActionAPI]
}

// Check counts one request for identifier under action. A store failure
// fails open: the request is allowed and the error is logged.
func (l *RateLimiter) Check(ctx context.Context, identifier string, action Action) Decision {
	rule := l.Rule(action)

	counter, allowed, err := l.store.Take(ctx, key(action, identifier), rule.Requests, rule.Window)
	if err != nil {
		l.log.Warn().Err(err).Str("action", string(action)).Msg("rate limit store failed, allowing request")
		return Decision{Allowed: true, Limit: rule.Requests, Remaining: rule.Requests, Degraded: true}
	}

	d := Decision{
		Allowed:   allowed,
		Limit:     rule.Requests,
		Remaining: max(rule.Requests-counter.Count, 0),
		ResetAt:   counter.ResetAt,
	}
	if !allowed {
		d.RetryAfter = max(counter.ResetAt.Sub(l.now()), 0)
		l.log.Debug().
			Str("action", string(action)).
			Str("identifier", identifier).
			Time("reset_at", counter.ResetAt).
			Msg("rate limit exceeded")
	}
	return d
}

// CheckRateLimit reports only whether the request is allowed.
func (l *RateLimiter) CheckRateLimit(ctx context.Context, identifier string, action Action) bool {
	return l.Check(ctx, identifier, action).Allowed
}

func key(action Action, identifier string) string {
	return fmt.Sprintf("%s:%s", action, identifier)
}
