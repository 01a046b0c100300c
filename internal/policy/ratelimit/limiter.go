// Package ratelimit implements the per-domain request throttle: a sliding
// hour window, a jittered minimum inter-request delay, and exponential
// backoff on errors.
package ratelimit

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/talentsignal/hirewatch/internal/clock"
	"github.com/talentsignal/hirewatch/internal/metrics"
)

// Config holds rate limiter tuning knobs.
type Config struct {
	MinDelay          time.Duration
	MaxDelay          time.Duration
	RequestsPerDomain int // per rolling window
	Window            time.Duration
	BackoffMultiplier float64
	MaxBackoff        time.Duration
}

// withDefaults fills zero values with the standard polite-crawling defaults.
func (c Config) withDefaults() Config {
	if c.MinDelay <= 0 {
		c.MinDelay = 2 * time.Second
	}
	if c.MaxDelay < c.MinDelay {
		c.MaxDelay = c.MinDelay
	}
	if c.RequestsPerDomain <= 0 {
		c.RequestsPerDomain = 20
	}
	if c.Window <= 0 {
		c.Window = time.Hour
	}
	if c.BackoffMultiplier <= 1 {
		c.BackoffMultiplier = 2
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = 5 * time.Minute
	}
	return c
}

// domainState tracks throttle state for one domain.
type domainState struct {
	requestTimes      []time.Time
	consecutiveErrors int
	lastErrorAt       time.Time
	backoffUntil      time.Time
}

// Limiter is a thread-safe per-domain throttle. It may be shared by any
// number of concurrent fetchers.
type Limiter struct {
	mu          sync.Mutex
	cfg         Config
	states      map[string]*domainState
	lastRequest time.Time
	clk         clock.Clock
}

// Stats is a point-in-time view of a domain's throttle state.
type Stats struct {
	Domain            string
	RequestsInWindow  int
	ConsecutiveErrors int
	InBackoff         bool
	BackoffUntil      time.Time
}

// New creates a Limiter on the given clock.
func New(cfg Config, clk clock.Clock) *Limiter {
	return &Limiter{
		cfg:    cfg.withDefaults(),
		states: make(map[string]*domainState),
		clk:    clk,
	}
}

func (l *Limiter) state(domain string) *domainState {
	st, ok := l.states[domain]
	if !ok {
		st = &domainState{}
		l.states[domain] = st
	}
	return st
}

// pruneWindow drops request timestamps older than the rolling window.
func (l *Limiter) pruneWindow(st *domainState, now time.Time) {
	cutoff := now.Add(-l.cfg.Window)
	kept := st.requestTimes[:0]
	for _, t := range st.requestTimes {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	st.requestTimes = kept
}

// CanRequest reports whether a request to domain is currently admissible:
// no unexpired backoff and window quota not exhausted.
func (l *Limiter) CanRequest(domain string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	st := l.state(domain)
	now := l.clk.Now()
	if !st.backoffUntil.IsZero() && now.Before(st.backoffUntil) {
		return false
	}
	l.pruneWindow(st, now)
	return len(st.requestTimes) < l.cfg.RequestsPerDomain
}

// jitteredDelay draws a delay uniformly from [MinDelay, MaxDelay]. The
// jitter avoids a detectable fixed request cadence.
func (l *Limiter) jitteredDelay() time.Duration {
	span := l.cfg.MaxDelay - l.cfg.MinDelay
	if span <= 0 {
		return l.cfg.MinDelay
	}
	return l.cfg.MinDelay + time.Duration(rand.Int63n(int64(span)+1))
}

// WaitIfNeeded blocks until a request to domain is polite: it first drains
// any pending backoff (clearing it once consumed), then enforces the
// jittered minimum delay against the last request time across all domains,
// so parallel fetching is still throttled in aggregate. Returns how long it
// waited. The wait is cancellable through ctx.
func (l *Limiter) WaitIfNeeded(ctx context.Context, domain string) (time.Duration, error) {
	var waited time.Duration

	l.mu.Lock()
	st := l.state(domain)
	var backoffWait time.Duration
	if !st.backoffUntil.IsZero() {
		if d := st.backoffUntil.Sub(l.clk.Now()); d > 0 {
			backoffWait = d
		} else {
			st.backoffUntil = time.Time{}
		}
	}
	l.mu.Unlock()

	if backoffWait > 0 {
		if err := l.clk.Sleep(ctx, backoffWait); err != nil {
			return waited, err
		}
		waited += backoffWait
		l.mu.Lock()
		st.backoffUntil = time.Time{}
		l.mu.Unlock()
	}

	l.mu.Lock()
	var delayWait time.Duration
	if !l.lastRequest.IsZero() {
		elapsed := l.clk.Now().Sub(l.lastRequest)
		if delay := l.jitteredDelay(); elapsed < delay {
			delayWait = delay - elapsed
		}
	}
	l.mu.Unlock()

	if delayWait > 0 {
		if err := l.clk.Sleep(ctx, delayWait); err != nil {
			return waited, err
		}
		waited += delayWait
	}

	metrics.ObserveRateLimitWait(waited)
	return waited, nil
}

// RecordRequest notes a completed HTTP exchange for domain and resets its
// error streak.
func (l *Limiter) RecordRequest(domain string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	st := l.state(domain)
	now := l.clk.Now()
	st.requestTimes = append(st.requestTimes, now)
	st.consecutiveErrors = 0
	l.lastRequest = now
}

// RecordError notes a failed request. A rate-limit signal (429-class) or a
// streak of three consecutive errors arms a backoff window of
// min(MinDelay * multiplier^errors, MaxBackoff).
func (l *Limiter) RecordError(domain string, isRateLimit bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	st := l.state(domain)
	now := l.clk.Now()
	st.consecutiveErrors++
	st.lastErrorAt = now

	if isRateLimit || st.consecutiveErrors >= 3 {
		backoff := time.Duration(float64(l.cfg.MinDelay) *
			math.Pow(l.cfg.BackoffMultiplier, float64(st.consecutiveErrors)))
		if backoff > l.cfg.MaxBackoff {
			backoff = l.cfg.MaxBackoff
		}
		st.backoffUntil = now.Add(backoff)
	}
}

// Stats returns the current throttle state for a domain.
func (l *Limiter) Stats(domain string) Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	st := l.state(domain)
	now := l.clk.Now()
	l.pruneWindow(st, now)
	return Stats{
		Domain:            domain,
		RequestsInWindow:  len(st.requestTimes),
		ConsecutiveErrors: st.consecutiveErrors,
		InBackoff:         !st.backoffUntil.IsZero() && now.Before(st.backoffUntil),
		BackoffUntil:      st.backoffUntil,
	}
}

// Reset clears all throttle state for a domain.
func (l *Limiter) Reset(domain string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.states, domain)
}
