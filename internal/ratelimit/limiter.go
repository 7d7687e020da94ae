// Package ratelimit provides per-key token bucket rate limiting for MCP tools.
package ratelimit

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrRateLimited is returned by CheckLimit when a tool has no tokens left.
var ErrRateLimited = errors.New("rate limit exceeded")

// Tool names shared with the MCP server.
const (
	ToolAnalyze  = "tie_analyze"
	ToolScaffold = "tie_scaffold"
	ToolISA      = "tie_isa"
)

// Limiter implements a per-key token bucket. Each key gets its own bucket
// with the configured rate and burst. It is safe for concurrent use.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	rate    float64 // tokens per second
	burst   int     // bucket capacity and initial token count
	nowFunc func() time.Time
}

type bucket struct {
	tokens    float64
	lastCheck time.Time
}

// NewLimiter creates a rate limiter with the given rate (tokens/sec) and burst size.
func NewLimiter(rate float64, burst int) *Limiter {
	return &Limiter{
		buckets: make(map[string]*bucket),
		rate:    rate,
		burst:   burst,
		nowFunc: time.Now,
	}
}

// Allow consumes one token for key and reports whether one was available.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.nowFunc()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: float64(l.burst), lastCheck: now}
		l.buckets[key] = b
	}

	if elapsed := now.Sub(b.lastCheck).Seconds(); elapsed > 0 {
		b.tokens = min(b.tokens+l.rate*elapsed, float64(l.burst))
		b.lastCheck = now
	}

	if b.tokens < 1.0 {
		return false
	}
	b.tokens--
	return true
}

// ToolLimiters maps tool names to their rate limiters.
type ToolLimiters map[string]*Limiter

// NewToolLimiters creates the default per-tool limits. Full analyses are
// CPU-bound over whole genomes, so they get the tightest budget.
func NewToolLimiters() ToolLimiters {
	return ToolLimiters{
		ToolAnalyze:  NewLimiter(10.0/60.0, 2), // 10/minute, burst 2
		ToolScaffold: NewLimiter(20.0/60.0, 4), // 20/minute, burst 4
		ToolISA:      NewLimiter(1.0, 10),      // 60/minute, burst 10
	}
}

// CheckLimit returns ErrRateLimited when toolName is out of tokens. Tools
// without a configured limiter are always allowed.
func CheckLimit(limiters ToolLimiters, toolName string) error {
	limiter, ok := limiters[toolName]
	if !ok {
		return nil
	}
	if !limiter.Allow(toolName) {
		return fmt.Errorf("%w for %s, please try again shortly", ErrRateLimited, toolName)
	}
	return nil
}
