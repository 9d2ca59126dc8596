package triviaquiz

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultMaxCallsPerWindow = 20
	DefaultRateWindow        = time.Minute
)

// RateLimiter bounds outbound model calls to a maximum per window. A timer
// resets the counter at the end of every window and reschedules itself.
type RateLimiter struct {
	mu          sync.Mutex
	maxCalls    int
	window      time.Duration
	count       int
	windowStart time.Time
	timer       *time.Timer
	gen         uint64 // bumped on Stop so a late timer callback is ignored
	logger      *zap.Logger
}

// RateLimitSnapshot is the limiter state for display
type RateLimitSnapshot struct {
	Used        int       `json:"used"`
	Max         int       `json:"max"`
	WindowStart time.Time `json:"window_start"`
	Window      string    `json:"window"`
}

// NewRateLimiter creates a limiter. Non-positive arguments fall back to 20 calls per minute.
func NewRateLimiter(maxCalls int, window time.Duration, logger *zap.Logger) *RateLimiter {
	if maxCalls <= 0 {
		maxCalls = DefaultMaxCallsPerWindow
	}
	if window <= 0 {
		window = DefaultRateWindow
	}
	return &RateLimiter{
		maxCalls: maxCalls,
		window:   window,
		logger:   orNop(logger),
	}
}

// TryAcquire takes one call slot or fails with ErrRateLimitExceeded.
// The reset timer is scheduled on first use and after Stop.
func (rl *RateLimiter) TryAcquire() error {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if rl.timer == nil {
		rl.scheduleLocked()
	}

	if rl.count >= rl.maxCalls {
		rateLimitRejections.Inc()
		rl.logger.Warn("Rate limit reached",
			zap.Int("max_calls", rl.maxCalls),
			zap.Duration("window", rl.window),
			zap.Time("window_start", rl.windowStart),
		)
		return fmt.Errorf("%w: %d calls per %s", ErrRateLimitExceeded, rl.maxCalls, rl.window)
	}
	rl.count++
	return nil
}

// Stop cancels the reset timer. The next TryAcquire starts a new window.
func (rl *RateLimiter) Stop() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if rl.timer != nil {
		rl.timer.Stop()
		rl.timer = nil
	}
	rl.gen++
}

// Snapshot returns the current counter state
func (rl *RateLimiter) Snapshot() RateLimitSnapshot {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return RateLimitSnapshot{
		Used:        rl.count,
		Max:         rl.maxCalls,
		WindowStart: rl.windowStart,
		Window:      rl.window.String(),
	}
}

func (rl *RateLimiter) scheduleLocked() {
	rl.count = 0
	rl.windowStart = time.Now()
	gen := rl.gen
	rl.timer = time.AfterFunc(rl.window, func() { rl.reset(gen) })
}

func (rl *RateLimiter) reset(gen uint64) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if gen != rl.gen || rl.timer == nil {
		return
	}
	rl.logger.Debug("Rate limit window reset", zap.Int("calls_in_window", rl.count))
	rl.scheduleLocked()
}
