// Package ratelimit schedules requests across a small fixed set of named
// API keys, each with independent per-minute, per-hour, and daily ceilings
// plus health tracking. The Limiter is the single owner of this state; all
// other components consult it through CanUseKey/RecordRequest/WaitForKey.
package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rsawant/fieldledger/internal/common"
)

// KeyConfig describes one API key slot and its ceilings.
type KeyConfig struct {
	Name              string
	RequestsPerMinute int
	RequestsPerHour   int
	DailyQuota        int
}

// DefaultKeys returns the conservative three-key allocation used in
// production: a primary key for parsing traffic and two smaller fallbacks.
func DefaultKeys() []KeyConfig {
	return []KeyConfig{
		{Name: "primary", RequestsPerMinute: 12, RequestsPerHour: 500, DailyQuota: 1000},
		{Name: "secondary", RequestsPerMinute: 10, RequestsPerHour: 400, DailyQuota: 800},
		{Name: "tertiary", RequestsPerMinute: 8, RequestsPerHour: 300, DailyQuota: 600},
	}
}

// keySlot holds the mutable counters and health state for one key.
// Owned exclusively by the Limiter; touched only under its mutex.
type keySlot struct {
	cfg               KeyConfig
	minuteCount       int
	hourCount         int
	dayCount          int
	resetTime         time.Time // zero means no minute window is open
	consecutiveErrors int
	lastError         string
	healthy           bool
	quotaExhausted    bool
	exhaustedUntil    time.Time
}

// Limiter tracks quota and health across multiple API keys and selects
// among them. All methods are safe for concurrent use.
type Limiter struct {
	now      func() time.Time
	logger   *slog.Logger
	slots    map[string]*keySlot
	order    []string
	pollTick time.Duration
	mu       sync.Mutex
}

// NewLimiter creates a limiter for the given key slots. Preference order
// follows the order of keys.
func NewLimiter(keys []KeyConfig, logger *slog.Logger) *Limiter {
	if len(keys) == 0 {
		keys = DefaultKeys()
	}
	if logger == nil {
		logger = slog.Default()
	}

	l := &Limiter{
		slots:    make(map[string]*keySlot, len(keys)),
		order:    make([]string, 0, len(keys)),
		now:      time.Now,
		pollTick: time.Second,
		logger:   logger,
	}
	for _, cfg := range keys {
		l.slots[cfg.Name] = &keySlot{cfg: cfg, healthy: true}
		l.order = append(l.order, cfg.Name)
	}
	return l
}

// KeyCount returns the number of configured keys.
func (l *Limiter) KeyCount() int {
	return len(l.order)
}

// KeyNames returns every configured key name in preference order,
// regardless of current availability.
func (l *Limiter) KeyNames() []string {
	names := make([]string, len(l.order))
	copy(names, l.order)
	return names
}

// CanUseKey reports whether the named key may serve a request right now.
// It lazily clears an expired quota-exhaustion window and rolls the
// per-minute counter over once its reset time has passed. Per-hour and
// daily counters only reset on process restart.
func (l *Limiter) CanUseKey(name string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.canUseLocked(name)
}

func (l *Limiter) canUseLocked(name string) bool {
	slot, ok := l.slots[name]
	if !ok {
		return false
	}

	now := l.now()

	if slot.quotaExhausted {
		if now.Before(slot.exhaustedUntil) {
			return false
		}
		slot.quotaExhausted = false
		slot.exhaustedUntil = time.Time{}
		l.logger.Info("quota window expired, key usable again", "key", name)
	}

	if !slot.healthy {
		return false
	}

	if slot.dayCount >= slot.cfg.DailyQuota {
		return false
	}
	if slot.hourCount >= slot.cfg.RequestsPerHour {
		return false
	}

	if !slot.resetTime.IsZero() && now.After(slot.resetTime) {
		slot.minuteCount = 0
		slot.resetTime = time.Time{}
	}
	return slot.minuteCount < slot.cfg.RequestsPerMinute
}

// RecordRequest records one request attempt against the named key. All
// counters increment regardless of outcome. A success restores health; a
// failure bumps the consecutive-error count and, when the error text
// signals a quota condition, opens an exhaustion window sized from the
// provider's retry hint. Three consecutive failures of any kind mark the
// key unhealthy until the next success.
func (l *Limiter) RecordRequest(name string, success bool, errMsg string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	slot, ok := l.slots[name]
	if !ok {
		return
	}

	now := l.now()

	slot.minuteCount++
	slot.hourCount++
	slot.dayCount++
	if slot.resetTime.IsZero() {
		slot.resetTime = now.Add(time.Minute)
	}

	if success {
		slot.consecutiveErrors = 0
		slot.healthy = true
		slot.lastError = ""
		return
	}

	slot.consecutiveErrors++
	slot.lastError = errMsg

	if ClassifyTransportError(errMsg) == ErrorKindQuota {
		delay := extractRetryDelay(errMsg)
		slot.quotaExhausted = true
		slot.exhaustedUntil = now.Add(time.Duration(delay) * time.Second)
		l.logger.Warn("key quota exhausted",
			"key", name,
			"retry_delay_seconds", delay)
	}

	if slot.consecutiveErrors >= 3 {
		slot.healthy = false
		l.logger.Warn("key marked unhealthy after consecutive errors",
			"key", name,
			"consecutive_errors", slot.consecutiveErrors)
	}
}

// AvailableKeys returns all currently usable keys in stable preference
// order.
func (l *Limiter) AvailableKeys() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	available := make([]string, 0, len(l.order))
	for _, name := range l.order {
		if l.canUseLocked(name) {
			available = append(available, name)
		}
	}
	return available
}

// WaitForKey polls until the preferred key or any key becomes available,
// or maxWait elapses. Returns common.ErrAllKeysExhausted on timeout.
func (l *Limiter) WaitForKey(ctx context.Context, preferred string, maxWait time.Duration) (string, error) {
	deadline := time.NewTimer(maxWait)
	defer deadline.Stop()

	ticker := time.NewTicker(l.pollTick)
	defer ticker.Stop()

	for {
		if preferred != "" && l.CanUseKey(preferred) {
			return preferred, nil
		}
		if available := l.AvailableKeys(); len(available) > 0 {
			return available[0], nil
		}

		select {
		case <-ctx.Done():
			return "", fmt.Errorf("waiting for API key: %w", ctx.Err())
		case <-deadline.C:
			l.logger.Warn("timeout waiting for available API key", "max_wait", maxWait)
			return "", common.ErrAllKeysExhausted
		case <-ticker.C:
			// Try again.
		}
	}
}

// KeyStatus is a point-in-time snapshot of one key's counters and health.
type KeyStatus struct {
	Name              string
	Available         bool
	Healthy           bool
	QuotaExhausted    bool
	ConsecutiveErrors int
	MinuteCount       int
	HourCount         int
	DayCount          int
}

// Status reports a snapshot for every configured key in preference order.
func (l *Limiter) Status() []KeyStatus {
	l.mu.Lock()
	defer l.mu.Unlock()

	statuses := make([]KeyStatus, 0, len(l.order))
	for _, name := range l.order {
		slot := l.slots[name]
		statuses = append(statuses, KeyStatus{
			Name:              name,
			Available:         l.canUseLocked(name),
			Healthy:           slot.healthy,
			QuotaExhausted:    slot.quotaExhausted,
			ConsecutiveErrors: slot.consecutiveErrors,
			MinuteCount:       slot.minuteCount,
			HourCount:         slot.hourCount,
			DayCount:          slot.dayCount,
		})
	}
	return statuses
}
