package ratelimit

import (
	"sync/atomic"
	"time"
)

// Limiter is a token bucket used by the UI layer to debounce typing
// notifications: keystrokes arrive far faster than the peer needs to hear
// about them.
type Limiter struct {
	token    int32
	rate     time.Duration
	burst    int32
	lastTick int64
}

func New(tokens int32, rate time.Duration) *Limiter {
	return &Limiter{
		token:    tokens,
		rate:     rate,
		burst:    tokens,
		lastTick: time.Now().UnixNano(),
	}
}

func (l *Limiter) Allow() bool {
	now := time.Now().UnixNano()

	last := atomic.LoadInt64(&l.lastTick)

	elapsed := now - last

	generated := int32(elapsed / l.rate.Nanoseconds())

	if generated > 0 {
		if atomic.CompareAndSwapInt64(&l.lastTick, last, now) {
			current := atomic.LoadInt32(&l.token)
			newBalance := current + generated

			if newBalance > l.burst {
				newBalance = l.burst
			}
			atomic.StoreInt32(&l.token, newBalance)
		}
	}

	for {
		current := atomic.LoadInt32(&l.token)

		if current <= 0 {
			return false
		}
		if atomic.CompareAndSwapInt32(&l.token, current, current-1) {
			return true
		}
	}
}
