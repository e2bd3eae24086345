package processing

import (
	"sync"
	"time"
)

const regenerateWindow = 10 * time.Second

// regenerateLimiter allows one regenerate per user and document per window.
type regenerateLimiter struct {
	mu      sync.Mutex
	lastHit map[string]time.Time
	now     func() time.Time
	window  time.Duration
}

func newRegenerateLimiter(window time.Duration, now func() time.Time) *regenerateLimiter {
	if now == nil {
		now = time.Now
	}
	if window <= 0 {
		window = regenerateWindow
	}
	return &regenerateLimiter{
		lastHit: make(map[string]time.Time),
		now:     now,
		window:  window,
	}
}

func (l *regenerateLimiter) Allow(userID, documentID string) bool {
	if l == nil {
		return true
	}
	key := userID + "|" + documentID
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	for k, last := range l.lastHit {
		if now.Sub(last) >= l.window {
			delete(l.lastHit, k)
		}
	}
	if _, ok := l.lastHit[key]; ok {
		return false
	}
	l.lastHit[key] = now
	return true
}

func (l *regenerateLimiter) RetryAfterSeconds() int {
	if l == nil {
		return int(regenerateWindow.Seconds())
	}
	return int(l.window.Seconds())
}
