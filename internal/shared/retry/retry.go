package retry

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"notesum-backend/internal/failure"
)

// Policy bounds an exponential backoff loop.
type Policy struct {
	Attempts  int
	BaseDelay time.Duration
	Factor    float64
	MaxDelay  time.Duration
}

// Once retries a single time after a short pause.
var Once = Policy{Attempts: 2, BaseDelay: 300 * time.Millisecond, Factor: 1, MaxDelay: 300 * time.Millisecond}

// StorageLag absorbs object storage propagation delay right after an upload.
var StorageLag = Policy{Attempts: 3, BaseDelay: 1500 * time.Millisecond, Factor: 2, MaxDelay: 6 * time.Second}

// Delay returns the pause before the given retry (1-based).
func (p Policy) Delay(retry int) time.Duration {
	if retry <= 0 || p.BaseDelay <= 0 {
		return 0
	}
	factor := p.Factor
	if factor < 1 {
		factor = 1
	}
	d := float64(p.BaseDelay)
	for i := 1; i < retry; i++ {
		d *= factor
	}
	delay := time.Duration(d)
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		delay = p.MaxDelay
	}
	return delay
}

// OnRetry is called before each pause; attempt is the attempt that just failed.
type OnRetry func(attempt int, delay time.Duration, err error)

var sleep = func(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Do runs fn until it succeeds, shouldRetry rejects the error, or attempts run out.
// The last error is returned unchanged.
func Do(ctx context.Context, p Policy, shouldRetry func(error) bool, onRetry OnRetry, fn func(ctx context.Context) error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = fn(ctx)
		if err == nil || attempt == attempts || shouldRetry == nil || !shouldRetry(err) {
			return err
		}
		delay := p.Delay(attempt)
		if onRetry != nil {
			onRetry(attempt, delay, err)
		}
		if sleepErr := sleep(ctx, delay); sleepErr != nil {
			return err
		}
	}
	return err
}

// Transient reports whether err looks like a passing network or upstream fault.
func Transient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if failure.Retryable(err) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "tls handshake timeout") ||
		strings.Contains(msg, "unexpected eof")
}
