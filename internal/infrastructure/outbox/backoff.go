package outbox

import "time"

// Backoff doubles the wait after each consecutive failure, capped at Max.
type Backoff struct {
	Base time.Duration
	Max  time.Duration
}

// Delay returns the wait before the next poll. failures == 0 means the
// last poll went through.
func (b Backoff) Delay(failures int) time.Duration {
	if failures <= 0 {
		return b.Base
	}
	// keep the shift small enough not to overflow
	failures = min(failures, 30)

	delay := b.Base * time.Duration(1<<failures)
	if b.Max > 0 && (delay > b.Max || delay <= 0) {
		return b.Max
	}
	return delay
}
