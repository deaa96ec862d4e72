package clock

import (
	"sync"
	"time"
)

// System reads the wall clock in UTC, truncated to the microsecond
// precision the SQLite and Postgres stores keep. MongoDB keeps
// milliseconds.
type System struct{}

func (System) Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// Fixed always reports the instant it was last set to.
type Fixed struct {
	mu sync.RWMutex
	t  time.Time
}

func NewFixed(t time.Time) *Fixed {
	return &Fixed{t: t}
}

func (f *Fixed) Now() time.Time {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return f.t
}

func (f *Fixed) Set(t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.t = t
}
