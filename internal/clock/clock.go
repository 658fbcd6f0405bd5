// Package clock provides the time source used by the player. Production code
// uses Real; tests use Fake to pin or advance time deterministically.
package clock

import (
	"sync"
	"time"
)

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

// Real is a Clock backed by time.Now.
type Real struct{}

func (Real) Now() time.Time { return time.Now() }

// Millis returns c.Now() as Unix milliseconds.
func Millis(c Clock) int64 {
	return c.Now().UnixMilli()
}

// FakeMode selects how a Fake clock reports time.
type FakeMode int

const (
	// ModeFixed reports the same instant until Set or Advance is called.
	ModeFixed FakeMode = iota

	// ModeAdvance reports a virtual uptime that starts at the Unix epoch and
	// only moves through Advance.
	ModeAdvance
)

// Fake is a virtual Clock for tests. It is safe for concurrent use.
type Fake struct {
	mu   sync.Mutex
	mode FakeMode
	now  time.Time
}

// NewFake returns a fake clock in ModeFixed pinned at t.
func NewFake(t time.Time) *Fake {
	return &Fake{mode: ModeFixed, now: t}
}

// NewUptimeFake returns a fake clock in ModeAdvance starting at the epoch.
func NewUptimeFake() *Fake {
	return &Fake{mode: ModeAdvance, now: time.UnixMilli(0)}
}

func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Mode returns the clock's current mode.
func (f *Fake) Mode() FakeMode {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mode
}

// SetMode switches modes. Switching to ModeAdvance resets time to the epoch.
func (f *Fake) SetMode(mode FakeMode) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if mode == ModeAdvance && f.mode != ModeAdvance {
		f.now = time.UnixMilli(0)
	}
	f.mode = mode
}

// Set pins the clock at t.
func (f *Fake) Set(t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = t
}

// Advance moves the clock forward by d. Negative durations are ignored.
func (f *Fake) Advance(d time.Duration) {
	if d <= 0 {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}
