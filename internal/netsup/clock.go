package netsup

import "time"

// Clock abstracts time for the blocking join window.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

// RealClock uses the system clock.
type RealClock struct{}

// Now returns time.Now.
func (RealClock) Now() time.Time { return time.Now() }

// Sleep calls time.Sleep.
func (RealClock) Sleep(d time.Duration) { time.Sleep(d) }

// JoinPolicy bounds a client join attempt.
type JoinPolicy struct {
	// Timeout after which the supervisor falls back to access point mode.
	// Zero retries forever.
	Timeout time.Duration
	// PollInterval is the sleep between checks in WaitForJoin.
	PollInterval time.Duration
}

// DefaultJoinPolicy waits ten seconds for a client join, checked
// every half second.
var DefaultJoinPolicy = JoinPolicy{
	Timeout:      10 * time.Second,
	PollInterval: 500 * time.Millisecond,
}

func (p JoinPolicy) expired(started, now time.Time) bool {
	return p.Timeout > 0 && now.Sub(started) >= p.Timeout
}
