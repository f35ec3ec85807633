package share

import "time"

// Clock supplies the current time. The engine takes it as a dependency
// so expiry behavior is testable with a simulated clock.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock backed by the wall clock.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}
