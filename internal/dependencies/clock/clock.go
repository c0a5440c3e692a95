// Package clock abstracts wall time so stamps like LastSeen can be
// controlled in tests.
package clock

import "time"

// Precision is the resolution every backend can store LastSeen at
const Precision = time.Millisecond

// Clock provides the current time
type Clock interface {
	Now() time.Time
}

// System reads the host clock
type System struct{}

// New returns the host clock
func New() System {
	return System{}
}

// Now returns the current UTC time truncated to Precision, so a stamp
// reads back equal after a save to any storage type.
func (System) Now() time.Time {
	return time.Now().UTC().Truncate(Precision)
}
