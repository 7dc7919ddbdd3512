// Package timer provides the single-slot deferred timer used for check-ins and
// mood decay, and the clocks that drive it.
package timer

import "time"

// Stopper is the handle returned by Clock.AfterFunc.
type Stopper interface {
	Stop() bool
}

// Clock abstracts wall time so schedules can run under a virtual clock in tests.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Stopper
}

type realClock struct{}

// Real returns a Clock backed by the time package.
func Real() Clock { return realClock{} }

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Stopper {
	return time.AfterFunc(d, f)
}
