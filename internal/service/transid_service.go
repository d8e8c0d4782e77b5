package service

import (
	"fmt"
	"time"
)

// TimeTransIDAllocator implements ports.TransIDAllocator by deriving the
// identifier from the current UTC time of day, at tenth-of-a-second
// granularity. The result stays within the gateway's allowed 000000 to
// 899999 window (the ceiling is 863999, one tick before midnight).
//
// Two submissions inside the same tenth of a second collide. That is
// acceptable under the gateway contract: the identifier only has to be
// unique per calendar day per site, and the reconciliation side keys on
// the full (order, id, date, operation) tuple, never on the id alone.
type TimeTransIDAllocator struct {
	now func() time.Time
}

// NewTimeTransIDAllocator creates an allocator on the system clock.
func NewTimeTransIDAllocator() *TimeTransIDAllocator {
	return &TimeTransIDAllocator{now: time.Now}
}

// Next returns the 6-digit, zero-padded identifier for this instant.
func (a *TimeTransIDAllocator) Next() string {
	t := a.now().UTC()
	tenths := t.Nanosecond() / int(100*time.Millisecond)
	n := t.Hour()*36000 + t.Minute()*600 + t.Second()*10 + tenths
	return fmt.Sprintf("%06d", n)
}
