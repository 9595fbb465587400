// Package res implements a non-blocking resource-reservation idiom for
// loops that copy memory across the user/kernel boundary or touch
// other budget-limited structures: take the budget you need up front,
// or back off with ENOHEAP rather than block while holding a lock a
// page fault might need.
package res

import "caller"
import "fmt"
import "sync/atomic"

// total budget units available system wide. sized generously; this is a
// backpressure valve for pathological cases; it is not meant to bind in
// ordinary operation.
const defaultBudget = 1 << 20

var pool int64 = defaultBudget

// dc rate-limits the "resource exhausted" diagnostic to once per distinct
// caller chain so a tight retry loop doesn't flood the log.
var dc = caller.Distinct_caller_t{Enabled: true}

/// Resadd_noblock attempts to reserve gimme budget units without
/// blocking. It returns false (and reserves nothing) if the pool cannot
/// satisfy the request; callers must propagate -defs.ENOHEAP in that
/// case rather than loop.
func Resadd_noblock(gimme uint) bool {
	n := int64(gimme)
	g := atomic.AddInt64(&pool, -n)
	if g >= 0 {
		return true
	}
	atomic.AddInt64(&pool, n)
	if new, trace := dc.Distinct(); new {
		fmt.Printf("res: budget exhausted\n%s", trace)
	}
	return false
}

/// Resgive returns gimme budget units to the pool. Callers that reserved
/// via Resadd_noblock but completed their work without consuming it
/// (e.g. a short read) must give it back.
func Resgive(gimme uint) {
	atomic.AddInt64(&pool, int64(gimme))
}
