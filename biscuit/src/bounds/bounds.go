// Package bounds names, for each call site that may loop while touching
// a resource the kernel cannot grow on demand, how much of that resource
// one iteration is expected to consume. res.Resadd_noblock uses these
// tokens to decide whether a loop should keep going or back off with
// ENOHEAP instead of blocking.
package bounds

/// Bound_t names a call site's resource requirement.
type Bound_t int

const (
	B_USERBUF_T__TX      Bound_t = iota /// one Userbuf_t.tx iteration
	B_PAGETABLE_T_INSERT                /// one page-table insert (may allocate two levels)
	B_FD_T_REGISTRY_ADD                  /// one open-file registry insertion
)

// per-bound unit cost, in abstract "budget units" consumed from res's pool.
// the exact numbers don't matter; what matters is that every named call
// site is accounted for before it runs.
var costs = map[Bound_t]uint{
	B_USERBUF_T__TX:      1,
	B_PAGETABLE_T_INSERT: 2,
	B_FD_T_REGISTRY_ADD:  1,
}

/// Bounds returns the budget units a single iteration at b is expected to
/// cost. It panics if b was never registered — a new call site must name
/// its own bound rather than silently reuse another's.
func Bounds(b Bound_t) uint {
	c, ok := costs[b]
	if !ok {
		panic("unbounded call site")
	}
	return c
}
