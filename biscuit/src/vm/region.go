package vm

// / Region_t describes a half-open virtual-address range carrying
// / uniform permissions within one address space. Regions are kept on
// / a singly-linked list; insertion is always at the head, lookup is
// / linear and returns the first match, and nothing here merges or
// / rejects overlapping ranges — a later redefinition of an already
// / mapped range sits nearer the head, so it shadows the earlier one.
type Region_t struct {
	Base uintptr
	Top  uintptr
	R    bool
	W    bool
	X    bool
	Next *Region_t
}

/// contains reports whether va falls within [Base, Top).
func (r *Region_t) contains(va uintptr) bool {
	return va >= r.Base && va < r.Top
}

/// insertRegion pushes r onto the head of the list rooted at head and
/// returns the new head: newer regions shadow older ones in lookup,
/// whatever their size.
func insertRegion(head *Region_t, r *Region_t) *Region_t {
	r.Next = head
	return r
}

/// lookupRegion returns the first region in the list containing va, in
/// list order (head to tail), or nil.
func lookupRegion(head *Region_t, va uintptr) *Region_t {
	for r := head; r != nil; r = r.Next {
		if r.contains(va) {
			return r
		}
	}
	return nil
}

/// cloneRegions deep-copies every region in the list, preserving list
/// order (head-inserting src's regions from tail to head reproduces
/// src's iteration order under linear lookup).
func cloneRegions(head *Region_t) *Region_t {
	// walk src tail-to-head by collecting then re-inserting, so the
	// clone's lookup order matches src's exactly.
	var chain []*Region_t
	for r := head; r != nil; r = r.Next {
		chain = append(chain, r)
	}
	var dst *Region_t
	for i := len(chain) - 1; i >= 0; i-- {
		src := chain[i]
		dst = insertRegion(dst, &Region_t{
			Base: src.Base,
			Top:  src.Top,
			R:    src.R,
			W:    src.W,
			X:    src.X,
		})
	}
	return dst
}
