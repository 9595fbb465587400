package vm

import (
	"bounds"
	"defs"
	"mem"
	"res"
)

// three-level software page table over a 20-bit virtual page number:
// 8 bits select the level-1 slot, the next 6 bits the level-2 slot,
// the next 6 bits the level-3 (leaf) slot; the low 12 bits are the
// page offset and play no part in the walk.
const (
	l1bits  = 8
	l2bits  = 6
	l3bits  = 6
	l1size  = 1 << l1bits
	l2size  = 1 << l2bits
	l3size  = 1 << l3bits
	l2shift = mem.PGSHIFT + l3bits
	l1shift = l2shift + l2bits
)

func idx1(va uintptr) uintptr { return (va >> l1shift) & (l1size - 1) }
func idx2(va uintptr) uintptr { return (va >> l2shift) & (l2size - 1) }
func idx3(va uintptr) uintptr { return (va >> mem.PGSHIFT) & (l3size - 1) }

/// L3Table_t is the leaf level: each entry is a hardware-format word,
/// zero meaning unmapped, nonzero meaning a frame number in the high
/// bits OR'd with mem.PTE_VALID and optionally mem.PTE_DIRTY.
type L3Table_t [l3size]mem.Pa_t

/// L2Table_t holds pointers to on-demand-allocated leaf tables.
type L2Table_t [l2size]*L3Table_t

/// L1Table_t is the page-table root: a fixed 256-entry array of
/// optional level-2 pointers, all nil until first touched.
type L1Table_t [l1size]*L2Table_t

/// NewL1Table allocates a zeroed page-table root.
func NewL1Table() *L1Table_t {
	return &L1Table_t{}
}

/// Lookup returns the leaf word mapping va, or zero if any level of
/// the walk is unpopulated. A zero return means "unmapped" whether
/// the miss occurred at level 1, level 2, or level 3.
func Lookup(root *L1Table_t, va uintptr) mem.Pa_t {
	l2 := root[idx1(va)]
	if l2 == nil {
		return 0
	}
	l3 := l2[idx2(va)]
	if l3 == nil {
		return 0
	}
	return l3[idx3(va)]
}

/// Insert installs leaf at va, allocating any missing intermediate
/// level-2/level-3 arrays on demand as ordinary Go allocations, which
/// have no failure path here. It returns ENOHEAP without installing
/// the entry if the res budget for the insert cannot be reserved.
func Insert(root *L1Table_t, va uintptr, leaf mem.Pa_t) defs.Err_t {
	cost := bounds.Bounds(bounds.B_PAGETABLE_T_INSERT)
	if !res.Resadd_noblock(cost) {
		return -defs.ENOHEAP
	}
	defer res.Resgive(cost)

	i1 := idx1(va)
	l2 := root[i1]
	if l2 == nil {
		l2 = &L2Table_t{}
		root[i1] = l2
	}
	i2 := idx2(va)
	l3 := l2[i2]
	if l3 == nil {
		l3 = &L3Table_t{}
		l2[i2] = l3
	}
	l3[idx3(va)] = leaf
	return 0
}

/// Walk applies f to every nonzero leaf entry reachable from root,
/// used by As_destroy to visit every mapped frame.
func Walk(root *L1Table_t, f func(leaf mem.Pa_t)) {
	for _, l2 := range root {
		if l2 == nil {
			continue
		}
		for _, l3 := range l2 {
			if l3 == nil {
				continue
			}
			for _, leaf := range l3 {
				if leaf != 0 {
					f(leaf)
				}
			}
		}
	}
}
