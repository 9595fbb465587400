// Package vm implements a process's virtual-memory context: the
// region list, the three-level software page table, a simulated TLB,
// and the fault handler that refills it. Locking follows the
// Lock_pmap/Unlock_pmap/Lockassert_pmap idiom; address translation
// itself is a simpler, non-COW, non-mmap design.
package vm

import (
	"sync"

	"accnt"
	"defs"
	"mem"
)

// Uservm_top bounds the user-addressable half of the virtual address
// space; DefineStack anchors the initial stack region at this
// boundary.
const Uservm_top uintptr = 0x80000000

// stack region size: a fixed 16 pages.
const stackPages = 16

/// As_t is a process's address space: a page-table root, a region
/// list, and the loading flag that relaxes write-permission
/// enforcement while a program image is being populated. The
/// embedded mutex serializes every modification to the page table
/// and region list — concurrent faults against the same address
/// space are never handled truly in parallel.
type As_t struct {
	sync.Mutex

	Root    *L1Table_t
	Regions *Region_t
	Loading bool

	Tlb *Tlb_t

	// Accnt, when set by the owning process, receives the system
	// time Fault spends resolving a TLB miss against this address
	// space. Left nil, faults simply aren't accounted — most tests
	// in this package construct an As_t directly and don't care.
	Accnt *accnt.Accnt_t

	pgfltaken bool
}

/// Lock_pmap acquires the address space mutex and marks that page
/// table manipulation is in progress.
func (as *As_t) Lock_pmap() {
	as.Lock()
	as.pgfltaken = true
}

/// Unlock_pmap releases the address space mutex.
func (as *As_t) Unlock_pmap() {
	as.pgfltaken = false
	as.Unlock()
}

/// Lockassert_pmap panics if the address space mutex is not held.
/// Every page-table walk and region lookup in this package assumes
/// its caller already holds it.
func (as *As_t) Lockassert_pmap() {
	if !as.pgfltaken {
		panic("pgfl lock must be held")
	}
}

/// As_create allocates a fresh, empty address space: an all-nil
/// page-table root, no regions, loading flag clear.
func As_create() *As_t {
	return &As_t{
		Root: NewL1Table(),
		Tlb:  &Tlb_t{},
	}
}

/// As_copy deep-copies src into a freshly created address space: every
/// mapped frame is duplicated (a fresh frame is allocated and every
/// byte of it overwritten with the source frame's bytes) and every
/// region is cloned, keeping src's lookup order. If any allocation
/// fails partway through, the partially built destination is
/// destroyed and ENOMEM is reported — src is never left modified.
func As_copy(src *As_t) (*As_t, defs.Err_t) {
	src.Lock_pmap()
	defer src.Unlock_pmap()

	dst := As_create()
	dst.Lock_pmap()
	defer dst.Unlock_pmap()

	var failed bool
	for i1 := range src.Root {
		l2 := src.Root[i1]
		if l2 == nil {
			continue
		}
		for i2 := range l2 {
			l3 := l2[i2]
			if l3 == nil {
				continue
			}
			for i3, leaf := range l3 {
				if leaf == 0 || failed {
					continue
				}
				va := (uintptr(i1) << l1shift) | (uintptr(i2) << l2shift) | (uintptr(i3) << mem.PGSHIFT)
				fn, ok := mem.Physmem.AllocFrameNoZero()
				if !ok {
					failed = true
					continue
				}
				copy(mem.Physmem.Frame(fn), mem.Physmem.Frame(mem.PTEToFrame(leaf)))
				newleaf := mem.FrameToPTE(fn, leaf&^mem.PTE_FRAME)
				if err := Insert(dst.Root, va, newleaf); err != 0 {
					mem.Physmem.FreeFrame(fn)
					failed = true
				}
			}
		}
	}
	if failed {
		destroyLocked(dst)
		return nil, -defs.ENOMEM
	}
	dst.Regions = cloneRegions(src.Regions)
	return dst, 0
}

/// As_destroy frees every physical frame reachable from as's page
/// table, then the region list. as must not be used afterward.
func As_destroy(as *As_t) {
	as.Lock_pmap()
	defer as.Unlock_pmap()
	destroyLocked(as)
}

func destroyLocked(as *As_t) {
	Walk(as.Root, func(leaf mem.Pa_t) {
		mem.Physmem.FreeFrame(mem.PTEToFrame(leaf))
	})
	as.Root = NewL1Table()
	as.Regions = nil
}

/// As_activate flushes as's simulated TLB on switching to as: any
/// entries from whatever address space was active before no longer
/// apply.
func As_activate(as *As_t) {
	as.Tlb.Flush()
}

/// As_deactivate leaves as's context, flushing the TLB just as
/// As_activate does — both sides of a context switch use the
/// simplest possible strategy of discarding the whole TLB rather than
/// selectively invalidating entries.
func As_deactivate(as *As_t) {
	as.Tlb.Flush()
}

/// DefineRegion adds a new region [vaddr, vaddr+size) with the given
/// permissions to as, inserted at the head of the region list. It
/// rejects EFAULT if as is nil and ENOMEM if the region would exceed
/// the user address ceiling. No merging or overlap checking is
/// performed; a region that shadows an earlier one simply wins lookup
/// because it is inserted at the head of the list.
func DefineRegion(as *As_t, vaddr, size uintptr, r, w, x bool) defs.Err_t {
	if as == nil {
		return -defs.EFAULT
	}
	if vaddr+size > Uservm_top || vaddr+size < vaddr {
		return -defs.ENOMEM
	}
	as.Lock_pmap()
	defer as.Unlock_pmap()
	as.Regions = insertRegion(as.Regions, &Region_t{
		Base: vaddr,
		Top:  vaddr + size,
		R:    r,
		W:    w,
		X:    x,
	})
	return 0
}

/// PrepareLoad sets the loading flag and flushes the TLB so that
/// every mapping installed afterward is treated as writable
/// regardless of region permission — this lets the program loader
/// populate read-only segments.
func PrepareLoad(as *As_t) {
	as.Lock_pmap()
	as.Loading = true
	as.Tlb.Flush()
	as.Unlock_pmap()
}

/// CompleteLoad clears the loading flag once the program image has
/// been fully populated and flushes the TLB, dropping the writable
/// copies cached while loading, restoring normal permission
/// enforcement.
func CompleteLoad(as *As_t) {
	as.Lock_pmap()
	as.Loading = false
	as.Tlb.Flush()
	as.Unlock_pmap()
}

/// DefineStack installs the fixed-size (16-page), readable+writable,
/// non-executable stack region at the top of user address space and
/// returns the initial stack pointer (the region's top).
func DefineStack(as *As_t) (uintptr, defs.Err_t) {
	size := uintptr(stackPages * mem.PGSIZE)
	base := Uservm_top - size
	if err := DefineRegion(as, base, size, true, true, false); err != 0 {
		return 0, err
	}
	return Uservm_top, 0
}
