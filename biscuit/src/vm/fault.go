package vm

import (
	"defs"
	"kstat"
	"mem"
)

/// Faulttype_t names why the trap handler invoked Fault.
type Faulttype_t int

const (
	FaultRead Faulttype_t = iota
	FaultWrite
	FaultReadonly
)

/// Fault resolves a TLB miss (or, for FaultReadonly, a true
/// write-to-read-only trap) at vaddr against as. It follows the
/// reference decision procedure exactly:
//
//  1. FaultReadonly always fails EFAULT — a true write-to-readonly
//     fault is never auto-upgraded.
//  2. Anything other than read/write/readonly fails EINVAL.
//  3. No address space at all fails EFAULT.
//  4. If the page table already has a VALID entry for vaddr, a write
//     fault against a non-writable, non-loading entry fails EFAULT;
//     otherwise the existing entry is reinstalled into the TLB and
//     the fault is satisfied without allocating anything.
//  5. Otherwise the address must fall in some region, or it's a
//     segmentation violation (EFAULT).
//  6. A write fault against a non-writable region, outside of
//     loading, fails EFAULT.
//  7. A fresh zeroed frame is allocated and a leaf entry built:
//     VALID, plus DIRTY iff the region is writable.
//  8. The entry is installed in the page table; if Insert fails, the
//     frame is freed and Insert's error is returned.
//  9. The entry is loaded into the TLB.
func Fault(as *As_t, vaddr uintptr, ftype Faulttype_t) defs.Err_t {
	kstat.IncFaults()
	if ftype == FaultReadonly {
		return -defs.EFAULT
	}
	if ftype != FaultRead && ftype != FaultWrite {
		return -defs.EINVAL
	}
	if as == nil {
		return -defs.EFAULT
	}

	if as.Accnt != nil {
		start := as.Accnt.Now()
		defer func() { as.Accnt.Systadd(as.Accnt.Now() - start) }()
	}

	as.Lock_pmap()
	defer as.Unlock_pmap()

	iswrite := ftype == FaultWrite

	if pte := Lookup(as.Root, vaddr); pte&mem.PTE_VALID != 0 {
		if iswrite && pte&mem.PTE_DIRTY == 0 && !as.Loading {
			return -defs.EFAULT
		}
		as.Tlb.tlb_random(vpnOf(vaddr), loadingWritable(pte, as.Loading))
		return 0
	}

	reg := lookupRegion(as.Regions, vaddr)
	if reg == nil {
		return -defs.EFAULT
	}
	if iswrite && !reg.W && !as.Loading {
		return -defs.EFAULT
	}

	fn, ok := mem.Physmem.AllocFrame()
	if !ok {
		kstat.IncFrameFailures()
		return -defs.ENOMEM
	}
	flags := mem.PTE_VALID
	if reg.W {
		flags |= mem.PTE_DIRTY
	}
	leaf := mem.FrameToPTE(fn, flags)
	if err := Insert(as.Root, vaddr, leaf); err != 0 {
		mem.Physmem.FreeFrame(fn)
		return err
	}
	as.Tlb.tlb_random(vpnOf(vaddr), loadingWritable(leaf, as.Loading))
	return 0
}

func vpnOf(va uintptr) uintptr {
	return va >> mem.PGSHIFT
}

// loadingWritable ORs in PTE_DIRTY for the TLB-resident copy of pte
// while the address space is loading, so a cached translation reflects
// the same write exemption the page-table fast path grants — even
// though the underlying leaf itself may still lack PTE_DIRTY.
func loadingWritable(pte mem.Pa_t, loading bool) mem.Pa_t {
	if loading {
		return pte | mem.PTE_DIRTY
	}
	return pte
}
