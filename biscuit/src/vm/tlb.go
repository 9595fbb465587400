package vm

import "mem"

// number of simulated TLB entries, sized as a small fixed array like
// other hardware-adjacent structures (see limits.OPEN_MAX for the same
// idiom applied to descriptors).
const ntlb = 64

type tlbent_t struct {
	valid bool
	vpn   uintptr
	pte   mem.Pa_t
}

/// Tlb_t simulates the hardware TLB the fault handler refills on a
/// miss: a small fixed set of (virtual-page, pte) entries consulted
/// before any address ever reaches this package's fault handler in a
/// real system. Entries are evicted round-robin, mirroring
/// tlb_random's behavior in the reference hardware.
type Tlb_t struct {
	ents [ntlb]tlbent_t
	next int
}

/// tlb_write installs vpn/pte at the given slot index.
func (t *Tlb_t) tlb_write(vpn uintptr, pte mem.Pa_t, idx int) {
	t.ents[idx] = tlbent_t{valid: true, vpn: vpn, pte: pte}
}

/// tlb_random installs vpn/pte at a round-robin-chosen slot, used when
/// the fault handler doesn't care which slot it lands in.
func (t *Tlb_t) tlb_random(vpn uintptr, pte mem.Pa_t) {
	t.tlb_write(vpn, pte, t.next)
	t.next = (t.next + 1) % ntlb
}

/// lookup returns the pte previously installed for vpn, if present.
func (t *Tlb_t) lookup(vpn uintptr) (mem.Pa_t, bool) {
	for i := range t.ents {
		if t.ents[i].valid && t.ents[i].vpn == vpn {
			return t.ents[i].pte, true
		}
	}
	return 0, false
}

/// Flush invalidates every entry, as prepare-load does before
/// relaxing permission enforcement for program loading.
func (t *Tlb_t) Flush() {
	for i := range t.ents {
		t.ents[i] = tlbent_t{}
	}
}

/// Shootdown would invalidate this address space's entries on every
/// CPU that has it loaded. Cross-CPU TLB coherence is out of scope
/// for this core (see the SMP shootdown non-goal); a caller that
/// reaches this path on a multiprocessor build has a requirement this
/// package cannot satisfy, so it panics loudly instead of silently
/// leaving stale entries on other CPUs.
func (t *Tlb_t) Shootdown(startva uintptr, pgcount int) {
	panic("vm: SMP TLB shootdown is not implemented")
}
