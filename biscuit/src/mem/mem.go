// Package mem implements the physical frame allocator backing the VM
// subsystem's page tables and process address spaces. There is no
// direct-mapped view of physical memory backed by a patched runtime
// here: frames are carved out of a plain Go arena and addressed by
// index rather than by a mapped pointer.
package mem

import (
	"fmt"
	"sync"

	"limits"
	"oommsg"
)

/// Pa_t is a physical address: a byte offset into the arena Physmem
/// manages. It is never dereferenced directly; frames are accessed via
/// Physmem.Frame, which hands back a []byte window.
type Pa_t uintptr

/// Frame_t identifies a physical frame by number (Pa_t >> PGSHIFT).
type Frame_t uintptr

const (
	PGSHIFT  = 12
	PGSIZE   = 1 << PGSHIFT
	PGOFFSET = PGSIZE - 1
)

// hardware-format PTE bits, matching the 20-bit VPN layout the page
// table package indexes into: VALID and DIRTY occupy the low bits,
// the frame number occupies the high bits above PTE_FRAME's shift.
const (
	PTE_VALID Pa_t = 1 << 0
	PTE_DIRTY Pa_t = 1 << 1
	PTE_FRAME Pa_t = ^Pa_t(0) &^ (PGSIZE - 1)
)

/// PTE_ADDR extracts the frame-aligned physical address from a PTE.
func PTE_ADDR(pte Pa_t) Pa_t {
	return pte & PTE_FRAME
}

/// FrameToPTE builds a leaf page-table word for frame fn carrying the
/// given flag bits (PTE_VALID, optionally PTE_DIRTY).
func FrameToPTE(fn Frame_t, flags Pa_t) Pa_t {
	return (Pa_t(fn) << PGSHIFT) | flags
}

/// PTEToFrame extracts the frame number a leaf page-table word refers
/// to.
func PTEToFrame(pte Pa_t) Frame_t {
	return Frame_t(PTE_ADDR(pte) >> PGSHIFT)
}

/// Physmem_t is the system's physical frame arena: a fixed pool of
/// zero-indexed frames handed out and reclaimed by number. There is no
/// direct map; callers that need to read or write a frame's bytes go
/// through Frame.
type Physmem_t struct {
	sync.Mutex
	arena []byte
	free  []bool
	next  Frame_t // next-fit search cursor, same idea as fd's descriptor hint
	nfree int
}

/// Physmem is the system-wide frame allocator, sized from
/// limits.Syslimit.Frames.
var Physmem = mkPhysmem()

func mkPhysmem() *Physmem_t {
	n := int(limits.Syslimit.Frames)
	return &Physmem_t{
		arena: make([]byte, n*PGSIZE),
		free:  make([]bool, n),
		nfree: n,
	}
}

/// Frame returns the byte window backing frame fn. The caller must not
/// retain the slice past the frame's lifetime.
func (p *Physmem_t) Frame(fn Frame_t) []byte {
	return p.arena[int(fn)*PGSIZE : (int(fn)+1)*PGSIZE]
}

/// AllocFrame reserves a free frame and zeroes it, as the VM fault
/// handler requires for any newly-backed page (see vm/fault.go step
/// 7). It returns ok=false if no frame is free.
func (p *Physmem_t) AllocFrame() (Frame_t, bool) {
	fn, ok := p.AllocFrameNoZero()
	if !ok {
		return 0, false
	}
	f := p.Frame(fn)
	for i := range f {
		f[i] = 0
	}
	return fn, true
}

/// AllocFrameNoZero reserves a free frame without zeroing it, for
/// callers about to overwrite every byte themselves (e.g. vm.As_copy
/// filling the frame with a copy of a source frame).
func (p *Physmem_t) AllocFrameNoZero() (Frame_t, bool) {
	p.Lock()
	defer p.Unlock()
	if p.nfree == 0 {
		select {
		case oommsg.OomCh <- oommsg.Oommsg_t{Need: 1, Resume: make(chan bool)}:
		default:
		}
		return 0, false
	}
	n := len(p.free)
	for i := 0; i < n; i++ {
		fn := (int(p.next) + i) % n
		if !p.free[fn] {
			p.free[fn] = true
			p.nfree--
			p.next = Frame_t((fn + 1) % n)
			return Frame_t(fn), true
		}
	}
	panic("nfree out of sync with free map")
}

/// FreeFrame returns fn to the pool. Double-frees panic: the VM
/// subsystem never hands out a reference to a frame it hasn't already
/// accounted for, so a double free is a bug in a caller, not a
/// recoverable condition.
func (p *Physmem_t) FreeFrame(fn Frame_t) {
	p.Lock()
	defer p.Unlock()
	if int(fn) < 0 || int(fn) >= len(p.free) {
		panic("frame out of range")
	}
	if !p.free[fn] {
		panic("double free")
	}
	p.free[fn] = false
	p.nfree++
}

/// Free reports the number of unallocated frames.
func (p *Physmem_t) Free() int {
	p.Lock()
	defer p.Unlock()
	return p.nfree
}

/// Total reports the arena's fixed frame count.
func (p *Physmem_t) Total() int {
	return len(p.free)
}

func (p *Physmem_t) String() string {
	return fmt.Sprintf("physmem: %d/%d frames free", p.Free(), p.Total())
}
