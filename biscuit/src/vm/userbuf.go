package vm

import (
	"bounds"
	"defs"
	"mem"
	"res"
)

/// Userbuf_t copies bytes to or from a range of user virtual memory,
/// driving the fault handler for any page not yet resident. Each
/// page-table lookup holds the address space's lock; the byte copy
/// into or out of the frame runs after the lock is released.
type Userbuf_t struct {
	as     *As_t
	userva uintptr
	len    int
	off    int
}

/// Mkuserbuf allocates and initializes a Userbuf_t over [userva,
/// userva+len) in as.
func Mkuserbuf(as *As_t, userva uintptr, len int) *Userbuf_t {
	if len < 0 {
		panic("negative length")
	}
	return &Userbuf_t{as: as, userva: userva, len: len}
}

/// Remain returns the number of unconsumed bytes left in the buffer.
func (ub *Userbuf_t) Remain() int {
	return ub.len - ub.off
}

/// Totalsz reports the total size of the buffer in bytes.
func (ub *Userbuf_t) Totalsz() int {
	return ub.len
}

/// Uioread copies from user memory into dst, faulting in pages on
/// demand, and returns the number of bytes copied.
func (ub *Userbuf_t) Uioread(dst []uint8) (int, defs.Err_t) {
	return ub.tx(dst, false)
}

/// Uiowrite copies src into user memory, faulting in pages on demand,
/// and returns the number of bytes copied.
func (ub *Userbuf_t) Uiowrite(src []uint8) (int, defs.Err_t) {
	return ub.tx(src, true)
}

func (ub *Userbuf_t) tx(buf []uint8, write bool) (int, defs.Err_t) {
	ret := 0
	cost := bounds.Bounds(bounds.B_USERBUF_T__TX)
	for len(buf) != 0 && ub.off != ub.len {
		if !res.Resadd_noblock(cost) {
			return ret, -defs.ENOHEAP
		}
		va := ub.userva + uintptr(ub.off)
		page, err := ub.resolve(va, write)
		if err != 0 {
			res.Resgive(cost)
			return ret, err
		}
		voff := int(va & mem.PGOFFSET)
		avail := page[voff:]
		left := ub.len - ub.off
		if len(avail) > left {
			avail = avail[:left]
		}
		var c int
		if write {
			c = copy(avail, buf)
		} else {
			c = copy(buf, avail)
		}
		buf = buf[c:]
		ub.off += c
		ret += c
		res.Resgive(cost)
		if c == 0 {
			break
		}
	}
	return ret, 0
}

// resolve returns the backing frame's byte window for va, faulting
// the page in if it is not yet resident.
func (ub *Userbuf_t) resolve(va uintptr, write bool) ([]uint8, defs.Err_t) {
	ftype := FaultRead
	if write {
		ftype = FaultWrite
	}
	ub.as.Lock_pmap()
	pte := Lookup(ub.as.Root, va)
	ub.as.Unlock_pmap()
	if pte&mem.PTE_VALID == 0 || (write && pte&mem.PTE_DIRTY == 0 && !ub.as.Loading) {
		if err := Fault(ub.as, va, ftype); err != 0 {
			return nil, err
		}
		ub.as.Lock_pmap()
		pte = Lookup(ub.as.Root, va)
		ub.as.Unlock_pmap()
	}
	return mem.Physmem.Frame(mem.PTEToFrame(pte)), 0
}

/// Fakeubuf_t implements the same shape as Userbuf_t but reads/writes
/// a plain kernel byte slice, for callers that need to feed internal
/// buffers through an interface expecting user-memory semantics.
type Fakeubuf_t struct {
	fbuf []uint8
	len  int
}

/// Fake_init sets up the fake buffer over buf.
func (fb *Fakeubuf_t) Fake_init(buf []uint8) {
	fb.fbuf = buf
	fb.len = len(buf)
}

/// Remain returns the number of bytes left in the fake buffer.
func (fb *Fakeubuf_t) Remain() int {
	return len(fb.fbuf)
}

/// Totalsz returns the total length of the fake buffer.
func (fb *Fakeubuf_t) Totalsz() int {
	return fb.len
}

func (fb *Fakeubuf_t) tx(buf []uint8, tofbuf bool) (int, defs.Err_t) {
	var c int
	if tofbuf {
		c = copy(fb.fbuf, buf)
	} else {
		c = copy(buf, fb.fbuf)
	}
	fb.fbuf = fb.fbuf[c:]
	return c, 0
}

/// Uioread copies from the fake buffer into dst.
func (fb *Fakeubuf_t) Uioread(dst []uint8) (int, defs.Err_t) {
	return fb.tx(dst, false)
}

/// Uiowrite copies src into the fake buffer.
func (fb *Fakeubuf_t) Uiowrite(src []uint8) (int, defs.Err_t) {
	return fb.tx(src, true)
}
