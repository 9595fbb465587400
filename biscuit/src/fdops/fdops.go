// Package fdops names the VFS-facing contracts the file subsystem
// consumes: a user-memory scatter/gather descriptor (Userio_i,
// grounded on vm.Userbuf_t/vm.Fakeubuf_t) and the vnode operations
// open/read/write/stat/close drive (Vnode_i). The real VFS, real
// disk-backed vnodes, and real user/kernel copy primitives are out of
// scope; this package only names the shape they must have.
package fdops

import (
	"defs"
	"stat"
)

/// Userio_i abstracts a single user-memory I/O descriptor. VOP_READ
/// and VOP_WRITE drive it to copy bytes to/from the caller; Remain
/// reports the bytes not yet transferred (the residual a read/write
/// call subtracts from the requested length).
type Userio_i interface {
	Uioread(dst []byte) (int, defs.Err_t)
	Uiowrite(src []byte) (int, defs.Err_t)
	Remain() int
	Totalsz() int
}

/// Vnode_i is the VFS contract behind every open descriptor:
/// vfs_open's result, and the VOP_* operations the syscalls in sys
/// drive it through. A vnode that does not support seeking (a
/// console, a pipe) reports Seekable() == false so lseek rejects it
/// with ESPIPE. VOP_STAT is consumed only for its size field, to seed
/// an O_APPEND offset or answer SEEK_END.
type Vnode_i interface {
	Read(dst Userio_i, offset int) (int, defs.Err_t)
	Write(src Userio_i, offset int) (int, defs.Err_t)
	Stat() (stat.Stat_t, defs.Err_t)
	Seekable() bool
	Close() defs.Err_t
}

/// Bytebuf_t implements Userio_i over a plain kernel byte slice, the
/// same role vm.Fakeubuf_t plays for callers that need to hand a
/// kernel-resident buffer (e.g. a syscall argument buffer already
/// copied into the kernel) to code expecting user-memory semantics.
type Bytebuf_t struct {
	buf []byte
	len int
}

/// MkBytebuf wraps buf for transfer through a Userio_i-typed call.
func MkBytebuf(buf []byte) *Bytebuf_t {
	return &Bytebuf_t{buf: buf, len: len(buf)}
}

/// Remain returns the number of untransferred bytes.
func (b *Bytebuf_t) Remain() int {
	return len(b.buf)
}

/// Totalsz returns the buffer's original length.
func (b *Bytebuf_t) Totalsz() int {
	return b.len
}

/// Uioread copies from buf into dst.
func (b *Bytebuf_t) Uioread(dst []byte) (int, defs.Err_t) {
	c := copy(dst, b.buf)
	b.buf = b.buf[c:]
	return c, 0
}

/// Uiowrite copies src into buf.
func (b *Bytebuf_t) Uiowrite(src []byte) (int, defs.Err_t) {
	c := copy(b.buf, src)
	b.buf = b.buf[c:]
	return c, 0
}
