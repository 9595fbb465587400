// Package sys implements the six file-I/O syscalls against a
// descriptor table, the shared open-file registry, and the
// in-memory VFS: open, close, read, write, lseek, dup2. See
// DESIGN.md for the three correctness fixes applied here (a leaked
// descriptor slot on a failed open, a lock released too early on
// read/write, and an inconsistently-guarded reference count on
// close/dup2).
package sys

import (
	"defs"
	"fd"
	"fdops"
	"limits"
	"ustr"
	"vfs"
)

/// Sys_open copies-in having already happened (path is kernel
/// resident): rejects EMFILE if the descriptor table is full,
/// allocates a descriptor, asks the VFS to open path, and on VFS
/// failure rolls back the descriptor hint rather than leaving it
/// consumed (see DESIGN.md on the leaked-slot fix). On success it
/// records the open flags and, for O_APPEND, seeds the offset from
/// stat.
func Sys_open(dt *fd.DescriptorTable_t, reg *fd.Registry_t, fs *vfs.Vfs_t, path ustr.Ustr, flags, mode int) (int, defs.Err_t) {
	if dt.IsFull() {
		return -1, -defs.EMFILE
	}
	fdn := dt.GetNextFd()

	vn, err := fs.Open(path, flags, mode)
	if err != 0 {
		dt.UndoHint(fdn)
		return -1, err
	}

	of := &fd.OpenFile_t{Vnode: vn, Flags: flags, Refcnt: 1}
	if flags&defs.O_APPEND != 0 {
		if st, serr := vn.Stat(); serr == 0 {
			of.Off = int64(st.Size())
		}
	}

	n, aerr := reg.Add(of)
	if aerr != 0 {
		vn.Close()
		dt.UndoHint(fdn)
		return -1, aerr
	}
	dt.Bind(fdn, n)
	return fdn, 0
}

/// Sys_close validates fd, then delegates to the descriptor table's
/// close.
func Sys_close(dt *fd.DescriptorTable_t, reg *fd.Registry_t, desc int) defs.Err_t {
	if !dt.Validate(desc) {
		return -defs.EBADF
	}
	return dt.Close(reg, desc)
}

/// Sys_read validates fd and access mode, then drives a vnode read
/// under the OpenFile's mutex, advancing the offset by the bytes
/// actually transferred. The mutex is released on every exit path via
/// defer.
func Sys_read(dt *fd.DescriptorTable_t, desc int, buf []byte) (int, defs.Err_t) {
	if !dt.Validate(desc) {
		return -1, -defs.EBADF
	}
	of := dt.GetOpenFile(desc)
	if m := of.Flags & defs.O_ACCMODE; m != defs.O_RDONLY && m != defs.O_RDWR {
		return -1, -defs.EBADF
	}

	of.Mu.Lock()
	defer of.Mu.Unlock()

	uio := fdops.MkBytebuf(buf)
	n, err := of.Vnode.Read(uio, int(of.Off))
	if err != 0 {
		return -1, err
	}
	of.Off += int64(n)
	return n, 0
}

/// Sys_write is symmetric to Sys_read via VOP_WRITE, requiring
/// O_WRONLY or O_RDWR.
func Sys_write(dt *fd.DescriptorTable_t, desc int, buf []byte) (int, defs.Err_t) {
	if !dt.Validate(desc) {
		return -1, -defs.EBADF
	}
	of := dt.GetOpenFile(desc)
	if m := of.Flags & defs.O_ACCMODE; m != defs.O_WRONLY && m != defs.O_RDWR {
		return -1, -defs.EBADF
	}

	of.Mu.Lock()
	defer of.Mu.Unlock()

	uio := fdops.MkBytebuf(buf)
	n, err := of.Vnode.Write(uio, int(of.Off))
	if err != 0 {
		return -1, err
	}
	of.Off += int64(n)
	return n, 0
}

/// Sys_lseek validates fd, rejects ESPIPE on a non-seekable vnode,
/// computes the new offset per whence, and rejects EINVAL on an
/// unknown whence or a negative result. It intentionally does not
/// take the OpenFile's mutex — lseek may race an in-flight read/write,
/// a documented tradeoff rather than an oversight (see DESIGN.md); a
/// caller needing exclusion must add its own layer above this one.
func Sys_lseek(dt *fd.DescriptorTable_t, desc int, pos int64, whence int) (int64, defs.Err_t) {
	if !dt.Validate(desc) {
		return -1, -defs.EBADF
	}
	of := dt.GetOpenFile(desc)
	if !of.Vnode.Seekable() {
		return -1, -defs.ESPIPE
	}

	var newoff int64
	switch whence {
	case defs.SEEK_SET:
		newoff = pos
	case defs.SEEK_CUR:
		newoff = of.Off + pos
	case defs.SEEK_END:
		st, err := of.Vnode.Stat()
		if err != 0 {
			return -1, -defs.EINVAL
		}
		newoff = int64(st.Size()) + pos
	default:
		return -1, -defs.EINVAL
	}
	if newoff < 0 {
		return -1, -defs.EINVAL
	}
	of.Off = newoff
	return newoff, 0
}

/// Sys_dup2 validates oldfd, checks newfd's range, is a no-op when
/// they're equal, closes any prior occupant of newfd, then aliases
/// newfd to oldfd's registry node, bumping the shared OpenFile's
/// reference count uniformly under its mutex: both close and dup2
/// touch Refcnt only while holding Mu.
func Sys_dup2(dt *fd.DescriptorTable_t, reg *fd.Registry_t, oldfd, newfd int) (int, defs.Err_t) {
	if !dt.Validate(oldfd) {
		return -1, -defs.EBADF
	}
	if newfd < 0 || newfd >= limits.OPEN_MAX {
		return -1, -defs.EBADF
	}
	if oldfd == newfd {
		return newfd, 0
	}
	if dt.Validate(newfd) {
		dt.Close(reg, newfd)
	}

	n := dt.Node(oldfd)
	n.Of().Mu.Lock()
	n.Of().Refcnt++
	n.Of().Mu.Unlock()

	dt.Dup2Bind(newfd, n)
	return newfd, 0
}
