package defs

/// Err_t is a kernel error code. Zero means success; all syscall and VM
/// entry points return the negated code on failure (e.g. -defs.EBADF).
type Err_t int

/// Error codes surfaced across the syscall and VM boundaries. Every
/// code except ENAMETOOLONG is returned somewhere in this core;
/// ENAMETOOLONG is defined but no package here returns it.
const (
	EBADF        Err_t = 1  /// bad or non-matching descriptor
	EMFILE       Err_t = 2  /// per-process descriptor table full
	ENFILE       Err_t = 3  /// system-wide open-file table full
	EFAULT       Err_t = 4  /// bad user pointer, bad address, write to read-only
	ESPIPE       Err_t = 5  /// lseek on a non-seekable vnode
	EINVAL       Err_t = 6  /// bad whence, bad negative position, bad fault type
	ENOMEM       Err_t = 7  /// allocation failure in a VM path
	ENOHEAP      Err_t = 8  /// resource budget exhausted mid-copy; retry later
	ENAMETOOLONG Err_t = 9  /// path exceeded the caller's buffer
	ENOENT       Err_t = 10 /// no such file (in-memory VFS stub)
	EEXIST       Err_t = 11 /// O_CREAT|O_EXCL on an existing file (in-memory VFS stub)
	EIO          Err_t = 12 /// device does not support the requested operation
)

/// String renders an error code for diagnostics.
func (e Err_t) String() string {
	switch e {
	case 0:
		return "success"
	case EBADF:
		return "EBADF"
	case EMFILE:
		return "EMFILE"
	case ENFILE:
		return "ENFILE"
	case EFAULT:
		return "EFAULT"
	case ESPIPE:
		return "ESPIPE"
	case EINVAL:
		return "EINVAL"
	case ENOMEM:
		return "ENOMEM"
	case ENOHEAP:
		return "ENOHEAP"
	case ENAMETOOLONG:
		return "ENAMETOOLONG"
	case ENOENT:
		return "ENOENT"
	case EEXIST:
		return "EEXIST"
	case EIO:
		return "EIO"
	default:
		return "Err_t(unknown)"
	}
}
