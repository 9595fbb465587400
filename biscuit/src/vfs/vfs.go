// Package vfs stands in for the real VFS this subsystem treats as an
// external collaborator: a minimal in-memory filesystem plus the
// console, stat:, and prof: device vnodes, all implementing
// fdops.Vnode_i so the syscall layer in sys and the end-to-end
// scenarios in its tests are actually runnable. Single flat
// namespace, no directories, no permission bits beyond the
// open-flags access mode.
package vfs

import (
	"sync"

	"defs"
	"fdops"
	"kstat"
	"stat"
	"ustr"

	"golang.org/x/text/width"
)

/// Vfs_t is the in-memory namespace: a flat map from path to backing
/// file, plus the fixed device vnodes reserved under defs.D_*.
type Vfs_t struct {
	sync.Mutex
	files map[string]*memfile_t

	console *console_t
	statdev *statdev_t
	profdev *profdev_t
}

/// MkVfs constructs an empty namespace with its device vnodes ready.
func MkVfs() *Vfs_t {
	return &Vfs_t{
		files:   make(map[string]*memfile_t),
		console: &console_t{},
		statdev: &statdev_t{},
		profdev: &profdev_t{},
	}
}

/// Open resolves path per flags, matching vfs_open's contract: ENOENT
/// if the file is absent and O_CREAT was not given, EEXIST if
/// O_CREAT|O_EXCL named an existing file, otherwise a vnode handle is
/// returned (freshly created and empty if O_CREAT named a new path,
/// truncated to zero length if O_TRUNC was given).
func (vfs *Vfs_t) Open(path ustr.Ustr, flags, mode int) (fdops.Vnode_i, defs.Err_t) {
	if dev, ok := devicePath(path); ok {
		return vfs.openDevice(dev)
	}

	vfs.Lock()
	defer vfs.Unlock()

	key := path.String()
	f, ok := vfs.files[key]
	if !ok {
		if flags&defs.O_CREAT == 0 {
			return nil, -defs.ENOENT
		}
		f = &memfile_t{}
		vfs.files[key] = f
	} else if flags&(defs.O_CREAT|defs.O_EXCL) == defs.O_CREAT|defs.O_EXCL {
		return nil, -defs.EEXIST
	}
	if flags&defs.O_TRUNC != 0 {
		f.Lock()
		f.data = nil
		f.Unlock()
	}
	return &memfileHandle_t{f: f}, 0
}

func devicePath(path ustr.Ustr) (int, bool) {
	switch path.String() {
	case "con:":
		return defs.D_CONSOLE, true
	case "stat:":
		return defs.D_STAT, true
	case "prof:":
		return defs.D_PROF, true
	}
	return 0, false
}

func (vfs *Vfs_t) openDevice(dev int) (fdops.Vnode_i, defs.Err_t) {
	switch dev {
	case defs.D_CONSOLE:
		return vfs.console, 0
	case defs.D_STAT:
		return vfs.statdev, 0
	case defs.D_PROF:
		return vfs.profdev, 0
	default:
		return nil, -defs.EIO
	}
}

// ---- in-memory regular file ----

type memfile_t struct {
	sync.Mutex
	data []byte
}

// memfileHandle_t is the per-open handle vfs_open hands back; every
// fd that opened the same path shares the underlying memfile_t, so
// writes through one descriptor are visible to reads through another
// — matching a real filesystem's shared-inode semantics.
type memfileHandle_t struct {
	f *memfile_t
}

func (h *memfileHandle_t) Read(dst fdops.Userio_i, offset int) (int, defs.Err_t) {
	h.f.Lock()
	defer h.f.Unlock()
	if offset >= len(h.f.data) {
		return 0, 0
	}
	return dst.Uiowrite(h.f.data[offset:])
}

func (h *memfileHandle_t) Write(src fdops.Userio_i, offset int) (int, defs.Err_t) {
	h.f.Lock()
	defer h.f.Unlock()
	buf := make([]byte, src.Remain())
	n, err := src.Uioread(buf)
	if err != 0 {
		return 0, err
	}
	buf = buf[:n]
	need := offset + n
	if need > len(h.f.data) {
		grown := make([]byte, need)
		copy(grown, h.f.data)
		h.f.data = grown
	}
	copy(h.f.data[offset:], buf)
	return n, 0
}

func (h *memfileHandle_t) Stat() (stat.Stat_t, defs.Err_t) {
	h.f.Lock()
	defer h.f.Unlock()
	var st stat.Stat_t
	st.Wsize(uint(len(h.f.data)))
	return st, 0
}

func (h *memfileHandle_t) Seekable() bool { return true }
func (h *memfileHandle_t) Close() defs.Err_t { return 0 }

// ---- console device ----

// console_t folds incoming runes to their narrow/halfwidth forms
// before appending them to the scrollback, the one place this module
// actually transforms the bytes it writes to an external sink.
type console_t struct {
	sync.Mutex
	scrollback []byte
}

func (c *console_t) Read(dst fdops.Userio_i, offset int) (int, defs.Err_t) {
	c.Lock()
	defer c.Unlock()
	if offset >= len(c.scrollback) {
		return 0, 0
	}
	return dst.Uiowrite(c.scrollback[offset:])
}

func (c *console_t) Write(src fdops.Userio_i, offset int) (int, defs.Err_t) {
	buf := make([]byte, src.Remain())
	n, err := src.Uioread(buf)
	if err != 0 {
		return 0, err
	}
	folded := width.Narrow.String(string(buf[:n]))
	c.Lock()
	c.scrollback = append(c.scrollback, folded...)
	c.Unlock()
	return n, 0
}

func (c *console_t) Stat() (stat.Stat_t, defs.Err_t) {
	return stat.Stat_t{}, -defs.EIO
}

func (c *console_t) Seekable() bool   { return false }
func (c *console_t) Close() defs.Err_t { return 0 }

// ---- stat: device ----

type statdev_t struct{}

func (s *statdev_t) Read(dst fdops.Userio_i, offset int) (int, defs.Err_t) {
	txt := kstat.Kstats.Text()
	if offset >= len(txt) {
		return 0, 0
	}
	return dst.Uiowrite(txt[offset:])
}

func (s *statdev_t) Write(src fdops.Userio_i, offset int) (int, defs.Err_t) {
	return 0, -defs.EIO
}

func (s *statdev_t) Stat() (stat.Stat_t, defs.Err_t) {
	return stat.Stat_t{}, -defs.EIO
}

func (s *statdev_t) Seekable() bool   { return false }
func (s *statdev_t) Close() defs.Err_t { return 0 }

// ---- prof: device ----

type profdev_t struct{}

func (p *profdev_t) Read(dst fdops.Userio_i, offset int) (int, defs.Err_t) {
	enc, err := kstat.Kstats.Encode()
	if err != nil {
		return 0, -defs.EIO
	}
	if offset >= len(enc) {
		return 0, 0
	}
	return dst.Uiowrite(enc[offset:])
}

func (p *profdev_t) Write(src fdops.Userio_i, offset int) (int, defs.Err_t) {
	return 0, -defs.EIO
}

func (p *profdev_t) Stat() (stat.Stat_t, defs.Err_t) {
	return stat.Stat_t{}, -defs.EIO
}

func (p *profdev_t) Seekable() bool   { return false }
func (p *profdev_t) Close() defs.Err_t { return 0 }
