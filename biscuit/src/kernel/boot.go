// Package kernel wires the shared collaborators every process needs
// at construction time: the open-file registry and the in-memory
// VFS. It is the one place an ambient global would otherwise creep in
// — Bootstrap builds an explicit Kernel_t instead, and every process
// construction takes it as a parameter rather than reaching for a
// package-level variable.
package kernel

import (
	"fd"
	"proc"
	"ustr"
	"vfs"
)

var conPath = ustr.Ustr("con:")

/// Kernel_t holds the collaborators process construction needs. A
/// host program constructs exactly one of these at startup; nothing
/// in this module reaches for it as a package-level global.
type Kernel_t struct {
	Registry *fd.Registry_t
	Fs       *vfs.Vfs_t
}

/// Bootstrap constructs the shared registry and in-memory VFS. It
/// panics if the console device cannot be opened — the kernel cannot
/// proceed without a working stdio path for its first process.
func Bootstrap() *Kernel_t {
	fs := vfs.MkVfs()
	reg := fd.MkRegistry()
	if _, err := fs.Open(conPath, 0, 0); err != 0 {
		panic("console bootstrap failed")
	}
	return &Kernel_t{Registry: reg, Fs: fs}
}

/// NewProc constructs a fresh process with its stdio bootstrapped
/// against the console device.
func (k *Kernel_t) NewProc() *proc.Proc_t {
	con, err := k.Fs.Open(conPath, 0, 0)
	if err != 0 {
		panic("console bootstrap failed")
	}
	return proc.New(k.Registry, con)
}

/// Shutdown tears down every OpenFile_t the registry still tracks.
/// This is the only place the shared registry is ever destroyed: one
/// registry, torn down once at kernel shutdown, never per process.
func (k *Kernel_t) Shutdown() {
	k.Registry.Destroy()
}
