// Package proc ties one process's descriptor table, address space,
// and accounting together, and implements the fork-style copy a new
// child process needs: duplicate descriptors (bumping shared
// OpenFile_t reference counts) and deep-copy the address space.
package proc

import (
	"accnt"
	"defs"
	"fd"
	"fdops"
	"vm"
)

/// Proc_t is a process's share of the two subsystems this core
/// implements: its descriptor table, its address space, and its
/// accounting record. Nothing here owns scheduling, signals, or any
/// of the other process-structure fields a full kernel would carry.
type Proc_t struct {
	Fdtable *fd.DescriptorTable_t
	Vm      *vm.As_t
	Accnt   *accnt.Accnt_t
}

/// New constructs a fresh process sharing reg's open-file accounting,
/// with its stdio descriptors bootstrapped against con and a brand
/// new, empty address space. The address space's Accnt is pointed at
/// the process's own accounting record, so vm.Fault can charge the
/// time it spends resolving this process's TLB misses as system time.
func New(reg *fd.Registry_t, con fdops.Vnode_i) *Proc_t {
	p := &Proc_t{
		Fdtable: fd.MkDescriptorTable(reg, con),
		Vm:      vm.As_create(),
		Accnt:   &accnt.Accnt_t{},
	}
	p.Vm.Accnt = p.Accnt
	return p
}

/// Copy produces a fork-style child of p: every bound descriptor is
/// aliased into the child's table with its shared OpenFile_t's
/// reference count bumped, and the address space is deep-copied via
/// vm.As_copy, leaving the child's frames disjoint from the parent's.
/// The child starts with a fresh accounting record rather than
/// inheriting the parent's accumulated usage; the copy itself is
/// charged to the parent as system time, bracketed the same way a
/// syscall entry/exit pair would charge kernel-side work.
func (p *Proc_t) Copy() (*Proc_t, defs.Err_t) {
	start := p.Accnt.Now()
	childvm, err := vm.As_copy(p.Vm)
	p.Accnt.Finish(start)
	if err != 0 {
		return nil, err
	}
	child := &Proc_t{
		Fdtable: p.Fdtable.Copy(),
		Vm:      childvm,
		Accnt:   &accnt.Accnt_t{},
	}
	child.Vm.Accnt = child.Accnt
	return child, 0
}

/// Reap merges a reaped child's accumulated accounting into p's own,
/// the same rusage-of-children roll-up a wait4 implementation would
/// perform on a child's exit.
func (p *Proc_t) Reap(child *Proc_t) {
	p.Accnt.Add(child.Accnt)
}

/// Rusage encodes p's current accounting as a wire-format rusage
/// buffer, ready to be copied out to a caller.
func (p *Proc_t) Rusage() []uint8 {
	return p.Accnt.Fetch()
}
