// Package fd implements the open-file registry and the per-process
// descriptor table the file I/O subsystem is built on. The registry
// is a single instance constructed once and shared by every process:
// an explicit, passed-in value, never a package-level global — see
// kernel.Bootstrap.
package fd

import (
	"sync"

	"bounds"
	"defs"
	"fdops"
	"kstat"
	"limits"
	"res"
)

/// OpenFile_t wraps one backing vnode: its byte offset, open flags,
/// reference count, and a mutex serializing offset+I/O against
/// concurrent readers/writers of the same open file (shared after
/// dup2 or a fork-style Proc_t.Copy). Offset and flags are mutated
/// only while Mu is held; Refcnt is mutated by open, close, and dup2,
/// always while Mu is held too (see DESIGN.md on the close/dup2
/// refcount-locking fix).
type OpenFile_t struct {
	Mu     sync.Mutex
	Vnode  fdops.Vnode_i
	Off    int64
	Flags  int
	Refcnt int
}

/// ofnode_t is the open-file registry's intrusive list node. The
/// registry only needs forward traversal for destroy-registry, so a
/// single singly-linked chain (rather than the reference's doubly
/// linked sentinel ring) carries the same bookkeeping role.
type ofnode_t struct {
	of   *OpenFile_t
	next *ofnode_t
}

/// Of returns the node's referenced OpenFile_t, for callers (sys's
/// dup2) that need to bump its reference count directly.
func (n *ofnode_t) Of() *OpenFile_t {
	return n.of
}

/// Registry_t is the process-wide open-file registry: every
/// OpenFile_t any process has open is reachable from here, so
/// destroy-registry can account for and release every one of them.
/// Lookup by descriptor never touches this list — it exists purely
/// for orderly bookkeeping and teardown.
type Registry_t struct {
	mu   sync.Mutex
	head *ofnode_t
}

/// MkRegistry constructs an empty registry.
func MkRegistry() *Registry_t {
	return &Registry_t{}
}

/// Add installs an already-initialized OpenFile_t (Refcnt must already
/// reflect its first referent) into the registry, consulting
/// limits.Syslimit.Openfiles for the system-wide ENFILE cap. On
/// failure the caller's vnode is closed by the caller, not here — Add
/// only accounts for registry capacity.
func (r *Registry_t) Add(of *OpenFile_t) (*ofnode_t, defs.Err_t) {
	if !limits.Syslimit.Openfiles.Take() {
		return nil, -defs.ENFILE
	}
	cost := bounds.Bounds(bounds.B_FD_T_REGISTRY_ADD)
	if !res.Resadd_noblock(cost) {
		limits.Syslimit.Openfiles.Give()
		return nil, -defs.ENOHEAP
	}
	defer res.Resgive(cost)

	r.mu.Lock()
	n := &ofnode_t{of: of, next: r.head}
	r.head = n
	r.mu.Unlock()
	kstat.IncOpens()
	return n, 0
}

/// CloseNode decrements n's OpenFile_t reference count and, once it
/// reaches zero, unlinks n, closes the vnode via the VFS, and
/// releases the Openfiles limit slot.
func (r *Registry_t) CloseNode(n *ofnode_t) defs.Err_t {
	n.of.Mu.Lock()
	n.of.Refcnt--
	zero := n.of.Refcnt == 0
	n.of.Mu.Unlock()
	if !zero {
		return 0
	}

	r.mu.Lock()
	if r.head == n {
		r.head = n.next
	} else {
		for p := r.head; p != nil; p = p.next {
			if p.next == n {
				p.next = n.next
				break
			}
		}
	}
	r.mu.Unlock()

	limits.Syslimit.Openfiles.Give()
	return n.of.Vnode.Close()
}

/// Destroy closes every OpenFile_t still reachable from the registry.
/// It is meant for kernel shutdown, not per-process teardown.
func (r *Registry_t) Destroy() {
	r.mu.Lock()
	n := r.head
	r.head = nil
	r.mu.Unlock()
	for n != nil {
		next := n.next
		n.of.Vnode.Close()
		n = next
	}
}

// ---- descriptor table ----

const fullHint = -1

/// DescriptorTable_t is a process's fixed-size array of descriptors,
/// each either unbound or referencing a Registry_t node. next holds
/// either the smallest likely-free index or fullHint; it is advisory
/// only, so get-next may hand back a descriptor higher than strictly
/// necessary after an out-of-order close — this core intentionally
/// keeps that non-POSIX-minimal behavior (see DESIGN.md).
type DescriptorTable_t struct {
	mu    sync.Mutex
	slots [limits.OPEN_MAX]*ofnode_t
	next  int
}

/// MkDescriptorTable allocates a descriptor table and performs the
/// console bootstrap: slots 1 and 2 are opened write-only against con,
/// each registered in reg. Failure here is fatal — a process cannot proceed
/// without its stdio descriptors.
func MkDescriptorTable(reg *Registry_t, con fdops.Vnode_i) *DescriptorTable_t {
	dt := &DescriptorTable_t{next: 3}
	for _, slot := range [...]int{1, 2} {
		of := &OpenFile_t{Vnode: con, Flags: defs.O_WRONLY, Refcnt: 1}
		n, err := reg.Add(of)
		if err != 0 {
			panic("console bootstrap failed")
		}
		dt.slots[slot] = n
	}
	return dt
}

/// IsFull reports whether the hint has reached the full sentinel.
func (dt *DescriptorTable_t) IsFull() bool {
	dt.mu.Lock()
	defer dt.mu.Unlock()
	return dt.next == fullHint
}

/// GetNextFd returns the current hint (the allocation) and advances
/// the hint to the next unbound slot above it, or to fullHint if none
/// remains. Callers that go on to fail binding the returned slot
/// (e.g. a failed VFS open) must call UndoHint to avoid leaking the
/// advance (see DESIGN.md).
func (dt *DescriptorTable_t) GetNextFd() int {
	dt.mu.Lock()
	defer dt.mu.Unlock()
	fd := dt.next
	dt.next = dt.scanFree(fd + 1)
	return fd
}

/// UndoHint rolls the hint back to fd after a caller decided not to
/// bind the descriptor GetNextFd handed out (the slot remains
/// unbound, so a future GetNextFd may return the same value again).
func (dt *DescriptorTable_t) UndoHint(fd int) {
	dt.mu.Lock()
	defer dt.mu.Unlock()
	if dt.next == fullHint || fd < dt.next {
		dt.next = fd
	}
}

func (dt *DescriptorTable_t) scanFree(from int) int {
	for i := from; i < limits.OPEN_MAX; i++ {
		if dt.slots[i] == nil {
			return i
		}
	}
	return fullHint
}

/// Bind installs n at fd. Called once GetNextFd's slot has a vnode.
func (dt *DescriptorTable_t) Bind(fd int, n *ofnode_t) {
	dt.mu.Lock()
	dt.slots[fd] = n
	dt.mu.Unlock()
}

/// GetOpenFile returns the OpenFile_t bound at fd, or nil if unbound.
/// The caller is responsible for validating fd's range first.
func (dt *DescriptorTable_t) GetOpenFile(fd int) *OpenFile_t {
	dt.mu.Lock()
	n := dt.slots[fd]
	dt.mu.Unlock()
	if n == nil {
		return nil
	}
	return n.of
}

/// Validate reports whether fd is in range and bound.
func (dt *DescriptorTable_t) Validate(fd int) bool {
	if fd < 0 || fd >= limits.OPEN_MAX {
		return false
	}
	dt.mu.Lock()
	defer dt.mu.Unlock()
	return dt.slots[fd] != nil
}

/// Close closes fd against reg: no-op (not an error) if fd is already
/// unbound — callers that must report EBADF for an unbound fd do so
/// themselves via Validate before calling Close.
func (dt *DescriptorTable_t) Close(reg *Registry_t, fd int) defs.Err_t {
	dt.mu.Lock()
	n := dt.slots[fd]
	if n == nil {
		dt.mu.Unlock()
		return 0
	}
	dt.slots[fd] = nil
	dt.next = fd
	dt.mu.Unlock()
	return reg.CloseNode(n)
}

/// Dup2Bind aliases newfd's slot to oldfd's node directly (used by
/// sys.Sys_dup2 after it has already closed any prior occupant of
/// newfd and bumped the shared OpenFile_t's reference count). If the
/// hint pointed at newfd, it is moved on to the next unbound slot.
func (dt *DescriptorTable_t) Dup2Bind(newfd int, n *ofnode_t) {
	dt.mu.Lock()
	dt.slots[newfd] = n
	if dt.next == newfd {
		dt.next = dt.scanFree(newfd + 1)
	}
	dt.mu.Unlock()
}

/// Node returns the registry node bound at fd, for dup2's aliasing.
func (dt *DescriptorTable_t) Node(fd int) *ofnode_t {
	dt.mu.Lock()
	defer dt.mu.Unlock()
	return dt.slots[fd]
}

/// Destroy closes every bound slot.
func (dt *DescriptorTable_t) Destroy(reg *Registry_t) {
	for fd := 0; fd < limits.OPEN_MAX; fd++ {
		dt.Close(reg, fd)
	}
}

/// Copy duplicates dt's bindings into a fresh descriptor table,
/// bumping each shared OpenFile_t's reference count — the fork-style
/// descriptor copy proc.Proc_t.Copy drives.
func (dt *DescriptorTable_t) Copy() *DescriptorTable_t {
	dt.mu.Lock()
	defer dt.mu.Unlock()
	nt := &DescriptorTable_t{next: dt.next}
	for fd, n := range dt.slots {
		if n == nil {
			continue
		}
		n.of.Mu.Lock()
		n.of.Refcnt++
		n.of.Mu.Unlock()
		nt.slots[fd] = n
	}
	return nt
}
