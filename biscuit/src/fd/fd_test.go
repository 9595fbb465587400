package fd

import (
	"testing"

	"defs"
	"fdops"
	"limits"
	"stat"
)

type fakeVnode struct {
	closed   bool
	seekable bool
}

func (v *fakeVnode) Read(dst fdops.Userio_i, offset int) (int, defs.Err_t)  { return 0, 0 }
func (v *fakeVnode) Write(src fdops.Userio_i, offset int) (int, defs.Err_t) { return 0, 0 }
func (v *fakeVnode) Stat() (stat.Stat_t, defs.Err_t)                        { return stat.Stat_t{}, 0 }
func (v *fakeVnode) Seekable() bool                                        { return v.seekable }
func (v *fakeVnode) Close() defs.Err_t {
	v.closed = true
	return 0
}

func TestRegistryAddCloseRefcounting(t *testing.T) {
	reg := MkRegistry()
	vn := &fakeVnode{}
	of := &OpenFile_t{Vnode: vn, Refcnt: 2}
	n, err := reg.Add(of)
	if err != 0 {
		t.Fatalf("Add failed: %v", err)
	}

	if err := reg.CloseNode(n); err != 0 {
		t.Fatalf("first CloseNode failed: %v", err)
	}
	if vn.closed {
		t.Fatal("vnode closed before refcount reached zero")
	}
	if err := reg.CloseNode(n); err != 0 {
		t.Fatalf("second CloseNode failed: %v", err)
	}
	if !vn.closed {
		t.Fatal("expected the vnode to be closed once refcount hit zero")
	}
}

func TestRegistryAddRespectsOpenfilesLimit(t *testing.T) {
	reg := MkRegistry()
	saved := limits.Syslimit.Openfiles
	limits.Syslimit.Openfiles = 1
	defer func() { limits.Syslimit.Openfiles = saved }()

	vn1 := &fakeVnode{}
	if _, err := reg.Add(&OpenFile_t{Vnode: vn1, Refcnt: 1}); err != 0 {
		t.Fatalf("first Add failed: %v", err)
	}
	vn2 := &fakeVnode{}
	if _, err := reg.Add(&OpenFile_t{Vnode: vn2, Refcnt: 1}); err != -defs.ENFILE {
		t.Fatalf("got %v, want ENFILE", err)
	}
}

func TestRegistryDestroyClosesEverything(t *testing.T) {
	reg := MkRegistry()
	vns := []*fakeVnode{{}, {}, {}}
	for _, vn := range vns {
		if _, err := reg.Add(&OpenFile_t{Vnode: vn, Refcnt: 1}); err != 0 {
			t.Fatalf("Add failed: %v", err)
		}
	}
	reg.Destroy()
	for i, vn := range vns {
		if !vn.closed {
			t.Fatalf("vnode %d not closed by Destroy", i)
		}
	}
}

func TestDescriptorTableConsoleBootstrap(t *testing.T) {
	reg := MkRegistry()
	con := &fakeVnode{}
	dt := MkDescriptorTable(reg, con)

	if !dt.Validate(1) || !dt.Validate(2) {
		t.Fatal("expected slots 1 and 2 to be bound after bootstrap")
	}
	of := dt.GetOpenFile(1)
	if of == nil || of.Flags != defs.O_WRONLY {
		t.Fatal("expected stdio slot bound write-only against the console vnode")
	}
	if fd := dt.GetNextFd(); fd != 3 {
		t.Fatalf("GetNextFd = %d, want 3 (slots 0,1,2 reserved)", fd)
	}
}

func TestGetNextFdAdvanceAndUndo(t *testing.T) {
	dt := &DescriptorTable_t{next: 0}
	fd := dt.GetNextFd()
	if fd != 0 {
		t.Fatalf("GetNextFd = %d, want 0", fd)
	}
	// caller decides not to bind it (e.g. a failed vfs open).
	dt.UndoHint(fd)
	fd2 := dt.GetNextFd()
	if fd2 != 0 {
		t.Fatalf("GetNextFd after UndoHint = %d, want 0 again", fd2)
	}

	dt.Bind(fd2, &ofnode_t{of: &OpenFile_t{}})
	fd3 := dt.GetNextFd()
	if fd3 != 1 {
		t.Fatalf("GetNextFd after Bind = %d, want 1", fd3)
	}
}

func TestGetNextFdExhaustionReachesFullHint(t *testing.T) {
	dt := &DescriptorTable_t{next: 0}
	for i := 0; i < limits.OPEN_MAX; i++ {
		fd := dt.GetNextFd()
		dt.Bind(fd, &ofnode_t{of: &OpenFile_t{}})
	}
	if !dt.IsFull() {
		t.Fatal("expected the descriptor table to report full once every slot is bound")
	}
}

func TestDescriptorTableCloseUnbindsAndRewindsHint(t *testing.T) {
	reg := MkRegistry()
	vn := &fakeVnode{}
	dt := &DescriptorTable_t{next: 5}
	n, err := reg.Add(&OpenFile_t{Vnode: vn, Refcnt: 1})
	if err != 0 {
		t.Fatalf("Add failed: %v", err)
	}
	dt.Bind(2, n)

	if err := dt.Close(reg, 2); err != 0 {
		t.Fatalf("Close failed: %v", err)
	}
	if dt.Validate(2) {
		t.Fatal("expected fd 2 to be unbound after Close")
	}
	if !vn.closed {
		t.Fatal("expected the backing vnode to be closed once refcount hit zero")
	}
	if got := dt.GetNextFd(); got != 2 {
		t.Fatalf("hint = %d, want 2 (Close should rewind a hint above the freed slot)", got)
	}
}

func TestDescriptorTableCloseUnboundIsNoop(t *testing.T) {
	dt := &DescriptorTable_t{next: 3}
	if err := dt.Close(MkRegistry(), 10); err != 0 {
		t.Fatalf("Close on an unbound fd = %v, want 0", err)
	}
}

func TestDescriptorTableCopyBumpsRefcount(t *testing.T) {
	reg := MkRegistry()
	vn := &fakeVnode{}
	of := &OpenFile_t{Vnode: vn, Refcnt: 1}
	n, err := reg.Add(of)
	if err != 0 {
		t.Fatalf("Add failed: %v", err)
	}
	dt := &DescriptorTable_t{next: 4}
	dt.Bind(3, n)

	copied := dt.Copy()
	if of.Refcnt != 2 {
		t.Fatalf("Refcnt = %d, want 2 after Copy", of.Refcnt)
	}
	if copied.GetOpenFile(3) != of {
		t.Fatal("expected the copy to alias the same OpenFile_t")
	}

	// closing one table's reference must not close the shared vnode.
	if err := dt.Close(reg, 3); err != 0 {
		t.Fatalf("Close failed: %v", err)
	}
	if vn.closed {
		t.Fatal("vnode closed while the copy still references it")
	}
	if err := copied.Close(reg, 3); err != 0 {
		t.Fatalf("Close on the copy failed: %v", err)
	}
	if !vn.closed {
		t.Fatal("expected the vnode to close once both tables released it")
	}
}

func TestDescriptorTableDestroyClosesAllBound(t *testing.T) {
	reg := MkRegistry()
	dt := &DescriptorTable_t{next: 0}
	vns := make([]*fakeVnode, 3)
	for i := range vns {
		vns[i] = &fakeVnode{}
		n, err := reg.Add(&OpenFile_t{Vnode: vns[i], Refcnt: 1})
		if err != 0 {
			t.Fatalf("Add failed: %v", err)
		}
		dt.Bind(i, n)
	}
	dt.Destroy(reg)
	for i, vn := range vns {
		if !vn.closed {
			t.Fatalf("vnode %d not closed by Destroy", i)
		}
		if dt.Validate(i) {
			t.Fatalf("slot %d still validates bound after Destroy", i)
		}
	}
}
