package vm

import (
	"testing"

	"defs"
	"mem"
)

func TestDefineRegionNilAddrspace(t *testing.T) {
	if err := DefineRegion(nil, 0, mem.PGSIZE, true, true, false); err != -defs.EFAULT {
		t.Fatalf("got %v, want EFAULT", err)
	}
}

func TestDefineRegionOutOfRange(t *testing.T) {
	as := As_create()
	if err := DefineRegion(as, Uservm_top-mem.PGSIZE, 2*mem.PGSIZE, true, true, false); err != -defs.ENOMEM {
		t.Fatalf("got %v, want ENOMEM", err)
	}
}

func TestDefineStackAnchorsAtTop(t *testing.T) {
	as := As_create()
	sp, err := DefineStack(as)
	if err != 0 {
		t.Fatalf("DefineStack failed: %v", err)
	}
	if sp != Uservm_top {
		t.Fatalf("stack pointer = %#x, want %#x", sp, Uservm_top)
	}
	r := lookupRegion(as.Regions, Uservm_top-1)
	if r == nil || !r.W || r.X {
		t.Fatal("expected a writable, non-executable region anchored at the top of user space")
	}
}

func TestAsCopyIsFrameDisjoint(t *testing.T) {
	src := As_create()
	if err := DefineRegion(src, 0, mem.PGSIZE, true, true, false); err != 0 {
		t.Fatalf("DefineRegion failed: %v", err)
	}
	if err := Fault(src, 0, FaultWrite); err != 0 {
		t.Fatalf("Fault failed: %v", err)
	}

	srcPte := Lookup(src.Root, 0)
	srcFrame := mem.PTEToFrame(srcPte)
	mem.Physmem.Frame(srcFrame)[0] = 0x42

	dst, err := As_copy(src)
	if err != 0 {
		t.Fatalf("As_copy failed: %v", err)
	}
	defer As_destroy(dst)
	defer As_destroy(src)

	dstPte := Lookup(dst.Root, 0)
	dstFrame := mem.PTEToFrame(dstPte)
	if dstFrame == srcFrame {
		t.Fatal("As_copy must allocate a disjoint frame, not alias the source's")
	}
	if mem.Physmem.Frame(dstFrame)[0] != 0x42 {
		t.Fatal("As_copy must duplicate the source frame's contents")
	}

	// writing through the child must not affect the parent.
	mem.Physmem.Frame(dstFrame)[0] = 0x99
	if mem.Physmem.Frame(srcFrame)[0] != 0x42 {
		t.Fatal("child and parent frames must not alias")
	}
}

func TestAsActivateDeactivateFlushTlb(t *testing.T) {
	as := As_create()
	as.Tlb.tlb_write(1, 0x1000, 0)
	As_activate(as)
	if _, ok := as.Tlb.lookup(1); ok {
		t.Fatal("As_activate must flush the TLB")
	}
	as.Tlb.tlb_write(1, 0x1000, 0)
	As_deactivate(as)
	if _, ok := as.Tlb.lookup(1); ok {
		t.Fatal("As_deactivate must flush the TLB")
	}
}

func TestLockPmapAssert(t *testing.T) {
	as := As_create()
	defer func() {
		if recover() == nil {
			t.Fatal("expected Lockassert_pmap to panic without the lock held")
		}
	}()
	as.Lockassert_pmap()
}
