package vm

import (
	"testing"

	"mem"
)

func TestIndexSplit(t *testing.T) {
	// construct a VA with known, independent index bits at each level.
	va := (uintptr(0x12) << l1shift) | (uintptr(0x05) << l2shift) | (uintptr(0x2a) << mem.PGSHIFT) | 0x123
	if got := idx1(va); got != 0x12 {
		t.Fatalf("idx1 = %#x, want 0x12", got)
	}
	if got := idx2(va); got != 0x05 {
		t.Fatalf("idx2 = %#x, want 0x05", got)
	}
	if got := idx3(va); got != 0x2a {
		t.Fatalf("idx3 = %#x, want 0x2a", got)
	}
}

func TestLookupUnmappedIsZero(t *testing.T) {
	root := NewL1Table()
	if got := Lookup(root, 0xdeadb000); got != 0 {
		t.Fatalf("Lookup on an empty table = %#x, want 0", got)
	}
}

func TestInsertThenLookup(t *testing.T) {
	root := NewL1Table()
	va := uintptr(0x4000)
	leaf := mem.FrameToPTE(7, mem.PTE_VALID)
	if err := Insert(root, va, leaf); err != 0 {
		t.Fatalf("Insert failed: %v", err)
	}
	if got := Lookup(root, va); got != leaf {
		t.Fatalf("Lookup = %#x, want %#x", got, leaf)
	}
	// a neighboring VA sharing the same level-1/level-2 slot but a
	// different level-3 slot must remain unmapped.
	other := va + mem.PGSIZE
	if got := Lookup(root, other); got != 0 {
		t.Fatalf("Lookup on a neighboring page = %#x, want 0", got)
	}
}

func TestWalkVisitsEveryLeaf(t *testing.T) {
	root := NewL1Table()
	vas := []uintptr{0x1000, 0x400000, 0x80000000 - mem.PGSIZE}
	for i, va := range vas {
		Insert(root, va, mem.FrameToPTE(mem.Frame_t(i+1), mem.PTE_VALID))
	}
	seen := map[mem.Pa_t]bool{}
	Walk(root, func(leaf mem.Pa_t) { seen[leaf] = true })
	if len(seen) != len(vas) {
		t.Fatalf("Walk visited %d leaves, want %d", len(seen), len(vas))
	}
}
