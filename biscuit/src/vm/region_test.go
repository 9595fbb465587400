package vm

import "testing"

func TestRegionLookupShadowing(t *testing.T) {
	var head *Region_t
	head = insertRegion(head, &Region_t{Base: 0x1000, Top: 0x2000, R: true})
	head = insertRegion(head, &Region_t{Base: 0x1000, Top: 0x3000, R: true, W: true})

	r := lookupRegion(head, 0x1500)
	if r == nil {
		t.Fatal("expected a match")
	}
	if !r.W {
		t.Fatal("expected the most recently inserted (head) region to win lookup")
	}
}

func TestRegionLookupMiss(t *testing.T) {
	var head *Region_t
	head = insertRegion(head, &Region_t{Base: 0x1000, Top: 0x2000})
	if lookupRegion(head, 0x5000) != nil {
		t.Fatal("expected no match outside any region")
	}
}

func TestCloneRegionsPreservesOrderAndIsDisjoint(t *testing.T) {
	var head *Region_t
	head = insertRegion(head, &Region_t{Base: 0, Top: 0x1000, R: true})
	head = insertRegion(head, &Region_t{Base: 0x1000, Top: 0x2000, W: true})
	head = insertRegion(head, &Region_t{Base: 0x2000, Top: 0x3000, X: true})

	clone := cloneRegions(head)

	var srcOrder, dstOrder []uintptr
	for r := head; r != nil; r = r.Next {
		srcOrder = append(srcOrder, r.Base)
	}
	for r := clone; r != nil; r = r.Next {
		dstOrder = append(dstOrder, r.Base)
	}
	if len(srcOrder) != len(dstOrder) {
		t.Fatalf("got %d cloned regions, want %d", len(dstOrder), len(srcOrder))
	}
	for i := range srcOrder {
		if srcOrder[i] != dstOrder[i] {
			t.Fatalf("clone order mismatch at %d: got %#x want %#x", i, dstOrder[i], srcOrder[i])
		}
	}

	// mutating the clone must not affect the source.
	clone.W = !clone.W
	if head.W == clone.W {
		t.Fatal("clone shares storage with the source region")
	}
}
