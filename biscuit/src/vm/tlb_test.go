package vm

import "testing"

func TestTlbWriteLookup(t *testing.T) {
	tlb := &Tlb_t{}
	tlb.tlb_write(42, 0xabc000, 3)
	pte, ok := tlb.lookup(42)
	if !ok || pte != 0xabc000 {
		t.Fatalf("lookup = (%#x, %v), want (0xabc000, true)", pte, ok)
	}
}

func TestTlbRandomWrapsRoundRobin(t *testing.T) {
	tlb := &Tlb_t{}
	for i := 0; i < ntlb+1; i++ {
		tlb.tlb_random(uintptr(i), 0)
	}
	// the entry written first (vpn 0) should have been evicted by the
	// (ntlb+1)-th call wrapping back around to slot 0.
	if _, ok := tlb.lookup(0); ok {
		t.Fatal("expected vpn 0's entry to have been evicted by round-robin wraparound")
	}
	if _, ok := tlb.lookup(ntlb); !ok {
		t.Fatal("expected the most recently written entry to still be present")
	}
}

func TestTlbFlush(t *testing.T) {
	tlb := &Tlb_t{}
	tlb.tlb_write(1, 0x1000, 0)
	tlb.Flush()
	if _, ok := tlb.lookup(1); ok {
		t.Fatal("expected Flush to invalidate every entry")
	}
}

func TestTlbShootdownPanics(t *testing.T) {
	tlb := &Tlb_t{}
	defer func() {
		if recover() == nil {
			t.Fatal("expected Shootdown to panic")
		}
	}()
	tlb.Shootdown(0, 1)
}
