package ramprobe

import "testing"

const pgsz = 1 << 12

func TestInitAndGetSize(t *testing.T) {
	ResetForTest(0x1000, 0x1000+8*pgsz)
	lo, hi := GetSize()
	if lo != 0x1000 || hi != 0x1000+8*pgsz {
		t.Fatalf("GetSize() = (%#x, %#x), want (0x1000, %#x)", lo, hi, 0x1000+8*pgsz)
	}
}

func TestStealMemHandsOutFromTheTopDownward(t *testing.T) {
	ResetForTest(0x1000, 0x1000+4*pgsz)
	first := StealMem(1)
	second := StealMem(1)
	if first != 0x1000+3*pgsz {
		t.Fatalf("first StealMem(1) = %#x, want %#x", first, 0x1000+3*pgsz)
	}
	if second != 0x1000+2*pgsz {
		t.Fatalf("second StealMem(1) = %#x, want %#x", second, 0x1000+2*pgsz)
	}
}

func TestStealMemExhaustionReturnsZero(t *testing.T) {
	ResetForTest(0x1000, 0x1000+1*pgsz)
	if p := StealMem(2); p != 0 {
		t.Fatalf("StealMem(2) over a 1-page range = %#x, want 0", p)
	}
}

func TestBytesIndexesTheBackingArena(t *testing.T) {
	ResetForTest(0x2000, 0x2000+2*pgsz)
	b := Bytes(0x2000, pgsz)
	if len(b) != pgsz {
		t.Fatalf("len(Bytes(...)) = %d, want %d", len(b), pgsz)
	}
	b[0] = 0xab
	b2 := Bytes(0x2000, 1)
	if b2[0] != 0xab {
		t.Fatal("writes through one Bytes slice should be visible through another over the same range")
	}
}

func TestInitPanicsOnMisalignedRange(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("Init with a misaligned bound should panic")
		}
	}()
	ResetForTest(0x1001, 0x1001+pgsz)
}
