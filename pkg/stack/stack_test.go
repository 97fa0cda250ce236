package stack

import (
	"testing"

	"github.com/smoglang/gosl/pkg/value"
)

// TestPushPop_RoundTrips covers the basic push/pop contract.
func TestPushPop_RoundTrips(t *testing.T) {
	s := New()
	s.Push(value.NewInt64(1))
	s.Push(value.NewInt64(2))
	if got := s.Pop().Int64(); got != 2 {
		t.Fatalf("expected 2, got %d", got)
	}
	if got := s.Pop().Int64(); got != 1 {
		t.Fatalf("expected 1, got %d", got)
	}
}

// TestBinaryOp_PopsTwoPushesOne covers §4.2's "pops two, operates, writes
// back, discards one" contract.
func TestBinaryOp_PopsTwoPushesOne(t *testing.T) {
	s := New()
	s.Push(value.NewInt64(3))
	s.Push(value.NewInt64(4))
	s.BinaryOp(value.Add)
	if s.Len() != 1 {
		t.Fatalf("expected stack length 1 after binary op, got %d", s.Len())
	}
	if got := s.Pop().Int64(); got != 7 {
		t.Fatalf("expected 7, got %d", got)
	}
}

// TestPackVariadic_WrapsTrailingElements covers the APPEND/variadic
// packing contract of §4.2 and §9.
func TestPackVariadic_WrapsTrailingElements(t *testing.T) {
	s := New()
	s.Push(value.NewInt64(1)) // receiver-ish leading value, left alone
	base := s.Len()
	s.Push(value.NewInt64(10))
	s.Push(value.NewInt64(20))
	s.Push(value.NewInt64(30))

	s.PackVariadic(base)

	if s.Len() != base+1 {
		t.Fatalf("expected stack length %d after packing, got %d", base+1, s.Len())
	}
	packed := s.Pop()
	if packed.T != value.Slice {
		t.Fatalf("expected packed value to be a slice, got %s", packed.T)
	}
	if packed.Slc().Len() != 3 {
		t.Fatalf("expected packed slice length 3, got %d", packed.Slc().Len())
	}
	if packed.Slc().Get(1).Int64() != 20 {
		t.Fatalf("expected packed[1] == 20, got %d", packed.Slc().Get(1).Int64())
	}
}

// TestStoreVal_DirectStoreAppliesCopySemantic covers the DirectStore path.
func TestStoreVal_DirectStoreAppliesCopySemantic(t *testing.T) {
	s := New()
	s.Push(value.NewInt64(0)) // target slot
	s.Push(value.NewInt64(5)) // value to store
	got := s.StoreVal(0, DirectStore)
	if got.Int64() != 5 || s.Get(0).Int64() != 5 {
		t.Fatalf("expected target slot to hold 5, got %d", s.Get(0).Int64())
	}
}

// TestStoreVal_CompoundFusesArithmeticIntoStore covers the compound-
// assignment fusion (§4.2: "fuses compound-assignment into a single store").
func TestStoreVal_CompoundFusesArithmeticIntoStore(t *testing.T) {
	s := New()
	s.Push(value.NewInt64(10)) // target slot 0
	s.Push(value.NewInt64(3))  // rhs operand slot 1

	got := s.StoreVal(0, EncodeCompoundRHS(1, CompoundAdd))
	if got.Int64() != 13 {
		t.Fatalf("expected fused add to produce 13, got %d", got.Int64())
	}
	if s.Get(0).Int64() != 13 {
		t.Fatalf("expected target slot updated to 13, got %d", s.Get(0).Int64())
	}
}

// TestTruncate_ShrinksStack covers truncate used to reset a frame's region.
func TestTruncate_ShrinksStack(t *testing.T) {
	s := New()
	for i := 0; i < 5; i++ {
		s.Push(value.NewInt64(int64(i)))
	}
	s.Truncate(2)
	if s.Len() != 2 {
		t.Fatalf("expected length 2 after truncate, got %d", s.Len())
	}
}
