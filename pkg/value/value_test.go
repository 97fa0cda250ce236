package value

import (
	"hash/maphash"
	"testing"
)

// TestCopySemantic_PrimitiveIsIdentity checks that copying a
// primitive-copyable value produces something equal that aliases nothing
// (trivially true: there is nothing to alias) — §8.1.
func TestCopySemantic_PrimitiveIsIdentity(t *testing.T) {
	a := NewInt64(42)
	b := a.Copy()
	if !a.Equal(b) {
		t.Fatalf("copy of primitive must be equal to original")
	}
}

// TestCopySemantic_ArrayDeepCopies checks that copying an array produces a
// value that compares equal but aliases no element with the source — §8.1.
func TestCopySemantic_ArrayDeepCopies(t *testing.T) {
	a := NewArray([]Value{NewInt64(1), NewInt64(2)})
	b := a.Copy()

	if !a.Equal(b) {
		t.Fatalf("copied array must compare equal to original")
	}

	b.Arr().Set(0, NewInt64(99))
	if a.Arr().Get(0).Int64() != 1 {
		t.Fatalf("mutating the copy must not affect the original, got %d", a.Arr().Get(0).Int64())
	}
}

// TestCopySemantic_SliceShallowAliases checks that copying a slice aliases
// the same backing storage (reference-shared, not deep-copied) — §3.1.
func TestCopySemantic_SliceShallowAliases(t *testing.T) {
	s := MakeSlice(2, 2, NewInt64(0))
	s.Slc().Set(0, NewInt64(7))
	c := s.Copy()
	c.Slc().Set(1, NewInt64(8))
	if s.Slc().Get(1).Int64() != 8 {
		t.Fatalf("slice copy must alias the same backing storage")
	}
}

// TestTypedNil_DifferentCategoriesNeverEqual covers §3.1's typed-nil rule.
func TestTypedNil_DifferentCategoriesNeverEqual(t *testing.T) {
	nilSlice := Value{T: Slice}
	nilMap := Value{T: Map}
	if nilSlice.T == nilMap.T {
		t.Fatalf("test setup invalid")
	}
	// Equality across categories is always false, regardless of nilness,
	// even before reaching the uncomparable-type trap (different T).
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("comparing differently-typed nils must not panic: %v", r)
		}
	}()
	if nilSlice.Equal(nilMap) {
		t.Fatalf("typed nils of different categories must not be equal")
	}
}

// TestEquality_MapComparisonTraps covers the required trap for comparing
// reference-shared Map values (§4.1, §9 Open Question resolution).
func TestEquality_MapComparisonTraps(t *testing.T) {
	m1 := NewMap(NewNil())
	m2 := NewMap(NewNil())
	defer func() {
		if recover() == nil {
			t.Fatalf("comparing two maps must panic")
		}
	}()
	m1.Equal(m2)
}

// TestNamedWrapping_PreservesIdentityAcrossArithmetic covers §3.1's Named
// wrapping rule and §9's "unwrap, operate, rewrap" design note.
func TestNamedWrapping_PreservesIdentityAcrossArithmetic(t *testing.T) {
	const metaKey = 7
	a := NewNamed(metaKey, NewInt64(3))
	b := NewNamed(metaKey, NewInt64(4))
	sum := Add(a, b)
	if sum.T != Named {
		t.Fatalf("sum of two named values must remain Named, got %s", sum.T)
	}
	if sum.R.(NamedRef).MetaKey != metaKey {
		t.Fatalf("sum must preserve the declared type's metadata key")
	}
	if sum.Unwrap().Int64() != 7 {
		t.Fatalf("sum's underlying value must be 7, got %d", sum.Unwrap().Int64())
	}
}

// TestShift_BoundaryBehavior covers §8.3: shift by >= bit-width zeroes for
// unsigned, arithmetic-fills for signed right shift.
func TestShift_BoundaryBehavior(t *testing.T) {
	u := NewUint8(0xFF)
	if got := Shr(u, NewInt(8)).Uint8(); got != 0 {
		t.Fatalf("unsigned shift by >= width must zero, got %d", got)
	}

	neg := NewInt8(-1)
	if got := Shr(neg, NewInt(8)).Int8(); got != -1 {
		t.Fatalf("signed right shift by >= width must arithmetic-fill to -1, got %d", got)
	}
}

// TestHashing_EqualValuesHashEqual covers the §8.2 round-trip law.
func TestHashing_EqualValuesHashEqual(t *testing.T) {
	seed := maphash.MakeSeed()
	a := NewStruct(1, []Value{NewInt64(1), NewString("x")})
	b := NewStruct(1, []Value{NewInt64(1), NewString("x")})
	if !a.Equal(b) {
		t.Fatalf("structs with equal fields must be equal")
	}
	if a.Hash(seed) != b.Hash(seed) {
		t.Fatalf("equal values must hash equal")
	}
}

// TestComplexRoundTrip covers §8.2: REAL(COMPLEX(a,b))==a, IMAG(...)==b.
func TestComplexRoundTrip(t *testing.T) {
	c := NewComplex128(complex(3.5, -2.25))
	if real(c.Complex128()) != 3.5 || imag(c.Complex128()) != -2.25 {
		t.Fatalf("complex round trip failed: %v", c.Complex128())
	}
}
