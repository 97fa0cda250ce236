package heap

import "testing"

// TestTable_StaleKeyAfterRemove checks that a key is detected as dead once
// its slot is reused, matching the generation-checked contract §3.2 relies
// on for stable-until-teardown keys.
func TestTable_StaleKeyAfterRemove(t *testing.T) {
	tbl := NewTable[int]()
	k1 := tbl.Insert(10)
	tbl.Remove(k1)
	k2 := tbl.Insert(20)

	if _, ok := tbl.Get(k1); ok {
		t.Fatalf("removed key must be reported dead")
	}
	v, ok := tbl.Get(k2)
	if !ok || v != 20 {
		t.Fatalf("new key in reused slot must read back its own value, got %v ok=%v", v, ok)
	}
}

// TestTable_PackUnpackRoundTrips checks Key survives the Pack/Unpack round
// trip used to stash a Key inside a value.Value's narrow field.
func TestTable_PackUnpackRoundTrips(t *testing.T) {
	tbl := NewTable[string]()
	k := tbl.Insert("hello")
	packed := k.Pack()
	if got := Unpack(packed); got != k {
		t.Fatalf("Pack/Unpack round trip failed: got %v want %v", got, k)
	}
}

// TestPackage_InitedSignal covers §3.4: VarMapping cleared == inited.
func TestPackage_InitedSignal(t *testing.T) {
	p := NewPackage("main")
	p.VarMapping = map[int]int{0: 0}
	if p.Inited() {
		t.Fatalf("package with a live VarMapping must not report inited")
	}
	p.VarMapping = nil
	if !p.Inited() {
		t.Fatalf("package with VarMapping cleared must report inited")
	}
}
