package ffi

import (
	"testing"

	"github.com/smoglang/gosl/pkg/value"
)

func TestClockFormatAndParseRoundTrip(t *testing.T) {
	obj, err := newClock(nil)
	if err != nil {
		t.Fatalf("newClock: %v", err)
	}
	clock := obj.(*Clock)

	ts := int64(1700000000) // fixed instant, not time.Now()
	results, err := clock.Call("Format", []value.Value{value.NewInt64(ts), value.NewString("datetime")})
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	formatted := results[0].Str().String()

	results, err = clock.Call("Parse", []value.Value{value.NewString("datetime"), value.NewString(formatted)})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := results[0].Int64(); got != ts {
		t.Fatalf("round trip: expected %d, got %d", ts, got)
	}
}

func TestClockMethodNamesListsCallableMethods(t *testing.T) {
	obj, _ := newClock(nil)
	clock := obj.(*Clock)

	names := clock.MethodNames()
	want := map[string]bool{"Now": true, "Format": true, "Parse": true}
	if len(names) != len(want) {
		t.Fatalf("expected %d method names, got %d: %v", len(want), len(names), names)
	}
	for _, n := range names {
		if !want[n] {
			t.Fatalf("unexpected method name %q", n)
		}
	}
}

func TestClockRejectsConstructionArgs(t *testing.T) {
	if _, err := newClock([]value.Value{value.NewInt(1)}); err == nil {
		t.Fatalf("expected an error for a clock constructed with arguments")
	}
}

func TestClockUnknownMethod(t *testing.T) {
	obj, _ := newClock(nil)
	clock := obj.(*Clock)

	if _, err := clock.Call("Bogus", nil); err == nil {
		t.Fatalf("expected an error for an unknown method")
	}
}
