package ffi

import (
	"testing"

	"github.com/smoglang/gosl/pkg/value"
)

func TestFactoryCreatesRegisteredObjects(t *testing.T) {
	f := NewFactory()

	for _, name := range []string{"clock", "hash"} {
		obj, err := f.CreateByName(name, nil)
		if err != nil {
			t.Fatalf("CreateByName(%q): unexpected error %v", name, err)
		}
		if obj == nil {
			t.Fatalf("CreateByName(%q): expected a non-nil object", name)
		}
	}
}

func TestFactoryRejectsUnknownName(t *testing.T) {
	f := NewFactory()

	_, err := f.CreateByName("nonexistent", nil)
	if err == nil {
		t.Fatalf("expected an error for an unregistered name")
	}
}

func TestFactoryRegisterOverridesExisting(t *testing.T) {
	f := NewFactory()
	called := false
	f.Register("clock", func(params []value.Value) (value.ForeignBinding, error) {
		called = true
		return newClock(params)
	})

	if _, err := f.CreateByName("clock", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Fatalf("expected the overriding constructor to run")
	}
}
