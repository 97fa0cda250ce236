package ffi

import (
	"testing"

	"github.com/smoglang/gosl/pkg/value"
)

func TestHasherSha256KnownVector(t *testing.T) {
	obj, err := newHasher(nil)
	if err != nil {
		t.Fatalf("newHasher: %v", err)
	}
	hr := obj.(*Hasher)

	if _, err := hr.Call("Write", []value.Value{value.NewString("abc")}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	results, err := hr.Call("Sum", nil)
	if err != nil {
		t.Fatalf("Sum: %v", err)
	}

	const want = "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got := results[0].Str().String(); got != want {
		t.Fatalf("sha256(\"abc\"): expected %s, got %s", want, got)
	}
}

func TestHasherResetClearsState(t *testing.T) {
	obj, _ := newHasher(nil)
	hr := obj.(*Hasher)

	hr.Call("Write", []value.Value{value.NewString("abc")})
	before, _ := hr.Call("Sum", nil)

	hr.Call("Reset", nil)
	hr.Call("Write", []value.Value{value.NewString("abc")})
	after, _ := hr.Call("Sum", nil)

	if before[0].Str().String() != after[0].Str().String() {
		t.Fatalf("expected the same digest after reset+rewrite, got %s vs %s",
			before[0].Str().String(), after[0].Str().String())
	}
}

func TestHasherUnknownAlgorithm(t *testing.T) {
	if _, err := newHasher([]value.Value{value.NewString("rot13")}); err == nil {
		t.Fatalf("expected an error for an unsupported algorithm")
	}
}

func TestHasherMd5Algorithm(t *testing.T) {
	obj, err := newHasher([]value.Value{value.NewString("md5")})
	if err != nil {
		t.Fatalf("newHasher(md5): %v", err)
	}
	hr := obj.(*Hasher)

	hr.Call("Write", []value.Value{value.NewString("abc")})
	results, _ := hr.Call("Sum", nil)
	const want = "900150983cd24fb0d6963f7d28e17f72"
	if got := results[0].Str().String(); got != want {
		t.Fatalf("md5(\"abc\"): expected %s, got %s", want, got)
	}
}
